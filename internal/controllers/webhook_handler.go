package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/webhook"
	"github.com/sanidhyy/yt-clone/internal/services"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const maxWebhookBytes = 1 << 20

// WebhookHandler 接收身份平台与视频平台的回调。签名校验失败时不做任何变更。
type WebhookHandler struct {
	*BaseHandler
	identityVerifier webhook.Verifier
	videoVerifier    webhook.Verifier
	identityEvents   *services.IdentityEventService
	videoEvents      *services.VideoEventService
}

// NewWebhookHandler 构造 WebhookHandler。未配置密钥的回调一律拒绝。
func NewWebhookHandler(base *BaseHandler, secrets WebhookSecrets, identityEvents *services.IdentityEventService, videoEvents *services.VideoEventService) *WebhookHandler {
	h := &WebhookHandler{
		BaseHandler:      base,
		identityVerifier: webhook.Noop{},
		videoVerifier:    webhook.Noop{},
		identityEvents:   identityEvents,
		videoEvents:      videoEvents,
	}
	if v, err := webhook.NewSvixVerifier(secrets.Identity); err == nil {
		h.identityVerifier = v
	} else {
		h.log.Warnf("identity webhook disabled: %v", err)
	}
	if v, err := webhook.NewHMACVerifier(secrets.Video, secrets.Tolerance); err == nil {
		h.videoVerifier = v
	} else {
		h.log.Warnf("video webhook disabled: %v", err)
	}
	return h
}

// WithVerifiers 替换签名校验实现。
func (h *WebhookHandler) WithVerifiers(identity, video webhook.Verifier) *WebhookHandler {
	if identity != nil {
		h.identityVerifier = identity
	}
	if video != nil {
		h.videoVerifier = video
	}
	return h
}

func (h *WebhookHandler) register(srv *khttp.Server) {
	r := srv.Route("/api")
	r.POST("/users/webhook", h.identity)
	r.POST("/videos/webhook", h.video)
}

func (h *WebhookHandler) identity(ctx khttp.Context) error {
	khttp.SetOperation(ctx, "/api/users/webhook")
	payload, err := h.readVerified(ctx, h.identityVerifier)
	if err != nil {
		h.log.WithContext(ctx).Warnf("identity webhook rejected: %v", err)
		return ctx.String(http.StatusBadRequest, "Error verifying webhook!")
	}
	var evt services.IdentityEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid payload!")
	}
	return h.handle(ctx, "identity", func(c context.Context) error {
		return h.identityEvents.Handle(c, evt)
	})
}

func (h *WebhookHandler) video(ctx khttp.Context) error {
	khttp.SetOperation(ctx, "/api/videos/webhook")
	payload, err := h.readVerified(ctx, h.videoVerifier)
	if err != nil {
		h.log.WithContext(ctx).Warnf("video webhook rejected: %v", err)
		if errors.Is(err, webhook.ErrMissingSignature) {
			return ctx.String(http.StatusBadRequest, "No signature found!")
		}
		return ctx.String(http.StatusBadRequest, "Failed to verify signature!")
	}
	var evt services.VideoEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid payload!")
	}
	return h.handle(ctx, "video", func(c context.Context) error {
		return h.videoEvents.Handle(c, evt)
	})
}

func (h *WebhookHandler) readVerified(ctx khttp.Context, verifier webhook.Verifier) ([]byte, error) {
	req := ctx.Request()
	payload, err := io.ReadAll(http.MaxBytesReader(ctx.Response(), req.Body, maxWebhookBytes))
	if err != nil {
		return nil, err
	}
	if err := verifier.Verify(payload, req.Header); err != nil {
		return nil, err
	}
	return payload, nil
}

// handle 经中间件链执行回调处理，并把错误映射为文本响应。
func (h *WebhookHandler) handle(ctx khttp.Context, source string, fn func(context.Context) error) error {
	run := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		timeoutCtx, cancel := h.WithTimeout(c, HandlerTypeCommand)
		defer cancel()
		return nil, fn(timeoutCtx)
	})
	if _, err := run(ctx, nil); err != nil {
		e := kerrors.FromError(err)
		if e.Reason != "" && int(e.Code) < http.StatusInternalServerError {
			return ctx.String(int(e.Code), e.Message)
		}
		h.log.WithContext(ctx).Errorf("%s webhook failed: %v", source, err)
		return ctx.String(http.StatusInternalServerError, "Internal server error!")
	}
	return ctx.String(http.StatusOK, "Webhook received")
}
