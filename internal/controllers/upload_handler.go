package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sanidhyy/yt-clone/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

const (
	maxUploadRequestBytes = 8 << 20
	uploadFormField       = "file"
)

// UploadHandler 处理封面与横幅的 multipart 上传。
type UploadHandler struct {
	*BaseHandler
	viewer  *services.ViewerService
	uploads *services.UploadService
}

// NewUploadHandler 构造 UploadHandler。
func NewUploadHandler(base *BaseHandler, svc *Services) *UploadHandler {
	return &UploadHandler{BaseHandler: base, viewer: svc.Viewer, uploads: svc.Uploads}
}

func (h *UploadHandler) register(srv *khttp.Server) {
	r := srv.Route("/api/uploads")
	r.POST("/thumbnail/{videoId}", h.thumbnail)
	r.POST("/banner", h.banner)
}

func (h *UploadHandler) thumbnail(ctx khttp.Context) error {
	khttp.SetOperation(ctx, "/api/uploads/thumbnail")
	videoID, err := uuid.Parse(ctx.Vars().Get("videoId"))
	if err != nil {
		return h.reply(ctx, nil, services.ErrVideoNotFound)
	}
	return h.upload(ctx, func(c context.Context, in services.ImageUpload) (any, error) {
		return h.uploads.UploadThumbnail(c, videoID, in)
	})
}

func (h *UploadHandler) banner(ctx khttp.Context) error {
	khttp.SetOperation(ctx, "/api/uploads/banner")
	return h.upload(ctx, func(c context.Context, in services.ImageUpload) (any, error) {
		return h.uploads.UploadBanner(c, in)
	})
}

// upload 先鉴权再读取文件，鉴权失败时不消费请求体。
func (h *UploadHandler) upload(ctx khttp.Context, fn func(context.Context, services.ImageUpload) (any, error)) error {
	run := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		user, err := h.viewer.Require(c)
		if err != nil {
			return nil, err
		}
		req := ctx.Request()
		req.Body = http.MaxBytesReader(ctx.Response(), req.Body, maxUploadRequestBytes)
		if err := req.ParseMultipartForm(maxUploadRequestBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, services.ErrFileTooLarge
			}
			return nil, services.ErrMissingFile
		}
		defer func() { _ = req.MultipartForm.RemoveAll() }()
		file, header, err := req.FormFile(uploadFormField)
		if err != nil {
			return nil, services.ErrMissingFile
		}
		defer file.Close()

		timeoutCtx, cancel := h.WithTimeout(c, HandlerTypeCommand)
		defer cancel()
		return fn(timeoutCtx, services.ImageUpload{
			UserID:      user.ID,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
	})
	out, err := run(ctx, nil)
	return h.reply(ctx, out, err)
}

func (h *UploadHandler) reply(ctx khttp.Context, out any, err error) error {
	if err != nil {
		rpcErr := toRPCError("", err)
		if rpcErr.HTTPStatus >= http.StatusInternalServerError {
			h.log.WithContext(ctx).Errorf("upload failed: %v", err)
		}
		return ctx.JSON(rpcErr.HTTPStatus, RPCResponse{Error: rpcErr})
	}
	return ctx.JSON(http.StatusOK, RPCResponse{Result: out})
}
