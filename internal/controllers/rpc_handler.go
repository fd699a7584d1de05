package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sanidhyy/yt-clone/internal/metadata"
	"github.com/sanidhyy/yt-clone/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"golang.org/x/sync/errgroup"
)

const (
	maxRPCBodyBytes   = 1 << 20
	batchConcurrency  = 8
	reasonNoProcedure = "NOT_FOUND"
	reasonBadMethod   = "METHOD_NOT_SUPPORTED"
)

// RPCHandler 暴露过程调用入口：
//
//	POST /api/rpc/{procedure}           单次调用，请求体为输入
//	GET  /api/rpc/{procedure}?input=... 仅限查询
//	POST /api/rpc                       批量调用 [{"id","path","input"}]
type RPCHandler struct {
	*BaseHandler
	viewer   *services.ViewerService
	registry *registry
	metrics  *RPCMetrics
}

// NewRPCHandler 构造 RPCHandler 并登记全部过程。
func NewRPCHandler(base *BaseHandler, svc *Services, metrics *RPCMetrics) *RPCHandler {
	reg := newRegistry()
	registerProcedures(reg, svc, base)
	return &RPCHandler{BaseHandler: base, viewer: svc.Viewer, registry: reg, metrics: metrics}
}

// RPCResponse 为单个过程的响应，Result 与 Error 互斥。
type RPCResponse struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCRequest 为批量调用中的一项。
type RPCRequest struct {
	ID    json.RawMessage `json:"id,omitempty"`
	Path  string          `json:"path"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Procedures 返回已登记的过程名，顺序不定。
func (h *RPCHandler) Procedures() []string {
	return h.registry.names()
}

func (h *RPCHandler) register(srv *khttp.Server) {
	r := srv.Route("/api")
	r.POST("/rpc", h.batch)
	r.POST("/rpc/{procedure}", h.single)
	r.GET("/rpc/{procedure}", h.single)
}

func (h *RPCHandler) single(ctx khttp.Context) error {
	req := ctx.Request()
	name := ctx.Vars().Get("procedure")
	khttp.SetOperation(ctx, "/api/rpc/"+name)

	var raw json.RawMessage
	if req.Method == http.MethodGet {
		if input := req.URL.Query().Get("input"); input != "" {
			raw = json.RawMessage(input)
		}
	} else {
		body, err := io.ReadAll(http.MaxBytesReader(ctx.Response(), req.Body, maxRPCBodyBytes))
		if err != nil {
			return h.write(ctx, nil, http.StatusBadRequest, RPCResponse{Error: badInput(name, err)})
		}
		raw = body
	}

	eff := &effects{}
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return h.dispatch(c, req.Method, name, raw, eff), nil
	})
	out, err := handler(ctx, nil)
	resp, _ := out.(RPCResponse)
	if err != nil {
		resp = RPCResponse{Error: toRPCError(name, err)}
	}
	status := http.StatusOK
	if resp.Error != nil {
		status = resp.Error.HTTPStatus
	}
	return h.write(ctx, eff, status, resp)
}

func (h *RPCHandler) batch(ctx khttp.Context) error {
	khttp.SetOperation(ctx, "/api/rpc")
	body, err := io.ReadAll(http.MaxBytesReader(ctx.Response(), ctx.Request().Body, maxRPCBodyBytes))
	if err != nil {
		return h.write(ctx, nil, http.StatusBadRequest, RPCResponse{Error: badInput("", err)})
	}
	var calls []RPCRequest
	if err := json.Unmarshal(body, &calls); err != nil {
		return h.write(ctx, nil, http.StatusBadRequest, RPCResponse{Error: badInput("", err)})
	}
	if len(calls) == 0 || len(calls) > h.rpc.MaxBatchSize {
		return h.write(ctx, nil, http.StatusBadRequest, RPCResponse{Error: &RPCError{
			Code:       services.ReasonBadRequest,
			Message:    fmt.Sprintf("Batch must contain between 1 and %d calls!", h.rpc.MaxBatchSize),
			HTTPStatus: http.StatusBadRequest,
		}})
	}
	h.metrics.observeBatch(len(calls))

	eff := &effects{}
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		results := make([]RPCResponse, len(calls))
		var g errgroup.Group
		g.SetLimit(batchConcurrency)
		for i, call := range calls {
			g.Go(func() error {
				results[i] = h.dispatch(c, http.MethodPost, call.Path, call.Input, eff)
				results[i].ID = call.ID
				return nil
			})
		}
		_ = g.Wait()
		return results, nil
	})
	out, err := handler(ctx, nil)
	if err != nil {
		return h.write(ctx, nil, http.StatusInternalServerError, RPCResponse{Error: toRPCError("", err)})
	}
	results, _ := out.([]RPCResponse)
	status := http.StatusOK
	for _, res := range results {
		if res.Error != nil {
			status = http.StatusMultiStatus
			break
		}
	}
	return h.write(ctx, eff, status, results)
}

// dispatch 执行单个过程：查找、方法检查、调用方解析、超时控制与错误映射。
func (h *RPCHandler) dispatch(ctx context.Context, method, name string, raw json.RawMessage, eff *effects) (resp RPCResponse) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			h.log.WithContext(ctx).Errorf("rpc panic: procedure=%s panic=%v", name, rec)
			resp = RPCResponse{Error: toRPCError(name, fmt.Errorf("panic: %v", rec))}
		}
		h.metrics.observe(name, started, resp.Error)
	}()

	proc, ok := h.registry.lookup(name)
	if !ok {
		return RPCResponse{Error: &RPCError{
			Code:       reasonNoProcedure,
			Message:    fmt.Sprintf("No procedure found on path %q", name),
			HTTPStatus: http.StatusNotFound,
			Path:       name,
		}}
	}
	if method == http.MethodGet && proc.kind != HandlerTypeQuery {
		return RPCResponse{Error: &RPCError{
			Code:       reasonBadMethod,
			Message:    "Mutations must be sent with POST!",
			HTTPStatus: http.StatusMethodNotAllowed,
			Path:       name,
		}}
	}

	meta, _ := metadata.FromContext(ctx)
	call := Call{Meta: meta, effects: eff}
	if proc.protected {
		user, err := h.viewer.Require(ctx)
		if err != nil {
			return h.failure(ctx, name, err)
		}
		call.Viewer = user
	} else {
		user, err := h.viewer.Resolve(ctx)
		if err != nil {
			h.log.WithContext(ctx).Warnf("resolve viewer failed, continuing anonymously: procedure=%s err=%v", name, err)
		}
		call.Viewer = user
	}

	callCtx, cancel := h.WithTimeout(ctx, proc.kind)
	defer cancel()
	out, err := proc.invoke(callCtx, call, raw)
	if err != nil {
		return h.failure(ctx, name, err)
	}
	return RPCResponse{Result: out}
}

func (h *RPCHandler) failure(ctx context.Context, name string, err error) RPCResponse {
	rpcErr := toRPCError(name, err)
	if rpcErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.WithContext(ctx).Errorf("rpc failed: procedure=%s err=%v", name, err)
	}
	return RPCResponse{Error: rpcErr}
}

func (h *RPCHandler) write(ctx khttp.Context, eff *effects, status int, body any) error {
	if eff != nil {
		eff.apply(ctx.Response())
	}
	return ctx.JSON(status, body)
}

func badInput(path string, err error) *RPCError {
	msg := "Invalid request body!"
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		msg = "Request body too large!"
	}
	return &RPCError{Code: services.ReasonBadRequest, Message: msg, HTTPStatus: http.StatusBadRequest, Path: path}
}
