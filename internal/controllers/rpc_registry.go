package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/sanidhyy/yt-clone/internal/metadata"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/services"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Call 为一次过程调用的上下文。受保护过程中 Viewer 必不为空。
type Call struct {
	Viewer  *po.User
	Meta    metadata.HandlerMetadata
	effects *effects
}

// ViewerID 返回可选的调用方 ID。
func (c Call) ViewerID() *uuid.UUID {
	if c.Viewer == nil {
		return nil
	}
	id := c.Viewer.ID
	return &id
}

// SetCookie 登记需要随响应下发的 Cookie。
func (c Call) SetCookie(cookie *http.Cookie) {
	if c.effects != nil {
		c.effects.setCookie(cookie)
	}
}

// effects 收集过程执行产生的响应副作用，批量调用时多个过程并发写入。
type effects struct {
	mu      sync.Mutex
	cookies []*http.Cookie
}

func (e *effects) setCookie(cookie *http.Cookie) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cookies = append(e.cookies, cookie)
}

func (e *effects) apply(w http.ResponseWriter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cookie := range e.cookies {
		http.SetCookie(w, cookie)
	}
}

type procedure struct {
	name      string
	kind      HandlerType
	protected bool
	invoke    func(ctx context.Context, call Call, raw json.RawMessage) (any, error)
}

// registry 按 "<router>.<procedure>" 索引全部过程。
type registry struct {
	procs    map[string]procedure
	validate *validator.Validate
}

func newRegistry() *registry {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &registry{procs: make(map[string]procedure), validate: v}
}

func (r *registry) lookup(name string) (procedure, bool) {
	p, ok := r.procs[name]
	return p, ok
}

func (r *registry) names() []string {
	out := make([]string, 0, len(r.procs))
	for name := range r.procs {
		out = append(out, name)
	}
	return out
}

// bind 解码并校验输入。空输入按 {} 处理。
func (r *registry) bind(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return kerrors.BadRequest(services.ReasonBadRequest, "Invalid input!").WithCause(err)
	}
	if err := r.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return kerrors.BadRequest(services.ReasonBadRequest, fmt.Sprintf("Invalid input: %s failed on '%s'", fe.Namespace(), fe.Tag()))
		}
		return kerrors.BadRequest(services.ReasonBadRequest, "Invalid input!").WithCause(err)
	}
	return nil
}

// define 登记一个过程：解码输入、校验后调用 fn。
func define[In, Out any](r *registry, name string, kind HandlerType, protected bool, fn func(context.Context, Call, In) (Out, error)) {
	if _, dup := r.procs[name]; dup {
		panic("controllers: duplicate procedure " + name)
	}
	r.procs[name] = procedure{
		name:      name,
		kind:      kind,
		protected: protected,
		invoke: func(ctx context.Context, call Call, raw json.RawMessage) (any, error) {
			var in In
			if err := r.bind(raw, &in); err != nil {
				return nil, err
			}
			return fn(ctx, call, in)
		},
	}
}

func query[In, Out any](r *registry, name string, fn func(context.Context, Call, In) (Out, error)) {
	define(r, name, HandlerTypeQuery, false, fn)
}

func protectedQuery[In, Out any](r *registry, name string, fn func(context.Context, Call, In) (Out, error)) {
	define(r, name, HandlerTypeQuery, true, fn)
}

func mutation[In, Out any](r *registry, name string, fn func(context.Context, Call, In) (Out, error)) {
	define(r, name, HandlerTypeCommand, true, fn)
}

// RPCError 为错误响应体。
type RPCError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path,omitempty"`
}

// toRPCError 把任意错误映射为错误响应。未携带错误码的错误统一视为内部错误且不外泄细节。
func toRPCError(path string, err error) *RPCError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &RPCError{Code: "TIMEOUT", Message: "Request timed out!", HTTPStatus: http.StatusGatewayTimeout, Path: path}
	case errors.Is(err, context.Canceled):
		return &RPCError{Code: "CLIENT_CLOSED_REQUEST", Message: "Request cancelled!", HTTPStatus: 499, Path: path}
	}
	e := kerrors.FromError(err)
	if e == nil {
		return nil
	}
	if e.Reason == "" || int(e.Code) >= http.StatusInternalServerError && e.Reason != services.ReasonInternal {
		return &RPCError{Code: services.ReasonInternal, Message: "Internal server error!", HTTPStatus: http.StatusInternalServerError, Path: path}
	}
	return &RPCError{Code: e.Reason, Message: e.Message, HTTPStatus: int(e.Code), Path: path}
}
