package controllers

import (
	"context"
	"net/http"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// UsersHandler 把当前调用方重定向到其频道页。
type UsersHandler struct {
	*BaseHandler
	viewer *services.ViewerService
}

// NewUsersHandler 构造 UsersHandler。
func NewUsersHandler(base *BaseHandler, svc *Services) *UsersHandler {
	return &UsersHandler{BaseHandler: base, viewer: svc.Viewer}
}

func (h *UsersHandler) register(srv *khttp.Server) {
	srv.Route("/").GET("/users/current", h.current)
}

func (h *UsersHandler) current(ctx khttp.Context) error {
	khttp.SetOperation(ctx, "/users/current")
	run := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return h.viewer.Resolve(c)
	})
	out, err := run(ctx, nil)
	if err != nil {
		h.log.WithContext(ctx).Errorf("resolve current user failed: %v", err)
		rpcErr := toRPCError("", err)
		return ctx.JSON(rpcErr.HTTPStatus, RPCResponse{Error: rpcErr})
	}
	user, _ := out.(*po.User)
	if user == nil {
		rpcErr := toRPCError("", services.ErrUnauthorized)
		return ctx.JSON(rpcErr.HTTPStatus, RPCResponse{Error: rpcErr})
	}
	http.Redirect(ctx.Response(), ctx.Request(), "/users/"+user.ID.String(), http.StatusTemporaryRedirect)
	return nil
}
