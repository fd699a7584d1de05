package controllers

import (
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// Routes 汇总全部 HTTP 入口，供 HTTP Server 注册。
type Routes struct {
	base     *BaseHandler
	rpc      *RPCHandler
	webhooks *WebhookHandler
	uploads  *UploadHandler
	users    *UsersHandler
	metrics  *RPCMetrics
}

// NewRoutes 构造 Routes。
func NewRoutes(base *BaseHandler, rpc *RPCHandler, webhooks *WebhookHandler, uploads *UploadHandler, users *UsersHandler, metrics *RPCMetrics) *Routes {
	return &Routes{base: base, rpc: rpc, webhooks: webhooks, uploads: uploads, users: users, metrics: metrics}
}

// Filters 返回请求级过滤器。
func (r *Routes) Filters() []khttp.FilterFunc {
	return []khttp.FilterFunc{r.base.MetadataFilter}
}

// Register 注册全部路由与 /metrics。
func (r *Routes) Register(srv *khttp.Server) {
	r.rpc.register(srv)
	r.webhooks.register(srv)
	r.uploads.register(srv)
	r.users.register(srv)
	srv.Handle("/metrics", r.metrics.Handler())
}
