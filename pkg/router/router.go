package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/reputation/config"
	"github.com/rs/cors"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. It may enrich the context or stop
// the request by returning an error.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response was written.
type CloserFunc func(ctx context.Context)

type Router struct {
	// rootCtx carries the database, logger and configs shared by every
	// request.
	rootCtx context.Context

	engine      *gin.Engine
	inner       gin.IRouter
	middlewares []MiddlewareFunc
	closers     []CloserFunc
}

func New(ctx context.Context) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Router{rootCtx: ctx, engine: engine, inner: engine}
}

// Branch returns a router sharing the routes of r. Middlewares and closers
// added to the branch do not affect r.
func (r *Router) Branch() *Router {
	return &Router{
		rootCtx:     r.rootCtx,
		engine:      r.engine,
		inner:       r.inner,
		middlewares: append([]MiddlewareFunc{}, r.middlewares...),
		closers:     append([]CloserFunc{}, r.closers...),
	}
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.middlewares = append(r.middlewares, middleware)
}

func (r *Router) After(closer CloserFunc) {
	r.closers = append(r.closers, closer)
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

// Static serves a plain http handler, outside of the JSON envelope.
func (r *Router) Static(method, pattern string, handler http.Handler) {
	r.inner.Handle(method, pattern, gin.WrapH(handler))
}

func (r *Router) Handler(cfg config.APIServerConfigs) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
	}).Handler(r.engine)
}
