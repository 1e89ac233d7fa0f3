package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/reputation/pkg/errorx"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	middlewares := router.middlewares
	closers := router.closers

	return func(ginCtx *gin.Context) {
		ctx := newRequestContext(router.rootCtx, ginCtx.Request)

		resp, err := func() (*Response, error) {
			for _, m := range middlewares {
				next, err := m(ctx)
				if err != nil {
					return nil, err
				}
				ctx = next
			}

			var err error
			var req Request
			switch method {
			case http.MethodGet:
				err = ginCtx.ShouldBindQuery(&req)
			case http.MethodPost:
				err = ginCtx.ShouldBindJSON(&req)
			}
			if err != nil {
				xcontext.Logger(ctx).Debugf("Cannot bind the request: %v", err)
				return nil, errorx.New(errorx.BadRequest, "Invalid request")
			}

			return handler(ctx, &req)
		}()

		if err != nil {
			ctx = xcontext.WithError(ctx, err)
		}
		ginCtx.JSON(newResponse(resp, err))

		for _, c := range closers {
			c(ctx)
		}
	}
}

// newRequestContext keeps the cancellation of the request and the values of
// the root context.
func newRequestContext(root context.Context, req *http.Request) context.Context {
	ctx := req.Context()
	ctx = xcontext.WithConfigs(ctx, xcontext.Configs(root))
	ctx = xcontext.WithLogger(ctx, xcontext.Logger(root))
	ctx = xcontext.WithDB(ctx, xcontext.DB(root))
	ctx = xcontext.WithHTTPRequest(ctx, req)
	return ctx
}
