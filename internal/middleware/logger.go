package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/questx-lab/reputation/pkg/errorx"
	"github.com/questx-lab/reputation/pkg/router"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

// Logger writes one line per request. Client errors are warnings, failures
// of the service itself are errors.
func Logger() router.CloserFunc {
	return func(ctx context.Context) {
		req := xcontext.HTTPRequest(ctx)

		var elapsed time.Duration
		if startTime := xcontext.StartTime(ctx); !startTime.IsZero() {
			elapsed = time.Since(startTime)
		}

		err := xcontext.Error(ctx)
		if err == nil {
			xcontext.Logger(ctx).Infof("%s %s | %s", req.Method, req.URL.Path, elapsed)
			return
		}

		code := errorx.CodeOf(err)
		if code.HTTPStatus() >= http.StatusInternalServerError {
			xcontext.Logger(ctx).Errorf("%s %s | %s | %d: %v", req.Method, req.URL.Path, elapsed, code, err)
		} else {
			xcontext.Logger(ctx).Warnf("%s %s | %s | %d", req.Method, req.URL.Path, elapsed, code)
		}
	}
}
