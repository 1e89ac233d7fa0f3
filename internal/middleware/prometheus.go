package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/questx-lab/reputation/internal/common"
	"github.com/questx-lab/reputation/pkg/errorx"
	"github.com/questx-lab/reputation/pkg/router"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

func WithStartTime() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		return xcontext.WithStartTime(ctx, time.Now()), nil
	}
}

func Prometheus() router.CloserFunc {
	return func(ctx context.Context) {
		code := fmt.Sprint(errorCode(xcontext.Error(ctx)))
		path := xcontext.HTTPRequest(ctx).URL.Path

		common.PromCounters[common.HTTPRequestTotal].WithLabelValues(path, code).Inc()

		if startTime := xcontext.StartTime(ctx); !startTime.IsZero() {
			common.PromHistograms[common.HTTPRequestDurationSeconds].
				WithLabelValues(path, code).
				Observe(time.Since(startTime).Seconds())
		}
	}
}

// errorCode is 0 on success.
func errorCode(err error) errorx.Code {
	if err == nil {
		return 0
	}

	return errorx.CodeOf(err)
}
