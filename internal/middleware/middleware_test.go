package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/questx-lab/reputation/config"
	"github.com/questx-lab/reputation/internal/common"
	"github.com/questx-lab/reputation/pkg/errorx"
	"github.com/questx-lab/reputation/pkg/router"
	"github.com/questx-lab/reputation/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusAndLogger(t *testing.T) {
	r := router.New(testutil.MockContext())
	r.Before(WithStartTime())
	r.After(Prometheus())
	r.After(Logger())

	router.GET(r, "/middlewareOk", func(context.Context, *struct{}) (*struct{}, error) {
		return &struct{}{}, nil
	})
	router.GET(r, "/middlewareMissing", func(context.Context, *struct{}) (*struct{}, error) {
		return nil, errorx.New(errorx.NotFound, "Missing")
	})
	handler := r.Handler(config.APIServerConfigs{})

	counter := common.PromCounters[common.HTTPRequestTotal]
	before := promtestutil.ToFloat64(counter.WithLabelValues("/middlewareMissing", "100004"))

	for _, path := range []string{"/middlewareOk", "/middlewareMissing", "/middlewareMissing"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, float64(1), promtestutil.ToFloat64(counter.WithLabelValues("/middlewareOk", "0")))
	require.Equal(t, before+2, promtestutil.ToFloat64(counter.WithLabelValues("/middlewareMissing", "100004")))
}

func TestErrorCode(t *testing.T) {
	require.Equal(t, errorx.Code(0), errorCode(nil))
	require.Equal(t, errorx.BadRequest, errorCode(errorx.New(errorx.BadRequest, "bad")))
	require.Equal(t, errorx.Unknown.Code, errorCode(context.Canceled))
}
