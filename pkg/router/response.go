package router

import (
	"errors"
	"net/http"

	"github.com/questx-lab/reputation/pkg/errorx"
)

// response is the JSON envelope of every API call. Code is zero on success.
type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// newResponse returns the http status and the envelope for a handler result.
// Errors other than errorx.Error are hidden behind errorx.Unknown.
func newResponse(data any, err error) (int, response) {
	if err == nil {
		return http.StatusOK, response{Data: data}
	}

	errx := errorx.Unknown
	errors.As(err, &errx)

	return errx.Code.HTTPStatus(), response{Code: int64(errx.Code), Error: errx.Message}
}
