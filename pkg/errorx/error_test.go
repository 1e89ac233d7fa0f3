package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIs(t *testing.T) {
	err := New(NotFound, "Not found radar of user %s", "user1")
	require.Equal(t, "100004: Not found radar of user user1", err.Error())
	require.True(t, Is(err, NotFound))
	require.False(t, Is(err, BadRequest))

	wrapped := fmt.Errorf("get radar: %w", err)
	require.True(t, Is(wrapped, NotFound))
	require.Equal(t, NotFound, CodeOf(wrapped))

	require.False(t, Is(errors.New("plain"), NotFound))
	require.Equal(t, Unknown.Code, CodeOf(errors.New("plain")))
	require.False(t, Is(nil, Unknown.Code))
}

func TestRetryable(t *testing.T) {
	require.True(t, Retryable(New(Unavailable, "db down")))
	require.True(t, Retryable(fmt.Errorf("ingest: %w", New(Unavailable, "conflict"))))
	require.False(t, Retryable(New(BadRequest, "empty user")))
	require.False(t, Retryable(New(AlreadyExists, "key reused")))
	require.False(t, Retryable(errors.New("plain")))
}

func TestCode_HTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, BadRequest.HTTPStatus())
	require.Equal(t, http.StatusNotFound, NotFound.HTTPStatus())
	require.Equal(t, http.StatusConflict, AlreadyExists.HTTPStatus())
	require.Equal(t, http.StatusServiceUnavailable, Unavailable.HTTPStatus())
	require.Equal(t, http.StatusInternalServerError, Unknown.Code.HTTPStatus())
}
