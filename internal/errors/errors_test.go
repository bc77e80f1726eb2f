package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkedErrorsKeepClassThroughWrapping(t *testing.T) {
	err := NewError("document locked").
		WithHint("Cannot update document while in PENDING status").
		Mark(ErrInvalidState)
	wrapped := fmt.Errorf("update doc-1: %w", err)

	require.True(t, IsInvalidState(wrapped))
	require.False(t, IsForbidden(wrapped))
	require.Equal(t, http.StatusBadRequest, HTTPStatusFromErr(wrapped))
	require.Equal(t, ErrCodeInvalidState, CodeFromErr(wrapped))
	require.Equal(t, "Cannot update document while in PENDING status", DisplayMessage(wrapped))
}

func TestHTTPStatusFromErr(t *testing.T) {
	cases := map[error]int{
		NewError("x").Mark(ErrNotFound):    http.StatusNotFound,
		NewError("x").Mark(ErrForbidden):   http.StatusForbidden,
		NewError("x").Mark(ErrConflict):    http.StatusConflict,
		NewError("x").Mark(ErrUnavailable): http.StatusServiceUnavailable,
		fmt.Errorf("plain"):                http.StatusInternalServerError,
	}
	for err, want := range cases {
		require.Equal(t, want, HTTPStatusFromErr(err), err.Error())
	}
}

func TestRetryable(t *testing.T) {
	require.True(t, Retryable(NewError("dup").Mark(ErrConflict)))
	require.True(t, Retryable(WithError(fmt.Errorf("dial tcp")).Mark(ErrUnavailable)))
	require.False(t, Retryable(NewError("self").Mark(ErrInvalidState)))
}

func TestDisplayMessageFallsBackToClass(t *testing.T) {
	require.Equal(t, "resource not found", DisplayMessage(NewError("doc-9").Mark(ErrNotFound)))
	require.Equal(t, "internal error", DisplayMessage(fmt.Errorf("boom")))
}
