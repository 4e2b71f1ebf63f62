package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	t.Parallel()

	err := &StatusError{StatusCode: http.StatusBadGateway}
	assert.Equal(t, "api error status 502", err.Error())
	assert.ErrorIs(t, err, ErrUpstreamStatus)

	withMsg := &StatusError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}
	assert.Equal(t, "api error status 429: slow down", withMsg.Error())
}

func TestIsPermanent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"tagged", Permanent(errors.New("bad input")), true},
		{"wrapped tag", fmt.Errorf("attempt: %w", Permanent(errors.New("x"))), true},
		{"config", fmt.Errorf("openai: %w", ErrInvalidConfig), true},
		{"blocked", ErrContentBlocked, true},
		{"canceled", fmt.Errorf("call: %w", context.Canceled), true},
		{"deadline", context.DeadlineExceeded, false},
		{"empty completion", ErrEmptyCompletion, false},
		{"invalid response", ErrInvalidResponse, false},
		{"unauthorized", &StatusError{StatusCode: http.StatusUnauthorized}, true},
		{"bad request", fmt.Errorf("wrap: %w", &StatusError{StatusCode: http.StatusBadRequest}), true},
		{"rate limited", &StatusError{StatusCode: http.StatusTooManyRequests}, false},
		{"timeout status", &StatusError{StatusCode: http.StatusRequestTimeout}, false},
		{"server error", &StatusError{StatusCode: http.StatusServiceUnavailable}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsPermanent(tc.err))
		})
	}
}

func TestPermanentNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Permanent(nil))
}

func TestUserPrompt(t *testing.T) {
	t.Parallel()

	got := UserPrompt("单选题：1+1=?")
	assert.Contains(t, got, "单选题：1+1=?")
	assert.Contains(t, SystemPrompt, "JSON array")
}

func TestCompleterFunc(t *testing.T) {
	t.Parallel()

	var c Completer = CompleterFunc(func(_ context.Context, sys, user string) (string, error) {
		return sys + "|" + user, nil
	})
	out, err := c.Complete(context.Background(), "s", "u")
	assert.NoError(t, err)
	assert.Equal(t, "s|u", out)
}

func TestUnconfigured(t *testing.T) {
	t.Parallel()

	_, err := Unconfigured("llm.api_key is not set").Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.True(t, IsPermanent(err))
	assert.Contains(t, err.Error(), "llm.api_key is not set")
}
