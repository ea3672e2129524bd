package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsSurviveWrapping(t *testing.T) {
	sentinel := NotFoundf("order not found")

	wrapped := fmt.Errorf("get order: %w", sentinel)
	assert.True(t, errors.Is(wrapped, sentinel))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))

	again := Wrap(wrapped, "delete order")
	assert.True(t, IsNotFound(again))
	assert.True(t, errors.Is(again, sentinel))
	assert.Equal(t, "delete order: get order: order not found", again.Error())
}

func TestIntegrationKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Integration("finance", cause)

	assert.True(t, IsIntegration(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "finance: connection refused", err.Error())
}

func TestWrapPlainError(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(base, "create order")
	assert.True(t, errors.Is(err, base))
	assert.False(t, IsNotFound(err))
	assert.Nil(t, Wrap(nil, "noop"))
}
