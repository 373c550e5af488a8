package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := TransportError("could not reach backend", cause)

	assert.Equal(t, "TRANSPORT_ERROR: could not reach backend: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrProvider)

	wrapped := fmt.Errorf("dispatch: %w", ProviderError("quota exceeded"))
	assert.ErrorIs(t, wrapped, ErrProvider)
	assert.Equal(t, CodeProvider, KindOf(wrapped))
	assert.Equal(t, "quota exceeded", AsAppError(wrapped).Message)
}

func TestAsAppError(t *testing.T) {
	assert.Nil(t, AsAppError(nil))
	assert.Equal(t, "", KindOf(nil))

	ae := AsAppError(errors.New("boom"))
	assert.Equal(t, CodeInternal, ae.Code)
	assert.Equal(t, "boom", ae.Message)
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("texts", []string{" ", ""}, NonEmptyTexts).
		Field("documents", nil, NonEmptyTexts)
	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)

	err := ValidateAndReturnError(v)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "no input provided")
	assert.Contains(t, err.Error(), "field 'documents'")

	assert.NoError(t, ValidateAndReturnError(NewValidator().Field("texts", []string{"a"}, NonEmptyTexts)))
	assert.NotNil(t, NonEmptyTexts("texts", "not a slice"))
}

func TestRequestID(t *testing.T) {
	ctx, rid := EnsureRequestID(context.Background())
	assert.NotEmpty(t, rid)
	assert.Equal(t, rid, RequestIDFromContext(ctx))

	ctx2, rid2 := EnsureRequestID(ctx)
	assert.Equal(t, rid, rid2)
	assert.Equal(t, ctx, ctx2)
}
