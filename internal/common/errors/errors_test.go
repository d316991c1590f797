package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	e := New(5002, "Desconto não pode ser maior que o subtotal")
	assert.Equal(t, "[5002] Desconto não pode ser maior que o subtotal", e.Error())

	wrapped := e.WithError(stderrors.New("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
	assert.Equal(t, 5002, wrapped.Code)
}

func TestWithMessageKeepsCode(t *testing.T) {
	e := ErrInvalidParams.WithMessage("Data inicial inválida")
	assert.Equal(t, ErrInvalidParams.Code, e.Code)
	assert.Equal(t, "Data inicial inválida", e.Message)
	// Original is untouched.
	assert.Equal(t, "Parâmetros inválidos", ErrInvalidParams.Message)
}

func TestUnwrap(t *testing.T) {
	inner := stderrors.New("driver failure")
	e := Wrap(1004, "Erro no banco de dados", inner)
	assert.True(t, stderrors.Is(e, inner))
}

func TestGetAppError(t *testing.T) {
	e := GetAppError(ErrRewardExpired)
	assert.Equal(t, 6001, e.Code)

	plain := GetAppError(stderrors.New("oops"))
	assert.Equal(t, ErrUnknown.Code, plain.Code)
	assert.False(t, IsAppError(stderrors.New("oops")))
	assert.True(t, IsAppError(ErrRewardNotAvailable))
}
