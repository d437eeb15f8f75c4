package model_test

import (
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestAnonCartToken_RoundTrip(t *testing.T) {
	cart := model.AnonCart{
		1: {Count: 2, Selected: true},
		5: {Count: 1, Selected: false},
	}

	token, err := model.EncodeAnonCart(cart)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	decoded, err := model.DecodeAnonCart(token)
	assert.NoError(t, err)
	assert.Equal(t, cart, decoded)
}

// cookieなし＝空カート。エラーにしない
func TestDecodeAnonCart_EmptyToken(t *testing.T) {
	cart, err := model.DecodeAnonCart("")
	assert.NoError(t, err)
	assert.Empty(t, cart)
}

func TestDecodeAnonCart_NotBase64(t *testing.T) {
	_, err := model.DecodeAnonCart("%%%not-base64%%%")
	assert.ErrorIs(t, err, model.ErrInvalidCartToken)
}

func TestDecodeAnonCart_NotJSON(t *testing.T) {
	//"garbage" をbase64にしたもの
	_, err := model.DecodeAnonCart("Z2FyYmFnZQ==")
	assert.ErrorIs(t, err, model.ErrInvalidCartToken)
}

// JSONのnullは空カートに正規化される
func TestDecodeAnonCart_NullJSON(t *testing.T) {
	//"null" をbase64にしたもの
	cart, err := model.DecodeAnonCart("bnVsbA==")
	assert.NoError(t, err)
	assert.NotNil(t, cart)
	assert.Empty(t, cart)
}
