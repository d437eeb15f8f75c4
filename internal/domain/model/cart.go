package model

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// カート1行の表示用の値。
// SKU本体と、カート側の一時的な数量・選択状態を混ぜずに分けて持つ。
type CartLine struct {
	SKU      SKU   `json:"sku"`
	Count    int64 `json:"count"`
	Selected bool  `json:"selected"`
}

// 未ログインカートの1行。
type AnonCartLine struct {
	Count    int64 `json:"count"`
	Selected bool  `json:"selected"`
}

// 未ログインカート。skuID→行。クライアント側トークン（cookie）で持ち回る。
type AnonCart map[int64]AnonCartLine

// トークンが壊れている
var ErrInvalidCartToken = errors.New("invalid cart token")

// AnonCartをbase64(JSON)のトークンにする。
func EncodeAnonCart(cart AnonCart) (string, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// トークンをAnonCartに戻す。空文字は空カート扱い。
func DecodeAnonCart(token string) (AnonCart, error) {
	if token == "" {
		return AnonCart{}, nil
	}

	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCartToken
	}

	var cart AnonCart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, ErrInvalidCartToken
	}
	if cart == nil {
		cart = AnonCart{}
	}
	return cart, nil
}
