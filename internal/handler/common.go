package handler

import (
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

//middleware.AuthJWTがc.Set("user_id", int64)した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

const (
	anonCartCookieName = "cart"
	anonCartCookieTTL  = 14 * 24 * time.Hour
)

// cookieから未ログインカートを読む。壊れたトークンは空カート扱い。
func readAnonCart(c echo.Context) model.AnonCart {
	cookie, err := c.Cookie(anonCartCookieName)
	if err != nil {
		return model.AnonCart{}
	}

	cart, err := model.DecodeAnonCart(cookie.Value)
	if err != nil {
		return model.AnonCart{}
	}
	return cart
}

func writeAnonCart(c echo.Context, cart model.AnonCart) error {
	token, err := model.EncodeAnonCart(cart)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     anonCartCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(anonCartCookieTTL.Seconds()),
		HttpOnly: true,
	})
	return nil
}

// マージ後の再実行を防ぐため、成否に関わらず無条件に消す
func clearAnonCart(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     anonCartCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
