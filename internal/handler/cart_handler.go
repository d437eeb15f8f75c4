package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP。ログイン済みはRedis、未ログインはcookieトークンを操作する。
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type CartLineRequest struct {
	SKUID    int64 `json:"sku_id"`
	Quantity int64 `json:"quantity"`
	Selected bool  `json:"selected"`
}

type DeleteCartLineRequest struct {
	SKUID int64 `json:"sku_id"`
}

type SelectAllRequest struct {
	Selected bool `json:"selected"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWTOptional(cfg))

	g.GET("", h.getCart)
	g.POST("", h.addLine)
	g.PUT("", h.updateLine)
	g.DELETE("", h.deleteLine)
	g.PUT("/selection", h.selectAll)
}

func (h *CartHandler) getCart(c echo.Context) error {
	ctx := c.Request().Context()

	if userID, ok := getUserIDFromContext(c); ok {
		out, err := h.uc.GetCart(ctx, userID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}

	out, err := h.uc.GetAnonCart(ctx, readAnonCart(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addLine(c echo.Context) error {
	ctx := c.Request().Context()

	var req CartLineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	in := usecase.CartLineInput{SKUID: req.SKUID, Quantity: req.Quantity, Selected: req.Selected}

	if userID, ok := getUserIDFromContext(c); ok {
		out, err := h.uc.AddToCart(ctx, userID, in)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}

	cart, err := h.uc.AddToAnonCart(ctx, readAnonCart(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return h.respondAnonCart(c, cart)
}

func (h *CartHandler) updateLine(c echo.Context) error {
	ctx := c.Request().Context()

	var req CartLineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	in := usecase.CartLineInput{SKUID: req.SKUID, Quantity: req.Quantity, Selected: req.Selected}

	if userID, ok := getUserIDFromContext(c); ok {
		out, err := h.uc.UpdateCartLine(ctx, userID, in)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}

	cart, err := h.uc.UpdateAnonCartLine(ctx, readAnonCart(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return h.respondAnonCart(c, cart)
}

func (h *CartHandler) deleteLine(c echo.Context) error {
	ctx := c.Request().Context()

	var req DeleteCartLineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if userID, ok := getUserIDFromContext(c); ok {
		out, err := h.uc.DeleteCartLine(ctx, userID, req.SKUID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}

	cart := h.uc.DeleteAnonCartLine(readAnonCart(c), req.SKUID)
	return h.respondAnonCart(c, cart)
}

func (h *CartHandler) selectAll(c echo.Context) error {
	ctx := c.Request().Context()

	var req SelectAllRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if userID, ok := getUserIDFromContext(c); ok {
		out, err := h.uc.SelectAll(ctx, userID, req.Selected)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}

	cart := h.uc.SelectAllAnon(readAnonCart(c), req.Selected)
	return h.respondAnonCart(c, cart)
}

// 未ログインカートをcookieに書き戻してから中身を返す
func (h *CartHandler) respondAnonCart(c echo.Context, cart model.AnonCart) error {
	if err := writeAnonCart(c, cart); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	out, err := h.uc.GetAnonCart(c.Request().Context(), cart)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
