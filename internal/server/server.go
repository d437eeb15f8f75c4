package server

import (
	"app/internal/config"
	"app/internal/handler"
	"app/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	Cart  *handler.CartHandler
	Order *handler.OrderHandler
}

func Start(addr string, cfg config.Config, h Handlers, userRepo repository.UserRepository) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	RegisterRoutes(e, cfg, h, userRepo)

	return e.Start(addr)
}
