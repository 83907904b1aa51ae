package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/wrapitup/wrapitup/pkg/protocol"
	"go.uber.org/fx"
)

type httpServer_Params struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Controllers []protocol.HttpResolvable `group:"http.controller"`
	Logger      *slog.Logger
	Config      *Config
}

func httpErrorHandler(e *echo.Echo, logger *slog.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		logger.Error(err.Error(), slog.String("method", c.Request().Method), slog.String("path", c.Request().URL.Path))
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// NewRouter returns an echo instance that reports handler errors through logger.
func NewRouter(logger *slog.Logger) protocol.HttpRouter {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = httpErrorHandler(router, logger)
	return router
}

func httpServer(params httpServer_Params) error {
	router := NewRouter(params.Logger)

	for _, controller := range params.Controllers {
		if err := controller.Resolve(router); err != nil {
			return fmt.Errorf("resolve controller %T: %w", controller, err)
		}
	}

	addr := params.Config.Addr()

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			router.Listener = listener

			go func() {
				if err := router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					params.Logger.Error("HTTP server stopped", slog.String("err", err.Error()))
				}
			}()

			params.Logger.Info("Serving HTTP", slog.String("addr", listener.Addr().String()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Shutdown(ctx)
		},
	})

	return nil
}

var HttpModule = fx.Module("http", fx.Invoke(httpServer))
