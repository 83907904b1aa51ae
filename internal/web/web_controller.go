package web

import (
	"log/slog"
	"os"
	"path/filepath"

	echo "github.com/labstack/echo/v4"
	"github.com/wrapitup/wrapitup/pkg/protocol"
	"github.com/wrapitup/wrapitup/pkg/service"
	"go.uber.org/fx"
)

// webController serves static assets and the single page. The room and host
// flag are read from the path by the page itself.
type webController struct {
	staticDir string
	indexFile string
	logger    *slog.Logger
}

func (ctrl *webController) WebControllerPage(ctx echo.Context) error {
	roomID, isHost := protocol.ParseRoomPath(ctx.Request().URL.Path)
	ctrl.logger.Debug("Page", slog.String("room", roomID), slog.Bool("host", isHost))
	return ctx.File(ctrl.indexFile)
}

// WebControllerRoomPage serves a top level static file when one exists under
// that name and the page otherwise, since /:room outranks the static route.
func (ctrl *webController) WebControllerRoomPage(ctx echo.Context) error {
	name := filepath.Join(ctrl.staticDir, filepath.Clean("/"+ctx.Param("room")))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return ctx.File(name)
	}
	return ctrl.WebControllerPage(ctx)
}

func (ctrl *webController) Resolve(c *echo.Echo) error {
	c.Static("/", ctrl.staticDir)
	c.GET("/", ctrl.WebControllerPage)
	c.GET("/:room", ctrl.WebControllerRoomPage)
	c.GET("/:room/host", ctrl.WebControllerPage)
	return nil
}

var _ protocol.HttpResolvable = (*webController)(nil)

type NewWebControllerParams struct {
	fx.In

	Config *service.Config
	Logger *slog.Logger
}

func NewWebController(params NewWebControllerParams) *webController {
	return &webController{
		staticDir: params.Config.StaticDir,
		indexFile: params.Config.IndexFile,
		logger:    params.Logger,
	}
}

var Module = fx.Module("web",
	fx.Provide(
		protocol.AsHttpController(NewWebController),
	),
)
