package catalog

import (
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/wrapitup/wrapitup/pkg/protocol"
	"go.uber.org/fx"
)

const errReadSongs = "Failed to read songs directory"

type catalogController struct {
	catalog *Catalog
	logger  *slog.Logger
}

func (ctrl *catalogController) CatalogControllerSongList(ctx echo.Context) error {
	songs, err := ctrl.catalog.List()
	if err != nil {
		ctrl.logger.Error("Error reading songs directory", slog.String("err", err.Error()))
		return ctx.JSON(http.StatusInternalServerError, protocol.ErrorResponse{Error: errReadSongs})
	}
	return ctx.JSON(http.StatusOK, protocol.SongList{Songs: songs})
}

func (ctrl *catalogController) CatalogControllerTrackList(ctx echo.Context) error {
	tracks, err := ctrl.catalog.Tracks()
	if err != nil {
		ctrl.logger.Error("Error reading songs directory", slog.String("err", err.Error()))
		return ctx.JSON(http.StatusInternalServerError, protocol.ErrorResponse{Error: errReadSongs})
	}
	return ctx.JSON(http.StatusOK, protocol.TrackList{Tracks: tracks})
}

func (ctrl *catalogController) Resolve(c *echo.Echo) error {
	c.GET("/api/songs", ctrl.CatalogControllerSongList)
	c.GET("/api/tracks", ctrl.CatalogControllerTrackList)
	return nil
}

var _ protocol.HttpResolvable = (*catalogController)(nil)

type NewCatalogControllerParams struct {
	fx.In

	Catalog *Catalog
	Logger  *slog.Logger
}

func NewCatalogController(params NewCatalogControllerParams) *catalogController {
	return &catalogController{
		catalog: params.Catalog,
		logger:  params.Logger,
	}
}
