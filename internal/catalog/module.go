package catalog

import (
	"context"
	"log/slog"

	"github.com/wrapitup/wrapitup/pkg/protocol"
	"github.com/wrapitup/wrapitup/pkg/service"
	"go.uber.org/fx"
)

type newCatalog_Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *service.Config
	Logger    *slog.Logger
}

func NewCatalog(params newCatalog_Params) *Catalog {
	c := New(Options{
		Dir:       params.Config.SongsDir,
		URLPrefix: params.Config.SongsURLPrefix,
		Ext:       params.Config.SongsExt,
	}, params.Logger)

	// An unreadable directory leaves the catalog empty; picks retry the load.
	_ = c.Reload()

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !params.Config.CatalogWatch {
				return nil
			}
			if err := c.Watch(context.Background()); err != nil {
				params.Logger.Warn("Catalog watch disabled", slog.String("err", err.Error()))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})

	return c
}

var Module = fx.Module("catalog",
	fx.Provide(
		NewCatalog,
		protocol.AsHttpController(NewCatalogController),
	),
)
