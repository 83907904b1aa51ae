package main

import (
	"github.com/wrapitup/wrapitup/internal/catalog"
	"github.com/wrapitup/wrapitup/internal/room"
	"github.com/wrapitup/wrapitup/internal/web"
	"github.com/wrapitup/wrapitup/pkg/service"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		service.ConfigModule,
		service.LoggerModule,

		catalog.Module,
		room.Module,
		web.Module,

		service.MDNSModule,
		service.HttpModule,
	).Run()
}
