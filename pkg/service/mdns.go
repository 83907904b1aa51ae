package service

import (
	"context"
	"log/slog"

	"github.com/grandcat/zeroconf"
	"go.uber.org/fx"
)

const (
	MDNSService = "_wrapitup._tcp"
	MDNSDomain  = "local."
)

type mdns_Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Logger    *slog.Logger
	Config    *Config
}

func mdns(params mdns_Params) {
	if !params.Config.MDNSEnabled {
		return
	}

	var server *zeroconf.Server

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			server, err = zeroconf.Register(
				params.Config.MDNSInstance,
				MDNSService,
				MDNSDomain,
				params.Config.HTTPPort,
				[]string{"path=/", "ws=/ws"},
				nil,
			)
			if err != nil {
				// LAN discovery is optional; the server keeps running without it.
				params.Logger.Warn("mDNS registration failed", slog.String("err", err.Error()))
				return nil
			}
			params.Logger.Info("Advertising over mDNS",
				slog.String("instance", params.Config.MDNSInstance),
				slog.String("service", MDNSService),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if server != nil {
				server.Shutdown()
			}
			return nil
		},
	})
}

var MDNSModule = fx.Module("mdns", fx.Invoke(mdns))
