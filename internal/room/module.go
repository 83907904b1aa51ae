package room

import (
	"context"
	"log/slog"

	"github.com/wrapitup/wrapitup/internal/catalog"
	"github.com/wrapitup/wrapitup/pkg/protocol"
	"github.com/wrapitup/wrapitup/pkg/service"
	"go.uber.org/fx"
)

type roomService_Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *service.Config
	Logger    *slog.Logger
	Catalog   *catalog.Catalog
}

func roomService(params roomService_Params) *RoomService {
	svc := NewRoomService(NewRoomServiceParams{
		Registry:    NewRegistry(),
		Broadcaster: NewBroadcaster(params.Config.BroadcastParallelThreshold, params.Logger),
		Picker:      params.Catalog,
		Logger:      params.Logger,
		BufferSize:  params.Config.WSSendBuffer,
	})

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			svc.Shutdown()
			return nil
		},
	})
	return svc
}

type roomController_Params struct {
	fx.In

	RoomService *RoomService
	Config      *service.Config
	Logger      *slog.Logger
}

func roomControllerFromConfig(params roomController_Params) *roomController {
	return NewRoomController(NewRoomControllerParams{
		RoomService:  params.RoomService,
		Logger:       params.Logger,
		PingInterval: params.Config.WSPingInterval,
		ReadLimit:    params.Config.WSReadLimit,
	})
}

var Module = fx.Module("room",
	fx.Provide(
		roomService,
		protocol.AsHttpController(roomControllerFromConfig),
	),
)
