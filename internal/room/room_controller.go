package room

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"github.com/wrapitup/wrapitup/pkg/protocol"
	"github.com/wrapitup/wrapitup/pkg/wsutils"
	"golang.org/x/sync/errgroup"
)

type roomController struct {
	roomService  *RoomService
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	pingInterval time.Duration
	readLimit    int64
}

func (ctrl *roomController) wsError(session *Session, err error) {
	session.logger.Warn(fmt.Sprintf("Dropped inbound frame | Err: %s", err))
}

func (ctrl *roomController) RoomControllerSocket(ctx echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(ctx.Response().Writer, ctx.Request(), nil)
	if err != nil {
		// the upgrader already answered the request
		ctrl.logger.Error(fmt.Sprintf("Unable upgrade request %s | Err: %s", ctx.Request().URL, err))
		return nil
	}

	w := wsutils.NewThreadSafeWriter(conn)
	defer w.Close()

	session := ctrl.roomService.Connect()
	defer ctrl.roomService.Disconnect(session)

	readDeadline := 2 * ctrl.pingInterval
	conn.SetReadLimit(ctrl.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	g, gctx := errgroup.WithContext(ctx.Request().Context())
	g.Go(func() error {
		defer w.Close()
		return session.WritePump(gctx, w, ctrl.pingInterval)
	})
	g.Go(func() error {
		defer session.Close()
		return ctrl.readLoop(session, conn)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, ErrSessionClosed) && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		session.logger.Debug("Connection closed", slog.String("reason", err.Error()))
	}
	return nil
}

func (ctrl *roomController) readLoop(session *Session, conn *websocket.Conn) error {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		if messageType != websocket.TextMessage {
			ctrl.wsError(session, fmt.Errorf("%w: binary frame", protocol.ErrMalformedMessage))
			continue
		}

		msg, err := protocol.DecodeClientMessage(data)
		if err != nil {
			ctrl.wsError(session, err)
			continue
		}

		switch m := msg.(type) {
		case *protocol.JoinRoom:
			ctrl.roomService.Join(session, m.Room(), m.Host())

		case *protocol.ToggleMusic:
			_ = ctrl.roomService.Toggle(session)
		}
	}
}

func (ctrl *roomController) RoomControllerRoomList(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, protocol.RoomList{
		Rooms: ctrl.roomService.Rooms(),
	})
}

func (ctrl *roomController) Resolve(c *echo.Echo) error {
	c.GET("/ws", ctrl.RoomControllerSocket)
	c.GET("/api/rooms", ctrl.RoomControllerRoomList)
	return nil
}

var _ protocol.HttpResolvable = (*roomController)(nil)

type NewRoomControllerParams struct {
	RoomService  *RoomService
	Logger       *slog.Logger
	PingInterval time.Duration
	ReadLimit    int64
}

func NewRoomController(params NewRoomControllerParams) *roomController {
	return &roomController{
		roomService:  params.RoomService,
		logger:       params.Logger,
		pingInterval: params.PingInterval,
		readLimit:    params.ReadLimit,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}
