package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wrapitup/wrapitup/pkg/fade"
	"github.com/wrapitup/wrapitup/pkg/listener"
	"github.com/wrapitup/wrapitup/pkg/service"
)

var (
	server       = flag.String("server", "ws://localhost:3000/ws", "websocket endpoint of the server")
	path         = flag.String("path", "/", "room path, e.g. /party or /party/host")
	toggle       = flag.Bool("toggle", false, "send toggle_music after joining")
	fadeIn       = flag.Duration("fade-in", fade.DefaultFadeIn.Duration, "fade-in duration")
	fadeInSteps  = flag.Int("fade-in-steps", fade.DefaultFadeIn.Steps, "fade-in volume steps")
	fadeOut      = flag.Duration("fade-out", fade.DefaultFadeOut.Duration, "fade-out duration")
	fadeOutSteps = flag.Int("fade-out-steps", fade.DefaultFadeOut.Steps, "fade-out volume steps")
	logLevel     = flag.String("log-level", "info", "debug, info, warn or error")
)

func main() {
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		log.Fatalf("log-level: %s", err)
	}
	logger := service.NewLogger(os.Stdout, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := listener.New(listener.Config{
		ServerURL: *server,
		RoomPath:  *path,
		Toggle:    *toggle,
		FadeIn:    fade.Envelope{Duration: *fadeIn, Steps: *fadeInSteps},
		FadeOut:   fade.Envelope{Duration: *fadeOut, Steps: *fadeOutSteps},
	}, logger)

	if err := client.Run(ctx); err != nil {
		logger.Error("Listener stopped", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
