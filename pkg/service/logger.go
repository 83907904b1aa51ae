package service

import (
	"io"
	"log/slog"
	"os"

	"go.uber.org/fx"
)

type logger_Params struct {
	fx.In

	Config *Config
}

var loggerWriter io.Writer = os.Stdout

func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	}))
}

func logger(params logger_Params) *slog.Logger {
	l := NewLogger(loggerWriter, params.Config.LogLevel)
	slog.SetDefault(l)
	return l
}

var LoggerModule = fx.Module("logger", fx.Provide(
	logger,
))
