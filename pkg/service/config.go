package service

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/wrapitup/wrapitup/pkg/variables"
	"go.uber.org/fx"
)

type Config struct {
	HTTPHost string
	HTTPPort int

	StaticDir string
	IndexFile string

	SongsDir       string
	SongsURLPrefix string
	SongsExt       string
	CatalogWatch   bool

	LogLevel slog.Level

	WSSendBuffer   int
	WSPingInterval time.Duration
	WSReadLimit    int64

	BroadcastParallelThreshold uint64

	MDNSEnabled  bool
	MDNSInstance string
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.HTTPHost, fmt.Sprint(c.HTTPPort))
}

// LoadConfig reads an optional .env file and resolves every variable.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return configFromEnv()
}

func configFromEnv() (*Config, error) {
	var errs []error
	intVar := func(name, def string) int {
		v, err := variables.ParseInt(variables.Env(name, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return v
	}
	boolVar := func(name, def string) bool {
		v, err := variables.ParseBool(variables.Env(name, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return v
	}

	cfg := &Config{
		HTTPHost:       variables.Env(variables.HTTP_HOST_NAME, variables.HTTP_HOST_DEFAULT),
		HTTPPort:       intVar(variables.HTTP_PORT_NAME, variables.HTTP_PORT_DEFAULT),
		StaticDir:      variables.Env(variables.STATIC_DIR_NAME, variables.STATIC_DIR_DEFAULT),
		IndexFile:      variables.Env(variables.INDEX_FILE_NAME, variables.INDEX_FILE_DEFAULT),
		SongsDir:       variables.Env(variables.SONGS_DIR_NAME, variables.SONGS_DIR_DEFAULT),
		SongsURLPrefix: variables.Env(variables.SONGS_URL_PREFIX_NAME, variables.SONGS_URL_PREFIX_DEFAULT),
		SongsExt:       variables.Env(variables.SONGS_EXT_NAME, variables.SONGS_EXT_DEFAULT),
		CatalogWatch:   boolVar(variables.CATALOG_WATCH_NAME, variables.CATALOG_WATCH_DEFAULT),
		WSSendBuffer:   intVar(variables.WS_SEND_BUFFER_NAME, variables.WS_SEND_BUFFER_DEFAULT),
		WSReadLimit:    int64(intVar(variables.WS_READ_LIMIT_NAME, variables.WS_READ_LIMIT_DEFAULT)),
		MDNSEnabled:    boolVar(variables.MDNS_ENABLED_NAME, variables.MDNS_ENABLED_DEFAULT),
		MDNSInstance:   variables.Env(variables.MDNS_INSTANCE_NAME, variables.MDNS_INSTANCE_DEFAULT),
	}

	threshold := intVar(variables.BROADCAST_PARALLEL_THRESHOLD_NAME, variables.BROADCAST_PARALLEL_THRESHOLD_DEFAULT)
	if threshold < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", variables.BROADCAST_PARALLEL_THRESHOLD_NAME))
	}
	cfg.BroadcastParallelThreshold = uint64(max(threshold, 0))

	interval, err := variables.ParseSeconds(variables.Env(variables.WS_PING_INTERVAL_SEC_NAME, variables.WS_PING_INTERVAL_SEC_DEFAULT))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", variables.WS_PING_INTERVAL_SEC_NAME, err))
	}
	cfg.WSPingInterval = interval

	if err := cfg.LogLevel.UnmarshalText([]byte(variables.Env(variables.LOG_LEVEL_NAME, variables.LOG_LEVEL_DEFAULT))); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", variables.LOG_LEVEL_NAME, err))
	}

	if err == nil && interval <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", variables.WS_PING_INTERVAL_SEC_NAME))
	}

	if cfg.WSSendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", variables.WS_SEND_BUFFER_NAME))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	log.Printf("Config resolved, listening on %s", cfg.Addr())
	return cfg, nil
}

var ConfigModule = fx.Module("config", fx.Provide(
	LoadConfig,
))
