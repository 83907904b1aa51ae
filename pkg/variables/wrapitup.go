package variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	HTTP_PORT_DEFAULT = "3000"
	HTTP_PORT_NAME    = "HTTP_PORT"

	HTTP_HOST_DEFAULT = ""
	HTTP_HOST_NAME    = "HTTP_HOST"

	STATIC_DIR_DEFAULT = "static"
	STATIC_DIR_NAME    = "STATIC_DIR"

	INDEX_FILE_DEFAULT = "index.html"
	INDEX_FILE_NAME    = "INDEX_FILE"

	SONGS_DIR_DEFAULT = "static/songs"
	SONGS_DIR_NAME    = "SONGS_DIR"

	SONGS_URL_PREFIX_DEFAULT = "/songs"
	SONGS_URL_PREFIX_NAME    = "SONGS_URL_PREFIX"

	SONGS_EXT_DEFAULT = ".mp3"
	SONGS_EXT_NAME    = "SONGS_EXT"

	LOG_LEVEL_DEFAULT = "debug"
	LOG_LEVEL_NAME    = "LOG_LEVEL"

	WS_SEND_BUFFER_DEFAULT = "64"
	WS_SEND_BUFFER_NAME    = "WS_SEND_BUFFER"

	WS_PING_INTERVAL_SEC_DEFAULT = "30"
	WS_PING_INTERVAL_SEC_NAME    = "WS_PING_INTERVAL_SEC"

	WS_READ_LIMIT_DEFAULT = "4096"
	WS_READ_LIMIT_NAME    = "WS_READ_LIMIT"

	BROADCAST_PARALLEL_THRESHOLD_DEFAULT = "512"
	BROADCAST_PARALLEL_THRESHOLD_NAME    = "BROADCAST_PARALLEL_THRESHOLD"

	CATALOG_WATCH_DEFAULT = "true"
	CATALOG_WATCH_NAME    = "CATALOG_WATCH"

	MDNS_ENABLED_DEFAULT = "false"
	MDNS_ENABLED_NAME    = "MDNS_ENABLED"

	MDNS_INSTANCE_DEFAULT = "wrapitup"
	MDNS_INSTANCE_NAME    = "MDNS_INSTANCE"
)

func Env(variableName, defaultValue string) string {
	if variable := os.Getenv(variableName); variable != "" {
		log.Printf("[%s]: %s", variableName, variable)
		return variable
	}
	log.Printf("[%s_DEFAULT]: %s", variableName, defaultValue)
	return defaultValue
}

func ParseInt(value string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}

func ParseBool(value string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(value))
}

// ParseSeconds reads a whole number of seconds.
func ParseSeconds(value string) (time.Duration, error) {
	n, err := ParseInt(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
