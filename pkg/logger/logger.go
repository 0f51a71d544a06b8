package logger

import (
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log zerolog.Logger
)

// Init configures the global logger. format is "json" or "console"; when
// empty, console output is used at debug level and JSON otherwise.
func Init(level, format string) {
	InitWithWriter(level, format, os.Stdout)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(level, format string, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if format == "" && lvl == zerolog.DebugLevel {
		format = "console"
	}
	writer := out
	if format == "console" {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: out != os.Stdout}
	}

	l := zerolog.New(writer).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "deontolog-ia-feedback").
		Logger()

	mu.Lock()
	log = l
	mu.Unlock()
}

func init() {
	Init("info", "")
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &log
}

func Debug() *zerolog.Event { return current().Debug() }
func Info() *zerolog.Event  { return current().Info() }
func Warn() *zerolog.Event  { return current().Warn() }
func Error() *zerolog.Event { return current().Error() }
func Fatal() *zerolog.Event { return current().Fatal() }

func Debugf(format string, v ...interface{}) {
	current().Debug().Msgf(format, v...)
}

func Infof(format string, v ...interface{}) {
	current().Info().Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	current().Warn().Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	current().Error().Msgf(format, v...)
}

// Fatalf logs and exits the process.
func Fatalf(format string, v ...interface{}) {
	current().Fatal().Msgf(format, v...)
}

func Get() zerolog.Logger {
	return *current()
}

// redactQuery hides credentials passed in the query string, such as the
// token used by EventSource clients.
func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparsable]"
	}
	if values.Has("token") {
		values.Set("token", "***")
	}
	return values.Encode()
}

// GinLogger logs one line per request.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := redactQuery(c.Request.URL.RawQuery)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		l := current()
		event := l.Info()
		if status >= 500 {
			event = l.Error()
		} else if status >= 400 {
			event = l.Warn()
		}

		event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Str("ip", c.ClientIP()).
			Dur("latency", latency).
			Int("size", c.Writer.Size()).
			Msg("request")
	}
}

// GinRecovery turns a handler panic into a 500 in the API error envelope.
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		current().Error().
			Interface("panic", recovered).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Msg("panic recovered")
		c.AbortWithStatusJSON(500, gin.H{"code": 500, "message": "internal server error"})
	})
}
