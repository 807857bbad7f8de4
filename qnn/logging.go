package qnn

import (
	"strings"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/rs/zerolog"
)

var (
	loggerMu  sync.RWMutex
	pkgLogger = zerolog.Nop()

	logCallbackOnce sync.Once
	logCallback     uintptr
)

// SetLogger installs the structured logger used by sessions created after the
// call and by the backend log bridge.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	pkgLogger = l
}

func currentLogger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return pkgLogger
}

// backendLogCallback returns a C function pointer with the signature
// void(uint32_t level, const char *msg). purego callbacks are never freed, so
// one is created per process and reads the current logger on every call.
func backendLogCallback() uintptr {
	logCallbackOnce.Do(func() {
		logCallback = purego.NewCallback(forwardBackendLog)
	})
	return logCallback
}

func forwardBackendLog(level uintptr, msg uintptr) uintptr {
	l := currentLogger()
	text := strings.TrimRight(cStringToGo(msg), "\r\n")
	l.WithLevel(zerologLevel(LogLevel(level))).Str("source", "backend").Msg(text)
	return 0
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelVerbose, LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
