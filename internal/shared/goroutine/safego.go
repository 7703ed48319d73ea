// Package goroutine launches background work with panic containment.
package goroutine

import (
	"runtime/debug"

	"bandwave/internal/shared/logger"
)

// SafeGo runs fn on its own goroutine. A panic inside fn is logged with the
// goroutine name and stack instead of taking down the process; long-lived
// relays and scheduler jobs rely on this to keep the server up.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer logPanic(log, name)
		fn()
	}()
}

func logPanic(log logger.Interface, name string) {
	if r := recover(); r != nil {
		log.Errorw("recovered panic in background goroutine",
			"goroutine", name,
			"panic", r,
			"stack", string(debug.Stack()),
		)
	}
}
