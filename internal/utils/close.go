package utils

import (
	"io"

	"github.com/MrSnakeDoc/routine/internal/logger"
)

// MustClose closes c and logs a failure under name.
// Use for defer statements where close errors should still be tracked.
func MustClose(c io.Closer, name string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", name), logger.Error(err))
	}
}
