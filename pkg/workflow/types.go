package workflow

import (
	"time"
)

const (
	defaultRateBurst       = 1
	defaultSessionTTL      = 30 * time.Minute
	sessionCleanupInterval = 60 * time.Minute
)
