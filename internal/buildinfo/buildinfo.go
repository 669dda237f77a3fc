package buildinfo

import "time"

// Set via -ldflags "-X github.com/xelth-com/eckposgo/internal/buildinfo.Version=..."
var (
	Version    = "dev"
	BuildTime  string
	CommitHash string
)

var started = time.Now().UTC()

// StartTime is when the process came up
func StartTime() time.Time { return started }

// Uptime is the time since StartTime, truncated to seconds
func Uptime() time.Duration { return time.Since(started).Truncate(time.Second) }
