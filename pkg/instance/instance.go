package instance

import (
	"os"

	"github.com/angelmondragon/printshop-backend/pkg/env"
)

// GetID identifies the running process in logs. Explicit ids win over the
// platform-provided dyno name and the container hostname.
func GetID() string {
	if id := env.FirstOf("", "PRINTSHOP_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
