package instance

import (
	"fmt"
	"os"

	"github.com/angelmondragon/speak2see-backend/pkg/env"
)

// GetID returns the worker instance identifier used as the owner value of
// execution claims and cron locks.
func GetID() string {
	if id := env.First("", "SPEAK2SEE_WORKER_ID", "WORKER_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "worker-0"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
