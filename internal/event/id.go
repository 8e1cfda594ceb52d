package event

import (
	"log/slog"

	"github.com/denisbrodbeck/machineid"
)

const fallbackId = "unknown"

var distinctId string

// getDistinctId hashes the machine id with the app name so installs
// are distinguishable without being identifiable.
func getDistinctId() string {
	id, err := machineid.ProtectedID("quill")
	if err != nil {
		slog.Warn("Failed to read machine id", "error", err)
		return fallbackId
	}
	return id
}
