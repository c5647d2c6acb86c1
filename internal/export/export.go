// Package export assembles the downloadable data-export document.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/storage"
)

// Document is the export payload. Trips are emitted exactly as persisted.
type Document struct {
	Trips     json.RawMessage        `json:"trips"`
	Settings  models.UserPreferences `json:"settings"`
	Timestamp time.Time              `json:"timestamp"`
}

// Build reads the persisted trips from port and combines them with the
// current settings. Missing or malformed trips export as an empty array.
func Build(port storage.Port, settings models.UserPreferences, now time.Time) Document {
	return Document{
		Trips:     persistedTrips(port),
		Settings:  settings,
		Timestamp: now.UTC(),
	}
}

func persistedTrips(port storage.Port) json.RawMessage {
	empty := json.RawMessage(`[]`)

	raw, err := port.Get(storage.KeyTrips)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			slog.Warn("export: read trips failed", slog.String("error", err.Error()))
		}
		return empty
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		slog.Warn("export: malformed persisted trips", slog.String("error", err.Error()))
		return empty
	}
	if entries == nil {
		return empty
	}
	return json.RawMessage(raw)
}

// Write emits d as indented JSON.
func (d Document) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

// FileName is the suggested download name for an export taken at now.
func FileName(now time.Time) string {
	return "travelmate-data-" + now.UTC().Format(time.DateOnly) + ".json"
}
