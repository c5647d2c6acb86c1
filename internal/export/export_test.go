package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/storage"
)

var now = time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

func TestBuild_WithTrips(t *testing.T) {
	port := storage.NewMemory()
	trips := `[{"id":"a","title":"Paris Trip"}]`
	require.NoError(t, port.Set(storage.KeyTrips, []byte(trips)))

	doc := Build(port, models.DefaultPreferences(), now)

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))

	var got struct {
		Trips     []map[string]any       `json:"trips"`
		Settings  models.UserPreferences `json:"settings"`
		Timestamp time.Time              `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Trips, 1)
	assert.Equal(t, "Paris Trip", got.Trips[0]["title"])
	assert.Equal(t, models.DefaultPreferences(), got.Settings)
	assert.True(t, now.Equal(got.Timestamp))
	assert.Contains(t, buf.String(), "\n  \"trips\"")
}

func TestBuild_MissingOrMalformedTrips(t *testing.T) {
	for name, raw := range map[string]string{"missing": "", "malformed": "{oops", "object": `{"id":"a"}`, "null": "null"} {
		t.Run(name, func(t *testing.T) {
			port := storage.NewMemory()
			if raw != "" {
				require.NoError(t, port.Set(storage.KeyTrips, []byte(raw)))
			}
			doc := Build(port, models.DefaultPreferences(), now)
			assert.JSONEq(t, `[]`, string(doc.Trips))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "travelmate-data-2025-06-01.json", FileName(now))
	local := time.Date(2025, 6, 2, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, "travelmate-data-2025-06-01.json", FileName(local))
}
