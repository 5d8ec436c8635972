// Package backup reads and writes the full-state JSON backup document. The
// on-disk document is a superset of the in-memory state and accepts
// legacy field names from older exports.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/minhng/focusgarden/internal/logger"
	"github.com/minhng/focusgarden/internal/state"
)

// ErrMalformed rejects an import that is not a state document.
var ErrMalformed = errors.New("malformed backup file")

// document is the backup shape: the state plus legacy/alternate keys kept
// for cross-version compatibility on import.
type document struct {
	state.State

	// Legacy flattened progression keys from old exports. The nested
	// profile wins when both are present.
	LegacyIslandXP     *int64 `json:"island_xp_sec,omitempty"`
	LegacyGardenGrowth *int64 `json:"garden_growth_sec,omitempty"`
	LegacyGarden       *struct {
		GrowthSec *int64 `json:"growth_sec"`
	} `json:"garden,omitempty"`
}

// Export writes the full aggregate to path as indented JSON.
func Export(c *state.Container, path string) error {
	var data []byte
	var err error
	c.View(func(st *state.State) {
		data, err = json.MarshalIndent(st, "", "  ")
	})
	if err != nil {
		return fmt.Errorf("failed to serialize backup: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	logger.Info("State exported", logger.F("path", path), logger.F("bytes", len(data)))
	return nil
}

// Import replaces local state wholesale with the decoded document, merged
// with defaults. The caller must arm force-push afterwards so the next
// reconciliation does not overwrite the restored data with stale remote
// rows. Local state is untouched on any validation failure.
func Import(c *state.Container, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	st, err := Decode(data)
	if err != nil {
		return err
	}
	if err := c.Replace(st); err != nil {
		logger.Warn("Imported state not fully persisted", logger.F("error", err))
	}
	logger.Info("State imported", logger.F("path", path), logger.F("sessions", len(st.Sessions)))
	return nil
}

// Decode validates and decodes a backup document. Minimal validation: the
// document must be a JSON object carrying a sessions array.
func Decode(data []byte) (*state.State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	rawSessions, ok := fields["sessions"]
	if !ok {
		return nil, fmt.Errorf("%w: missing sessions", ErrMalformed)
	}
	var sessions []json.RawMessage
	if err := json.Unmarshal(rawSessions, &sessions); err != nil {
		return nil, fmt.Errorf("%w: sessions is not an array", ErrMalformed)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	st := doc.State
	if st.Profile.IslandXPSec == 0 && doc.LegacyIslandXP != nil {
		st.Profile.IslandXPSec = *doc.LegacyIslandXP
	}
	if st.Profile.GardenGrowthSec == 0 {
		if doc.LegacyGarden != nil && doc.LegacyGarden.GrowthSec != nil {
			st.Profile.GardenGrowthSec = *doc.LegacyGarden.GrowthSec
		} else if doc.LegacyGardenGrowth != nil {
			st.Profile.GardenGrowthSec = *doc.LegacyGardenGrowth
		}
	}

	state.Normalize(&st)
	return &st, nil
}
