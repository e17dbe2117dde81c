package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pawtrack/walks-backend-go/internal/models"
)

// Bundle is the JSON export format. It round-trips: parsing a written
// bundle reproduces the same entities.
type Bundle struct {
	Walks       []models.Walk       `json:"walks"`
	TrackPoints []models.TrackPoint `json:"trackPoints"`
	StopEvents  []models.StopEvent  `json:"stopEvents"`
}

// WriteJSON writes the bundle to w.
func WriteJSON(w io.Writer, bundle *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	if err := enc.Encode(bundle); err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	return nil
}

// ReadJSON parses a bundle from r.
func ReadJSON(r io.Reader) (*Bundle, error) {
	var bundle Bundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	return &bundle, nil
}
