package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zrougamed/cerberus-watch/internal/models"
)

const EVENT_MESSAGE = "message"

var ErrMalformedSnapshot = errors.New("malformed snapshot")

// wireSnapshot tells a missing field apart from a zero one.
type wireSnapshot struct {
	Running  *bool         `json:"running"`
	Duration int           `json:"duration"`
	Stats    *models.Stats `json:"stats"`
}

// DecodeSnapshot parses one stream payload. A payload without both running
// and stats is malformed, so null or {} never renders as an empty run.
func DecodeSnapshot(data []byte) (models.Snapshot, error) {
	var wire *wireSnapshot
	if err := json.Unmarshal(data, &wire); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	switch {
	case wire == nil:
		return models.Snapshot{}, fmt.Errorf("%w: empty payload", ErrMalformedSnapshot)
	case wire.Running == nil:
		return models.Snapshot{}, fmt.Errorf("%w: missing running", ErrMalformedSnapshot)
	case wire.Stats == nil:
		return models.Snapshot{}, fmt.Errorf("%w: missing stats", ErrMalformedSnapshot)
	}

	return models.Snapshot{
		Running:  *wire.Running,
		Duration: wire.Duration,
		Stats:    *wire.Stats,
	}, nil
}
