package dataset

import (
	"time"

	"github.com/herdstack/herd/engine/domain"
)

// Dataset is the immutable working dataset for a session: one row per
// company–investor pair. No component mutates it after load; filtering and
// aggregation produce derived views.
type Dataset struct {
	Rows     []domain.Company
	URL      string
	LoadedAt time.Time
	// Dropped counts raw rows excluded at load time for missing valuation.
	Dropped int
}

// Len returns the number of working rows.
func (d *Dataset) Len() int { return len(d.Rows) }
