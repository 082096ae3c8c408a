package feed

import (
	"context"
	"strconv"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/sirupsen/logrus"
)

// Mismatch is one field that differs between the live list and the backend.
type Mismatch struct {
	OrderID string `json:"order_id"`
	Field   string `json:"field"`
	Live    string `json:"live"`
	Backend string `json:"backend"`
}

// Drift describes how far the event-driven list has wandered from the
// backend's full list.
type Drift struct {
	Live           int        `json:"live"`
	Backend        int        `json:"backend"`
	Matches        int        `json:"matches"`
	MissingLive    []string   `json:"missing_live"`
	Stale          []string   `json:"stale"`
	Mismatches     []Mismatch `json:"mismatches"`
	SyncPercentage float64    `json:"sync_percentage"`
}

func (d Drift) InSync() bool {
	return len(d.MissingLive) == 0 && len(d.Stale) == 0 && len(d.Mismatches) == 0
}

// Compare checks live against backend by order id. MissingLive lists orders
// the live list never received; Stale lists orders it still shows after
// they were deleted.
func Compare(live, backend []models.Order) Drift {
	d := Drift{
		Live:        len(live),
		Backend:     len(backend),
		MissingLive: []string{},
		Stale:       []string{},
		Mismatches:  []Mismatch{},
	}

	liveByID := make(map[string]*models.Order, len(live))
	for i := range live {
		liveByID[live[i].ID] = &live[i]
	}
	backendIDs := make(map[string]bool, len(backend))

	for i := range backend {
		b := &backend[i]
		backendIDs[b.ID] = true
		l, ok := liveByID[b.ID]
		if !ok {
			d.MissingLive = append(d.MissingLive, b.ID)
			continue
		}
		diffs := compareOrder(l, b)
		if len(diffs) == 0 {
			d.Matches++
		}
		d.Mismatches = append(d.Mismatches, diffs...)
	}

	for _, l := range live {
		if !backendIDs[l.ID] {
			d.Stale = append(d.Stale, l.ID)
		}
	}

	union := len(backend) + len(d.Stale)
	if union == 0 {
		d.SyncPercentage = 100
	} else {
		d.SyncPercentage = float64(d.Matches) / float64(union) * 100
	}
	return d
}

func compareOrder(live, backend *models.Order) []Mismatch {
	fields := []struct {
		name          string
		live, backend string
	}{
		{"status", string(live.Status), string(backend.Status)},
		{"pickup_date", live.PickupDate, backend.PickupDate},
		{"pickup_time", live.PickupTime, backend.PickupTime},
		{"customer_name", live.CustomerName, backend.CustomerName},
		{"customer_phone", live.CustomerPhone, backend.CustomerPhone},
		{"items", strconv.Itoa(len(live.Items)), strconv.Itoa(len(backend.Items))},
	}

	var out []Mismatch
	for _, f := range fields {
		if f.live != f.backend {
			out = append(out, Mismatch{OrderID: backend.ID, Field: f.name, Live: f.live, Backend: f.backend})
		}
	}
	return out
}

// Reconcile fetches the full list, reports drift and replaces the live list
// with the backend's when they differ.
func (c *Client) Reconcile(ctx context.Context, list *List) (Drift, error) {
	start := time.Now()
	backend, err := c.FetchOrders(ctx)
	if err != nil {
		return Drift{}, err
	}

	drift := Compare(list.Orders(), backend)
	fields := logrus.Fields{
		"live":            drift.Live,
		"backend":         drift.Backend,
		"missing_live":    len(drift.MissingLive),
		"stale":           len(drift.Stale),
		"mismatches":      len(drift.Mismatches),
		"sync_percentage": drift.SyncPercentage,
		"duration":        time.Since(start).Milliseconds(),
	}
	if drift.InSync() {
		c.logger.WithFields(fields).Debug("Live list in sync")
		return drift, nil
	}

	c.logger.WithFields(fields).Warn("Live list drifted, reloading")
	list.Reload(backend)
	return drift, nil
}
