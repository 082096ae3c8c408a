package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
)

func TestCompare(t *testing.T) {
	live := []models.Order{
		{ID: "a", Status: models.StatusPending},
		{ID: "b", Status: models.StatusReady},
		{ID: "gone", Status: models.StatusPending},
	}
	backend := []models.Order{
		{ID: "a", Status: models.StatusPending},
		{ID: "b", Status: models.StatusCompleted},
		{ID: "new", Status: models.StatusPending},
	}

	d := Compare(live, backend)
	if d.InSync() {
		t.Fatal("Expected drift")
	}
	if d.Matches != 1 {
		t.Errorf("Expected 1 match, got %d", d.Matches)
	}
	if len(d.MissingLive) != 1 || d.MissingLive[0] != "new" {
		t.Errorf("Unexpected missing %v", d.MissingLive)
	}
	if len(d.Stale) != 1 || d.Stale[0] != "gone" {
		t.Errorf("Unexpected stale %v", d.Stale)
	}
	if len(d.Mismatches) != 1 || d.Mismatches[0].Field != "status" || d.Mismatches[0].Backend != "completed" {
		t.Errorf("Unexpected mismatches %+v", d.Mismatches)
	}
	if d.SyncPercentage != 25 {
		t.Errorf("Expected 25%%, got %v", d.SyncPercentage)
	}
}

func TestCompareEmptyIsInSync(t *testing.T) {
	d := Compare(nil, nil)
	if !d.InSync() || d.SyncPercentage != 100 {
		t.Errorf("Unexpected drift %+v", d)
	}
}

func TestReconcileReloadsOnDrift(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Order{{ID: "a", Status: models.StatusReady}})
	}))
	defer srv.Close()

	list := NewList()
	list.Reload([]models.Order{{ID: "a", Status: models.StatusPending}, {ID: "b"}})

	d, err := NewClient(srv.URL, "t", quietLogger()).Reconcile(context.Background(), list)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.InSync() {
		t.Error("Expected drift to be reported")
	}
	orders := list.Orders()
	if len(orders) != 1 || orders[0].Status != models.StatusReady {
		t.Errorf("Expected list replaced by backend, got %+v", orders)
	}
}
