// Package feed keeps an admin's view of the order list in step with the
// realtime change stream.
package feed

import (
	"sync"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
)

// List is the live order list, newest first. It applies each change as it
// arrives without ordering or versioning, so a missed or reordered event can
// leave it stale until the next Reload.
type List struct {
	mu     sync.RWMutex
	orders []models.Order
}

func NewList() *List {
	return &List{orders: []models.Order{}}
}

// Reload replaces the list with the backend's full order list.
func (l *List) Reload(orders []models.Order) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = append(make([]models.Order, 0, len(orders)), orders...)
}

// Apply folds one change into the list. It reports whether the change was a
// new order, which the caller announces.
func (l *List) Apply(change models.OrderChange) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch change.Type {
	case models.ChangeInsert:
		if change.Order == nil {
			return false
		}
		if i := l.indexOf(change.Order.ID); i >= 0 {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
		}
		l.orders = append([]models.Order{*change.Order}, l.orders...)
		return true

	case models.ChangeUpdate:
		if change.Order == nil {
			return false
		}
		if i := l.indexOf(change.Order.ID); i >= 0 {
			l.orders[i] = *change.Order
		} else {
			l.orders = append(l.orders, *change.Order)
		}

	case models.ChangeDelete:
		id := change.OrderID
		if id == "" && change.Order != nil {
			id = change.Order.ID
		}
		if i := l.indexOf(id); i >= 0 {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
		}
	}
	return false
}

func (l *List) indexOf(id string) int {
	for i := range l.orders {
		if l.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// Orders returns a copy of the current list.
func (l *List) Orders() []models.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Order(nil), l.orders...)
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders)
}

// CountByStatus tallies the list per status.
func (l *List) CountByStatus() map[models.Status]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, o := range l.orders {
		counts[o.Status]++
	}
	return counts
}
