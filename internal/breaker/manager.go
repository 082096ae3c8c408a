package breaker

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Manager owns the process's named breakers so their stats can be reported
// together on the health endpoint.
type Manager struct {
	breakers map[string]*Breaker
	mutex    sync.RWMutex
	logger   *logrus.Logger
}

func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		breakers: make(map[string]*Breaker),
		logger:   logger,
	}
}

func (m *Manager) GetOrCreate(name string, config Config) *Breaker {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if b, ok := m.breakers[name]; ok {
		return b
	}

	config.Name = name
	b := New(config, m.logger)
	m.breakers[name] = b

	m.logger.WithFields(logrus.Fields{
		"circuit_breaker": name,
		"max_failures":    b.maxFailures,
		"open_timeout":    b.openTimeout.String(),
	}).Info("Circuit breaker created")

	return b
}

func (m *Manager) AllStats() []Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := make([]Stats, 0, len(m.breakers))
	for _, b := range m.breakers {
		stats = append(stats, b.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}
