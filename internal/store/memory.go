// internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/models"
)

// MemoryStore keeps applications for the life of the process.
type MemoryStore struct {
	mu   sync.Mutex
	apps []models.StoredApplication
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Persist(_ context.Context, rec models.ApplicationRecord, status models.ApplicationStatus,
	sanction *models.SanctionRecord, rejectionReason string) (string, error) {
	app := newStoredApplication(m.now(), rec, status, sanction, rejectionReason)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps = append(m.apps, app)
	return app.ID, nil
}

func (m *MemoryStore) ListAll(_ context.Context) ([]models.StoredApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.StoredApplication, len(m.apps))
	for i := range m.apps {
		out[i] = m.apps[i].Clone()
	}
	return out, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*models.StoredApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.apps {
		if m.apps[i].ID == id {
			app := m.apps[i].Clone()
			return &app, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrApplicationNotFound, id)
}
