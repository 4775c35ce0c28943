// internal/store/store.go
package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"loan-journey/internal/models"

	"github.com/google/uuid"
)

// Store keeps terminal application outcomes for the admin dashboard.
// Records are append-only and listed in insertion order.
type Store interface {
	Persist(ctx context.Context, rec models.ApplicationRecord, status models.ApplicationStatus,
		sanction *models.SanctionRecord, rejectionReason string) (string, error)
	ListAll(ctx context.Context) ([]models.StoredApplication, error)
	GetByID(ctx context.Context, id string) (*models.StoredApplication, error)
}

// Stats counts every stored application by status.
func Stats(ctx context.Context, s Store) (models.DashboardStats, error) {
	apps, err := s.ListAll(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	return models.NewDashboardStats(apps), nil
}

const idSuffixLen = 9

// idSuffixSpace is 36^9, the number of distinct 9-character suffixes.
var idSuffixSpace = func() uint64 {
	n := uint64(1)
	for i := 0; i < idSuffixLen; i++ {
		n *= 36
	}
	return n
}()

// NewID returns "APP-<unix millis>-<9 uppercase base36 characters>". The
// suffix comes from a random UUID.
func NewID(now time.Time) string {
	u := uuid.New()
	var n uint64
	for _, b := range u[:8] {
		n = n<<8 | uint64(b)
	}
	suffix := strconv.FormatUint(n%idSuffixSpace, 36)
	if pad := idSuffixLen - len(suffix); pad > 0 {
		suffix = strings.Repeat("0", pad) + suffix
	}
	return "APP-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + strings.ToUpper(suffix)
}

// newStoredApplication stamps a record for insertion.
func newStoredApplication(now time.Time, rec models.ApplicationRecord, status models.ApplicationStatus,
	sanction *models.SanctionRecord, rejectionReason string) models.StoredApplication {
	now = now.UTC()
	app := models.StoredApplication{
		ID:              NewID(now),
		Data:            rec,
		Status:          status,
		Sanction:        sanction,
		RejectionReason: rejectionReason,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return app.Clone()
}
