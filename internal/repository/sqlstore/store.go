package sqlstore

import (
	"log/slog"
	"time"

	"github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/pkg/repository"
)

// Store implements repository interfaces using the internal DB wrapper. The
// same SQL runs on sqlite and postgres; timestamps are stored as unix millis.
type Store struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure Store implements the public interfaces.
var _ repository.EmployeeRepo = (*Store)(nil)
var _ repository.EnquiryRepo = (*Store)(nil)

func New(conn *db.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{conn: conn, logger: logger}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
