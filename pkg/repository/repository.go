package repository

import (
	"context"
	"time"

	"github.com/garnizeh/crm/internal/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type EmployeeRepo interface {
	// CreateEmployee returns the new id. A duplicate email surfaces as an
	// error for which db.IsUniqueViolation is true.
	CreateEmployee(ctx context.Context, e *models.Employee) (int64, error)
	GetEmployeeByID(ctx context.Context, id int64) (*models.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
}

type EnquiryRepo interface {
	CreateEnquiry(ctx context.Context, e *models.Enquiry) (*models.Enquiry, error)
	GetEnquiry(ctx context.Context, id int64) (*models.Enquiry, error)
	ListUnclaimed(ctx context.Context) ([]models.Enquiry, error)
	ListByCounselor(ctx context.Context, counselorID int64) ([]models.Enquiry, error)
	// ClaimIfUnclaimed assigns the enquiry to counselorID only if it is still
	// unclaimed, in a single statement. It returns nil, nil when the guard did
	// not match (missing or already claimed).
	ClaimIfUnclaimed(ctx context.Context, id, counselorID int64, at time.Time) (*models.Enquiry, error)
}
