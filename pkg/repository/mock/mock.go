package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/garnizeh/crm/internal/models"
)

// Test helpers and mocks
type Mocks struct {
	EmpRepo *mockEmployeeRepo
	EnqRepo *mockEnquiryRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		EmpRepo: &mockEmployeeRepo{},
		EnqRepo: &mockEnquiryRepo{},
	}
}

type mockEmployeeRepo struct {
	mu        sync.Mutex
	Stored    []*models.Employee
	CreateErr error
	GetErr    error
}

func (m *mockEmployeeRepo) CreateEmployee(ctx context.Context, e *models.Employee) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	id := int64(len(m.Stored) + 1)
	now := time.Now()
	m.Stored = append(m.Stored, &models.Employee{ID: id, Name: e.Name, Email: e.Email, PasswordHash: e.PasswordHash, CreatedAt: now, UpdatedAt: now})
	return id, nil
}

func (m *mockEmployeeRepo) GetEmployeeByID(ctx context.Context, id int64) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, e := range m.Stored {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockEmployeeRepo) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, e := range m.Stored {
		if e.Email == email {
			return e, nil
		}
	}
	return nil, nil
}

type mockEnquiryRepo struct {
	mu        sync.Mutex
	Stored    []*models.Enquiry
	CreateErr error
	GetErr    error
	ListErr   error
	ClaimErr  error
}

func (m *mockEnquiryRepo) CreateEnquiry(ctx context.Context, e *models.Enquiry) (*models.Enquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	now := time.Now()
	stored := *e
	stored.ID = int64(len(m.Stored) + 1)
	stored.Claimed = false
	stored.CounselorID = nil
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.Stored = append(m.Stored, &stored)
	out := stored
	return &out, nil
}

func (m *mockEnquiryRepo) GetEnquiry(ctx context.Context, id int64) (*models.Enquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if e := m.find(id); e != nil {
		out := *e
		return &out, nil
	}
	return nil, nil
}

func (m *mockEnquiryRepo) ListUnclaimed(ctx context.Context) ([]models.Enquiry, error) {
	return m.list(func(e *models.Enquiry) bool { return !e.Claimed }, func(e *models.Enquiry) time.Time { return e.CreatedAt })
}

func (m *mockEnquiryRepo) ListByCounselor(ctx context.Context, counselorID int64) ([]models.Enquiry, error) {
	return m.list(func(e *models.Enquiry) bool { return e.OwnedBy(counselorID) }, func(e *models.Enquiry) time.Time { return e.UpdatedAt })
}

func (m *mockEnquiryRepo) ClaimIfUnclaimed(ctx context.Context, id, counselorID int64, at time.Time) (*models.Enquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClaimErr != nil {
		return nil, m.ClaimErr
	}
	e := m.find(id)
	if e == nil || e.Claimed {
		return nil, nil
	}
	owner := counselorID
	e.Claimed = true
	e.CounselorID = &owner
	e.UpdatedAt = at
	out := *e
	return &out, nil
}

// Claim marks an enquiry as owned without going through the guard, for test setup.
func (m *mockEnquiryRepo) Claim(id, counselorID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.find(id); e != nil {
		owner := counselorID
		e.Claimed = true
		e.CounselorID = &owner
	}
}

func (m *mockEnquiryRepo) find(id int64) *models.Enquiry {
	for _, e := range m.Stored {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (m *mockEnquiryRepo) list(keep func(*models.Enquiry) bool, key func(*models.Enquiry) time.Time) ([]models.Enquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := []models.Enquiry{}
	for _, e := range m.Stored {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(&out[i]), key(&out[j])
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
