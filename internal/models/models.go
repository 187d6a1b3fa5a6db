package models

import "time"

// Employee is a counselor account. PasswordHash never leaves the server.
type Employee struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type EmployeeSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (e *Employee) Summary() EmployeeSummary {
	return EmployeeSummary{ID: e.ID, Name: e.Name, Email: e.Email}
}

// Enquiry is an inbound interest record. It is either unclaimed (Claimed false,
// CounselorID nil) or claimed by exactly one employee.
type Enquiry struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	CourseInterest *string   `json:"courseInterest" db:"course_interest"`
	Claimed        bool      `json:"claimed" db:"claimed"`
	CounselorID    *int64    `json:"counselorId" db:"counselor_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// OwnedBy reports whether the enquiry is claimed by employeeID.
func (e *Enquiry) OwnedBy(employeeID int64) bool {
	return e.Claimed && e.CounselorID != nil && *e.CounselorID == employeeID
}

// EnquiryReceipt is all an anonymous submitter gets back.
type EnquiryReceipt struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
