package events

import (
	"context"
	"time"
)

// Event types
const (
	EnquirySubmitted = "enquiry.submitted"
	EnquiryClaimed   = "enquiry.claimed"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type EnquirySubmittedEvent struct {
	EnquiryID int64 `json:"enquiryId"`
}

type EnquiryClaimedEvent struct {
	EnquiryID   int64 `json:"enquiryId"`
	CounselorID int64 `json:"counselorId"`
}

// Publisher delivers domain events. Callers treat delivery as best effort.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
