package enquiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/crm/internal/apperr"
	"github.com/garnizeh/crm/internal/events"
	"github.com/garnizeh/crm/internal/models"
	"github.com/garnizeh/crm/pkg/repository"
	"github.com/go-playground/validator/v10"
)

type Outcome string

const (
	OutcomeClaimed      Outcome = "claimed"
	OutcomeAlreadyYours Outcome = "already_yours"

	// outcomes that only show up in metrics
	outcomeConflict = "conflict"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

const (
	MsgSubmitted    = "Thanks! Someone will get back to you shortly."
	MsgClaimed      = "Enquiry claimed successfully."
	MsgAlreadyYours = "Enquiry was already claimed by you."

	msgRequired     = "Name and email are required to submit an enquiry."
	msgInvalidEmail = "A valid email address is required."
	msgNotFound     = "Enquiry not found."
	msgTaken        = "This enquiry has already been claimed."
)

const publishTimeout = 2 * time.Second

var validate = validator.New()

type SubmitInput struct {
	Name           string `validate:"required"`
	Email          string `validate:"required,email"`
	CourseInterest *string
}

type ClaimResult struct {
	Enquiry *models.Enquiry
	Outcome Outcome
}

// Message is the client-facing text for the result.
func (r *ClaimResult) Message() string {
	if r.Outcome == OutcomeAlreadyYours {
		return MsgAlreadyYours
	}

	return MsgClaimed
}

// ClaimObserver is notified of every claim attempt with its outcome label.
type ClaimObserver interface {
	ObserveClaim(outcome string)
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithClaimObserver(o ClaimObserver) Option {
	return func(s *Service) { s.observer = o }
}

// Service implements the enquiry workflow: anonymous submission, the shared
// unclaimed pool, each counselor's own list and the claim transition.
type Service struct {
	repo      repository.EnquiryRepo
	logger    *slog.Logger
	publisher events.Publisher
	observer  ClaimObserver
	now       func() time.Time
}

func NewService(repo repository.EnquiryRepo, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, logger: logger, publisher: events.Nop{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Submit stores a new unclaimed enquiry. Fields are kept exactly as sent;
// surrounding whitespace only matters for the required checks, and a blank
// course interest is stored as NULL.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.EnquiryReceipt, error) {
	check := SubmitInput{Name: strings.TrimSpace(in.Name), Email: strings.TrimSpace(in.Email)}
	if err := validate.Struct(check); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Tag() == "email" {
			return nil, apperr.Validation(msgInvalidEmail)
		}
		return nil, apperr.Validation(msgRequired)
	}

	var course *string
	if in.CourseInterest != nil && strings.TrimSpace(*in.CourseInterest) != "" {
		c := *in.CourseInterest
		course = &c
	}

	created, err := s.repo.CreateEnquiry(ctx, &models.Enquiry{Name: in.Name, Email: in.Email, CourseInterest: course})
	if err != nil {
		return nil, fmt.Errorf("create enquiry: %w", err)
	}

	s.logger.Info("enquiry submitted", slog.Int64("enquiry_id", created.ID))
	s.publish(ctx, events.EnquirySubmitted, events.EnquirySubmittedEvent{EnquiryID: created.ID})

	return &models.EnquiryReceipt{ID: created.ID, CreatedAt: created.CreatedAt}, nil
}

func (s *Service) ListUnclaimed(ctx context.Context) ([]models.Enquiry, error) {
	list, err := s.repo.ListUnclaimed(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unclaimed enquiries: %w", err)
	}

	return list, nil
}

// ListOwned returns the enquiries claimed by employeeID, most recently
// claimed first.
func (s *Service) ListOwned(ctx context.Context, employeeID int64) ([]models.Enquiry, error) {
	list, err := s.repo.ListByCounselor(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list enquiries for counselor %d: %w", employeeID, err)
	}

	return list, nil
}

// Claim hands an unclaimed enquiry to employeeID. The store applies the
// transition as one guarded update; when the guard does not match the row is
// re-read only to pick the right answer, never to write.
func (s *Service) Claim(ctx context.Context, enquiryID, employeeID int64) (*ClaimResult, error) {
	res, err := s.claim(ctx, enquiryID, employeeID)
	s.observe(res, err)
	if err != nil {
		return nil, err
	}

	if res.Outcome == OutcomeClaimed {
		s.logger.Info("enquiry claimed", slog.Int64("enquiry_id", enquiryID), slog.Int64("counselor_id", employeeID))
		s.publish(ctx, events.EnquiryClaimed, events.EnquiryClaimedEvent{EnquiryID: enquiryID, CounselorID: employeeID})
	}

	return res, nil
}

func (s *Service) claim(ctx context.Context, enquiryID, employeeID int64) (*ClaimResult, error) {
	if enquiryID <= 0 {
		return nil, apperr.NotFound(msgNotFound)
	}

	claimed, err := s.repo.ClaimIfUnclaimed(ctx, enquiryID, employeeID, s.now())
	if err != nil {
		return nil, fmt.Errorf("claim enquiry %d: %w", enquiryID, err)
	}
	if claimed != nil {
		return &ClaimResult{Enquiry: claimed, Outcome: OutcomeClaimed}, nil
	}

	current, err := s.repo.GetEnquiry(ctx, enquiryID)
	if err != nil {
		return nil, fmt.Errorf("read enquiry %d: %w", enquiryID, err)
	}
	switch {
	case current == nil:
		return nil, apperr.NotFound(msgNotFound)
	case current.OwnedBy(employeeID):
		return &ClaimResult{Enquiry: current, Outcome: OutcomeAlreadyYours}, nil
	default:
		return nil, apperr.Conflict(msgTaken)
	}
}

func (s *Service) observe(res *ClaimResult, err error) {
	if s.observer == nil {
		return
	}

	var outcome string
	switch {
	case err == nil:
		outcome = string(res.Outcome)
	case errors.Is(err, apperr.ErrConflict):
		outcome = outcomeConflict
	case errors.Is(err, apperr.ErrNotFound):
		outcome = outcomeNotFound
	default:
		outcome = outcomeError
	}
	s.observer.ObserveClaim(outcome)
}

func (s *Service) publish(ctx context.Context, eventType string, data any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", slog.String("type", eventType), slog.Any("err", err))
	}
}
