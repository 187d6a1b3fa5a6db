package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/crm/internal/models"
)

const enquiryColumns = `id, name, email, course_interest, claimed, counselor_id, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) CreateEnquiry(ctx context.Context, e *models.Enquiry) (*models.Enquiry, error) {
	if e == nil {
		return nil, fmt.Errorf("enquiry is nil")
	}

	now := toMillis(time.Now())
	row := s.conn.QueryRow(ctx,
		`INSERT INTO enquiries (name, email, course_interest, claimed, counselor_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULL, ?, ?) RETURNING `+enquiryColumns,
		e.Name, e.Email, e.CourseInterest, false, now, now,
	)
	created, err := scanEnquiry(row)
	if err != nil {
		return nil, fmt.Errorf("insert enquiry: %w", err)
	}

	return created, nil
}

// GetEnquiry returns nil, nil when the id does not exist.
func (s *Store) GetEnquiry(ctx context.Context, id int64) (*models.Enquiry, error) {
	e, err := scanEnquiry(s.conn.QueryRow(ctx, `SELECT `+enquiryColumns+` FROM enquiries WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enquiry %d: %w", id, err)
	}

	return e, nil
}

func (s *Store) ListUnclaimed(ctx context.Context) ([]models.Enquiry, error) {
	return s.list(ctx, `SELECT `+enquiryColumns+` FROM enquiries WHERE claimed = ? ORDER BY created_at DESC, id DESC`, false)
}

func (s *Store) ListByCounselor(ctx context.Context, counselorID int64) ([]models.Enquiry, error) {
	return s.list(ctx, `SELECT `+enquiryColumns+` FROM enquiries WHERE counselor_id = ? ORDER BY updated_at DESC, id DESC`, counselorID)
}

// ClaimIfUnclaimed is the compare-and-set for the claim transition: the guard
// on claimed and the assignment happen in one statement, so two concurrent
// claimers can never both see the row as unclaimed.
func (s *Store) ClaimIfUnclaimed(ctx context.Context, id, counselorID int64, at time.Time) (*models.Enquiry, error) {
	row := s.conn.QueryRow(ctx,
		`UPDATE enquiries SET claimed = ?, counselor_id = ?, updated_at = ?
		 WHERE id = ? AND claimed = ? AND counselor_id IS NULL
		 RETURNING `+enquiryColumns,
		true, counselorID, toMillis(at), id, false,
	)
	e, err := scanEnquiry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim enquiry %d: %w", id, err)
	}

	s.logger.Debug("enquiry claimed", "enquiry_id", id, "counselor_id", counselorID)
	return e, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]models.Enquiry, error) {
	rows, err := s.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enquiries: %w", err)
	}
	defer rows.Close()

	out := []models.Enquiry{}
	for rows.Next() {
		e, err := scanEnquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("list enquiries: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list enquiries: %w", err)
	}

	return out, nil
}

func scanEnquiry(row rowScanner) (*models.Enquiry, error) {
	var (
		e                models.Enquiry
		course           sql.NullString
		counselor        sql.NullInt64
		created, updated int64
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &course, &e.Claimed, &counselor, &created, &updated); err != nil {
		return nil, err
	}

	if course.Valid {
		v := course.String
		e.CourseInterest = &v
	}
	if counselor.Valid {
		v := counselor.Int64
		e.CounselorID = &v
	}
	e.CreatedAt = fromMillis(created)
	e.UpdatedAt = fromMillis(updated)

	return &e, nil
}
