package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/crm/internal/models"
)

const employeeColumns = `id, name, email, password, created_at, updated_at`

func (s *Store) CreateEmployee(ctx context.Context, e *models.Employee) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("employee is nil")
	}

	now := toMillis(time.Now())
	var id int64
	err := s.conn.QueryRow(ctx,
		`INSERT INTO employees (name, email, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		e.Name, e.Email, e.PasswordHash, now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert employee: %w", err)
	}

	return id, nil
}

func (s *Store) GetEmployeeByID(ctx context.Context, id int64) (*models.Employee, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	return scanEmployee(row)
}

func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = ?`, email)
	return scanEmployee(row)
}

// scanEmployee returns nil, nil when there is no row.
func scanEmployee(row *sql.Row) (*models.Employee, error) {
	var e models.Employee
	var created, updated int64
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("scan employee: %w", err)
	}
	e.CreatedAt = fromMillis(created)
	e.UpdatedAt = fromMillis(updated)

	return &e, nil
}
