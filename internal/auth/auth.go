package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/garnizeh/crm/internal/apperr"
	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/internal/models"
	"github.com/garnizeh/crm/pkg/repository"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgRegisterRequired = "Name, email and password are required."
	msgLoginRequired    = "Email and password are both required."
	msgInvalidEmail     = "A valid email address is required."
	msgPasswordTooLong  = "Password must be at most 72 bytes."
	msgEmailTaken       = "An account already exists for this email."
	msgInvalidCreds     = "Invalid credentials."
	msgMisconfigured    = "Server misconfiguration."
	msgAuthRequired     = "Authentication required."
	msgInvalidToken     = "Invalid or expired token."
)

// bcrypt only hashes the first 72 bytes and refuses anything longer.
const maxPasswordBytes = 72

var validate = validator.New()

type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type LoginResult struct {
	Token    string                 `json:"token"`
	Employee models.EmployeeSummary `json:"employee"`
}

// Claims is the bearer token payload. ID duplicates the subject as a number so
// clients can read it without parsing.
type Claims struct {
	EmployeeID int64 `json:"id"`
	jwt.RegisteredClaims
}

// Service registers employees and issues and verifies their bearer tokens.
type Service struct {
	repo   repository.EmployeeRepo
	cfg    config.AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo repository.EmployeeRepo, cfg config.AuthConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = config.DefaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = config.DefaultBcryptCost
	}

	return &Service{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.EmployeeSummary, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := checkInput(in, msgRegisterRequired); err != nil {
		return nil, err
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, apperr.Validation(msgPasswordTooLong)
	}

	existing, err := s.repo.GetEmployeeByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup employee by email: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(msgEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	e := &models.Employee{Name: in.Name, Email: in.Email, PasswordHash: string(hash)}
	id, err := s.repo.CreateEmployee(ctx, e)
	if err != nil {
		// a concurrent registration can slip past the pre-check
		if db.IsUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.ErrConflict, msgEmailTaken, err)
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	e.ID = id

	s.logger.Info("employee registered", slog.Int64("employee_id", id))
	summary := e.Summary()

	return &summary, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := checkInput(in, msgLoginRequired); err != nil {
		return nil, err
	}

	e, err := s.repo.GetEmployeeByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup employee by email: %w", err)
	}
	if e == nil {
		return nil, apperr.Auth(msgInvalidCreds)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperr.Auth(msgInvalidCreds)
	}

	if s.cfg.JWTSecret == "" {
		s.logger.Error("JWT secret is missing; refusing to issue token")
		return nil, apperr.Config(msgMisconfigured)
	}

	token, err := s.issue(e.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Employee: e.Summary()}, nil
}

func (s *Service) issue(employeeID int64) (string, error) {
	now := s.now()
	claims := Claims{
		EmployeeID: employeeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(employeeID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks a bearer token and returns the employee id it was issued for.
// Tokens of employees that no longer exist are rejected like invalid ones.
func (s *Service) Verify(ctx context.Context, tokenString string) (int64, error) {
	if s.cfg.JWTSecret == "" {
		s.logger.Error("JWT secret is missing; cannot verify tokens")
		return 0, apperr.Config(msgMisconfigured)
	}
	if tokenString == "" {
		return 0, apperr.Auth(msgAuthRequired)
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		s.logger.Warn("token verification failed", slog.Any("err", err))
		return 0, apperr.Wrap(apperr.ErrAuth, msgInvalidToken, err)
	}
	if claims.EmployeeID <= 0 {
		return 0, apperr.Auth(msgInvalidToken)
	}

	e, err := s.repo.GetEmployeeByID(ctx, claims.EmployeeID)
	if err != nil {
		return 0, fmt.Errorf("lookup employee %d: %w", claims.EmployeeID, err)
	}
	if e == nil {
		s.logger.Warn("token for unknown employee", slog.Int64("employee_id", claims.EmployeeID))
		return 0, apperr.Auth(msgInvalidToken)
	}

	return e.ID, nil
}

// checkInput maps validator failures onto a single client-facing message:
// missing fields get requiredMsg, a malformed email gets its own.
func checkInput(in any, requiredMsg string) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return apperr.Validation(requiredMsg)
		}
	}

	return apperr.Validation(msgInvalidEmail)
}
