package auth_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/crm/internal/apperr"
	"github.com/garnizeh/crm/internal/auth"
	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/pkg/repository/mock"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const secret = "testsecret"

func newService(m *mock.Mocks, jwtSecret string) *auth.Service {
	return auth.NewService(m.EmpRepo, config.AuthConfig{
		JWTSecret:  jwtSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil)
}

func register(t *testing.T, s *auth.Service, email, password string) int64 {
	t.Helper()
	got, err := s.Register(context.Background(), auth.RegisterInput{Name: "Alice", Email: email, Password: password})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return got.ID
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		in      auth.RegisterInput
		prepare func(m *mock.Mocks)
		wantErr error
	}{
		{name: "Success", in: auth.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "s3cret"}},
		{name: "MissingName", in: auth.RegisterInput{Email: "alice@example.com", Password: "s3cret"}, wantErr: apperr.ErrValidation},
		{name: "BlankName", in: auth.RegisterInput{Name: "   ", Email: "alice@example.com", Password: "s3cret"}, wantErr: apperr.ErrValidation},
		{name: "MissingEmail", in: auth.RegisterInput{Name: "Alice", Password: "s3cret"}, wantErr: apperr.ErrValidation},
		{name: "MissingPassword", in: auth.RegisterInput{Name: "Alice", Email: "alice@example.com"}, wantErr: apperr.ErrValidation},
		{name: "MalformedEmail", in: auth.RegisterInput{Name: "Alice", Email: "not-an-email", Password: "s3cret"}, wantErr: apperr.ErrValidation},
		{name: "PasswordAtBcryptLimit", in: auth.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: strings.Repeat("p", 72)}},
		{name: "PasswordTooLong", in: auth.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: strings.Repeat("p", 80)}, wantErr: apperr.ErrValidation},
		{
			name:    "RepoFailure",
			in:      auth.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "s3cret"},
			prepare: func(m *mock.Mocks) { m.EmpRepo.CreateErr = errors.New("disk full") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mock.NewMocks()
			if tt.prepare != nil {
				tt.prepare(m)
			}
			s := newService(m, secret)

			got, err := s.Register(context.Background(), tt.in)
			switch {
			case tt.name == "RepoFailure":
				if err == nil || errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrValidation) {
					t.Fatalf("expected internal error, got %v", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.ID == 0 || got.Name != "Alice" || got.Email != "alice@example.com" {
					t.Fatalf("unexpected summary: %+v", got)
				}
				stored := m.EmpRepo.Stored[0]
				if stored.PasswordHash == tt.in.Password {
					t.Fatalf("password stored in clear")
				}
				if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(tt.in.Password)) != nil {
					t.Fatalf("stored hash does not match password")
				}
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	m := mock.NewMocks()
	s := newService(m, secret)
	register(t, s, "dup@example.com", "pw")

	_, err := s.Register(context.Background(), auth.RegisterInput{Name: "Other", Email: "dup@example.com", Password: "pw2"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(m.EmpRepo.Stored) != 1 {
		t.Fatalf("expected exactly one employee, got %d", len(m.EmpRepo.Stored))
	}
}

func TestLogin(t *testing.T) {
	m := mock.NewMocks()
	s := newService(m, secret)
	id := register(t, s, "alice@example.com", "s3cret")
	ctx := context.Background()

	res, err := s.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Employee.ID != id || res.Employee.Email != "alice@example.com" {
		t.Fatalf("unexpected employee: %+v", res.Employee)
	}

	var claims auth.Claims
	if _, err := jwt.ParseWithClaims(res.Token, &claims, func(token *jwt.Token) (any, error) { return []byte(secret), nil }); err != nil {
		t.Fatalf("invalid token: %v", err)
	}
	if claims.EmployeeID != id || claims.Subject != strconv.FormatInt(id, 10) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) != time.Hour {
		t.Fatalf("unexpected token lifetime: %+v", claims.RegisteredClaims)
	}

	verified, err := s.Verify(ctx, res.Token)
	if err != nil || verified != id {
		t.Fatalf("Verify: got %d, %v", verified, err)
	}
}

func TestLogin_Failures(t *testing.T) {
	m := mock.NewMocks()
	s := newService(m, secret)
	register(t, s, "alice@example.com", "s3cret")
	ctx := context.Background()

	tests := []struct {
		name    string
		in      auth.LoginInput
		wantErr error
	}{
		{name: "MissingEmail", in: auth.LoginInput{Password: "s3cret"}, wantErr: apperr.ErrValidation},
		{name: "MissingPassword", in: auth.LoginInput{Email: "alice@example.com"}, wantErr: apperr.ErrValidation},
		{name: "UnknownEmail", in: auth.LoginInput{Email: "bob@example.com", Password: "s3cret"}, wantErr: apperr.ErrAuth},
		{name: "WrongPassword", in: auth.LoginInput{Email: "alice@example.com", Password: "nope"}, wantErr: apperr.ErrAuth},
	}

	var authMessages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Login(ctx, tt.in)
			if res != nil || !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %+v, %v", tt.wantErr, res, err)
			}
			if tt.wantErr == apperr.ErrAuth {
				authMessages = append(authMessages, apperr.MessageOf(err, ""))
			}
		})
	}

	if len(authMessages) != 2 || authMessages[0] != authMessages[1] {
		t.Fatalf("unknown email and wrong password must look the same: %q", authMessages)
	}
}

func TestLogin_MissingSecret(t *testing.T) {
	m := mock.NewMocks()
	s := newService(m, "")
	register(t, s, "alice@example.com", "s3cret")

	_, err := s.Login(context.Background(), auth.LoginInput{Email: "alice@example.com", Password: "s3cret"})
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}

	// bad credentials still look like bad credentials
	_, err = s.Login(context.Background(), auth.LoginInput{Email: "alice@example.com", Password: "wrong"})
	if !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestVerify_Rejects(t *testing.T) {
	m := mock.NewMocks()
	s := newService(m, secret)
	ctx := context.Background()

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}
	valid := func(id int64) auth.Claims {
		return auth.Claims{EmployeeID: id, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	}

	expired := valid(1)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := auth.Claims{EmployeeID: 1}

	tests := map[string]string{
		"Empty":       "",
		"Garbage":      "not.a.token",
		"WrongSecret": sign(jwt.SigningMethodHS256, []byte("other"), valid(1)),
		"Expired":     sign(jwt.SigningMethodHS256, []byte(secret), expired),
		"NoExpiry":    sign(jwt.SigningMethodHS256, []byte(secret), noExpiry),
		"WrongAlg":    sign(jwt.SigningMethodHS512, []byte(secret), valid(1)),
		"NoneAlg":     sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid(1)),
		"MissingID":   sign(jwt.SigningMethodHS256, []byte(secret), valid(0)),
		"NegativeID":  sign(jwt.SigningMethodHS256, []byte(secret), valid(-4)),
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			id, err := s.Verify(ctx, tok)
			if id != 0 || !errors.Is(err, apperr.ErrAuth) {
				t.Fatalf("expected auth error, got %d, %v", id, err)
			}
		})
	}
}

func TestVerify_UnknownEmployee(t *testing.T) {
	m := mock.NewMocks()
	s := newService(m, secret)
	ctx := context.Background()
	register(t, s, "alice@example.com", "s3cret")

	res, err := s.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// the employee row disappears after the token was issued
	m.EmpRepo.Stored = nil
	id, err := s.Verify(ctx, res.Token)
	if id != 0 || !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected auth error, got %d, %v", id, err)
	}
	if msg := apperr.MessageOf(err, ""); msg != "Invalid or expired token." {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestVerify_LookupFailure(t *testing.T) {
	m := mock.NewMocks()
	s := newService(m, secret)
	ctx := context.Background()
	register(t, s, "alice@example.com", "s3cret")

	res, err := s.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	m.EmpRepo.GetErr = errors.New("db down")
	_, err = s.Verify(ctx, res.Token)
	if err == nil || errors.Is(err, apperr.ErrAuth) || errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestVerify_MissingSecret(t *testing.T) {
	s := newService(mock.NewMocks(), "")
	if _, err := s.Verify(context.Background(), "anything"); !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}
