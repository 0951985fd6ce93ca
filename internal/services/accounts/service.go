package accounts

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"scorify/internal/apperror"
	"scorify/internal/auth"
	"scorify/internal/domain"
	"scorify/internal/ports"
)

// User is the public view of an account.
type User struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role,omitempty"`
}

// Registration is a new account request. Role defaults to Sales.
type Registration struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

var (
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "accounts.login", "Email atau password salah", nil)
	ErrNotFound           = apperror.New(apperror.KindNotFound, "accounts.me", "User not found", nil)
	ErrEmailTaken         = apperror.New(apperror.KindConflict, "accounts.register", "Email is already registered", nil)
)

type Service struct {
	users  ports.UserRepository
	tokens *auth.Issuer
}

func New(users ports.UserRepository, tokens *auth.Issuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// Login checks credentials and returns the user with a fresh session token.
// Unknown emails and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	u, found, err := s.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, "", apperror.Internal("accounts.login", err)
	}
	if !found || !auth.ComparePassword(password, u.PasswordHash) {
		return User{}, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Sign(u)
	if err != nil {
		return User{}, "", apperror.Internal("accounts.login", err)
	}
	return publicUser(u), token, nil
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, r Registration) (User, error) {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	if r.Role == "" {
		r.Role = domain.RoleSales
	}
	if msg := r.validate(); msg != "" {
		return User{}, apperror.New(apperror.KindInvalid, "accounts.register", msg, nil)
	}

	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return User{}, apperror.Internal("accounts.register", err)
	}
	u := domain.User{
		ID:           uuid.NewString(),
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Role:         r.Role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return User{}, apperror.Internal("accounts.register", err)
	}
	if !created {
		return User{}, ErrEmailTaken
	}
	return publicUser(u), nil
}

func (r Registration) validate() string {
	if r.Name == "" {
		return "Name is required"
	}
	if _, err := mail.ParseAddress(r.Email); err != nil || !strings.Contains(r.Email, "@") {
		return "Invalid email format"
	}
	if n := len(r.Phone); n < 10 || n > 15 || strings.Trim(r.Phone, "0123456789") != "" {
		return "Phone number must be 10 to 15 digits"
	}
	if len(r.Password) < 6 {
		return "Password must be at least 6 characters long"
	}
	if r.Role != domain.RoleSales && r.Role != domain.RoleAdmin {
		return "Role must be Admin or Sales"
	}
	return ""
}

func (s *Service) Me(ctx context.Context, id string) (User, error) {
	u, found, err := s.users.UserByID(ctx, id)
	if err != nil {
		return User{}, apperror.Internal("accounts.me", err)
	}
	if !found {
		return User{}, ErrNotFound
	}
	return publicUser(u), nil
}

// ListSales returns every sales user ordered by name, without roles.
func (s *Service) ListSales(ctx context.Context) ([]User, error) {
	users, err := s.users.UsersByRole(ctx, domain.RoleSales)
	if err != nil {
		return nil, apperror.Internal("accounts.list_sales", err)
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, User{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return out, nil
}

func publicUser(u domain.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
