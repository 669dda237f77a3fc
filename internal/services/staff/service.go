package staff

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/repository"
	"github.com/xelth-com/eckposgo/internal/utils"
)

const minPasswordLength = 8

// Service manages staff accounts and issues login tokens
type Service struct {
	repos  *repository.Repos
	secret string
	log    *logger.Logger
}

func NewService(repos *repository.Repos, jwtSecret string, baseLog *logger.Logger) *Service {
	return &Service{repos: repos, secret: jwtSecret, log: baseLog.With("service", "StaffService")}
}

// NewStaff describes an account to create
type NewStaff struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (s *Service) Create(ctx context.Context, in NewStaff) (*models.StaffUser, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	role := in.Role
	if role == "" {
		role = models.RoleCashier
	}
	if role != models.RoleManager && role != models.RoleCashier {
		return nil, apperr.Validation("unknown role %q", in.Role)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.StaffUser{Username: username, Password: hash, Name: in.Name, Role: role, IsActive: true}
	if err := s.repos.Staff.Create(ctx, nil, u); err != nil {
		return nil, err
	}
	s.log.Info("staff account created", "username", u.Username, "role", u.Role)
	return u, nil
}

// Session is a successful login
type Session struct {
	Token string            `json:"access_token"`
	Type  string            `json:"token_type"`
	User  *models.StaffUser `json:"user"`
}

// Login checks credentials and returns a signed token. Unknown users, wrong
// passwords and disabled accounts all fail the same way.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.repos.Staff.GetByUsername(ctx, nil, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if !u.IsActive || !utils.CheckPasswordHash(password, u.Password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.Issue(u, 0)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.repos.Staff.TouchLogin(ctx, nil, u.ID, now); err != nil {
		s.log.Warn("failed to record login", "username", u.Username, "error", err)
	}
	u.LastLogin = &now
	return &Session{Token: token, Type: "bearer", User: u}, nil
}

// Issue signs a token for u without checking a password
func (s *Service) Issue(u *models.StaffUser, ttl time.Duration) (string, error) {
	return utils.GenerateToken(u, s.secret, ttl)
}

// IssueFor looks up username and signs a token for it
func (s *Service) IssueFor(ctx context.Context, username string, ttl time.Duration) (string, error) {
	u, err := s.repos.Staff.GetByUsername(ctx, nil, username)
	if err != nil {
		return "", err
	}
	return s.Issue(u, ttl)
}
