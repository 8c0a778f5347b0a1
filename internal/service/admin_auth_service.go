package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperr "surgepark/internal/errors"
	"surgepark/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AdminAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	CreateAdmin(ctx context.Context, email, password string) error
	// EnsureAdmin creates the admin unless one with that email exists. An
	// existing admin keeps its password. It reports whether it created one.
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type adminAuthService struct {
	repo   repository.AdminAuthRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAdminAuthService(repo repository.AdminAuthRepository, secret string, ttl time.Duration) AdminAuthService {
	return &adminAuthService{repo: repo, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *adminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	if admin == nil {
		return "", apperr.ErrUnauthorized(ErrInvalidCredentials.Error())
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", apperr.ErrUnauthorized(ErrInvalidCredentials.Error())
	}

	now := s.now()
	claims := jwt.MapClaims{
		"admin_id": admin.ID,
		"email":    admin.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *adminAuthService) CreateAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fmt.Errorf("email and password cannot be empty: %w", apperr.ErrInvalidInput)
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", apperr.ErrInvalidInput)
	}
	return s.repo.CreateNewUser(ctx, email, password)
}

func (s *adminAuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	existing, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if err := s.CreateAdmin(ctx, email, password); err != nil {
		return false, err
	}
	return true, nil
}
