package services

import (
	"errors"
	"strings"

	"github.com/nicbou/homeserver/internal/config"
	"github.com/nicbou/homeserver/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// AuthService handles authentication operations
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthService
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		cfg: cfg,
	}
}

// Login authenticates the admin user and returns a JWT token. The
// configured password may be a bcrypt hash or a plain value.
func (s *AuthService) Login(username, password string) (string, error) {
	if username != s.cfg.Admin.Username {
		return "", ErrInvalidCredentials
	}

	if !s.checkPassword(password) {
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(username)
	if err != nil {
		return "", err
	}

	return token, nil
}

// ValidateToken validates a JWT token
func (s *AuthService) ValidateToken(token string) (*utils.JWTClaims, error) {
	return utils.ValidateToken(token)
}

func (s *AuthService) checkPassword(password string) bool {
	configured := s.cfg.Admin.Password
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") || strings.HasPrefix(configured, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(password)) == nil
	}
	return password == configured
}

// HashPassword returns a bcrypt hash suitable for the admin.password
// config value
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
