package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/config"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/auth"
)

// AuthService authenticates back-office users and issues admin tokens.
// Accounts live in the admin_users table; a single bootstrap account can
// also be configured through ADMIN_USERNAME / ADMIN_PASSWORD_HASH so a
// fresh deployment is reachable before any seeding has run.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Login checks the credentials and returns a signed admin token. The same
// invalid_credentials error covers unknown usernames and wrong passwords
// so the endpoint does not leak which accounts exist.
func (s *AuthService) Login(username, password string) (string, *Error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", NewError(CodeInvalidCredentials, "invalid username or password")
	}

	hash, found, serr := s.lookupHash(username)
	if serr != nil {
		return "", serr
	}
	if !found || !auth.CheckPassword(hash, password) {
		return "", NewError(CodeInvalidCredentials, "invalid username or password")
	}

	token, err := auth.GenerateToken(username)
	if err != nil {
		return "", NewError(CodeStorageError, "could not issue token")
	}
	return token, nil
}

func (s *AuthService) lookupHash(username string) (string, bool, *Error) {
	var user models.AdminUser
	err := s.db.Where("username = ?", username).First(&user).Error
	if err == nil {
		return user.PasswordHash, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, storageError(err)
	}
	if bootUser := config.AdminUsername(); bootUser != "" && bootUser == username {
		if bootHash := config.AdminPasswordHash(); bootHash != "" {
			return bootHash, true, nil
		}
	}
	return "", false, nil
}
