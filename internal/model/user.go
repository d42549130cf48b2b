package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system. Secrets and token material are
// never serialized to JSON.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:150"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:200;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	Role         string    `json:"role" gorm:"size:50;default:'user'"`

	IsEmailVerified bool `json:"isEmailVerified" gorm:"default:false"`
	IsOAuthUser     bool `json:"isOAuthUser" gorm:"default:false"`

	TwoFactorEnabled bool   `json:"twoFactorEnabled" gorm:"default:false"`
	TwoFactorSecret  string `json:"-" gorm:"size:255"`

	// TokenVersion is embedded in every issued token; bumping it revokes all
	// outstanding sessions for the account.
	TokenVersion int `json:"-" gorm:"not null;default:0"`

	ResetPasswordToken   string     `json:"-" gorm:"size:64;index"`
	ResetPasswordExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address. Emails are unique
// per normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password.
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// SetPassword hashes and sets a new password for the user.
func (u *User) SetPassword(password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hashed
	return nil
}

// ClearResetToken clears the password reset fields after a successful reset.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = nil
}
