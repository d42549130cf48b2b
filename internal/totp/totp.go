package totp

import (
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Manager generates and validates time-based one-time codes.
type Manager struct {
	issuer string
}

// NewManager creates a manager stamping the given issuer into provisioning URIs.
func NewManager(issuer string) *Manager {
	return &Manager{issuer: issuer}
}

// GenerateSecret creates a fresh shared secret for the account and returns it
// together with the otpauth:// provisioning URI for authenticator apps.
func (m *Manager) GenerateSecret(accountEmail string) (secret, otpauthURL string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: accountEmail,
		Period:      30,
		SecretSize:  32,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// Validate checks a 6-digit code against the stored secret using the standard
// 30-second rolling window.
func (m *Manager) Validate(code, secret string) bool {
	return totp.Validate(code, secret)
}
