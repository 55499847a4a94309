package config

import "strings"

// AuthType enumerates supported clone authentication methods.
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

// AuthConfig represents clone authentication configuration.
type AuthConfig struct {
	Type     AuthType `yaml:"type"` // token|basic|none
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
}

// IsZero reports whether no auth method specified.
func (a *AuthConfig) IsZero() bool { return a == nil || a.Type == "" || a.Type == AuthTypeNone }

// IsValid reports whether t is a known auth type.
func (t AuthType) IsValid() bool {
	switch t {
	case AuthTypeNone, AuthTypeToken, AuthTypeBasic:
		return true
	}
	return false
}

// NormalizeAuthType trims and lowercases raw. Unknown values are kept so
// validation can reject them.
func NormalizeAuthType(raw string) AuthType {
	return AuthType(strings.ToLower(strings.TrimSpace(raw)))
}
