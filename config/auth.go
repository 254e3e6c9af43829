package config

import (
	"os"
	"sync"
)

var (
	authOnce   sync.Once
	authConfig *AuthConfig
)

// AuthConfig holds the static identity table. Real deployments swap the
// verifier for an identity-provider client; the table keeps local and
// test environments self-contained.
type AuthConfig struct {
	// TokenTable has the form "token=userId[:email],token2=userId2".
	TokenTable string
}

// GetAuthConfig loads identity settings from the environment.
func GetAuthConfig() *AuthConfig {
	authOnce.Do(func() {
		loadEnv()
		authConfig = &AuthConfig{
			TokenTable: os.Getenv("AUTH_TOKENS"),
		}
	})
	return authConfig
}
