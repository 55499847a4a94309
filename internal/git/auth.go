package git

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	appcfg "github.com/INF-UCT/code-lens/internal/config"
	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

// CreateAuth returns a go-git AuthMethod for the given AuthConfig. A nil or
// "none" config yields nil (anonymous clone).
func CreateAuth(authCfg *appcfg.AuthConfig) (transport.AuthMethod, error) {
	if authCfg.IsZero() {
		return nil, nil
	}

	switch authCfg.Type {
	case appcfg.AuthTypeToken:
		if authCfg.Token == "" {
			return nil, errors.ConfigError("token authentication requires a token").Build()
		}
		// Forges accept any non-empty username alongside a token.
		return &http.BasicAuth{Username: "token", Password: authCfg.Token}, nil
	case appcfg.AuthTypeBasic:
		if authCfg.Username == "" || authCfg.Password == "" {
			return nil, errors.ConfigError("basic authentication requires username and password").Build()
		}
		return &http.BasicAuth{Username: authCfg.Username, Password: authCfg.Password}, nil
	default:
		return nil, errors.ConfigError("unsupported authentication type").
			WithContext("type", string(authCfg.Type)).
			Build()
	}
}
