package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, filepath.Join("data", "repos"), cfg.Repositories.CloneDir)
	assert.Equal(t, ".code-lens-ignore", cfg.Repositories.LocalIgnoreFile)
	assert.EqualValues(t, 50, cfg.Repositories.MaxFileSizeMB)
	assert.Zero(t, cfg.Repositories.Retention)
	assert.Equal(t, 100, cfg.Queue.Capacity)
	assert.Equal(t, 30*time.Second, cfg.Wiki.Timeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.Equal(t, "rg", cfg.Tree.Flat.Name)
	assert.True(t, cfg.Tree.Flat.Sort)
	assert.Contains(t, cfg.Tree.Flat.Args, "--ignore-file")
	assert.Equal(t, []string{"--glob", "!.git"}, cfg.Tree.Flat.Args[len(cfg.Tree.Flat.Args)-2:])
	assert.Equal(t, "tree", cfg.Tree.Hierarchy.Name)
	assert.False(t, cfg.Tree.Hierarchy.Sort)
}

func TestParse_EnvExpansionAndOverrides(t *testing.T) {
	t.Setenv("CODELENS_TEST_WIKI_KEY", "secret-key")

	cfg, err := Parse([]byte(`
server:
  port: 9090
logging:
  level: DEBUG
  format: json
repositories:
  clone_dir: /srv/clones
  ignore_file: /etc/codelens/rignore
  max_file_size_mb: 10
  retention: 48h
  auth:
    type: Token
    token: abc
tree:
  flat:
    name: find
    args: [".", "-type", "f"]
    sort: true
queue:
  capacity: 5
wiki:
  service_url: http://wiki:3000
  api_key: ${CODELENS_TEST_WIKI_KEY}
  timeout: 5s
database:
  driver: postgres
  dsn: postgres://localhost/codelens
nats:
  url: nats://localhost:4222
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "/srv/clones", cfg.Repositories.CloneDir)
	assert.EqualValues(t, 10, cfg.Repositories.MaxFileSizeMB)
	assert.Equal(t, 48*time.Hour, cfg.Repositories.Retention)
	assert.Equal(t, time.Hour, cfg.Repositories.JanitorInterval)
	assert.Equal(t, AuthTypeToken, cfg.Repositories.Auth.Type)
	assert.Equal(t, CommandSpec{Name: "find", Args: []string{".", "-type", "f"}, Sort: true}, cfg.Tree.Flat)
	assert.Equal(t, "tree", cfg.Tree.Hierarchy.Name)
	assert.Equal(t, 5, cfg.Queue.Capacity)
	assert.Equal(t, "secret-key", cfg.Wiki.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Wiki.Timeout)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "codelens.events", cfg.NATS.SubjectPrefix)
}

func TestParse_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"bad port":        "server:\n  port: 70000\n",
		"bad driver":      "database:\n  driver: mysql\n  dsn: x\n",
		"postgres no dsn": "database:\n  driver: postgres\n",
		"token no value":  "repositories:\n  auth:\n    type: token\n",
		"basic partial":   "repositories:\n  auth:\n    type: basic\n    username: u\n",
		"unknown auth":    "repositories:\n  auth:\n    type: ssh\n",
		"unknown auth uc": "repositories:\n  auth:\n    type: Kerberos\n    token: t\n",
		"relative wiki":   "wiki:\n  service_url: wiki:3000/x\n",
		"bad tls":         "mailer:\n  tls_policy: sometimes\n",
		"neg retention":   "repositories:\n  retention: -1h\n",
		"bad backoff":     "wiki:\n  retry:\n    backoff: random\n",
		"neg retries":     "wiki:\n  retry:\n    max_retries: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig), "got %v", err)
		})
	}
}

func TestParse_UnknownAuthTypeNamesField(t *testing.T) {
	_, err := Parse([]byte("repositories:\n  auth:\n    type: ssh\n"))
	require.Error(t, err)
	c, ok := errors.AsClassified(err)
	require.True(t, ok)
	field, _ := c.Context().GetString("field")
	assert.Equal(t, "repositories.auth.type", field)
}

func TestParse_AuthTypeIsNormalized(t *testing.T) {
	cfg, err := Parse([]byte("repositories:\n  auth:\n    type: \" Token \"\n    token: t\n"))
	require.NoError(t, err)
	assert.Equal(t, AuthTypeToken, cfg.Repositories.Auth.Type)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unterminated"))
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	c, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryConfig, c.Category())
	path, _ := c.Context().GetString("path")
	assert.Contains(t, path, "absent.yaml")
}

func TestInitRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codelens.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err, "expected refusal to overwrite")
	require.NoError(t, Init(path, true))

	t.Setenv("GIT_TOKEN", "tok")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://code-lens-wiki:3000", cfg.Wiki.ServiceURL)
	assert.Equal(t, "tok", cfg.Repositories.Auth.Token)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "max_file_size_mb: 50")
}

func TestNormalizeAuthType(t *testing.T) {
	tests := []struct {
		input    string
		expected AuthType
	}{
		{"token", AuthTypeToken},
		{"TOKEN", AuthTypeToken},
		{"Basic", AuthTypeBasic},
		{"none", AuthTypeNone},
		{"  basic  ", AuthTypeBasic},
		{" SSH ", "ssh"},
		{"", ""},
	}
	for _, test := range tests {
		if got := NormalizeAuthType(test.input); got != test.expected {
			t.Errorf("NormalizeAuthType(%q) = %q, want %q", test.input, got, test.expected)
		}
	}
}

func TestAuthConfig_IsZero(t *testing.T) {
	var nilAuth *AuthConfig
	assert.True(t, nilAuth.IsZero())
	assert.True(t, (&AuthConfig{Type: AuthTypeNone}).IsZero())
	assert.False(t, (&AuthConfig{Type: AuthTypeToken, Token: "x"}).IsZero())
}

func TestParse_ExampleConfig(t *testing.T) {
	t.Setenv("GIT_TOKEN", "ghp_example")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("WIKI_API_KEY", "key")

	data, err := os.ReadFile(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, "ghp_example", cfg.Repositories.Auth.Token)
	require.Equal(t, 168*time.Hour, cfg.Repositories.Retention)
	require.Equal(t, "rg", cfg.Tree.Flat.Name)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, RetryBackoffLinear, cfg.Wiki.Retry.Backoff)
	require.Equal(t, 2, cfg.Wiki.Retry.MaxRetries)
}
