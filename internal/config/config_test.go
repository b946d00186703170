package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
gateway:
  port: 9090
  public_base_url: "https://chat.example.com"

auth:
  jwt_secret: "test-secret"

retrieval:
  base_url: "https://api.example.com"
  api_key: "rk-test"
  collection_id: "legal-vn"

llm:
  base_url: "https://llm.example.com/v1"
  api_key: "sk-test"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ragchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Gateway.Port)
	assert.Equal(t, "https://chat.example.com", cfg.Gateway.PublicBaseURL)
	assert.Equal(t, "legal-vn", cfg.Retrieval.CollectionID)
	assert.Equal(t, "rk-test", cfg.Retrieval.APIKey)

	// Defaults fill in everything unspecified.
	assert.Equal(t, 20, cfg.Retrieval.Limit)
	assert.Equal(t, 15*time.Second, cfg.Retrieval.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RAGCHAT_RETRIEVAL_API_KEY", "rk-from-env")

	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "rk-from-env", cfg.Retrieval.APIKey)
}

func TestLoad_MissingRetrievalBaseURL(t *testing.T) {
	_, err := Load(writeConfig(t, `
gateway:
  port: 8080
auth:
  jwt_secret: "s"
retrieval:
  collection_id: "c"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval.base_url")
}

func TestLoad_JWTSecretRequiredUnlessSkipped(t *testing.T) {
	base := `
retrieval:
  base_url: "https://api.example.com"
  collection_id: "c"
`
	_, err := Load(writeConfig(t, base))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")

	cfg, err := Load(writeConfig(t, base+`
auth:
  skip_auth: true
`))
	require.NoError(t, err)
	assert.True(t, cfg.Auth.SkipAuth)
}

func TestLoad_BadPort(t *testing.T) {
	_, err := Load(writeConfig(t, `
gateway:
  port: 99999
auth:
  jwt_secret: "s"
retrieval:
  base_url: "https://api.example.com"
  collection_id: "c"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
