package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/deployforge/internal/config"
	"github.com/pendergraft/deployforge/internal/dispatch"
	"github.com/pendergraft/deployforge/internal/storage"
	"github.com/pendergraft/deployforge/internal/tasks"
)

const (
	devKey0     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	devKey1     = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	devAddress1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

const testProject = `default_network = "polygon"

[networks.polygon]
url_secret = "TEST_RPC_URL"
account_secrets = ["TEST_KEY_0", "TEST_KEY_1"]

[networks.local]
url = "http://127.0.0.1:8545"
`

// setupEnv isolates settings from the host and returns a project dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DEPLOYFORGE_HOME", filepath.Join(dir, "home"))
	t.Setenv("DEPLOYFORGE_SECRETS_FILE", filepath.Join(dir, "home", "secrets.yaml"))
	t.Setenv("DEPLOYFORGE_HISTORY", "none")
	t.Setenv("DEPLOYFORGE_METRICS_FILE", "")
	t.Setenv("DEPLOYFORGE_USE_ENV", "true")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func writeProject(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployforge.toml"), []byte(body), 0644))
}

// execute runs a fresh root command; binding flags resets the package flag vars.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret(""))
	assert.Equal(t, "****", maskSecret("12345678"))
	assert.Equal(t, "http...2345", maskSecret("https://polygon-rpc.example/12345"))
}

func TestRunAccounts(t *testing.T) {
	dir := setupEnv(t)
	writeProject(t, dir, testProject)
	t.Setenv("TEST_RPC_URL", "https://polygon.example.com")
	t.Setenv("TEST_KEY_0", devKey0)
	t.Setenv("TEST_KEY_1", devKey1)

	out, err := execute(t, "", "--project-dir", dir, "run", "accounts")
	require.NoError(t, err)
	assert.Equal(t, devAddress0+"\n"+devAddress1+"\n", out)
}

func TestRunAccounts_SecretsFromDotenvAndStore(t *testing.T) {
	dir := setupEnv(t)
	writeProject(t, dir, testProject)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TEST_KEY_0="+devKey0+"\n"), 0600))

	store, err := config.OpenSecretStore(os.Getenv("DEPLOYFORGE_SECRETS_FILE"))
	require.NoError(t, err)
	store.Set("TEST_KEY_1", devKey1)
	require.NoError(t, store.Save())

	out, err := execute(t, "", "--project-dir", dir, "run", "accounts")
	require.NoError(t, err)
	assert.Equal(t, devAddress0+"\n"+devAddress1+"\n", out)
}

func TestRunAccounts_NoCredentials(t *testing.T) {
	dir := setupEnv(t)
	writeProject(t, dir, testProject)

	out, err := execute(t, "", "--project-dir", dir, "run", "--network", "local", "accounts")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunUnknownTask(t *testing.T) {
	dir := setupEnv(t)
	writeProject(t, dir, testProject)

	_, err := execute(t, "", "--project-dir", dir, "run", "deploy-everything")
	var unknown *tasks.UnknownTaskError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "deploy-everything", unknown.Name)
	assert.Equal(t, dispatch.KindUnknownTask, dispatch.Kind(err))
}

func TestRunBalances_UnusableNetwork(t *testing.T) {
	dir := setupEnv(t)
	writeProject(t, dir, testProject)
	t.Setenv("TEST_KEY_0", devKey0)

	_, err := execute(t, "", "--project-dir", dir, "run", "balances")
	require.Error(t, err)
	assert.Equal(t, dispatch.KindUnusableNetwork, dispatch.Kind(err))
	assert.Contains(t, err.Error(), "rpc endpoint")
}

func TestRunInvalidProjectFile(t *testing.T) {
	dir := setupEnv(t)
	writeProject(t, dir, testProject+"\nunexpected = true\n")

	_, err := execute(t, "", "--project-dir", dir, "run", "accounts")
	require.Error(t, err)
	assert.Equal(t, dispatch.KindConfigAssembly, dispatch.Kind(err))
}

func TestRunMissingExplicitConfig(t *testing.T) {
	dir := setupEnv(t)

	_, err := execute(t, "", "--config", filepath.Join(dir, "missing.toml"), "run", "accounts")
	assert.Error(t, err)
}

func TestTasksList(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "", "--project-dir", dir, "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "TASK")
	assert.Contains(t, out, "accounts")
	assert.Contains(t, out, "Prints the list of accounts")
	assert.Contains(t, out, "verify <contract> <address>")
}

func TestConfigInit(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "", "--project-dir", dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	path := filepath.Join(dir, "deployforge.toml")
	overrides, err := config.LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, config.StarterOverrides(), overrides)

	t.Run("refuses to overwrite", func(t *testing.T) {
		_, err := execute(t, "", "--project-dir", dir, "config", "init")
		assert.Error(t, err)
	})

	t.Run("force", func(t *testing.T) {
		_, err := execute(t, "", "--project-dir", dir, "config", "init", "--force")
		assert.NoError(t, err)
	})
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	dir := setupEnv(t)
	writeProject(t, dir, testProject)
	rpcURL := "https://polygon.example.com/v2/supersecretprojectid"
	t.Setenv("TEST_RPC_URL", rpcURL)
	t.Setenv("TEST_KEY_0", devKey0)

	out, err := execute(t, "", "--project-dir", dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "polygon (default)")
	assert.Contains(t, out, "local")
	assert.NotContains(t, out, rpcURL)
	assert.NotContains(t, out, devKey0)
	assert.Contains(t, out, config.DefaultVerificationURL)
}

func TestSecrets(t *testing.T) {
	dir := setupEnv(t)
	storePath := os.Getenv("DEPLOYFORGE_SECRETS_FILE")

	_, err := execute(t, "", "--project-dir", dir, "secrets", "set", "API_KEY", "--value", "abcd1234efgh5678")
	require.NoError(t, err)

	_, err = execute(t, "prompted-value-123\n", "--project-dir", dir, "secrets", "set", "OTHER")
	require.NoError(t, err)

	info, err := os.Stat(storePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	store, err := config.OpenSecretStore(storePath)
	require.NoError(t, err)
	assert.Equal(t, "prompted-value-123", store.Secrets["OTHER"])

	out, err := execute(t, "", "--project-dir", dir, "secrets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "API_KEY=abcd...5678")
	assert.NotContains(t, out, "abcd1234efgh5678")

	_, err = execute(t, "", "--project-dir", dir, "secrets", "unset", "API_KEY")
	require.NoError(t, err)
	store, err = config.OpenSecretStore(storePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"OTHER"}, store.Names())

	t.Run("empty value", func(t *testing.T) {
		_, err := execute(t, "\n", "--project-dir", dir, "secrets", "set", "EMPTY")
		assert.Error(t, err)
	})
}

func TestHistory(t *testing.T) {
	dir := setupEnv(t)
	writeProject(t, dir, testProject)
	t.Setenv("DEPLOYFORGE_HISTORY", "sqlite")
	t.Setenv("DEPLOYFORGE_HISTORY_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("TEST_KEY_0", devKey0)

	_, err := execute(t, "", "--project-dir", dir, "run", "accounts")
	require.NoError(t, err)
	_, err = execute(t, "", "--project-dir", dir, "run", "balances")
	require.Error(t, err)

	out, err := execute(t, "", "--project-dir", dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "accounts")
	assert.Contains(t, out, "balances")
	assert.Contains(t, out, dispatch.KindUnusableNetwork)

	var shortID string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "balances") {
			shortID = strings.Fields(line)[0]
		}
	}
	require.Len(t, shortID, 8)

	out, err = execute(t, "", "--project-dir", dir, "history", "--state", "failed")
	require.NoError(t, err)
	assert.NotContains(t, out, "accounts")
	assert.Contains(t, out, "balances")

	t.Run("show run", func(t *testing.T) {
		out, err := execute(t, "", "--project-dir", dir, "history", shortID)
		require.NoError(t, err)
		assert.Contains(t, out, "ID:       "+shortID)
		assert.Contains(t, out, "Task:     balances")
		assert.Contains(t, out, "Network:  polygon")
		assert.Contains(t, out, "State:    failed")
		assert.Contains(t, out, "["+dispatch.KindUnusableNetwork+"]")
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := execute(t, "", "--project-dir", dir, "history", "ffffffff")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}

func TestHistory_Disabled(t *testing.T) {
	dir := setupEnv(t)

	_, err := execute(t, "", "--project-dir", dir, "history")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "deployforge test\n", out)
}
