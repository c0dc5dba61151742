package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainSource_FirstHitWins(t *testing.T) {
	chain := ChainSource{
		MapSource{"A": "from-first"},
		nil,
		MapSource{"A": "from-second", "B": "only-second", "EMPTY": "value"},
		MapSource{"EMPTY": ""},
	}

	value, ok := chain.Lookup("A")
	assert.True(t, ok)
	assert.Equal(t, "from-first", value)

	value, ok = chain.Lookup("B")
	assert.True(t, ok)
	assert.Equal(t, "only-second", value)

	_, ok = chain.Lookup("MISSING")
	assert.False(t, ok)
}

func TestMapSource_EmptyIsAbsent(t *testing.T) {
	src := MapSource{"BLANK": "   ", "SET": " value "}

	_, ok := src.Lookup("BLANK")
	assert.False(t, ok)

	value, ok := src.Lookup("SET")
	assert.True(t, ok)
	assert.Equal(t, "value", value)
}

func TestEnvSource(t *testing.T) {
	t.Setenv("DEPLOYFORGE_TEST_SECRET", "s3cret")
	t.Setenv("DEPLOYFORGE_TEST_EMPTY", "")

	value, ok := EnvSource{}.Lookup("DEPLOYFORGE_TEST_SECRET")
	assert.True(t, ok)
	assert.Equal(t, "s3cret", value)

	_, ok = EnvSource{}.Lookup("DEPLOYFORGE_TEST_EMPTY")
	assert.False(t, ok)
}

func TestLoadDotenv(t *testing.T) {
	t.Run("reads values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "POLYGON_RPC_URL=https://polygon.example.com\n# comment\nDEPLOYER_PRIVATE_KEY=\"abc123\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		src, err := LoadDotenv(path)
		require.NoError(t, err)

		value, ok := src.Lookup("POLYGON_RPC_URL")
		assert.True(t, ok)
		assert.Equal(t, "https://polygon.example.com", value)

		value, ok = src.Lookup("DEPLOYER_PRIVATE_KEY")
		assert.True(t, ok)
		assert.Equal(t, "abc123", value)
	})

	t.Run("missing file is empty", func(t *testing.T) {
		src, err := LoadDotenv(filepath.Join(t.TempDir(), "nope.env"))
		require.NoError(t, err)
		assert.Empty(t, src)
	})
}

func TestSecretStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secrets.yaml")

	store, err := OpenSecretStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Names())

	store.Set("POLYGONSCAN_API_KEY", "scan")
	store.Set("DEPLOYER_PRIVATE_KEY", "key")
	require.NoError(t, store.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := OpenSecretStore(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"DEPLOYER_PRIVATE_KEY", "POLYGONSCAN_API_KEY"}, reopened.Names())

	value, ok := reopened.Lookup("POLYGONSCAN_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "scan", value)

	assert.True(t, reopened.Unset("POLYGONSCAN_API_KEY"))
	assert.False(t, reopened.Unset("POLYGONSCAN_API_KEY"))
}

func TestSecretStore_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("secrets: [not, a, map"), 0600))

	_, err := OpenSecretStore(path)
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Run("starter file round trips", func(t *testing.T) {
		data, err := EncodeOverrides(StarterOverrides())
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "deployforge.toml")
		require.NoError(t, os.WriteFile(path, data, 0644))

		got, err := LoadOverrides(path)
		require.NoError(t, err)
		assert.Equal(t, StarterOverrides(), got)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deployforge.toml")
		require.NoError(t, os.WriteFile(path, []byte("solidity = \"0.8.6\"\n"), 0644))

		_, err := LoadOverrides(path)
		var asmErr *AssemblyError
		require.True(t, errors.As(err, &asmErr))
		assert.Equal(t, "solidity", asmErr.Field)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadOverrides(filepath.Join(t.TempDir(), "deployforge.toml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
		assert.Contains(t, err.Error(), "reading project file")
	})

	t.Run("negative runs decode and fail assembly", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deployforge.toml")
		content := "[compiler]\nversion = \"0.8.6\"\n[compiler.optimizer]\nenabled = true\nruns = -5\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		o, err := LoadOverrides(path)
		require.NoError(t, err)

		_, err = Assemble(DefaultSettings(), o, nil)
		var asmErr *AssemblyError
		assert.True(t, errors.As(err, &asmErr))
	})
}

func TestFindProjectFile(t *testing.T) {
	dir := t.TempDir()

	_, err := FindProjectFile(dir)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "forge-deploy.toml"), nil, 0644))
	path, err := FindProjectFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "forge-deploy.toml"), path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployforge.toml"), nil, 0644))
	path, err = FindProjectFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "deployforge.toml"), path)
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/deployforge")
	t.Setenv("DEPLOYFORGE_HISTORY", "")
	t.Setenv("DEPLOYFORGE_METRICS_FILE", "/tmp/deployforge.prom")
	t.Setenv("DEPLOYFORGE_VERIFY_ATTEMPTS", "5")
	t.Setenv("LOG_LEVEL", "")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", s.History.Type)
	assert.True(t, s.Metrics.Enabled)
	assert.Equal(t, 5, s.Verify.PollAttempts)
	assert.Equal(t, "warn", s.Logging.Level)
}
