package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "ue_megaboom.json")
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(testPath(t))
	require.NoError(t, err)
	assert.Empty(t, cfg.Devices)
	assert.Empty(t, cfg.DefaultDevice)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := testPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"devices not an object":     `{"devices": "nope"}`,
		"ble_id not a string":       `{"devices": {"a": {"ble_id": 42}}}`,
		"default_device not string": `{"devices": {}, "default_device": 7}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := testPath(t)
			require.NoError(t, os.WriteFile(path, []byte(content), 0600))

			_, err := Load(path)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	path := testPath(t)
	content := `{"devices":{"livingroom":{"ble_id":"AAA"},"kitchen":{"ble_id":"BBB","name_hint":"MEGABOOM"}},"default_device":"livingroom"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Save(path, cfg))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)

	// A second save of an unmodified config is byte-for-byte identical.
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, Save(path, reloaded))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "ue_megaboom.json")
	cfg := New()
	cfg.Remember("livingroom", "AAA", "", true)

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AAA", loaded.Devices["livingroom"].BLEID)
}

func TestRememberSetDefaultAlwaysWins(t *testing.T) {
	cfg := New()
	cfg.Remember("first", "AAA", "", false)
	require.Equal(t, "first", cfg.DefaultDevice)

	isDefault := cfg.Remember("second", "BBB", "", true)
	assert.True(t, isDefault)
	assert.Equal(t, "second", cfg.DefaultDevice)
}

func TestRememberWithoutSetDefaultKeepsExisting(t *testing.T) {
	cfg := New()
	cfg.Remember("first", "AAA", "", false)

	isDefault := cfg.Remember("second", "BBB", "", false)
	assert.False(t, isDefault)
	assert.Equal(t, "first", cfg.DefaultDevice)
	assert.Equal(t, "BBB", cfg.Devices["second"].BLEID)
}

func TestRememberOverwritesEntry(t *testing.T) {
	cfg := New()
	cfg.Remember("room", "AAA", "old-hint", true)
	cfg.Remember("room", "CCC", "", true)

	assert.Equal(t, "CCC", cfg.Devices["room"].BLEID)
	assert.Empty(t, cfg.Devices["room"].NameHint)
}

func TestRememberEmptyLabelFallsBack(t *testing.T) {
	cfg := New()
	cfg.Remember("  ", "AAA", "", false)
	assert.Contains(t, cfg.Devices, "default")
}

func TestLegacyFlatKeysMigrated(t *testing.T) {
	path := testPath(t)
	content := `{"ble_id": "AAA", "name_hint": "MEGABOOM"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, cfg.Devices, "default")
	assert.Equal(t, "AAA", cfg.Devices["default"].BLEID)
	assert.Equal(t, "MEGABOOM", cfg.Devices["default"].NameHint)
	assert.Equal(t, "default", cfg.DefaultDevice)
}

func TestLegacyFlatKeysDoNotClobberExistingEntry(t *testing.T) {
	path := testPath(t)
	content := `{"devices":{"boom":{"ble_id":"NEW"}},"default_device":"boom","ble_id":"OLD"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "NEW", cfg.Devices["boom"].BLEID)
}

func TestDanglingDefaultPreserved(t *testing.T) {
	path := testPath(t)
	content := `{"devices":{},"default_device":"ghost"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ghost", cfg.DefaultDevice)

	label, entry := cfg.DefaultEntry()
	assert.Equal(t, "ghost", label)
	assert.Nil(t, entry)
}
