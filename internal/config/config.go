// Package config persists the device registry: a JSON file mapping
// human labels to BLE identifiers, plus an optional default label.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const configFile = "ue_megaboom.json"

// DeviceEntry is a remembered device. NameHint is the scan substring the
// device was matched with when it was remembered, kept so later scans can
// fall back to it.
type DeviceEntry struct {
	BLEID    string `json:"ble_id"`
	NameHint string `json:"name_hint,omitempty"`
}

// Config is the persisted registry. DefaultDevice, when set, should key
// into Devices; a dangling reference is preserved on load and reported at
// selection time rather than rewritten.
type Config struct {
	Devices       map[string]*DeviceEntry `json:"devices"`
	DefaultDevice string                  `json:"default_device,omitempty"`
}

// ConfigError indicates the config file exists but could not be read,
// parsed, or violates the schema.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config file %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// New returns an empty registry.
func New() *Config {
	return &Config{Devices: make(map[string]*DeviceEntry)}
}

// Path returns the fixed config file location under the user's config
// directory.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "theriverman", "megaboom", configFile), nil
}

// rawConfig delays decoding of the individual fields so schema violations
// can be reported precisely and legacy flat keys can be migrated.
type rawConfig struct {
	Devices       json.RawMessage `json:"devices"`
	DefaultDevice json.RawMessage `json:"default_device"`

	// Legacy flat keys from early versions of the tool.
	BLEID    json.RawMessage `json:"ble_id"`
	NameHint json.RawMessage `json:"name_hint"`
}

// Load reads the registry from path. A missing file yields an empty
// registry; a file that exists but is malformed yields a *ConfigError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	cfg := New()
	if len(raw.Devices) > 0 && string(raw.Devices) != "null" {
		if err := json.Unmarshal(raw.Devices, &cfg.Devices); err != nil {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("devices must be an object of label entries: %w", err)}
		}
		if cfg.Devices == nil {
			cfg.Devices = make(map[string]*DeviceEntry)
		}
	}
	if len(raw.DefaultDevice) > 0 && string(raw.DefaultDevice) != "null" {
		if err := json.Unmarshal(raw.DefaultDevice, &cfg.DefaultDevice); err != nil {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("default_device must be a string: %w", err)}
		}
	}

	if err := migrateLegacy(&raw, cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// migrateLegacy folds top-level ble_id/name_hint keys from old config files
// into a labeled entry.
func migrateLegacy(raw *rawConfig, cfg *Config) error {
	if len(raw.BLEID) == 0 && len(raw.NameHint) == 0 {
		return nil
	}

	var bleID, nameHint string
	if len(raw.BLEID) > 0 && string(raw.BLEID) != "null" {
		if err := json.Unmarshal(raw.BLEID, &bleID); err != nil {
			return fmt.Errorf("legacy ble_id must be a string: %w", err)
		}
	}
	if len(raw.NameHint) > 0 && string(raw.NameHint) != "null" {
		if err := json.Unmarshal(raw.NameHint, &nameHint); err != nil {
			return fmt.Errorf("legacy name_hint must be a string: %w", err)
		}
	}
	if bleID == "" && nameHint == "" {
		return nil
	}

	label := cfg.DefaultDevice
	if label == "" {
		label = "default"
	}
	entry := cfg.Devices[label]
	if entry == nil {
		entry = &DeviceEntry{}
		cfg.Devices[label] = entry
	}
	if entry.BLEID == "" {
		entry.BLEID = bleID
	}
	if entry.NameHint == "" {
		entry.NameHint = nameHint
	}
	if cfg.DefaultDevice == "" {
		cfg.DefaultDevice = label
	}
	return nil
}

// Save writes the registry to path, creating parent directories as needed.
// The write goes through a temp file in the same directory followed by a
// rename so a crash never leaves a partial file.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, configFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary config file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// Remember inserts or overwrites the entry for label. The label becomes
// the default when setDefault is true or when no default exists yet.
// Reports whether the label is the default afterwards.
func (c *Config) Remember(label, bleID, nameHint string, setDefault bool) bool {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "default"
	}
	if c.Devices == nil {
		c.Devices = make(map[string]*DeviceEntry)
	}
	entry := &DeviceEntry{BLEID: bleID}
	if nameHint != "" {
		entry.NameHint = nameHint
	}
	c.Devices[label] = entry
	if setDefault || c.DefaultDevice == "" {
		c.DefaultDevice = label
	}
	return c.DefaultDevice == label
}

// DefaultEntry returns the default label and its entry. The entry is nil
// when the default label does not key into Devices (a dangling reference).
func (c *Config) DefaultEntry() (string, *DeviceEntry) {
	if c.DefaultDevice == "" {
		return "", nil
	}
	return c.DefaultDevice, c.Devices[c.DefaultDevice]
}
