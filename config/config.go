// Package config loads settings.yaml, layered over built-in defaults, and
// serves dot-path lookups such as "transcription.language".
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

const fileName = "settings.yaml"

type Config struct {
	mu   sync.RWMutex
	data map[string]any
	path string
}

// ResolvePath picks the settings file: flag, then VOICEMODE_CONFIG, then
// the per-user config directory.
func ResolvePath(flagPath string) (string, error) {
	if flagPath != "" {
		return filepath.Abs(flagPath)
	}
	if env := os.Getenv("VOICEMODE_CONFIG"); env != "" {
		return filepath.Abs(env)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "VoiceMode", fileName), nil
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	user, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.path = path
	return c, nil
}

// Parse merges user YAML over the defaults without touching disk.
func Parse(user []byte) (*Config, error) {
	data := map[string]any{}
	if err := yaml.Unmarshal(defaultsYAML, &data); err != nil {
		return nil, fmt.Errorf("parse defaults: %w", err)
	}
	if len(user) > 0 {
		override := map[string]any{}
		if err := yaml.Unmarshal(user, &override); err != nil {
			return nil, fmt.Errorf("parse settings: %w", err)
		}
		merge(data, override)
	}
	return &Config{data: data}, nil
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				merge(dm, sm)
				continue
			}
		}
		dst[k] = v
	}
}

func (c *Config) Path() string { return c.path }

func (c *Config) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var cur any = c.data
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Get returns the raw value at key, or def if absent.
func (c *Config) Get(key string, def any) any {
	if v, ok := c.lookup(key); ok && v != nil {
		return v
	}
	return def
}

func (c *Config) String(key, def string) string {
	v, ok := c.lookup(key)
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case int, float64, bool:
		return fmt.Sprint(s)
	}
	return def
}

func (c *Config) Int(key string, def int) int {
	switch v := c.Get(key, def).(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func (c *Config) Float(key string, def float64) float64 {
	switch v := c.Get(key, def).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func (c *Config) Bool(key string, def bool) bool {
	if v, ok := c.Get(key, def).(bool); ok {
		return v
	}
	return def
}

// Duration parses strings like "350ms".
func (c *Config) Duration(key string, def time.Duration) time.Duration {
	s, ok := c.Get(key, nil).(string)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// Set stores value at key, creating intermediate sections.
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	parts := strings.Split(key, ".")
	m := c.data
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Save writes the full effective settings back to Path.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	c.mu.RLock()
	out, err := yaml.Marshal(c.data)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(c.path, out, 0644)
}
