package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name    string        `yaml:"name" toml:"name"`
	Port    int           `yaml:"port" toml:"port"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return os.ErrInvalid
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_YAMLWithEnv(t *testing.T) {
	t.Setenv("QUIRE_TEST_NAME", "from-env")
	p := writeFile(t, "config.yaml", "name: ${QUIRE_TEST_NAME}\nport: 9000\ntimeout: 2s\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" || s.Port != 9000 || s.Timeout != 2*time.Second {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_TOML(t *testing.T) {
	p := writeFile(t, "config.toml", "name = \"toml\"\nport = 9001\ntimeout = \"1500ms\"\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "toml" || s.Port != 9001 || s.Timeout != 1500*time.Millisecond {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	p := writeFile(t, "config.yaml", "name: x\n")

	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadWithDefaults_Fallback(t *testing.T) {
	def := writeFile(t, "default.yaml", "port: 1\n")

	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &s); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if s.Port != 1 {
		t.Errorf("port = %d", s.Port)
	}
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", &s); err == nil {
		t.Error("expected error without a default file")
	}
}
