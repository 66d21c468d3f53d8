package pkg

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "riptide" {
		t.Errorf("Expected Name to be %q, got %q", "riptide", Name)
	}
}

func TestVersion(t *testing.T) {
	v := Version()
	if v == "" {
		t.Fatal("Version is empty")
	}

	if strings.ContainsAny(v, " \t\r\n") {
		t.Errorf("Version %q contains whitespace", v)
	}

	if parts := strings.Split(v, "."); len(parts) != 3 {
		t.Errorf("Version %q is not major.minor.patch", v)
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain", "/usr/bin/riptide", "riptide"},
		{"extension", "/opt/bin/riptide.exe", "riptide"},
		{"renamed", "/opt/rt", "rt"},
		{"dlv", "/tmp/__debug_bin3141", Name},
		{"dotted", "/home/u/.riptide", "riptide"},
		{"only dots", "/tmp/..", Name},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePrefix(filepath.FromSlash(tt.path))

			if got != tt.want {
				t.Errorf("normalizePrefix(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath("config")
	if filepath.Base(got) != "config" {
		t.Errorf("ConfigPath base = %q", filepath.Base(got))
	}

	if filepath.Base(filepath.Dir(got)) != Prefix() {
		t.Errorf("ConfigPath dir = %q, want suffix %q", filepath.Dir(got), Prefix())
	}
}
