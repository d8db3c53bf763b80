package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	for _, name := range PriorityNames {
		p, err := ParsePriority(name)
		if err != nil {
			t.Errorf("ParsePriority(%q): %v", name, err)
		}
		if p.String() != name {
			t.Errorf("ParsePriority(%q).String() = %q", name, p.String())
		}
	}
	if _, err := ParsePriority("extreme"); err == nil {
		t.Error("ParsePriority accepted an unknown class")
	}
}

func TestParseEnvVar(t *testing.T) {
	tests := []struct {
		in      string
		key     string
		value   string
		wantErr bool
	}{
		{in: "FOO=bar", key: "FOO", value: "bar"},
		{in: "FOO=bar=baz", key: "FOO", value: "bar=baz"},
		{in: "FOO=", key: "FOO", value: ""},
		{in: "FOO", wantErr: true},
		{in: "=bar", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		v, err := ParseEnvVar(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseEnvVar(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseEnvVar(%q): %v", tt.in, err)
			continue
		}
		if v.Key != tt.key || v.Value != tt.value {
			t.Errorf("ParseEnvVar(%q) = %q=%q, want %q=%q", tt.in, v.Key, v.Value, tt.key, tt.value)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Name: "demo", Command: []string{"sleep", "1"}, StopTimeout: DefaultStopTimeout}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty command", mutate: func(c *Config) { c.Command = nil }},
		{name: "blank argv0", mutate: func(c *Config) { c.Command = []string{"  "} }},
		{name: "relative workdir", mutate: func(c *Config) { c.WorkDir = "some/relative" }},
		{name: "negative stop timeout", mutate: func(c *Config) { c.StopTimeout = -time.Second }},
		{name: "negative restart delay", mutate: func(c *Config) { c.RestartDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() accepted an invalid config")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.toml")
	content := `
name = "demo"
command = ["/bin/sleep", "30"]
stop_timeout = "5s"
restart = true
pass = [0, 42]

[log]
dir = "/var/log/demo"
rotate = "daily"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if fc.Name != "demo" {
		t.Errorf("Name = %q", fc.Name)
	}
	if len(fc.Command) != 2 || fc.Command[0] != "/bin/sleep" {
		t.Errorf("Command = %v", fc.Command)
	}
	if fc.StopTimeout != 5*time.Second {
		t.Errorf("StopTimeout = %v", fc.StopTimeout)
	}
	if !fc.Restart {
		t.Error("Restart not set")
	}
	if len(fc.Pass) != 2 || fc.Pass[1] != 42 {
		t.Errorf("Pass = %v", fc.Pass)
	}
	if fc.Log.Dir != "/var/log/demo" || fc.Log.Rotate != "daily" {
		t.Errorf("Log = %+v", fc.Log)
	}
}

func TestLoadFile_ConflictingPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.toml")
	content := `
command = ["x"]
restart = true
no_restart = true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile accepted conflicting restart policies")
	}
}
