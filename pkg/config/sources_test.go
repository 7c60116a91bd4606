package config

import (
	"os"
	"testing"
)

func TestEnvSource(t *testing.T) {
	envSource := &EnvSource{}

	t.Run("GetString", func(t *testing.T) {
		t.Setenv("TEST_STRING", "test_value")

		value, found := envSource.GetString("TEST_STRING")
		if !found || value != "test_value" {
			t.Errorf("expected 'test_value', got '%s' (found=%t)", value, found)
		}

		os.Unsetenv("MISSING_STRING")
		if _, found := envSource.GetString("MISSING_STRING"); found {
			t.Error("expected not to find MISSING_STRING")
		}
	})

	t.Run("GetInt", func(t *testing.T) {
		t.Setenv("TEST_INT", "42")
		t.Setenv("TEST_INVALID_INT", "not_a_number")

		if value, found := envSource.GetInt("TEST_INT"); !found || value != 42 {
			t.Errorf("expected 42, got %d (found=%t)", value, found)
		}
		if _, found := envSource.GetInt("TEST_INVALID_INT"); found {
			t.Error("expected not to find valid int for TEST_INVALID_INT")
		}
	})
}

func TestFlagSource(t *testing.T) {
	fs := NewFlagSource()
	fs.Set("STR", "value")
	fs.Set("EMPTY", "")
	fs.Set("NUM", 0)

	if v, ok := fs.GetString("STR"); !ok || v != "value" {
		t.Errorf("expected 'value', got %q", v)
	}
	if _, ok := fs.GetString("EMPTY"); ok {
		t.Error("expected empty string to be treated as unset")
	}
	if v, ok := fs.GetInt("NUM"); !ok || v != 0 {
		t.Errorf("expected explicit 0 to be found, got %d (found=%t)", v, ok)
	}
	if _, ok := fs.GetInt("STR"); ok {
		t.Error("expected type mismatch to be not found")
	}
}

func TestFileSource(t *testing.T) {
	path := writeConfigFile(t, "dashboard_listen_addr: \":9999\"\ndashboard_history_size: \"120\"\ndashboard_ui: 7\n")

	fs, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if fs.Used() != path {
		t.Errorf("expected Used() %s, got %s", path, fs.Used())
	}
	if v, ok := fs.GetString(KeyListenAddr); !ok || v != ":9999" {
		t.Errorf("expected ':9999', got %q", v)
	}
	if v, ok := fs.GetInt(KeyHistorySize); !ok || v != 120 {
		t.Errorf("expected quoted int to convert to 120, got %d", v)
	}
	if _, ok := fs.GetInt(KeyWorkers); ok {
		t.Error("expected missing key to be not found")
	}
	if _, ok := fs.GetInt(KeyListenAddr); ok {
		t.Error("expected non-numeric value to be not found as int")
	}
}

func TestCheckInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "4x2")

	env := &EnvSource{}
	if err := env.CheckInt("TEST_INT"); err != nil {
		t.Errorf("expected valid int, got %v", err)
	}
	if err := env.CheckInt("TEST_UNSET_INT"); err != nil {
		t.Errorf("expected unset key to pass, got %v", err)
	}
	if err := env.CheckInt("TEST_BAD_INT"); err == nil {
		t.Error("expected error for malformed int")
	}

	fs, err := NewFileSource(writeConfigFile(t, "dashboard_history_size: \"120\"\ndashboard_workers: lots\n"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := fs.CheckInt(KeyHistorySize); err != nil {
		t.Errorf("expected quoted int to pass, got %v", err)
	}
	if err := fs.CheckInt(KeyWorkers); err == nil {
		t.Error("expected error for malformed int in file")
	}
}

func TestFileSource_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "dashboard_ui: [unterminated\n")
	if _, err := NewFileSource(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigResolver(t *testing.T) {
	first := NewFlagSource()
	second := NewFlagSource()
	first.Set("A", "from-first")
	second.Set("A", "from-second")
	second.Set("B", 2)

	r := NewConfigResolver(first, second)
	if got := r.ResolveString("A", "default"); got != "from-first" {
		t.Errorf("expected first source to win, got %q", got)
	}
	if got := r.ResolveInt("B", 0); got != 2 {
		t.Errorf("expected fallthrough to second source, got %d", got)
	}
	if got := r.ResolveString("C", "default"); got != "default" {
		t.Errorf("expected default, got %q", got)
	}
}
