package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ConfigSource represents a source of configuration values
type ConfigSource interface {
	GetString(key string) (string, bool)
	GetInt(key string) (int, bool)
}

// intChecker is implemented by sources that can tell a malformed integer
// from a missing one.
type intChecker interface {
	CheckInt(key string) error
}

// EnvSource implements ConfigSource for environment variables
type EnvSource struct{}

func (e *EnvSource) GetString(key string) (string, bool) {
	value := os.Getenv(key)
	return value, value != ""
}

func (e *EnvSource) GetInt(key string) (int, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i, true
	}
	return 0, false
}

// CheckInt reports an error when key is set to something other than an integer.
func (e *EnvSource) CheckInt(key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	if _, err := strconv.Atoi(value); err != nil {
		return fmt.Errorf("%s=%q is not an integer", key, value)
	}
	return nil
}

// FlagSource implements ConfigSource for command-line flags
type FlagSource struct {
	values map[string]interface{}
}

func NewFlagSource() *FlagSource {
	return &FlagSource{values: make(map[string]interface{})}
}

func (f *FlagSource) Set(key string, value interface{}) {
	f.values[key] = value
}

func (f *FlagSource) GetString(key string) (string, bool) {
	if value, exists := f.values[key]; exists {
		if str, ok := value.(string); ok && str != "" {
			return str, true
		}
	}
	return "", false
}

func (f *FlagSource) GetInt(key string) (int, bool) {
	if value, exists := f.values[key]; exists {
		if i, ok := value.(int); ok {
			return i, true
		}
	}
	return 0, false
}

// FileSource implements ConfigSource for a YAML config file read with viper.
// Keys are the environment variable names, lower-cased.
type FileSource struct {
	v    *viper.Viper
	used string
}

// NewFileSource reads path, or when empty searches for dashboard.yaml in the
// working directory, ./config and ~/.training-dashboard. A missing file in the
// search paths is not an error.
func NewFileSource(path string) (*FileSource, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dashboard")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".training-dashboard"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return &FileSource{v: v}, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return &FileSource{v: v, used: v.ConfigFileUsed()}, nil
}

// Used returns the path of the file that was read, or "" if none.
func (f *FileSource) Used() string {
	return f.used
}

func (f *FileSource) GetString(key string) (string, bool) {
	k := strings.ToLower(key)
	if !f.v.IsSet(k) {
		return "", false
	}
	s, err := cast.ToStringE(f.v.Get(k))
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}

func (f *FileSource) GetInt(key string) (int, bool) {
	k := strings.ToLower(key)
	if !f.v.IsSet(k) {
		return 0, false
	}
	i, err := cast.ToIntE(f.v.Get(k))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (f *FileSource) CheckInt(key string) error {
	k := strings.ToLower(key)
	if !f.v.IsSet(k) {
		return nil
	}
	if _, err := cast.ToIntE(f.v.Get(k)); err != nil {
		return fmt.Errorf("%s: %s=%v is not an integer", f.used, k, f.v.Get(k))
	}
	return nil
}

// checkInts rejects integer options that a source holds in malformed form,
// instead of silently falling back to a lower-priority value.
func checkInts(opts []option, sources ...intChecker) error {
	for _, o := range opts {
		if o.kind != kindInt {
			continue
		}
		for _, src := range sources {
			if err := src.CheckInt(o.key); err != nil {
				return err
			}
		}
	}
	return nil
}
