package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const DefaultEnvFile = ".env"

var (
	mu          sync.RWMutex
	envFilePath string
	// fileKeys holds variables this package exported from an env file, as
	// opposed to ones the caller's environment already carried.
	fileKeys = map[string]struct{}{}
)

// SetEnvFile points every later New call at path. An empty path restores
// the optional ./.env lookup.
func SetEnvFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	envFilePath = strings.TrimSpace(path)
}

func EnvFile() string {
	mu.RLock()
	defer mu.RUnlock()
	return envFilePath
}

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New exports the env file (if any) into the process environment and then
// fills T from variables under prefix.
func New[T any](prefix string) (*T, error) {
	if path := EnvFile(); path != "" {
		if err := exportEnvironment(path, true); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportEnvironmentIfExists(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("failed to load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}

	return &conf, nil
}

func exportEnvironmentIfExists(filepath string) error {
	info, err := os.Stat(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(filepath, false)
}

// exportEnvironment never overrides variables set by the caller. With
// explicit set it does override values an earlier file export put there,
// so a file named on the command line beats ./.env.
func exportEnvironment(filepath string, explicit bool) error {
	v := viper.New()
	v.SetConfigFile(filepath)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, ok := os.LookupEnv(key); ok {
			if _, fromFile := fileKeys[key]; !fromFile || !explicit {
				continue
			}
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
		fileKeys[key] = struct{}{}
	}

	return nil
}
