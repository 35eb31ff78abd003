package servers

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

// SettingsStore persists the FHIR environment preference to a JSON file so
// the toggle survives restarts.
type SettingsStore struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// NewSettingsStore loads settings from path, falling back to defaults when
// the file does not exist yet.
func NewSettingsStore(path string) (*SettingsStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("useLocalServer", false)

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	return &SettingsStore{v: v, path: path}, nil
}

func (s *SettingsStore) Get() EnvironmentSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EnvironmentSettings{UseLocalServer: s.v.GetBool("useLocalServer")}
}

func (s *SettingsStore) Set(settings EnvironmentSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set("useLocalServer", settings.UseLocalServer)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
