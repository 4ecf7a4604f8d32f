package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file. The
// parsed result is cached; call Reload to pick up file changes.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}
	return y.Reload()
}

// Reload re-reads and re-parses the configuration file.
func (y *YAMLProvider) Reload() (*ConfigData, error) {
	raw, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", y.filename, err)
	}

	var cfg ConfigData
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", y.filename, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	y.config = &cfg
	return y.config, nil
}

// GetStations returns the configured stations.
func (y *YAMLProvider) GetStations() ([]StationData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Stations, nil
}

// GetSinks returns the sink configuration.
func (y *YAMLProvider) GetSinks() (*SinkData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Sinks, nil
}

// IsReadOnly always reports true for file-backed configuration.
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for file-backed configuration.
func (y *YAMLProvider) Close() error {
	return nil
}

func validate(cfg *ConfigData) error {
	seen := make(map[string]bool)
	for _, st := range cfg.Stations {
		if st.Name == "" {
			return fmt.Errorf("station with type %q is missing a name", st.Type)
		}
		if seen[st.Name] {
			return fmt.Errorf("duplicate station name %q", st.Name)
		}
		seen[st.Name] = true

		if st.RolloverHour != 0 && st.RolloverHour != 9 {
			return fmt.Errorf("station [%s] rollover_hour must be 0 or 9, got %d", st.Name, st.RolloverHour)
		}
		if st.RainGaugeType != "" && st.RainGaugeType != "metric" && st.RainGaugeType != "imperial" {
			return fmt.Errorf("station [%s] rain_gauge_type must be metric or imperial", st.Name)
		}
	}
	return nil
}
