// Package config defines the configuration model and its providers.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStations() ([]StationData, error)
	GetSinks() (*SinkData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Stations []StationData `json:"stations" yaml:"stations"`
	Sinks    SinkData      `json:"sinks,omitempty" yaml:"sinks,omitempty"`
	Status   StatusData    `json:"status,omitempty" yaml:"status,omitempty"`
	StateDB  string        `json:"state_db,omitempty" yaml:"state_db,omitempty"`
	LogFile  string        `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

// StationData holds configuration for one weather station session.
type StationData struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Enabled bool   `json:"enabled" yaml:"enabled"`

	// Network transports
	Hostname      string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Port          string `json:"port,omitempty" yaml:"port,omitempty"`
	BroadcastPort int    `json:"broadcast_port,omitempty" yaml:"broadcast_port,omitempty"`

	// Serial transports
	SerialDevice string `json:"serial_device,omitempty" yaml:"serial_device,omitempty"`
	Baud         int    `json:"baud,omitempty" yaml:"baud,omitempty"`

	// HTTP polling
	PollIntervalSeconds int `json:"poll_interval_seconds,omitempty" yaml:"poll_interval_seconds,omitempty"`

	// Vendor cloud credentials
	APIKey         string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APISecret      string `json:"api_secret,omitempty" yaml:"api_secret,omitempty"`
	ApplicationKey string `json:"application_key,omitempty" yaml:"application_key,omitempty"`
	StationID      string `json:"station_id,omitempty" yaml:"station_id,omitempty"`
	DeviceMAC      string `json:"device_mac,omitempty" yaml:"device_mac,omitempty"`

	// MQTT push
	MQTTBroker string `json:"mqtt_broker,omitempty" yaml:"mqtt_broker,omitempty"`
	MQTTTopic  string `json:"mqtt_topic,omitempty" yaml:"mqtt_topic,omitempty"`

	// File push
	WatchDir string `json:"watch_dir,omitempty" yaml:"watch_dir,omitempty"`

	// Normalization and accumulation
	Timezone                string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	RolloverHour            int    `json:"rollover_hour,omitempty" yaml:"rollover_hour,omitempty"`
	UseDSTShiftedRollover   bool   `json:"use_dst_shifted_rollover,omitempty" yaml:"use_dst_shifted_rollover,omitempty"`
	PrimaryWindChannel      int    `json:"primary_wind_channel,omitempty" yaml:"primary_wind_channel,omitempty"`
	PrimaryRainChannel      int    `json:"primary_rain_channel,omitempty" yaml:"primary_rain_channel,omitempty"`
	RainGaugeType           string `json:"rain_gauge_type,omitempty" yaml:"rain_gauge_type,omitempty"` // "metric" or "imperial"
	VendorComputesDewPoint  bool   `json:"vendor_computes_dew_point,omitempty" yaml:"vendor_computes_dew_point,omitempty"`
	VendorComputesWindChill bool   `json:"vendor_computes_wind_chill,omitempty" yaml:"vendor_computes_wind_chill,omitempty"`
	VendorWindAverage       bool   `json:"vendor_wind_average,omitempty" yaml:"vendor_wind_average,omitempty"`

	// Resource discipline
	MaxConcurrentRequests int `json:"max_concurrent_requests,omitempty" yaml:"max_concurrent_requests,omitempty"`
	WatchdogSeconds       int `json:"watchdog_seconds,omitempty" yaml:"watchdog_seconds,omitempty"`
}

// SinkData holds the configuration for the downstream sinks.
type SinkData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
	NATS        *NATSData        `json:"nats,omitempty" yaml:"nats,omitempty"`
}

// TimescaleDBData configures the TimescaleDB sink.
type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

// NATSData configures the NATS publisher sink.
type NATSData struct {
	URL           string `json:"url" yaml:"url"`
	SubjectPrefix string `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
}

// StatusData configures the operator status endpoint.
type StatusData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
}
