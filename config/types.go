package config

// Config represents the complete configuration structure
type Config struct {
	Nass    NassConfig    `mapstructure:"nass"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// NassConfig holds QuickStats API connection details
type NassConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
