package config

import "fmt"

// DatabaseConfig contains Postgres connection settings. URL wins when
// set; otherwise the discrete fields are assembled into a DSN.
type DatabaseConfig struct {
	URL      string `yaml:"url" validate:"omitempty"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"gte=0"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"maxConns" validate:"gte=0"`
}

// ConnString returns the connection string handed to the pool.
func (c DatabaseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode)
}

// FetchConfig contains HTTP download settings shared by all datasets.
type FetchConfig struct {
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
	UserAgent string `yaml:"userAgent"`
}

// MonitorConfig contains the health and metrics listener settings. An
// empty Addr disables the listener.
type MonitorConfig struct {
	Addr string `yaml:"addr"`
}

// DatasetConfig describes one feed to ingest.
type DatasetConfig struct {
	Name    string            `yaml:"name" validate:"required"`
	URL     string            `yaml:"url" validate:"required,url"`
	Headers map[string]string `yaml:"headers"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Database DatabaseConfig  `yaml:"database"`
	Fetch    FetchConfig     `yaml:"fetch"`
	Monitor  MonitorConfig   `yaml:"monitor"`
	Datasets []DatasetConfig `yaml:"datasets" validate:"required,min=1,dive"`
}
