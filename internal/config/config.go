package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Document DocumentConfig `mapstructure:"document"`
	Vendor   VendorConfig   `mapstructure:"vendor"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DocumentConfig holds invoice rendering configuration
type DocumentConfig struct {
	OutputDir     string        `mapstructure:"output_dir"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
	PoolSize      int           `mapstructure:"pool_size"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	ChromePath    string        `mapstructure:"chrome_path"`
}

// VendorConfig holds the letterhead identity printed on documents
type VendorConfig struct {
	Tenant  string `mapstructure:"tenant"`
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/backoffice.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Document defaults
	viper.SetDefault("document.output_dir", "data/documents")
	viper.SetDefault("document.render_timeout", 30*time.Second)
	viper.SetDefault("document.pool_size", 2)
	viper.SetDefault("document.idle_timeout", 5*time.Minute)

	// Vendor defaults
	viper.SetDefault("vendor.tenant", "default")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("document.chrome_path", "CHROME_PATH")
	viper.BindEnv("vendor.name", "VENDOR_NAME")
	viper.BindEnv("vendor.address", "VENDOR_ADDRESS")
	viper.BindEnv("vendor.phone", "VENDOR_PHONE")
	viper.BindEnv("vendor.email", "VENDOR_EMAIL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Vendor.Name == "" {
		return fmt.Errorf("vendor.name is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Document.RenderTimeout <= 0 {
		return fmt.Errorf("document.render_timeout must be positive")
	}
	if c.Document.PoolSize <= 0 {
		return fmt.Errorf("document.pool_size must be positive")
	}
	return nil
}
