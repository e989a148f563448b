package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database types
const (
	DatabaseTypeSQLite   = "sqlite"
	DatabaseTypeMySQL    = "mysql"
	DatabaseTypePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	GDPR     GDPRConfig     `mapstructure:"gdpr"`
	RPC      RPCConfig      `mapstructure:"rpc"`
	Ops      OpsConfig      `mapstructure:"ops"`
}

// ServerConfig holds HTTPS server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig holds the server key pair and the CA bundle used to verify peers.
// When ClientCAFile is empty, client certificates are requested but not verified
// here; verification is then expected to happen in front of this process.
type TLSConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	CertFile     string `mapstructure:"cert_file"`
	KeyFile      string `mapstructure:"key_file"`
	ClientCAFile string `mapstructure:"client_ca_file"`
}

// DatabaseConfig holds the consent database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Path            string        `mapstructure:"path"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GDPRConfig holds settings of the consent site itself
type GDPRConfig struct {
	AssetDir       string `mapstructure:"asset_dir"`
	MaxAcceptBytes int64  `mapstructure:"max_accept_bytes"`
}

// RPCConfig holds the upstream RPC endpoint that receives non-GDPR POST calls
type RPCConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRequestBytes int64         `mapstructure:"max_request_bytes"`
}

// OpsConfig holds the health and metrics listener configuration
type OpsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// Load reads configuration from file and environment variables.
// A missing config file is not an error; defaults and environment apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GDPR_SITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "")
	v.SetDefault("server.port", 8443)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.tls.enabled", true)

	v.SetDefault("database.type", DatabaseTypeSQLite)
	v.SetDefault("database.path", "data/gdpr")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gdpr.max_accept_bytes", 1000)

	v.SetDefault("rpc.enabled", false)
	v.SetDefault("rpc.timeout", 60*time.Second)
	v.SetDefault("rpc.max_request_bytes", 10*1024*1024)

	v.SetDefault("ops.enabled", true)
	v.SetDefault("ops.address", "127.0.0.1:9090")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Server.TLS.Enabled && (config.Server.TLS.CertFile == "" || config.Server.TLS.KeyFile == "") {
		return fmt.Errorf("tls cert_file and key_file are required when tls is enabled")
	}

	switch config.Database.Type {
	case DatabaseTypeSQLite:
		if config.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case DatabaseTypeMySQL, DatabaseTypePostgres:
		if config.Database.Hostname == "" {
			return fmt.Errorf("database hostname is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", config.Database.Type)
	}

	if config.GDPR.MaxAcceptBytes <= 0 {
		return fmt.Errorf("gdpr max_accept_bytes must be positive")
	}

	if config.RPC.Enabled && config.RPC.BaseURL == "" {
		return fmt.Errorf("rpc base URL is required when rpc forwarding is enabled")
	}

	return nil
}

// GetDSN returns the driver name and connection string for the configured database
func (d *DatabaseConfig) GetDSN() (string, string) {
	switch d.Type {
	case DatabaseTypeMySQL:
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=false",
			d.User,
			d.Password,
			d.Hostname,
			d.Port,
			d.Database,
		)
	case DatabaseTypePostgres:
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
			d.User,
			d.Password,
			d.Hostname,
			d.Port,
			d.Database,
		)
	default:
		return "sqlite", "file:" + d.Path + "?_pragma=busy_timeout(5000)&_txlock=immediate"
	}
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}
