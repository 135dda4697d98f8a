package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort string `mapstructure:"app_port"`

	// DBDriver is mysql, postgres or sqlite.
	DBDriver string `mapstructure:"db_driver"`

	MySQLHost string `mapstructure:"mysql_host"`
	MySQLPort string `mapstructure:"mysql_port"`
	MySQLDB   string `mapstructure:"mysql_db"`
	MySQLUser string `mapstructure:"mysql_user"`
	MySQLPass string `mapstructure:"mysql_pass"`

	PostgresHost    string `mapstructure:"postgres_host"`
	PostgresPort    string `mapstructure:"postgres_port"`
	PostgresDB      string `mapstructure:"postgres_db"`
	PostgresUser    string `mapstructure:"postgres_user"`
	PostgresPass    string `mapstructure:"postgres_pass"`
	PostgresSSLMode string `mapstructure:"postgres_sslmode"`

	SQLitePath string `mapstructure:"sqlite_path"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	IdempTTLSecs   int `mapstructure:"idempotency_ttl_seconds"`
	SessionTTLMins int `mapstructure:"session_ttl_minutes"`

	// BadgerDir holds uploaded photos; empty keeps them in memory.
	BadgerDir   string `mapstructure:"badger_dir"`
	PhotoPrefix string `mapstructure:"photo_prefix"`

	// NATSURL is optional; without it lifecycle events are not published.
	NATSURL           string `mapstructure:"nats_url"`
	NATSSubjectPrefix string `mapstructure:"nats_subject_prefix"`

	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`

	TemplatesGlob string `mapstructure:"templates_glob"`

	// PlantTimezone is the IANA zone whose calendar day counts as "today"
	// for production dates, e.g. Asia/Tokyo.
	PlantTimezone string `mapstructure:"plant_timezone"`
}

var defaults = map[string]interface{}{
	"app_port":                "8080",
	"db_driver":               "mysql",
	"mysql_host":              "mysql",
	"mysql_port":              "3306",
	"mysql_db":                "checksheet",
	"mysql_user":              "checksheet",
	"mysql_pass":              "checksheet",
	"postgres_host":           "postgres",
	"postgres_port":           "5432",
	"postgres_db":             "checksheet",
	"postgres_user":           "checksheet",
	"postgres_pass":           "checksheet",
	"postgres_sslmode":        "disable",
	"sqlite_path":             "checksheet.db",
	"redis_addr":              "redis:6379",
	"redis_password":          "",
	"redis_db":                0,
	"idempotency_ttl_seconds": 300,
	"session_ttl_minutes":     720,
	"badger_dir":              "data/photos",
	"photo_prefix":            "/photos/",
	"nats_url":                "",
	"nats_subject_prefix":     "checksheet",
	"log_level":               "info",
	"log_pretty":              false,
	"templates_glob":          "templates/**/*.yaml",
	"plant_timezone":          "UTC",
}

// Load reads defaults, then the optional config file, then environment
// variables (upper-cased keys, e.g. MYSQL_HOST).
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "postgres":
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDB == "" || c.PostgresUser == "" {
			return errors.New("missing Postgres config (POSTGRES_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.PostgresPort); err != nil {
			return fmt.Errorf("invalid POSTGRES_PORT %q: %w", c.PostgresPort, err)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR")
	}
	if c.IdempTTLSecs <= 0 || c.SessionTTLMins <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS and SESSION_TTL_MINUTES must be positive")
	}
	if !strings.HasPrefix(c.PhotoPrefix, "/") {
		return fmt.Errorf("PHOTO_PREFIX %q must start with /", c.PhotoPrefix)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves PlantTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.PlantTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid PLANT_TIMEZONE %q: %w", c.PlantTimezone, err)
	}
	return loc, nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPass, c.PostgresDB, c.PostgresSSLMode)
}

// DSN returns the connection string of the selected driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return c.PostgresDSN()
	case "sqlite":
		return c.SQLitePath
	}
	return c.MySQLDSN()
}
