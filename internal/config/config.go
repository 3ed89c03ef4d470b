package config

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

var (
	cfg     *APIConfig
	cfgErr  error
	once    sync.Once
	envFile = ".env"
)

// APIConfig represents the root element.
type APIConfig struct {
	XMLName     xml.Name        `xml:"API"`
	RequestDump bool            `xml:"REQUEST_DUMP,attr"`
	Context     ContextConfig   `xml:"CONTEXT"`
	Service     ServiceConfig   `xml:"SERVICE"`
	Security    SecurityConfig  `xml:"SECURITY"`
	DB          DBConfig        `xml:"DB"`
	Cache       CacheConfig     `xml:"CACHE"`
	Logging     LoggingConfig   `xml:"LOGGING"`
	RateLimit   RateLimitConfig `xml:"RATE_LIMIT"`
}

// ContextConfig holds the web/REST server settings.
type ContextConfig struct {
	Port     int    `xml:"PORT"`
	Host     string `xml:"HOST"`
	Path     string `xml:"PATH"`
	TimeZone string `xml:"TIME_ZONE"`
}

// ServiceConfig holds the listen address of the standalone API service.
type ServiceConfig struct {
	Port int    `xml:"PORT"`
	Host string `xml:"HOST"`
}

// SecurityConfig holds the bearer token settings.
type SecurityConfig struct {
	JWTSecret   string `xml:"JWT_SECRET"`
	TokenIssuer string `xml:"TOKEN_ISSUER"`
	CookieName  string `xml:"COOKIE_NAME"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Initialize bool         `xml:"INITIALIZE"`
	URL        string       `xml:"URL"`
	Host       string       `xml:"HOST"`
	Port       int          `xml:"PORT"`
	SSLMode    string       `xml:"SSL_MODE"`
	Names      DBNames      `xml:"NAMES"`
	Username   string       `xml:"USERNAME"`
	Password   DBPassword   `xml:"PASSWORD"`
	Pool       DBPoolConfig `xml:"POOL"`
}

// DBNames holds the names defined in the DB section.
type DBNames struct {
	ENQUETE string `xml:"ENQUETE,attr"`
}

// DBPassword holds password details.
type DBPassword struct {
	Type  string `xml:"TYPE,attr"`
	Value string `xml:",chardata"`
}

// DBPoolConfig holds database connection pooling settings.
type DBPoolConfig struct {
	MaxOpenConns    int `xml:"MAX_OPEN_CONNS"`
	MaxIdleConns    int `xml:"MAX_IDLE_CONNS"`
	ConnMaxLifetime int `xml:"CONN_MAX_LIFETIME"`
}

// CacheConfig configures the redis report cache. An empty address disables it.
type CacheConfig struct {
	RedisAddr  string `xml:"REDIS_ADDR"`
	RedisDB    int    `xml:"REDIS_DB"`
	TTLSeconds int    `xml:"TTL_SECONDS"`
}

// LoggingConfig configures the rotating log files.
type LoggingConfig struct {
	Dir        string `xml:"DIR"`
	MaxSizeMB  int    `xml:"MAX_SIZE_MB"`
	MaxBackups int    `xml:"MAX_BACKUPS"`
	MaxAgeDays int    `xml:"MAX_AGE_DAYS"`
	Debug      bool   `xml:"DEBUG,attr"`
}

// RateLimitConfig limits submissions per client address.
type RateLimitConfig struct {
	PerMinute int `xml:"PER_MINUTE"`
	Burst     int `xml:"BURST"`
}

// DSN builds the postgres connection string. DB.URL wins when set.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password.Value, c.Names.ENQUETE, sslMode)
}

// Parse decodes an XML document, fills defaults and applies environment
// overrides.
func Parse(data []byte) (*APIConfig, error) {
	var newCfg APIConfig
	if err := xml.Unmarshal(data, &newCfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&newCfg)
	if err := applyEnv(&newCfg); err != nil {
		return nil, err
	}
	return &newCfg, nil
}

// LoadConfig loads and parses the XML configuration from the given file.
// A .env file next to the process, if any, is loaded first.
func LoadConfig(xmlPath string) (*APIConfig, error) {
	once.Do(func() {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				cfgErr = fmt.Errorf("load %s: %w", envFile, err)
				return
			}
		}

		f, err := os.Open(xmlPath)
		if err != nil {
			cfgErr = err
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			cfgErr = err
			return
		}

		cfg, cfgErr = Parse(data)
	})

	if cfgErr != nil {
		return nil, cfgErr
	}
	if cfg == nil {
		return nil, os.ErrInvalid
	}
	return cfg, nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *APIConfig {
	return cfg
}

func applyDefaults(c *APIConfig) {
	if c.Context.Port == 0 {
		c.Context.Port = 8080
	}
	if c.Service.Port == 0 {
		c.Service.Port = 8081
	}
	if c.Security.CookieName == "" {
		c.Security.CookieName = "enquete_token"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 30
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 50
	}
}

func applyEnv(c *APIConfig) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DB.URL = v
	}
	if v := os.Getenv("ENQUETE_DB_PASSWORD"); v != "" {
		c.DB.Password.Value = v
	}
	if v := os.Getenv("ENQUETE_JWT_SECRET"); v != "" {
		c.Security.JWTSecret = v
	}
	if v := os.Getenv("ENQUETE_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("ENQUETE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ENQUETE_PORT: %w", err)
		}
		c.Context.Port = port
	}
	return nil
}
