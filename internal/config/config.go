package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Database *DatabaseConfig `mapstructure:"database"`
	SMTP     *SMTPConfig     `mapstructure:"smtp"`
	Log      *LogConfig      `mapstructure:"log"`
	Page     *PageConfig     `mapstructure:"page"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	ListenHosts        []string      `mapstructure:"listen_hosts"`
	BaseURL            string        `mapstructure:"base_url"`
	StaticRoot         string        `mapstructure:"static_root"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// SMTPConfig describes the relay every new message is forwarded through.
type SMTPConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	SSL           bool          `mapstructure:"ssl"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	SenderName    string        `mapstructure:"sender_name"`
	SenderAddress string        `mapstructure:"sender_address"`
	Recipient     string        `mapstructure:"recipient"`
	Subject       string        `mapstructure:"subject"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type PageConfig struct {
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

// Load reads the YAML file at path. Every key can be overridden from the
// environment, e.g. SMTP_PASSWORD for smtp.password.
func Load(path string) (*AppConfig, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return decode(v)
}

// Watch re-reads the file at path whenever it changes and hands the new
// configuration to onChange. Invalid revisions are passed to onErr and
// otherwise ignored.
func Watch(path string, onChange func(*AppConfig), onErr func(error)) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		onErr(fmt.Errorf("v.ReadInConfig -> %w", err))
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		conf, err := decode(v)
		if err != nil {
			onErr(fmt.Errorf("%s -> %w", e.Name, err))
			return
		}
		onChange(conf)
	})
	v.WatchConfig()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "2000")
	v.SetDefault("api.listen_hosts", []string{"127.0.0.1", "::1"})
	v.SetDefault("api.base_url", "localhost:2000")
	v.SetDefault("api.static_root", "./")
	v.SetDefault("api.request_timeout", "30s")
	v.SetDefault("api.allowed_cors_domains", []string{})
	v.SetDefault("gin.mode", "release")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "sqlite.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.query_timeout", "5s")
	v.SetDefault("smtp.host", "smtp.qq.com")
	v.SetDefault("smtp.port", 465)
	v.SetDefault("smtp.ssl", true)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.sender_name", "紧急联系人")
	v.SetDefault("smtp.sender_address", "")
	v.SetDefault("smtp.recipient", "")
	v.SetDefault("smtp.subject", "紧急消息")
	v.SetDefault("smtp.timeout", "15s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("page.path", "index.html")
	v.SetDefault("page.disabled", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("conf.Validate -> %w", err)
	}

	return conf, nil
}

func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.API, validation.Required),
		validation.Field(&c.Gin, validation.Required),
		validation.Field(&c.Database, validation.Required),
		validation.Field(&c.SMTP, validation.Required),
		validation.Field(&c.Log, validation.Required),
		validation.Field(&c.Page, validation.Required),
	)
}

func (c *APIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.ListenHosts, validation.Required, validation.By(validateHosts)),
		validation.Field(&c.StaticRoot, validation.Required),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0))),
	)
}

func validateHosts(value interface{}) error {
	hosts, _ := value.([]string)
	for _, h := range hosts {
		if err := validation.Validate(h, validation.Required, is.IP); err != nil {
			return fmt.Errorf("%q: %w", h, err)
		}
	}

	return nil
}

func (c *GinConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In("debug", "release", "test")),
	)
}

func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
		validation.Field(&c.QueryTimeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

func (c *SMTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.SenderAddress, is.Email),
		validation.Field(&c.Recipient, is.Email),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
	)
}

func (c *PageConfig) Validate() error {
	if c.Disabled {
		return nil
	}

	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}
