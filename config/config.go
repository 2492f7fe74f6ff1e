package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "CATALOG_CONFIG_FILE"

const (
	BlobDriverFS = "fs"
	BlobDriverS3 = "s3"
)

type db struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	Path            string `mapstructure:"path"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
	ConnectAttempts int    `mapstructure:"connect_attempts"`
}

type s3 struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style"`
}

type blob struct {
	Driver     string `mapstructure:"driver"`
	UploadsDir string `mapstructure:"uploads_dir"`
	S3         s3     `mapstructure:"s3"`
}

type tls struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t tls) Enabled() bool {
	return t.CA != "" || t.Cert != "" || t.Key != ""
}

type broker struct {
	SeedBrokers        []string `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string `mapstructure:"schema_registry_urls"`
	ProductEventsTopic string   `mapstructure:"product_events_topic"`
	TLS                tls      `mapstructure:"tls"`
}

// Enabled reports whether product events are published.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	Port      int    `mapstructure:"port"`
	PublicDir string `mapstructure:"public_dir"`
	DB        db     `mapstructure:"db"`
	Blob      blob   `mapstructure:"blob"`
	Broker    broker `mapstructure:"broker"`
}

func (c Config) HTTPServerAddr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads .env files, the optional config file and the environment.
// It exits the process on failure.
func Load() Config {
	_ = godotenv.Load()

	cfg, err := load(os.Args[1:])
	if err != nil {
		die(err)
	}
	return cfg
}

func load(args []string) (Config, error) {
	configFile, err := getConfigFilepath(args)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 3000)
	v.SetDefault("public_dir", "public")

	v.SetDefault("db.driver", "pgx")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "product_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "data/catalog.db")
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.connect_attempts", 5)

	v.SetDefault("blob.driver", BlobDriverFS)
	v.SetDefault("blob.uploads_dir", "uploads")
	v.SetDefault("blob.s3.bucket", "")
	v.SetDefault("blob.s3.region", "us-east-1")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.access_key_id", "")
	v.SetDefault("blob.s3.secret_access_key", "")
	v.SetDefault("blob.s3.path_style", false)

	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.product_events_topic", "catalog.product-events")
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
}

// bindEnv maps keys to env names: db.host is DB_HOST. The upload dir keeps
// its short UPLOADS_DIR name.
func bindEnv(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v.BindEnv("blob.uploads_dir", "UPLOADS_DIR", "BLOB_UPLOADS_DIR")
}

func (c Config) validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port: out of range: %d", c.Port))
	}

	switch c.DB.Driver {
	case "pgx", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("db.driver: unsupported %q", c.DB.Driver))
	}

	switch c.Blob.Driver {
	case BlobDriverFS:
		if c.Blob.UploadsDir == "" {
			errs = append(errs, errors.New("blob.uploads_dir: required"))
		}
	case BlobDriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket: required"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver: unsupported %q", c.Blob.Driver))
	}

	if c.Broker.Enabled() {
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls: required"))
		}
		if c.Broker.ProductEventsTopic == "" {
			errs = append(errs, errors.New("broker.product_events_topic: required"))
		}
	}

	return errors.Join(errs...)
}

func getConfigFilepath(args []string) (string, error) {
	cmdLine := pflag.NewFlagSet("catalog", pflag.ContinueOnError)
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	arg := cmdLine.String("config", "", "config file")
	if err := cmdLine.Parse(args); err != nil {
		return "", err
	}
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env, nil
	}
	return *arg, nil
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	Port=%d
	PublicDir=%q

	DB:
	Driver=%q
	Host=%q
	Port=%d
	User=%q
	Password=%q
	Name=%q
	SSLMode=%q
	Path=%q
	AutoMigrate=%t

	Blob:
	Driver=%q
	UploadsDir=%q
	S3Bucket=%q
	S3Endpoint=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	ProductEventsTopic=%q
	TLS=%t

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.Port,
		c.PublicDir,
		c.DB.Driver,
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		mask(c.DB.Password),
		c.DB.Name,
		c.DB.SSLMode,
		c.DB.Path,
		c.DB.AutoMigrate,
		c.Blob.Driver,
		c.Blob.UploadsDir,
		c.Blob.S3.Bucket,
		c.Blob.S3.Endpoint,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.ProductEventsTopic,
		c.Broker.TLS.Enabled(),
	)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "******"
}
