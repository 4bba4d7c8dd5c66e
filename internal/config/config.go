// Package config loads the configuration of the service and the interactive app. Values come from
// a TOML file, an optional .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=1,max=65535"`
	// Mode is the gin mode: debug, release or test.
	Mode       string `toml:"mode" validate:"oneof=debug release test"`
	GinLogging bool   `toml:"ginLogging"`
}

// MySQLConfig configures the MySQL document store.
type MySQLConfig struct {
	Host     string `toml:"host"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// MongoConfig configures the MongoDB document store.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// RedisConfig configures the Redis document store.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// DocumentStoreConfig selects and configures the document store.
type DocumentStoreConfig struct {
	Driver     string      `toml:"driver" validate:"oneof=memory mysql mongo redis"`
	Collection string      `toml:"collection" validate:"required"`
	MySQL      MySQLConfig `toml:"mysql"`
	Mongo      MongoConfig `toml:"mongo"`
	Redis      RedisConfig `toml:"redis"`
}

// LocalConfig configures the object store on the local file system. BaseURL is the URL under
// which Root is served, see the /objects route of the service.
type LocalConfig struct {
	Root    string `toml:"root"`
	BaseURL string `toml:"baseURL"`
}

// MinioConfig configures an S3 compatible object store. Download URLs are PublicURL joined with
// the object key, or the path style URL on Endpoint if PublicURL is empty.
type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"accessKey"`
	SecretKey string `toml:"secretKey"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"useSSL"`
	PublicURL string `toml:"publicURL"`
}

// ObjectStoreConfig selects and configures the object store.
type ObjectStoreConfig struct {
	Driver string      `toml:"driver" validate:"oneof=local minio"`
	Prefix string      `toml:"prefix"`
	Local  LocalConfig `toml:"local"`
	Minio  MinioConfig `toml:"minio"`
}

// LogConfig configures the zap logger and the lumberjack log rotation.
type LogConfig struct {
	LogPath    string `toml:"logPath"`
	FileName   string `toml:"fileName"`
	MaxSize    int    `toml:"maxSize"`
	MaxBackups int    `toml:"maxBackups"`
	MaxAge     int    `toml:"maxAge"`
	Level      string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Config is the complete configuration.
type Config struct {
	Server        ServerConfig        `toml:"server"`
	DocumentStore DocumentStoreConfig `toml:"documentStore"`
	ObjectStore   ObjectStoreConfig   `toml:"objectStore"`
	Log           LogConfig           `toml:"log"`
}

// DefaultPaths are searched in order when Load is called without paths. The first file that
// exists wins.
var DefaultPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml",
	"../../configs/config.toml",
}

// Default returns the configuration used when no file is found: an in-memory document store and
// the local object store, which needs no external service.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "localhost", Port: 8080, Mode: "debug", GinLogging: true},
		DocumentStore: DocumentStoreConfig{
			Driver:     "memory",
			Collection: "contacts",
			MySQL:      MySQLConfig{Host: "localhost:3306", Database: "contacts"},
			Mongo:      MongoConfig{URI: "mongodb://localhost:27017", Database: "contacts"},
			Redis:      RedisConfig{Addr: "localhost:6379"},
		},
		ObjectStore: ObjectStoreConfig{
			Driver: "local",
			Prefix: "images",
			Local:  LocalConfig{Root: "data/objects", BaseURL: "http://localhost:8080/objects"},
			Minio:  MinioConfig{Bucket: "contacts", Region: "us-east-1"},
		},
		Log: LogConfig{LogPath: "logs", Level: "info"},
	}
}

// Load reads the first existing file of paths (DefaultPaths if none are given) over the defaults,
// applies the .env file and the environment, and validates the result.
func Load(paths ...string) (Config, error) {
	cfg := Default()
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	for _, path := range paths {
		_, err := toml.DecodeFile(path, &cfg)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("could not read configuration file %s: %w", path, err)
		}
	}

	// A missing .env file is fine, the environment may be set by other means.
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags and the settings the selected drivers depend on.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch cfg.DocumentStore.Driver {
	case "mysql":
		if cfg.DocumentStore.MySQL.Host == "" {
			return errors.New("invalid configuration: documentStore.mysql.host is required")
		}
	case "mongo":
		if cfg.DocumentStore.Mongo.URI == "" || cfg.DocumentStore.Mongo.Database == "" {
			return errors.New("invalid configuration: documentStore.mongo.uri and database are required")
		}
	case "redis":
		if cfg.DocumentStore.Redis.Addr == "" {
			return errors.New("invalid configuration: documentStore.redis.addr is required")
		}
	}
	switch cfg.ObjectStore.Driver {
	case "local":
		if cfg.ObjectStore.Local.Root == "" || cfg.ObjectStore.Local.BaseURL == "" {
			return errors.New("invalid configuration: objectStore.local.root and baseURL are required")
		}
	case "minio":
		if cfg.ObjectStore.Minio.Endpoint == "" || cfg.ObjectStore.Minio.Bucket == "" {
			return errors.New("invalid configuration: objectStore.minio.endpoint and bucket are required")
		}
	}
	return nil
}

// applyEnv overrides the configuration with the environment variables that are set.
//
// Usage example on the command line:
// > PORT=8080 DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 DOCSTORE_DRIVER=mysql go run main.go
func applyEnv(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("could not parse PORT env variable: %w", err)
		}
		cfg.Server.Port = p
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.Server.Mode = mode
	}
	if logging := os.Getenv("GIN_LOGGING"); logging != "" {
		cfg.Server.GinLogging = !strings.EqualFold(logging, "off")
	}
	setString(&cfg.DocumentStore.Driver, "DOCSTORE_DRIVER")
	setString(&cfg.DocumentStore.MySQL.Host, "DBHOST")
	setString(&cfg.DocumentStore.MySQL.User, "DBUSER")
	setString(&cfg.DocumentStore.MySQL.Password, "DBPWD")
	setString(&cfg.DocumentStore.Mongo.URI, "MONGO_URI")
	setString(&cfg.DocumentStore.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.ObjectStore.Driver, "OBJSTORE_DRIVER")
	setString(&cfg.ObjectStore.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.ObjectStore.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.ObjectStore.Minio.SecretKey, "MINIO_SECRET_KEY")
	return nil
}

func setString(target *string, env string) {
	if v := os.Getenv(env); v != "" {
		*target = v
	}
}

// Addr returns the listen address of the HTTP service.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
