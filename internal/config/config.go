package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	RedisAddr     string // empty disables the question cache
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	BlobDriver   string // fs|minio
	BlobBasePath string // for fs

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool

	AuthHMACSecret string
	TokenTTL       time.Duration

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string
	LoginRate   int // login attempts per client IP per minute

	LogLevel string // debug|info|warn|error
	LogFile  string // empty logs to stdout only
}

// keys maps config keys to their environment variables.
var keys = map[string]string{
	"http_addr":        "HTTP_ADDR",
	"db_driver":        "DB_DRIVER",
	"db_dsn":           "DB_DSN",
	"redis_addr":       "REDIS_ADDR",
	"redis_password":   "REDIS_PASSWORD",
	"redis_db":         "REDIS_DB",
	"cache_ttl":        "CACHE_TTL",
	"blob_driver":      "BLOB_DRIVER",
	"blob_base_path":   "BLOB_BASE_PATH",
	"minio_endpoint":   "MINIO_ENDPOINT",
	"minio_access_key": "MINIO_ACCESS_KEY",
	"minio_secret_key": "MINIO_SECRET_KEY",
	"minio_bucket":     "MINIO_BUCKET",
	"minio_secure":     "MINIO_SECURE",
	"auth_hmac_secret": "AUTH_HMAC_SECRET",
	"token_ttl":        "TOKEN_TTL",
	"admin_user":       "ADMIN_USER",
	"admin_pass_hash":  "ADMIN_PASS_HASH",
	"cors_origins":     "CORS_ORIGINS",
	"login_rate":       "LOGIN_RATE",
	"log_level":        "LOG_LEVEL",
	"log_file":         "LOG_FILE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("blob_driver", "fs")
	v.SetDefault("blob_base_path", "./data")
	v.SetDefault("minio_bucket", "mcsaon")
	v.SetDefault("minio_secure", false)
	v.SetDefault("auth_hmac_secret", "dev-secret-change-me")
	v.SetDefault("token_ttl", "12h")
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass_hash", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji")
	v.SetDefault("cors_origins", "http://localhost:3000,http://localhost:3010")
	v.SetDefault("login_rate", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// Load reads an optional YAML config file (path, or $MCSAON_CONFIG when path
// is empty) and overlays environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	for k, env := range keys {
		if err := v.BindEnv(k, env); err != nil {
			return Config{}, err
		}
	}
	_ = v.BindEnv("config_file", "MCSAON_CONFIG")
	if path == "" {
		path = v.GetString("config_file")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr:       v.GetString("http_addr"),
		DBDriver:       v.GetString("db_driver"),
		DBDSN:          v.GetString("db_dsn"),
		RedisAddr:      v.GetString("redis_addr"),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),
		BlobDriver:     strings.ToLower(v.GetString("blob_driver")),
		BlobBasePath:   v.GetString("blob_base_path"),
		MinioEndpoint:  v.GetString("minio_endpoint"),
		MinioAccessKey: v.GetString("minio_access_key"),
		MinioSecretKey: v.GetString("minio_secret_key"),
		MinioBucket:    v.GetString("minio_bucket"),
		MinioSecure:    v.GetBool("minio_secure"),
		AuthHMACSecret: v.GetString("auth_hmac_secret"),
		AdminUser:      v.GetString("admin_user"),
		AdminPassHash:  v.GetString("admin_pass_hash"),
		CORSOrigins:    csv(v.GetString("cors_origins")),
		LoginRate:      v.GetInt("login_rate"),
		LogLevel:       strings.ToLower(v.GetString("log_level")),
		LogFile:        v.GetString("log_file"),
	}
	var err error
	if cfg.CacheTTL, err = duration(v, "cache_ttl"); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = duration(v, "token_ttl"); err != nil {
		return Config{}, err
	}
	switch cfg.BlobDriver {
	case "fs":
	case "minio":
		if cfg.MinioEndpoint == "" {
			return Config{}, fmt.Errorf("blob_driver=minio requires MINIO_ENDPOINT")
		}
	default:
		return Config{}, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func csv(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
