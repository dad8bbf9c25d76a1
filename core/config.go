package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address            string
		DebugAddress       string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine string // sqlite3 | postgres
		DSN    string // postgres only
		Path   string // sqlite3 only
	}

	RemoteConfig struct {
		BaseURL string
		APIKey  string
		Timeout time.Duration
	}

	ContentConfig struct {
		BaseURL     string
		CacheDir    string
		DefaultLang string
	}

	BroadcastConfig struct {
		RedisAddr string
		Channel   string
	}

	Config struct {
		Env                 string
		Build               string
		AppName             string
		Debug               bool
		TestMode            bool
		SecretKey           string
		TeacherPasswordHash string
		RollbarToken        string
		Logger              string // rollbar | zap
		SyncInterval        time.Duration
		KeepFurthest        bool

		Server    ServerConfig
		Database  DatabaseConfig
		Remote    RemoteConfig
		Content   ContentConfig
		Broadcast BroadcastConfig
	}
)

// NewConfig loads the configuration from the environment, optionally seeded by config/.env.<env>.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Masomo Tutor")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k2#vq-8d$gm3+8l=s&o!xw1e_lp(0z8n4u^b@7yh!c%r9tjq")
	v.SetDefault("teacherPasswordHash", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("logger", "rollbar")
	v.SetDefault("syncInterval", 15*time.Minute)
	v.SetDefault("keepFurthest", false)

	v.SetDefault("serverAddress", "127.0.0.1:8000")
	v.SetDefault("serverDebugAddress", "127.0.0.1:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 8*time.Hour)

	v.SetDefault("databaseEngine", "sqlite3")
	v.SetDefault("databaseDSN", "")
	v.SetDefault("databasePath", filepath.Join("data", "tutor.db"))

	v.SetDefault("remoteBaseURL", "")
	v.SetDefault("remoteAPIKey", "")
	v.SetDefault("remoteTimeout", 15*time.Second)

	v.SetDefault("contentBaseURL", "")
	v.SetDefault("contentCacheDir", filepath.Join("data", "content"))
	v.SetDefault("contentDefaultLang", "en")

	v.SetDefault("broadcastRedisAddr", "")
	v.SetDefault("broadcastChannel", "progress-updated")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:                 env,
		Build:               v.GetString("build"),
		AppName:             v.GetString("appName"),
		Debug:               v.GetBool("debug"),
		TestMode:            v.GetBool("testMode"),
		SecretKey:           v.GetString("secretKey"),
		TeacherPasswordHash: v.GetString("teacherPasswordHash"),
		RollbarToken:        v.GetString("rollbarToken"),
		Logger:              strings.ToLower(v.GetString("logger")),
		SyncInterval:        v.GetDuration("syncInterval"),
		KeepFurthest:        v.GetBool("keepFurthest"),
		Server: ServerConfig{
			Address:            v.GetString("serverAddress"),
			DebugAddress:       v.GetString("serverDebugAddress"),
			ShutdownTimeout:    v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine: v.GetString("databaseEngine"),
			DSN:    v.GetString("databaseDSN"),
			Path:   v.GetString("databasePath"),
		},
		Remote: RemoteConfig{
			BaseURL: v.GetString("remoteBaseURL"),
			APIKey:  v.GetString("remoteAPIKey"),
			Timeout: v.GetDuration("remoteTimeout"),
		},
		Content: ContentConfig{
			BaseURL:     v.GetString("contentBaseURL"),
			CacheDir:    v.GetString("contentCacheDir"),
			DefaultLang: v.GetString("contentDefaultLang"),
		},
		Broadcast: BroadcastConfig{
			RedisAddr: v.GetString("broadcastRedisAddr"),
			Channel:   v.GetString("broadcastChannel"),
		},
	}
}

// Validate checks the settings the daemon cannot start without.
func (c *Config) Validate() error {
	switch c.Database.Engine {
	case "sqlite3":
		if c.Database.Path == "" {
			return errors.New("config: databasePath is required for sqlite3")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("config: databaseDSN is required for postgres")
		}
	default:
		return errors.Errorf("config: unsupported database engine %q", c.Database.Engine)
	}
	if c.Logger != "rollbar" && c.Logger != "zap" {
		return errors.Errorf("config: unsupported logger %q", c.Logger)
	}
	if !c.Debug && c.SecretKey == "" {
		return errors.New("config: secretKey is required outside debug mode")
	}
	return nil
}

// RemoteEnabled reports whether a cloud backend is configured.
func (c *Config) RemoteEnabled() bool { return c.Remote.BaseURL != "" }
