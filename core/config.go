package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	// Config holds the application configuration; see NewConfig.
	Config struct {
		Debug        bool
		TestMode     bool
		Env          string
		Build        string
		AppName      string
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Database     DatabaseConfig
		Storage      StorageConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	StorageConfig struct {
		Backend   string // local | b2
		MediaDir  string
		B2Account string
		B2Key     string
		B2Bucket  string
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

// NewConfig reads the configuration from environment variables prefixed with the current ENV
// (e.g. DEV_DATABASE_HOST). A config/.env.<env> file is loaded first, if it exists.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("test_mode", env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("app_name", "Coursehub")
	v.SetDefault("secret_key", "yd2v#0pl!k6q-8ux*wbs)x=3f(u_7rz$g4d1&mhj+oa9ent5c")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_debug_host", ":4000")
	v.SetDefault("server_shutdown_timeout", 5*time.Second)
	v.SetDefault("jwt_expiration_delta", 24*time.Hour)
	v.SetDefault("database_engine", "postgres")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", "5432")
	v.SetDefault("database_name", "coursehub")
	v.SetDefault("database_user", "coursehub")
	v.SetDefault("database_password", "")
	v.SetDefault("database_admin_user", "postgres")
	v.SetDefault("database_admin_password", "")
	v.SetDefault("database_disable_tls", env != "PROD")
	v.SetDefault("storage_backend", "local")
	v.SetDefault("storage_media_dir", filepath.Join("media", "submissions"))
	v.SetDefault("storage_b2_account", "")
	v.SetDefault("storage_b2_key", "")
	v.SetDefault("storage_b2_bucket", "")

	loadDotEnv(env)
	v.SetEnvPrefix(env)
	v.AutomaticEnv()

	return &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("test_mode"),
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("app_name"),
		SecretKey:    v.GetString("secret_key"),
		RollbarToken: v.GetString("rollbar_token"),
		Server: ServerConfig{
			Host:               v.GetString("server_host"),
			Address:            v.GetString("server_address"),
			DebugHost:          v.GetString("server_debug_host"),
			ShutdownTimeout:    v.GetDuration("server_shutdown_timeout"),
			JWTExpirationDelta: v.GetDuration("jwt_expiration_delta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database_engine"),
			Host:          v.GetString("database_host"),
			Port:          v.GetString("database_port"),
			Name:          v.GetString("database_name"),
			User:          v.GetString("database_user"),
			Password:      v.GetString("database_password"),
			AdminUser:     v.GetString("database_admin_user"),
			AdminPassword: v.GetString("database_admin_password"),
			DisableTLS:    v.GetBool("database_disable_tls"),
		},
		Storage: StorageConfig{
			Backend:   v.GetString("storage_backend"),
			MediaDir:  v.GetString("storage_media_dir"),
			B2Account: v.GetString("storage_b2_account"),
			B2Key:     v.GetString("storage_b2_key"),
			B2Bucket:  v.GetString("storage_b2_bucket"),
		},
	}
}

// load .env if it exists (ignore if it does not)
func loadDotEnv(env string) {
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatal(fmt.Sprintf("config.godotenv(%s): %v", dotEnvPath, err))
		}
	} else if !os.IsNotExist(err) {
		log.Fatal(fmt.Sprintf("config.os.Stat(%s): %v", dotEnvPath, err))
	}
}
