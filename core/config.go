package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	// Config holds the application configuration. It is loaded once at startup
	// via NewConfig and passed down to services explicitly.
	Config struct {
		Debug           bool
		TestMode        bool
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		AppName         string
		SecretKey       string
		FrontendBaseURL string
		DefaultFromName string
		DefaultFromAddr string
		SendgridApiKey  string
		RollbarToken    string

		Server      ServerConfig
		Database    DatabaseConfig
		Performance PerformanceConfig
	}

	ServerConfig struct {
		Host               string
		Addr               string
		DebugAddr          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// PerformanceConfig selects the canonical scoring scheme and the gates the
	// engine applies. Both historical weighting schemes remain expressible;
	// production picks one here.
	PerformanceConfig struct {
		Scheme               string // "pairing" (scheme A) | "tutor" (scheme B)
		MinSessions          int
		MinGradedAssignments int
		ReadRetries          int
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Walimu")
	v.SetDefault("secretKey", "w4l!mu-dev-only-2virp)enb$+57=dz&uoxh2(h!x)#*c2(#yg")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Walimu")
	v.SetDefault("defaultFromAddr", "noreply@localhost")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugAddr", ":8001")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "walimu")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disableTls", true)

	v.SetDefault("performance.scheme", "tutor")
	v.SetDefault("performance.minSessions", 3)
	v.SetDefault("performance.minGradedAssignments", 1)
	v.SetDefault("performance.readRetries", 3)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("testMode", env == "TEST")
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		Env:             env,
		Build:           v.GetString("build"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseUrl"),
		DefaultFromName: v.GetString("defaultFromName"),
		DefaultFromAddr: v.GetString("defaultFromAddr"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Addr:               v.GetString("server.addr"),
			DebugAddr:          v.GetString("server.debugAddr"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTls"),
		},
		Performance: PerformanceConfig{
			Scheme:               v.GetString("performance.scheme"),
			MinSessions:          v.GetInt("performance.minSessions"),
			MinGradedAssignments: v.GetInt("performance.minGradedAssignments"),
			ReadRetries:          v.GetInt("performance.readRetries"),
		},
	}
}
