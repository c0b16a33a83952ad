package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		RollbarToken string
		WorkDir      string

		Backend    BackendConfig
		Console    ConsoleConfig
		Session    SessionConfig
		Access     AccessConfig
		DevBackend DevBackendConfig
	}

	BackendConfig struct {
		BaseURL string        `validate:"required,url"`
		Timeout time.Duration `validate:"gt=0"`
	}

	ConsoleConfig struct {
		Host            string
		Address         string `validate:"required"`
		DebugAddress    string
		ShutdownTimeout time.Duration
	}

	SessionConfig struct {
		Driver    string `validate:"oneof=memory sqlite redis"`
		Namespace string `validate:"required,keyname"`
		SQLiteDSN string
		Redis     RedisConfig
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	AccessConfig struct {
		RoutesFile string
	}

	DevBackendConfig struct {
		Address            string
		SecretKey          string
		JWTExpirationDelta time.Duration
	}
)

// NewConfig loads the configuration from defaults, an optional `config/.env.<env>` file and the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "AcademyOS Console")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("backend.baseURL", "http://localhost:8001/api")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("console.host", "localhost")
	v.SetDefault("console.address", ":8000")
	v.SetDefault("console.debugAddress", ":4000")
	v.SetDefault("console.shutdownTimeout", 5*time.Second)
	v.SetDefault("session.driver", "sqlite")
	v.SetDefault("session.namespace", "academyos-auth")
	v.SetDefault("session.sqlite.dsn", "academyos-console.db")
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("access.routesFile", "")
	v.SetDefault("devbackend.address", ":8001")
	v.SetDefault("devbackend.secretKey", "h3k$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy-academyos")
	v.SetDefault("devbackend.jwtExpirationDelta", 7*24*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      workDir,
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(v.GetString("backend.baseURL"), "/"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Console: ConsoleConfig{
			Host:            v.GetString("console.host"),
			Address:         v.GetString("console.address"),
			DebugAddress:    v.GetString("console.debugAddress"),
			ShutdownTimeout: v.GetDuration("console.shutdownTimeout"),
		},
		Session: SessionConfig{
			Driver:    strings.ToLower(v.GetString("session.driver")),
			Namespace: v.GetString("session.namespace"),
			SQLiteDSN: v.GetString("session.sqlite.dsn"),
			Redis: RedisConfig{
				Addr:     v.GetString("session.redis.addr"),
				Password: v.GetString("session.redis.password"),
				DB:       v.GetInt("session.redis.db"),
			},
		},
		Access: AccessConfig{
			RoutesFile: v.GetString("access.routesFile"),
		},
		DevBackend: DevBackendConfig{
			Address:            v.GetString("devbackend.address"),
			SecretKey:          v.GetString("devbackend.secretKey"),
			JWTExpirationDelta: v.GetDuration("devbackend.jwtExpirationDelta"),
		},
	}
}
