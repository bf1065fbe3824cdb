package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// Development defaults. Every field can be overridden with a TABLELOG_*
// environment variable, e.g. TABLELOG_PG_HOST or TABLELOG_CORS_ORIGINS.
var Config = TablelogConfig{
	Env:             Dev,
	Addr:            ":8000",
	LogLevel:        zerolog.DebugLevel,
	LogPretty:       true,
	ShutdownTimeout: 10 * time.Second,
	Driver:          DriverSQLite,
	Postgres: PostgresConfig{
		User:     "tablelog",
		Password: "password",
		Hostname: "localhost",
		Port:     5432,
		DbName:   "tablelog",
		LogLevel: tracelog.LogLevelWarn,
		MinConn:  2,
		MaxConn:  10,
	},
	SQLite: SQLiteConfig{
		Path: "tablelog.db",
	},
	CORS: CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
	},
}

const EnvPrefix = "TABLELOG_"

func init() {
	if err := LoadEnv(&Config); err != nil {
		panic(err)
	}
}

// LoadEnv applies TABLELOG_* environment overrides on top of whatever is
// already in cfg.
func LoadEnv(cfg *TablelogConfig) error {
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
}
