package config

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

type Environment string

const (
	Live Environment = "live"
	Dev  Environment = "dev"
)

type DBDriver string

const (
	DriverPostgres DBDriver = "postgres"
	DriverSQLite   DBDriver = "sqlite"
)

type TablelogConfig struct {
	Env             Environment   `env:"ENV"`
	Addr            string        `env:"ADDR"`
	LogLevel        zerolog.Level `env:"LOG_LEVEL"`
	LogPretty       bool          `env:"LOG_PRETTY"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	Driver   DBDriver       `env:"DB_DRIVER"`
	Postgres PostgresConfig `envPrefix:"PG_"`
	SQLite   SQLiteConfig   `envPrefix:"SQLITE_"`
	CORS     CORSConfig     `envPrefix:"CORS_"`
}

type PostgresConfig struct {
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Hostname string `env:"HOST"`
	Port     int    `env:"PORT"`
	DbName   string `env:"DBNAME"`

	// pgx tracelog levels: 6 trace, 5 debug, 4 info, 3 warn, 2 error, 1 none
	LogLevel tracelog.LogLevel `env:"LOG_LEVEL"`
	MinConn  int32             `env:"MIN_CONN"`
	MaxConn  int32             `env:"MAX_CONN"`
}

func (info PostgresConfig) DSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s", info.User, info.Password, info.Hostname, info.Port, info.DbName)
}

type SQLiteConfig struct {
	// A file path, or ":memory:".
	Path string `env:"PATH"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ORIGINS" envSeparator:","`
}
