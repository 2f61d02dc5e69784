package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/nodeql/internal/index"
)

// Config keys. Nested keys map to NODEQL_ variables with dots and dashes
// replaced by underscores: sqlite.path is NODEQL_SQLITE_PATH.
const (
	catalogKey     = "catalog"
	sqlitePathKey  = "sqlite.path"
	postgresDSNKey = "postgres.dsn"
	indexPathKey   = "index.path"
	logFormatKey   = "log.format"
	logLevelKey    = "log.level"
	concurrencyKey = "resolve.concurrency"
	pageSizeKey    = "search.page-size"
)

// Settings is the resolved configuration of commands that open a catalog
// and a store.
type Settings struct {
	Catalog     string
	SQLitePath  string
	PostgresDSN string
	IndexPath   string
	LogFormat   string
	LogLevel    string
	Concurrency int
	PageSize    int
}

func newConfig() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("NODEQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(sqlitePathKey, ":memory:")
	v.SetDefault(logFormatKey, "text")
	v.SetDefault(logLevelKey, "none")
	v.SetDefault(concurrencyKey, 1)
	v.SetDefault(pageSizeKey, index.DefaultPageSize)
	return v
}

// mustBindPFlag binds key to flag and panics if the binding fails.
func mustBindPFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

// bindConfigFlags declares one flag per config key and binds it to v.
func bindConfigFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.String("catalog", "", "directory of CUE catalog files")
	mustBindPFlag(v, catalogKey, flags.Lookup("catalog"))

	flags.String("sqlite-path", ":memory:", "SQLite database file")
	mustBindPFlag(v, sqlitePathKey, flags.Lookup("sqlite-path"))

	flags.String("postgres-dsn", "", "PostgreSQL connection string; takes precedence over --sqlite-path")
	mustBindPFlag(v, postgresDSNKey, flags.Lookup("postgres-dsn"))

	flags.String("index-path", "", "bleve index directory (default: in memory, rebuilt from the store)")
	mustBindPFlag(v, indexPathKey, flags.Lookup("index-path"))

	flags.String("log-format", "text", "log format (text|json)")
	mustBindPFlag(v, logFormatKey, flags.Lookup("log-format"))

	flags.String("log-level", "none", "log level (none|debug|info|warn|error)")
	mustBindPFlag(v, logLevelKey, flags.Lookup("log-level"))

	flags.Int("resolve-concurrency", 1, "reference paths resolved at once")
	mustBindPFlag(v, concurrencyKey, flags.Lookup("resolve-concurrency"))

	flags.Int("search-page-size", index.DefaultPageSize, "hits fetched per index request")
	mustBindPFlag(v, pageSizeKey, flags.Lookup("search-page-size"))
}

// readConfig reads file, or nodeql.yaml from the default locations when
// file is empty. A missing default file is not an error.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("nodeql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.nodeql")
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && (file != "" || !errors.As(err, &notFound)) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func settingsFrom(v *viper.Viper) Settings {
	return Settings{
		Catalog:     v.GetString(catalogKey),
		SQLitePath:  v.GetString(sqlitePathKey),
		PostgresDSN: v.GetString(postgresDSNKey),
		IndexPath:   v.GetString(indexPathKey),
		LogFormat:   v.GetString(logFormatKey),
		LogLevel:    v.GetString(logLevelKey),
		Concurrency: v.GetInt(concurrencyKey),
		PageSize:    v.GetInt(pageSizeKey),
	}
}
