package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/oefquery/internal/directory"
)

// EnvPrefix prefixes every environment variable the CLI reads,
// e.g. OEFQ_DB or OEFQ_CACHE_TTL.
const EnvPrefix = "OEFQ"

// Config is the file and environment configuration of the CLI.
// Command line flags take precedence over it.
type Config struct {
	DB      string      `mapstructure:"db"`
	Format  string      `mapstructure:"format"`
	Verbose bool        `mapstructure:"verbose"`
	Cache   CacheConfig `mapstructure:"cache"`
}

// CacheConfig configures the directory's decode cache.
type CacheConfig struct {
	// TTL is how long decoded entries stay cached. Zero disables the cache.
	TTL time.Duration `mapstructure:"ttl"`
}

// flagKeys maps persistent flags to their config keys.
var flagKeys = map[string]string{
	"db":      "db",
	"format":  "format",
	"verbose": "verbose",
}

// loadConfig resolves opts from, in order of precedence: flags set on the
// command line, OEFQ_* environment variables, the config file, defaults.
func loadConfig(root *cobra.Command, opts *RootOptions) error {
	v := viper.New()

	v.SetDefault("db", DefaultDB)
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("cache.ttl", directory.DefaultCacheTTL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := root.PersistentFlags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("oefq")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "oefq"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Only a missing file in the search paths is fine; an explicit
		// --config must exist.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	opts.DB = cfg.DB
	opts.Format = cfg.Format
	opts.Verbose = cfg.Verbose
	opts.CacheTTL = cfg.Cache.TTL
	return nil
}
