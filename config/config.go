package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meysamhadeli/codesim/code_normalizer"
	"github.com/meysamhadeli/codesim/logger"
	"github.com/meysamhadeli/codesim/similarity"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the tool.
const EnvPrefix = "CODESIM"

// Config represents the structure of the configuration file
type Config struct {
	Version         string `mapstructure:"version"`
	Theme           string `mapstructure:"theme"`
	Workers         int    `mapstructure:"workers"`
	ReplacementMode string `mapstructure:"replacement_mode"`
	EmptyPairPolicy string `mapstructure:"empty_pair_policy"`
	Rounding        string `mapstructure:"rounding"`
	EnableCache     bool   `mapstructure:"enable_cache"`
	CacheDir        string `mapstructure:"cache_dir"`
	LogLevel        string `mapstructure:"log_level"`
	Progress        bool   `mapstructure:"progress"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:         "1.0.0",
	Theme:           "dracula",
	Workers:         0, // 0 sizes the pool from the CPU count
	ReplacementMode: string(code_normalizer.ModeToken),
	EmptyPairPolicy: string(similarity.EmptyFail),
	Rounding:        string(similarity.RoundHalfEven),
	EnableCache:     false,
	CacheDir:        "",
	LogLevel:        "warn",
	Progress:        true,
}

// configKeys lists every key that can come from a file, the environment or a flag.
var configKeys = []string{
	"theme",
	"workers",
	"replacement_mode",
	"empty_pair_policy",
	"rounding",
	"enable_cache",
	"cache_dir",
	"log_level",
	"progress",
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs merges defaults, the configuration file, CODESIM_* environment
// variables and CLI flags, in increasing order of precedence.
func LoadConfigs(cmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if cfgFile != "" {
		if GetConfigFileType(cfgFile) == "" {
			return nil, fmt.Errorf("unsupported config file %s: expected .json, .yaml or .yml", cfgFile)
		}
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("codesim-config")
		v.AddConfigPath(cwd)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			log.Debug().Str("dir", cwd).Msg("No configuration file found, using defaults")
		}
	}

	bindFlags(v, cmd)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects values the comparison pipeline cannot use.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := code_normalizer.ParseReplacementMode(c.ReplacementMode); err != nil {
		return err
	}
	if _, err := similarity.ParseEmptyPolicy(c.EmptyPairPolicy); err != nil {
		return err
	}
	if _, err := similarity.ParseRoundingMode(c.Rounding); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// NewEngine builds the similarity engine described by the configuration.
func (c *Config) NewEngine() *similarity.Engine {
	return similarity.NewEngine(similarity.RoundingMode(c.Rounding), similarity.EmptyPolicy(c.EmptyPairPolicy))
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("workers", DefaultConfig.Workers)
	v.SetDefault("replacement_mode", DefaultConfig.ReplacementMode)
	v.SetDefault("empty_pair_policy", DefaultConfig.EmptyPairPolicy)
	v.SetDefault("rounding", DefaultConfig.Rounding)
	v.SetDefault("enable_cache", DefaultConfig.EnableCache)
	v.SetDefault("cache_dir", DefaultConfig.CacheDir)
	v.SetDefault("log_level", DefaultConfig.LogLevel)
	v.SetDefault("progress", DefaultConfig.Progress)
}

// bindEnv explicitly binds CODESIM_<KEY> to every configuration key
func bindEnv(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key))
	}
}

// bindFlags binds the CLI flags to configuration values. cmd may be a
// subcommand: the persistent flags it inherits are defined on the root.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for _, key := range configKeys {
		flag := cmd.Flags().Lookup(key)
		if flag == nil {
			flag = cmd.Root().PersistentFlags().Lookup(key)
		}
		if flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Chroma theme for highlighted source output (e.g., 'dracula', 'monokai', 'none').")
	rootCmd.PersistentFlags().Int("workers", DefaultConfig.Workers, "Number of pairs compared concurrently (0 picks a value from the CPU count).")
	rootCmd.PersistentFlags().String("replacement_mode", DefaultConfig.ReplacementMode, "How bound names are collapsed: 'token' (identifier tokens only) or 'substring' (every textual occurrence).")
	rootCmd.PersistentFlags().String("empty_pair_policy", DefaultConfig.EmptyPairPolicy, "Result of comparing two empty files: 'fail' or 'identical'.")
	rootCmd.PersistentFlags().String("rounding", DefaultConfig.Rounding, "Rounding of scores to two decimals: 'half_even' or 'half_away'.")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Cache normalized token sequences on disk between runs.")
	rootCmd.PersistentFlags().String("cache_dir", DefaultConfig.CacheDir, "Directory of the token cache (default '.cache' in the working directory).")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Log level written to stderr (trace, debug, info, warn, error).")
	rootCmd.PersistentFlags().Bool("progress", DefaultConfig.Progress, "Show a progress bar while comparing pairs.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}
