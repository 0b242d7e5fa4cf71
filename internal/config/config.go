package config

import (
	"errors"
	"fmt"

	"campbank/pkg/database"

	"github.com/spf13/viper"
)

// AdminConfig holds the credential that gates destructive operations.
// PasswordHash is a bcrypt hash; use cmd/hash-password to produce one.
type AdminConfig struct {
	PasswordHash    string `mapstructure:"password_hash"`
	TokenSecret     string `mapstructure:"token_secret"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type Config struct {
	Database database.Config `mapstructure:"database"`
	Admin    AdminConfig     `mapstructure:"admin"`
	Export   ExportConfig    `mapstructure:"export"`
}

// Load reads configuration from the given file (default "config.yaml" in the
// working directory) with environment overrides, e.g. CAMPBANK_DATABASE_PATH.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("CAMPBANK")
	v.AutomaticEnv()

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/campbank.db")
	v.SetDefault("admin.token_ttl_minutes", 15)
	v.SetDefault("export.dir", "export")

	if err := v.ReadInConfig(); err != nil {
		// Running on defaults plus env is fine; only a broken file is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
