// Package config loads pixel-admin settings from an optional YAML file,
// PIXEL_ADMIN_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "PIXEL_ADMIN"

type Config struct {
	APIURL         string
	APIToken       string
	Timeout        time.Duration
	ExportDir      string
	ExportCompress bool
	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Endpoint     string
	JournalPath    string
	LogLevel       string
	LogFile        string
	Locale         string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault("api_url", "http://localhost:4000")
	v.SetDefault("api_token", "")
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("export_dir", ".")
	v.SetDefault("export_compress", false)
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_prefix", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("journal_path", defaultJournalPath())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("locale", "en")
	return v
}

// Load reads file (or $HOME/.pixel-admin.yaml when file is empty) into v and
// decodes the result. A missing default file is not an error; a missing
// explicit file is.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigName(".pixel-admin")
		v.SetConfigType("yaml")
		v.AddConfigPath(home)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	cfg := &Config{
		APIURL:         strings.TrimRight(v.GetString("api_url"), "/"),
		APIToken:       v.GetString("api_token"),
		Timeout:        v.GetDuration("timeout"),
		ExportDir:      v.GetString("export_dir"),
		ExportCompress: v.GetBool("export_compress"),
		S3Bucket:       v.GetString("s3_bucket"),
		S3Prefix:       v.GetString("s3_prefix"),
		S3Region:       v.GetString("s3_region"),
		S3Endpoint:     v.GetString("s3_endpoint"),
		JournalPath:    v.GetString("journal_path"),
		LogLevel:       v.GetString("log_level"),
		LogFile:        v.GetString("log_file"),
		Locale:         v.GetString("locale"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url must not be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url %q must start with http:// or https://", c.APIURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pixel-admin", "journal.db")
}
