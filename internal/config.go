package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	BackendExifTool = "exiftool"
	BackendStayOpen = "stayopen"
	BackendNative   = "native"

	WriteFailuresReport = "report"
	WriteFailuresIgnore = "ignore"
)

type Config struct {
	ImageExt      []string `mapstructure:"image_extensions"`
	VideoExt      []string `mapstructure:"video_extensions"`
	Backend       string   `mapstructure:"backend"`
	ExifToolPath  string   `mapstructure:"exiftool_path"`
	Classifier    string   `mapstructure:"classifier"`
	WriteFailures string   `mapstructure:"write_failures"`
	AbortOnErrors bool     `mapstructure:"abort_on_errors"`
	LogFile       string   `mapstructure:"log_file"`
	Manifest      bool     `mapstructure:"manifest"`
	DryRun        bool     `mapstructure:"dry_run"`
	Verbose       bool     `mapstructure:"verbose"`
	NoColor       bool     `mapstructure:"no_color"`
}

// SetDefaults registers every config key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("image_extensions", []string{".jpg", ".jpeg", ".png", ".webp", ".heic", ".heif"})
	v.SetDefault("video_extensions", []string{
		".mov", ".mpg", ".mpeg", ".m2v", ".wmv", ".asf", ".avi", ".divx", ".m4v",
		".3gp", ".3g2", ".mp4", ".m2t", ".m2ts", ".mts", ".mkv",
	})
	v.SetDefault("backend", BackendExifTool)
	v.SetDefault("exiftool_path", defaultExifToolBinary)
	v.SetDefault("classifier", string(PolicyLastWriteWins))
	v.SetDefault("write_failures", WriteFailuresReport)
	v.SetDefault("abort_on_errors", false)
	v.SetDefault("log_file", "photocleaner.log")
	v.SetDefault("manifest", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("verbose", false)
	v.SetDefault("no_color", false)
}

// LoadConfig reads <UserConfigDir>/photocleaner/photocleaner.toml and
// PHOTOCLEANER_* environment variables on top of the defaults. Flags bound to v
// before the call take precedence.
func LoadConfig(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	if configDir, err := os.UserConfigDir(); err == nil {
		v.SetConfigName("photocleaner")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(configDir, "photocleaner"))

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("PHOTOCLEANER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendExifTool, BackendStayOpen, BackendNative:
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendExifTool, BackendStayOpen, BackendNative)
	}
	switch ClassifierPolicy(c.Classifier) {
	case PolicyLastWriteWins, PolicySeverity:
	default:
		return fmt.Errorf("unknown classifier %q (want %s or %s)", c.Classifier, PolicyLastWriteWins, PolicySeverity)
	}
	switch c.WriteFailures {
	case WriteFailuresReport, WriteFailuresIgnore:
	default:
		return fmt.Errorf("unknown write_failures %q (want %s or %s)", c.WriteFailures, WriteFailuresReport, WriteFailuresIgnore)
	}
	return nil
}

// Extensions returns every discovered extension, lowercased with a leading dot.
func (c *Config) Extensions() []string {
	var exts []string
	for _, e := range append(append([]string{}, c.ImageExt...), c.VideoExt...) {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// OpenMetadataTool starts the configured backend.
func (c *Config) OpenMetadataTool(fsys afero.Fs) (MetadataTool, error) {
	switch c.Backend {
	case BackendStayOpen:
		session, err := NewExifToolSession(c.ExifToolPath)
		if err != nil {
			return nil, err
		}
		return session, nil
	case BackendNative:
		return NativeReader{Fs: fsys}, nil
	default:
		return ExifToolCLI{Binary: c.ExifToolPath}, nil
	}
}
