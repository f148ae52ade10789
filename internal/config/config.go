package config

import (
	"errors"
	"os/user"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	viper "github.com/spf13/viper"

	"github.com/packmule-mc/packmule/internal/backup"
)

const envPrefix = "PACKMULE_"

func loadEnv(v *viper.Viper) error {
	err := v.BindEnv("environment", envPrefix+"ENV")
	if err != nil {
		return err
	}
	v.SetDefault("environment", "prod")

	err = v.BindEnv("log_level", envPrefix+"LOG_LEVEL")
	if err != nil {
		return err
	}
	v.SetDefault("log_level", "info")

	err = v.BindEnv("data_dir", envPrefix+"DATA_DIR")
	if err != nil {
		return err
	}
	homedir, err := homedir()
	if err != nil {
		return err
	}
	v.SetDefault("data_dir", filepath.Join(homedir, ".packmule"))

	err = v.BindEnv("max_concurrent_downloads", envPrefix+"MAX_CONCURRENT_DOWNLOADS")
	if err != nil {
		return err
	}
	v.SetDefault("max_concurrent_downloads", 14)

	err = v.BindEnv("http_timeout", envPrefix+"HTTP_TIMEOUT")
	if err != nil {
		return err
	}
	v.SetDefault("http_timeout", "30s")

	err = v.BindEnv("download_attempts", envPrefix+"DOWNLOAD_ATTEMPTS")
	if err != nil {
		return err
	}
	v.SetDefault("download_attempts", 3)

	err = v.BindEnv("retry_backoff", envPrefix+"RETRY_BACKOFF")
	if err != nil {
		return err
	}
	v.SetDefault("retry_backoff", "500ms")

	err = v.BindEnv("max_backups", envPrefix+"MAX_BACKUPS")
	if err != nil {
		return err
	}
	v.SetDefault("max_backups", 5)

	err = v.BindEnv("registry_url", envPrefix+"REGISTRY_URL")
	if err != nil {
		return err
	}
	v.SetDefault("registry_url", "https://api.packmule.dev")

	err = v.BindEnv("content_host_url", envPrefix+"CONTENT_HOST_URL")
	if err != nil {
		return err
	}
	v.SetDefault("content_host_url", "https://content.packmule.dev")

	err = v.BindEnv("default_manifest_url", envPrefix+"DEFAULT_MANIFEST_URL")
	if err != nil {
		return err
	}

	err = v.BindEnv("launcher_dir", envPrefix+"LAUNCHER_DIR")
	if err != nil {
		return err
	}

	err = v.BindEnv("launcher_command", envPrefix+"LAUNCHER_COMMAND")
	if err != nil {
		return err
	}

	err = v.BindEnv("session_path", envPrefix+"SESSION_PATH")
	if err != nil {
		return err
	}

	err = v.BindEnv("api_addr", envPrefix+"API_ADDR")
	if err != nil {
		return err
	}
	v.SetDefault("api_addr", "127.0.0.1:4640")

	return nil
}

func loadViperConfig() (*viper.Viper, error) {
	v := viper.New()

	err := loadEnv(v)
	if err != nil {
		return nil, err
	}

	homedir, err := homedir()
	if err != nil {
		return nil, err
	}

	v.AddConfigPath(filepath.Join(homedir, ".packmule"))
	v.AddConfigPath(v.GetString("data_dir"))

	v.SetConfigType("yml")
	v.SetConfigName("packmule")

	if err := v.ReadInConfig(); err != nil {
		// The config file is optional; env and defaults cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return v, nil
}

// Config wraps the loaded Viper instance behind typed accessors.
type Config struct {
	viper *viper.Viper
}

func NewConfig() (*Config, error) {
	v, err := loadViperConfig()
	if err != nil {
		return nil, err
	}
	return NewConfigFromViper(v), nil
}

// NewConfigWithOverrides loads the normal config and then forces the given
// keys on top of it. CLI flags outrank env and file values this way.
func NewConfigWithOverrides(overrides map[string]string) (*Config, error) {
	v, err := loadViperConfig()
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		v.Set(key, value)
	}
	return NewConfigFromViper(v), nil
}

func NewConfigFromViper(v *viper.Viper) *Config {
	return &Config{viper: v}
}

// NewTestConfig returns a Config rooted at a throwaway directory with
// defaults applied, suitable for tests.
func NewTestConfig(dataDir string) (*Config, error) {
	v := viper.New()
	err := loadEnv(v)
	if err != nil {
		return nil, err
	}
	v.Set("data_dir", dataDir)
	return NewConfigFromViper(v), nil
}

func (c *Config) Environment() string {
	return c.viper.GetString("environment")
}

func (c *Config) LogLevel() zerolog.Level {
	parsed, err := zerolog.ParseLevel(c.viper.GetString("log_level"))
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}

func (c *Config) DataDir() string {
	return c.viper.GetString("data_dir")
}

func (c *Config) InstallationsDir() string {
	return filepath.Join(c.DataDir(), "installations")
}

func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir(), "index.json")
}

func (c *Config) BackupsDir() string {
	return filepath.Join(c.DataDir(), "backups")
}

func (c *Config) MaxConcurrentDownloads() int {
	return c.viper.GetInt("max_concurrent_downloads")
}

func (c *Config) HTTPTimeout() time.Duration {
	return c.viper.GetDuration("http_timeout")
}

// DownloadAttempts is the total number of tries per network call, first
// attempt included.
func (c *Config) DownloadAttempts() int {
	return c.viper.GetInt("download_attempts")
}

func (c *Config) RetryBackoff() time.Duration {
	return c.viper.GetDuration("retry_backoff")
}

func (c *Config) MaxBackupsPerInstallation() int {
	return c.viper.GetInt("max_backups")
}

func (c *Config) RegistryBaseURL() string {
	return c.viper.GetString("registry_url")
}

func (c *Config) ContentHostURL() string {
	return c.viper.GetString("content_host_url")
}

func (c *Config) DefaultManifestURL() string {
	return c.viper.GetString("default_manifest_url")
}

// LauncherDir is where launcher_profiles.json and the versions tree live.
// Falls back under the data dir when the real launcher directory is not
// configured.
func (c *Config) LauncherDir() string {
	dir := c.viper.GetString("launcher_dir")
	if dir == "" {
		return filepath.Join(c.DataDir(), "launcher")
	}
	return dir
}

// LauncherCommand is the executable the launch flow hands the prepared
// session to. Empty means no launcher is wired.
func (c *Config) LauncherCommand() string {
	return c.viper.GetString("launcher_command")
}

// SessionPath is the file the signed-in account session is read from.
func (c *Config) SessionPath() string {
	path := c.viper.GetString("session_path")
	if path == "" {
		return filepath.Join(c.DataDir(), "session.json")
	}
	return path
}

func (c *Config) APIListenAddr() string {
	return c.viper.GetString("api_addr")
}

// DefaultBackupSource reads the backup_source config section. An absent
// section yields the built-in source covering the usual game directories.
func (c *Config) DefaultBackupSource() (backup.SourceConfig, error) {
	if !c.viper.IsSet("backup_source") {
		return backup.DefaultSourceConfig(), nil
	}

	var src backup.SourceConfig
	err := c.viper.UnmarshalKey("backup_source", &src, viper.DecoderConfigOption(
		func(decoderConfig *mapstructure.DecoderConfig) {
			decoderConfig.TagName = "yaml"
		},
	))
	if err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal backup source config")
		return backup.SourceConfig{}, err
	}
	return src, nil
}

// Helper functions

func homedir() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	dir := usr.HomeDir
	return dir, nil
}
