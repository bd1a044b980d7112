package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/chatbook/smsbridge/pkg/platform"
)

type Config struct {
	SMS struct {
		DBPath    string `mapstructure:"db_path"`
		MediaRoot string `mapstructure:"media_root"`
		MaxCount  int    `mapstructure:"max_count"`
	} `mapstructure:"sms"`

	Contacts struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"contacts"`

	Export struct {
		Country       string `mapstructure:"country"`
		MaxAudioBytes int64  `mapstructure:"max_audio_bytes"`
		DefaultDays   int    `mapstructure:"default_days"`
	} `mapstructure:"export"`

	Remote struct {
		DatabaseURL   string `mapstructure:"database_url"`
		StorageBucket string `mapstructure:"storage_bucket"`
		WebURL        string `mapstructure:"web_url"`
	} `mapstructure:"remote"`
}

var (
	cfg  *Config
	dirs *platform.Dirs
)

func Init() error {
	appDirs, err := platform.GetAppDirs("smsbridge")
	if err != nil {
		return fmt.Errorf("failed to get app directories: %w", err)
	}
	dirs = appDirs

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dirs.Config)

	setDefaults()

	// It's OK if the config file doesn't exist.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.SMS.DBPath == "" {
		cfg.SMS.DBPath = filepath.Join(dirs.Data, "mmssms.db")
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("sms.db_path", "")
	viper.SetDefault("sms.media_root", "")
	viper.SetDefault("sms.max_count", 2000)

	viper.SetDefault("contacts.path", "")

	viper.SetDefault("export.country", "FR")
	viper.SetDefault("export.max_audio_bytes", int64(500*1024*1024))
	viper.SetDefault("export.default_days", 30)

	viper.SetDefault("remote.database_url", "https://chatbook-export-default-rtdb.europe-west1.firebasedatabase.app")
	viper.SetDefault("remote.storage_bucket", "chatbook-export.appspot.com")
	viper.SetDefault("remote.web_url", "https://app.chatbook.example")
}

func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

func GetDirs() *platform.Dirs {
	if dirs == nil {
		panic("config not initialized")
	}
	return dirs
}

// CacheDir returns the directory MMS part files are staged in before
// upload.
func CacheDir() string {
	return filepath.Join(GetDirs().Data, "cache")
}

func SaveDefaults() error {
	configPath := filepath.Join(dirs.Config, "config.yaml")
	return viper.WriteConfigAs(configPath)
}
