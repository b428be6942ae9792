package commands

import (
	"errors"

	"github.com/ahad1361/proteoimic-validation/pkg/classifier"

	"github.com/spf13/viper"
)

type Config struct {
	Dataset    string            `mapstructure:"dataset"`
	Target     string            `mapstructure:"target"`
	Positive   string            `mapstructure:"positive"`
	ID         string            `mapstructure:"id"`
	Features   []string          `mapstructure:"features"`
	Repeats    int               `mapstructure:"repeats"`
	Runs       int               `mapstructure:"runs"`
	Workers    int               `mapstructure:"workers"`
	Output     string            `mapstructure:"output"`
	Format     string            `mapstructure:"format"`
	LogDir     string            `mapstructure:"log_dir"`
	LogFormat  string            `mapstructure:"log_format"`
	Classifier classifier.Config `mapstructure:"classifier"`
	Cache      CacheConfig       `mapstructure:"cache"`
}

type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Dir      string `mapstructure:"dir"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".proval")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
