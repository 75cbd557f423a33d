package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Detector DetectorConfig `mapstructure:"detector"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	TemplateGlob string `mapstructure:"template_glob"`
}

type DatabaseConfig struct {
	// Driver selects the gorm dialector: "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type StorageConfig struct {
	UploadDir     string `mapstructure:"upload_dir"`
	ResultsDir    string `mapstructure:"results_dir"`
	MaxUploadMB   int64  `mapstructure:"max_upload_mb"`
}

type DetectorConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ModelPath     string  `mapstructure:"model_path"`
	ConfigPath    string  `mapstructure:"config_path"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

type PipelineConfig struct {
	MaxFrames   int `mapstructure:"max_frames"`
	FrameStride int `mapstructure:"frame_stride"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c StorageConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Load reads configuration from the given file (optional) and TVD_-prefixed
// environment variables, over built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.template_glob", "web/templates/*.html")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "traffic_violations.db")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.results_dir", "static/results")
	v.SetDefault("storage.max_upload_mb", 100)
	v.SetDefault("detector.enabled", true)
	v.SetDefault("detector.model_path", "models/frozen_inference_graph.pb")
	v.SetDefault("detector.config_path", "models/ssd_mobilenet_v1_coco.pbtxt")
	v.SetDefault("detector.min_confidence", 0.5)
	v.SetDefault("pipeline.max_frames", 30)
	v.SetDefault("pipeline.frame_stride", 5)

	v.SetEnvPrefix("TVD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
