package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	ServiceName    = "templateboard"
	ServiceVersion = "dev"
)

const (
	ProductionEnvironment  = "production"
	DevelopmentEnvironment = "development"
)

var (
	Env *EnvConfig
)

type EnvConfig struct {
	Env                     string        `mapstructure:"env"`
	Log                     LogConfig     `mapstructure:"log"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
	Editor                  EditorConfig  `mapstructure:"editor"`
	MDNS                    MDNSConfig    `mapstructure:"mdns"`
	Panel                   PanelConfig   `mapstructure:"panel"`
}

type LogConfig struct {
	ShowCaller bool   `mapstructure:"show_caller"`
	LogLevel   string `mapstructure:"log_level"`
}

type EditorConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	SessionCookie string        `mapstructure:"session_cookie"`
	SessionID     string        `mapstructure:"session_id"`
	CSRFCookie    string        `mapstructure:"csrf_cookie"`
	CSRFHeader    string        `mapstructure:"csrf_header"`
	CSRFToken     string        `mapstructure:"csrf_token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	DefaultWidth  float64       `mapstructure:"default_width"`
	DefaultHeight float64       `mapstructure:"default_height"`
}

type MDNSConfig struct {
	Service       string        `mapstructure:"service"`
	BrowseTimeout time.Duration `mapstructure:"browse_timeout"`
}

type PanelConfig struct {
	Port       int    `mapstructure:"port"`
	DataDir    string `mapstructure:"data_dir"`
	MediaDir   string `mapstructure:"media_dir"`
	TemplateID int64  `mapstructure:"template_id"`
	Background string `mapstructure:"background"`
	Advertise  bool   `mapstructure:"advertise"`
}

func setDefaults() {
	viper.SetDefault("env", DevelopmentEnvironment)
	viper.SetDefault("log.show_caller", false)
	viper.SetDefault("log.log_level", "info")
	viper.SetDefault("graceful_shutdown_timeout", 10*time.Second)

	viper.SetDefault("editor.endpoint", "")
	viper.SetDefault("editor.session_cookie", "sessionid")
	viper.SetDefault("editor.session_id", "")
	viper.SetDefault("editor.csrf_cookie", "csrftoken")
	viper.SetDefault("editor.csrf_header", "X-CSRFToken")
	viper.SetDefault("editor.csrf_token", "")
	viper.SetDefault("editor.timeout", time.Duration(0))
	viper.SetDefault("editor.default_width", 800)
	viper.SetDefault("editor.default_height", 600)

	viper.SetDefault("mdns.service", "_templateboard._tcp")
	viper.SetDefault("mdns.browse_timeout", 3*time.Second)

	viper.SetDefault("panel.port", 8888)
	viper.SetDefault("panel.data_dir", "./data")
	viper.SetDefault("panel.media_dir", "./media")
	viper.SetDefault("panel.template_id", 1)
	viper.SetDefault("panel.background", "")
	viper.SetDefault("panel.advertise", true)
}

// LoadConfig reads .env, then the yml config, then TEMPLATEBOARD_* env vars.
// Without an explicit path a missing ./config.yml is fine and defaults apply.
func LoadConfig(configPath string) error {
	viper.Reset()

	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded")
	}

	setDefaults()

	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	} else {
		ext := strings.ToLower(filepath.Ext(configPath))
		if ext == ".yml" || ext == ".yaml" {
			viper.SetConfigFile(configPath)
		} else {
			viper.SetConfigName(filepath.Base(configPath))
			viper.SetConfigType("yml")
			configDir := filepath.Dir(configPath)
			if configDir == "." || configDir == "" {
				viper.AddConfigPath(".")
			} else {
				viper.AddConfigPath(configDir)
			}
		}
	}

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix("TEMPLATEBOARD")
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err = viper.Unmarshal(&Env)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	return nil
}
