package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	DefaultPort = 8000
	DefaultHost = "localhost"

	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "mistral-small:latest"

	// DefaultUpstreamTimeout bounds the whole generation exchange
	DefaultUpstreamTimeout = 60 * time.Second
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0, // streaming responses manage their own lifetime
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestLogging:  true,
		},
		Ollama: OllamaConfig{
			URL:                 DefaultOllamaURL,
			Model:               DefaultOllamaModel,
			Timeout:             DefaultUpstreamTimeout,
			ConnectionTimeout:   10 * time.Second,
			ConnectionKeepAlive: 60 * time.Second,
			MaxLineSize:         1024 * 1024,
		},
		Templates: TemplatesConfig{
			Dir: "./static",
			Files: map[string]string{
				"pbi":          "pbi_template.txt",
				"product_goal": "product_goal_template.txt",
				"po_review":    "po_review_template.txt",
			},
		},
		Liveness: LivenessConfig{
			StatusFile: "./static/status.txt",
		},
		Static: StaticConfig{
			Dir:   "./static",
			Index: "index.html",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads configuration from file and environment variables. The
// onChange callback fires whenever the config file is rewritten on disk.
func Load(onChange func()) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// AutomaticEnv only resolves keys viper already knows about, so every
	// key must be registered as a default before env overrides can apply
	setDefaults(config)

	viper.SetEnvPrefix("POCOPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// the original deployment configured the model via LLM_MODEL
	_ = viper.BindEnv("ollama.model", "POCOPILOT_OLLAMA_MODEL", "LLM_MODEL")

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, check if we have POCOPILOT_CONFIG_FILE env var
		if configFile := os.Getenv("POCOPILOT_CONFIG_FILE"); configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.Filename = viper.ConfigFileUsed()

	if onChange != nil {
		viper.OnConfigChange(func(in fsnotify.Event) {
			onChange()
		})
	}
	viper.WatchConfig()

	return config, nil
}

func setDefaults(cfg *Config) {
	viper.SetDefault("server.host", cfg.Server.Host)
	viper.SetDefault("server.port", cfg.Server.Port)
	viper.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	viper.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	viper.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	viper.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	viper.SetDefault("server.request_logging", cfg.Server.RequestLogging)

	viper.SetDefault("ollama.url", cfg.Ollama.URL)
	viper.SetDefault("ollama.model", cfg.Ollama.Model)
	viper.SetDefault("ollama.timeout", cfg.Ollama.Timeout)
	viper.SetDefault("ollama.connection_timeout", cfg.Ollama.ConnectionTimeout)
	viper.SetDefault("ollama.connection_keep_alive", cfg.Ollama.ConnectionKeepAlive)
	viper.SetDefault("ollama.max_line_size", cfg.Ollama.MaxLineSize)

	viper.SetDefault("templates.dir", cfg.Templates.Dir)
	viper.SetDefault("templates.files", cfg.Templates.Files)

	viper.SetDefault("liveness.status_file", cfg.Liveness.StatusFile)

	viper.SetDefault("static.dir", cfg.Static.Dir)
	viper.SetDefault("static.index", cfg.Static.Index)

	viper.SetDefault("logging.level", cfg.Logging.Level)
	viper.SetDefault("logging.format", cfg.Logging.Format)
	viper.SetDefault("logging.output", cfg.Logging.Output)
}

// Reload re-reads the watched config file into a fresh Config
func Reload() (*Config, error) {
	config := DefaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.Filename = viper.ConfigFileUsed()
	return config, nil
}
