package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Filename  string          `mapstructure:"-"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Liveness  LivenessConfig  `mapstructure:"liveness"`
	Static    StaticConfig    `mapstructure:"static"`
}

// ServerConfig holds HTTP server configuration.
// WriteTimeout stays zero: generation responses stream for up to the full
// upstream budget and a server-level write deadline would sever them.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestLogging  bool          `mapstructure:"request_logging"`
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// OllamaConfig holds the inference backend configuration
type OllamaConfig struct {
	URL     string        `mapstructure:"url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"` // whole exchange, connect through last byte

	ConnectionTimeout   time.Duration `mapstructure:"connection_timeout"`
	ConnectionKeepAlive time.Duration `mapstructure:"connection_keep_alive"`
	MaxLineSize         int           `mapstructure:"max_line_size"` // NDJSON scanner limit
}

// TemplatesConfig maps template keys onto files on disk
type TemplatesConfig struct {
	Dir   string            `mapstructure:"dir"`
	Files map[string]string `mapstructure:"files"` // key -> filename, relative to Dir
}

// LivenessConfig locates the status artifact consulted before each request
type LivenessConfig struct {
	StatusFile string `mapstructure:"status_file"`
}

// StaticConfig holds the static page serving configuration
type StaticConfig struct {
	Dir   string `mapstructure:"dir"`
	Index string `mapstructure:"index"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
