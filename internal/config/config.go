// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Widget   WidgetConfig
	Export   ExportConfig
	Engine   EngineConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1, the widget is single-user)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request, upload included (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0, script operations have no deadline)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// UploadConfig holds file loading settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`
}

// WidgetConfig holds controller presentation settings.
type WidgetConfig struct {
	// NotificationTTL is how long a toast stays visible (default: 3s)
	NotificationTTL time.Duration `env:"WIDGET_NOTIFICATION_TTL" default:"3s"`

	// PreviewRows is the number of rows rendered in the preview table (default: 50)
	PreviewRows int `env:"WIDGET_PREVIEW_ROWS" default:"50"`
}

// ExportConfig holds workbook export settings.
type ExportConfig struct {
	// SheetName names the single exported sheet (default: CleanedData)
	SheetName string `env:"EXPORT_SHEET_NAME" default:"CleanedData"`

	// WidthSampleRows is how many leading rows size the columns (default: 100)
	WidthSampleRows int `env:"EXPORT_WIDTH_SAMPLE_ROWS" default:"100"`

	// MaxColumnWidth caps a column's width in characters (default: 50)
	MaxColumnWidth int `env:"EXPORT_MAX_COLUMN_WIDTH" default:"50"`
}

// EngineConfig selects and configures the operation executor.
type EngineConfig struct {
	// Mode is local (in-process) or script (external interpreter) (default: local)
	Mode string `env:"ENGINE_MODE" default:"local"`

	// Interpreter is the script interpreter binary (default: python3)
	Interpreter string `env:"ENGINE_INTERPRETER" default:"python3"`

	// ProbeArgs are comma-separated arguments used to check the interpreter
	ProbeArgs []string `env:"ENGINE_PROBE_ARGS" default:"-c,import pandas"`

	// ScriptDir holds one <operation>.py per operation (default: scripts)
	ScriptDir string `env:"ENGINE_SCRIPT_DIR" default:"scripts"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text, json or auto (default: auto, text on a terminal)
	Format string `env:"LOG_FORMAT" default:"auto"`
}

// Engine modes.
const (
	EngineLocal  = "local"
	EngineScript = "script"
)

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
