// Package config provides configuration management for talysrun.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/talysviz/talysrun/internal/constants"
)

// Config represents the talysrun configuration file.
//
// Config file location:
//   - Windows: %APPDATA%\talysrun\talysrun.conf
//   - Unix: ~/.config/talysrun/talysrun.conf
//
// INI format:
//
//	[talys]
//	executable = talys
//	timeout_seconds = 300
//	grace_seconds = 5
//
//	[workspace]
//	base_dir =
//	archive_dir = /data/talys-archive
//
//	[logging]
//	level = info
//	file =
//	max_size_mb = 10
//	max_backups = 5
//
//	[export]
//	target = s3://my-bucket/talys
//	region = eu-west-1
//
//	[proxy]
//	mode = no-proxy
type Config struct {
	Talys     TalysConfig
	Workspace WorkspaceConfig
	Logging   LoggingConfig
	Export    ExportConfig
	Proxy     ProxyConfig
}

// TalysConfig controls how the executable is located and supervised.
type TalysConfig struct {
	// Executable is a name resolved on PATH or an absolute path.
	Executable string `ini:"executable"`

	// TimeoutSeconds bounds the wall-clock time of one run. Default: 300
	TimeoutSeconds int `ini:"timeout_seconds"`

	// GraceSeconds is the wait between SIGTERM and SIGKILL. Default: 5
	GraceSeconds int `ini:"grace_seconds"`
}

// WorkspaceConfig controls where per-run directories live.
type WorkspaceConfig struct {
	// BaseDir is the parent for run workspaces. Empty means the OS temp dir.
	BaseDir string `ini:"base_dir"`

	// ArchiveDir receives a tar.gz of each completed workspace. Empty disables archiving.
	ArchiveDir string `ini:"archive_dir"`
}

// LoggingConfig controls the log level and optional rotating file.
type LoggingConfig struct {
	Level      string `ini:"level"`
	File       string `ini:"file"`
	MaxSizeMB  int    `ini:"max_size_mb"`
	MaxBackups int    `ini:"max_backups"`
}

// ExportConfig names the remote destination for archives.
type ExportConfig struct {
	// Target is s3://bucket/prefix or azure://container/prefix. Empty disables export.
	Target          string `ini:"target"`
	Region          string `ini:"region"`
	// Endpoint overrides the S3 endpoint for S3-compatible stores. Path-style addressing is used when set.
	Endpoint        string `ini:"endpoint"`
	AccessKeyID     string `ini:"access_key_id"`
	SecretAccessKey string `ini:"secret_access_key"`
	AzureSASURL     string `ini:"azure_sas_url"`
}

// ProxyConfig configures the HTTP client used for exports.
type ProxyConfig struct {
	// Mode is one of no-proxy, system, basic, ntlm.
	Mode     string `ini:"mode"`
	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`
	NoProxy  string `ini:"no_proxy"`
}

// Environment variables that override the file.
const (
	EnvExecutable  = "TALYS_EXECUTABLE"
	EnvTimeout     = "TALYS_TIMEOUT"
	EnvAzureSASURL = "AZURE_STORAGE_SAS_URL"
)

// Config validation errors
var (
	ErrMissingExecutable   = errors.New("talys.executable must not be empty")
	ErrInvalidTimeout      = errors.New("talys.timeout_seconds must be positive")
	ErrInvalidGrace        = errors.New("talys.grace_seconds must not be negative")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of debug, info, warn, error")
	ErrInvalidExportScheme = errors.New("export.target must start with s3:// or azure://")
	ErrInvalidProxyMode    = errors.New("proxy.mode must be one of no-proxy, system, basic, ntlm")
	ErrMissingProxyHost    = errors.New("proxy.host is required for basic and ntlm modes")
)

// DefaultConfigPath returns the default path for talysrun.conf.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "talysrun.conf"), nil
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Talys: TalysConfig{
			Executable:     constants.DefaultExecutable,
			TimeoutSeconds: int(constants.DefaultRunTimeout / time.Second),
			GraceSeconds:   int(constants.DefaultGracePeriod / time.Second),
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  constants.LogMaxSizeMB,
			MaxBackups: constants.LogMaxBackups,
		},
		Proxy: ProxyConfig{
			Mode: "no-proxy",
			Port: constants.DefaultProxyPort,
		},
	}
}

// Load reads configuration from path. If path is empty the default path is
// used. A missing file yields defaults and no error. Environment overrides
// are applied last.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			cfg.ApplyEnv()
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.ApplyEnv()
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	talys := iniFile.Section("talys")
	cfg.Talys.Executable = talys.Key("executable").MustString(cfg.Talys.Executable)
	cfg.Talys.TimeoutSeconds = talys.Key("timeout_seconds").MustInt(cfg.Talys.TimeoutSeconds)
	cfg.Talys.GraceSeconds = talys.Key("grace_seconds").MustInt(cfg.Talys.GraceSeconds)

	ws := iniFile.Section("workspace")
	cfg.Workspace.BaseDir = ws.Key("base_dir").String()
	cfg.Workspace.ArchiveDir = ws.Key("archive_dir").String()

	lg := iniFile.Section("logging")
	cfg.Logging.Level = lg.Key("level").MustString(cfg.Logging.Level)
	cfg.Logging.File = lg.Key("file").String()
	cfg.Logging.MaxSizeMB = lg.Key("max_size_mb").MustInt(cfg.Logging.MaxSizeMB)
	cfg.Logging.MaxBackups = lg.Key("max_backups").MustInt(cfg.Logging.MaxBackups)

	ex := iniFile.Section("export")
	cfg.Export.Target = ex.Key("target").String()
	cfg.Export.Region = ex.Key("region").String()
	cfg.Export.Endpoint = ex.Key("endpoint").String()
	cfg.Export.AccessKeyID = ex.Key("access_key_id").String()
	cfg.Export.SecretAccessKey = ex.Key("secret_access_key").String()
	cfg.Export.AzureSASURL = ex.Key("azure_sas_url").String()

	px := iniFile.Section("proxy")
	cfg.Proxy.Mode = px.Key("mode").MustString(cfg.Proxy.Mode)
	cfg.Proxy.Host = px.Key("host").String()
	cfg.Proxy.Port = px.Key("port").MustInt(cfg.Proxy.Port)
	cfg.Proxy.User = px.Key("user").String()
	cfg.Proxy.Password = px.Key("password").String()
	cfg.Proxy.NoProxy = px.Key("no_proxy").String()

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays the TALYS_* and AZURE_STORAGE_SAS_URL variables.
// Unparsable TALYS_TIMEOUT values are ignored.
func (cfg *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvExecutable)); v != "" {
		cfg.Talys.Executable = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Talys.TimeoutSeconds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAzureSASURL)); v != "" {
		cfg.Export.AzureSASURL = v
	}
}

// Save writes the configuration to path (default path if empty) with
// owner-only permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()
	sections := []struct {
		name string
		src  interface{}
	}{
		{"talys", &cfg.Talys},
		{"workspace", &cfg.Workspace},
		{"logging", &cfg.Logging},
		{"export", &cfg.Export},
		{"proxy", &cfg.Proxy},
	}
	for _, s := range sections {
		sec, err := iniFile.NewSection(s.name)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", s.name, err)
		}
		if err := sec.ReflectFrom(s.src); err != nil {
			return fmt.Errorf("failed to write %s section: %w", s.name, err)
		}
	}

	// temp file + rename so a crash never leaves a truncated config
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks the configuration. Returns nil if valid.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Talys.Executable) == "" {
		return ErrMissingExecutable
	}
	if cfg.Talys.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}
	if cfg.Talys.GraceSeconds < 0 {
		return ErrInvalidGrace
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	if t := cfg.Export.Target; t != "" && !strings.HasPrefix(t, "s3://") && !strings.HasPrefix(t, "azure://") {
		return ErrInvalidExportScheme
	}

	switch cfg.Proxy.Mode {
	case "", "no-proxy", "system":
	case "basic", "ntlm":
		if strings.TrimSpace(cfg.Proxy.Host) == "" {
			return ErrMissingProxyHost
		}
	default:
		return ErrInvalidProxyMode
	}

	return nil
}

// Timeout returns the run timeout as a duration.
func (cfg *Config) Timeout() time.Duration {
	return time.Duration(cfg.Talys.TimeoutSeconds) * time.Second
}

// Grace returns the terminate-to-kill window as a duration.
func (cfg *Config) Grace() time.Duration {
	return time.Duration(cfg.Talys.GraceSeconds) * time.Second
}

// LogFile returns the configured log file, or empty when file logging is off.
// The value "default" resolves to talysrun.log inside LogDirectory.
func (cfg *Config) LogFile() string {
	if cfg.Logging.File == "default" {
		return filepath.Join(LogDirectory(), "talysrun.log")
	}
	return cfg.Logging.File
}
