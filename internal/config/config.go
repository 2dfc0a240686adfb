// Package config provides XML-based configuration for the viewer.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"OkofenViewer"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Log discovery configuration
	Logs LogsConfig `xml:"Logs"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// LogsConfig contains log discovery settings
type LogsConfig struct {
	// DefaultDirectory is scanned on startup when set.
	DefaultDirectory string `xml:"DefaultDirectory"`
	// ChartStylesFile overrides the built-in chart style document.
	ChartStylesFile string `xml:"ChartStylesFile"`
}

// AdvancedConfig contains tuning options
type AdvancedConfig struct {
	EnableRequestLogging bool `xml:"EnableRequestLogging"`
	EnableCompression    bool `xml:"EnableCompression"`
	CompressionLevel     int  `xml:"CompressionLevel"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "127.0.0.1",
			EnableCORS:   false,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "1M",
		},
		Logs: LogsConfig{
			DefaultDirectory: "",
			ChartStylesFile:  "",
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging: true,
			EnableCompression:    true,
			CompressionLevel:     5,
		},
	}
}

// LoadConfig loads configuration from an XML file, creating a default
// one on first run.
func LoadConfig(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to an XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Ökofen Log Viewer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if bind := os.Getenv("BIND_ADDRESS"); bind != "" {
		c.Server.BindAddress = bind
	}
	if dir := os.Getenv("OKOFEN_LOG_DIR"); dir != "" {
		c.Logs.DefaultDirectory = dir
	}
}

// resolvePaths makes relative paths absolute against the config directory
func (c *AppConfig) resolvePaths(baseDir string) {
	if c.Logs.DefaultDirectory != "" && !filepath.IsAbs(c.Logs.DefaultDirectory) {
		c.Logs.DefaultDirectory = filepath.Join(baseDir, c.Logs.DefaultDirectory)
	}
	if c.Logs.ChartStylesFile != "" && !filepath.IsAbs(c.Logs.ChartStylesFile) {
		c.Logs.ChartStylesFile = filepath.Join(baseDir, c.Logs.ChartStylesFile)
	}
}

// GetServerAddr returns the host:port the server listens on
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}
