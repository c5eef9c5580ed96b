// Package config loads and validates the application configuration.
// Everything is read once at startup; nothing is re-read per request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"idea-print/internal/auth"
	"idea-print/internal/escpos"
	"idea-print/internal/printer"
)

// Transport kinds selectable in the printer section.
const (
	TransportFile   = "file"
	TransportSerial = "serial"
	TransportUSB    = "usb"
)

// Dedupe backends selectable in the dedupe section.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config mirrors config.yaml.
type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		Verbose bool   `yaml:"verbose"`
	} `yaml:"server"`

	Auth struct {
		HMACSecret      string `yaml:"hmac_secret"`
		TimestampWindow int    `yaml:"timestamp_window"`
	} `yaml:"auth"`

	Printer struct {
		Transport          string `yaml:"transport"`
		CharsPerLine       int    `yaml:"chars_per_line"`
		Encoding           string `yaml:"encoding"`
		CutMode            string `yaml:"cut_mode"`
		FeedLinesBeforeCut int    `yaml:"feed_lines_before_cut"`

		File struct {
			Path string `yaml:"path"`
		} `yaml:"file"`

		Serial struct {
			Port    string `yaml:"port"`
			Baud    int    `yaml:"baud"`
			Timeout string `yaml:"timeout"`
		} `yaml:"serial"`

		USB struct {
			VendorID    string `yaml:"vendor_id"`
			ProductID   string `yaml:"product_id"`
			Interface   int    `yaml:"interface"`
			OutEndpoint int    `yaml:"out_endpoint"`
		} `yaml:"usb"`
	} `yaml:"printer"`

	Dedupe struct {
		Enabled         bool   `yaml:"enabled"`
		Backend         string `yaml:"backend"`
		Path            string `yaml:"path"`
		TTL             string `yaml:"ttl"`
		CleanupInterval string `yaml:"cleanup_interval"`

		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"dedupe"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// ParsedConfig is a validated Config with duration strings parsed.
type ParsedConfig struct {
	Config
	SerialTimeout   time.Duration
	DedupeTTL       time.Duration
	CleanupInterval time.Duration
}

// Load reads, parses, and validates the configuration file.
func Load(path string) (*ParsedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(cfg)
}

func defaults() Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8000
	cfg.Auth.TimestampWindow = auth.DefaultWindowSeconds
	cfg.Printer.Transport = TransportSerial
	cfg.Printer.CharsPerLine = 30
	cfg.Printer.Encoding = "cp437"
	cfg.Printer.CutMode = string(escpos.CutFull)
	cfg.Printer.FeedLinesBeforeCut = 4
	cfg.Printer.File.Path = "receipt.bin"
	cfg.Printer.Serial.Port = "/dev/ttyUSB0"
	cfg.Printer.Serial.Baud = 9600
	cfg.Printer.Serial.Timeout = "5s"
	cfg.Dedupe.Backend = BackendSQLite
	cfg.Dedupe.Path = "dedupe.db"
	cfg.Dedupe.TTL = "24h"
	cfg.Dedupe.CleanupInterval = "1h"
	cfg.Dedupe.Redis.Addr = "localhost:6379"
	cfg.Logging.Level = "info"
	return cfg
}

func finish(cfg Config) (*ParsedConfig, error) {
	serialTimeout, err := time.ParseDuration(cfg.Printer.Serial.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid serial timeout: %w", err)
	}
	ttl, err := time.ParseDuration(cfg.Dedupe.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid dedupe ttl: %w", err)
	}
	cleanupInterval, err := time.ParseDuration(cfg.Dedupe.CleanupInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid dedupe cleanup_interval: %w", err)
	}

	parsed := &ParsedConfig{
		Config:          cfg,
		SerialTimeout:   serialTimeout,
		DedupeTTL:       ttl,
		CleanupInterval: cleanupInterval,
	}
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return parsed, nil
}

func (c *ParsedConfig) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}
	if c.Auth.TimestampWindow <= 0 {
		return fmt.Errorf("timestamp_window must be positive")
	}
	if err := c.Profile().Validate(); err != nil {
		return err
	}

	switch c.Printer.Transport {
	case TransportFile:
		if c.Printer.File.Path == "" {
			return fmt.Errorf("file transport requires printer.file.path")
		}
	case TransportSerial:
		if c.Printer.Serial.Port == "" {
			return fmt.Errorf("serial transport requires printer.serial.port")
		}
		if c.Printer.Serial.Baud <= 0 {
			return fmt.Errorf("serial baud rate must be positive")
		}
	case TransportUSB:
		if c.Printer.USB.VendorID == "" || c.Printer.USB.ProductID == "" {
			return fmt.Errorf("usb transport requires printer.usb.vendor_id and product_id")
		}
		if _, err := ParseUSBID(c.Printer.USB.VendorID); err != nil {
			return fmt.Errorf("invalid usb vendor_id: %w", err)
		}
		if _, err := ParseUSBID(c.Printer.USB.ProductID); err != nil {
			return fmt.Errorf("invalid usb product_id: %w", err)
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Printer.Transport)
	}

	if c.Dedupe.Enabled {
		switch c.Dedupe.Backend {
		case BackendSQLite:
			if c.Dedupe.Path == "" {
				return fmt.Errorf("sqlite dedupe backend requires dedupe.path")
			}
		case BackendRedis:
			if c.Dedupe.Redis.Addr == "" {
				return fmt.Errorf("redis dedupe backend requires dedupe.redis.addr")
			}
		case BackendMemory:
		default:
			return fmt.Errorf("unknown dedupe backend %q", c.Dedupe.Backend)
		}
	}

	return nil
}

// Profile returns the printer profile described by the configuration.
func (c *ParsedConfig) Profile() escpos.Profile {
	return escpos.Profile{
		CharsPerLine:       c.Printer.CharsPerLine,
		Encoding:           c.Printer.Encoding,
		CutMode:            escpos.CutMode(c.Printer.CutMode),
		FeedLinesBeforeCut: c.Printer.FeedLinesBeforeCut,
	}
}

// Transport constructs the configured printer transport.
func (c *ParsedConfig) Transport() (printer.Transport, error) {
	switch c.Printer.Transport {
	case TransportFile:
		return printer.NewFileTransport(c.Printer.File.Path), nil
	case TransportSerial:
		return printer.NewSerialTransport(c.Printer.Serial.Port, c.Printer.Serial.Baud, c.SerialTimeout), nil
	case TransportUSB:
		vid, err := ParseUSBID(c.Printer.USB.VendorID)
		if err != nil {
			return nil, err
		}
		pid, err := ParseUSBID(c.Printer.USB.ProductID)
		if err != nil {
			return nil, err
		}
		return printer.NewUSBTransport(vid, pid, c.Printer.USB.Interface, c.Printer.USB.OutEndpoint), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Printer.Transport)
	}
}

// ParseUSBID parses a vendor or product id given as hex ("0x04b8") or
// decimal.
func ParseUSBID(s string) (uint16, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	id, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid USB id %q", s)
	}
	return uint16(id), nil
}
