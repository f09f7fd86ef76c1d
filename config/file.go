package config

// file.go - optional YAML configuration file, the lowest-precedence
// layer under env vars and CLI flags.

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML document.  Pointer fields distinguish
// "absent" from an explicit zero so the overlay only touches keys the
// file actually sets.
type fileConfig struct {
	Host        *string `yaml:"host"`
	Port        *int    `yaml:"port"`
	TimeoutSecs *int    `yaml:"timeout"`

	CAFile     *string `yaml:"ca_file"`
	Insecure   *bool   `yaml:"insecure"`
	CacheSize  *int    `yaml:"cache_size"`
	MinTLS     *string `yaml:"tls_min"`
	BufferSize *int    `yaml:"buffer_size"`

	Tunnel        *string `yaml:"tunnel"`
	SSHKey        *string `yaml:"ssh_key"`
	SSHAgent      *bool   `yaml:"ssh_agent"`
	StrictHostKey *bool   `yaml:"strict_hostkey"`
	KnownHosts    *string `yaml:"known_hosts"`

	Retry   *int  `yaml:"retry"`
	Verbose *int  `yaml:"verbose"`
	Metrics *bool `yaml:"metrics"`
}

// LoadFile overlays a YAML config file onto cfg.  Call before
// LoadFromEnv and flag parsing so both can override it.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.TimeoutSecs != nil {
		cfg.Timeout = time.Duration(*fc.TimeoutSecs) * time.Second
	}
	if fc.CAFile != nil {
		cfg.CAFile = *fc.CAFile
	}
	if fc.Insecure != nil {
		cfg.Insecure = *fc.Insecure
	}
	if fc.CacheSize != nil {
		cfg.CacheSize = *fc.CacheSize
	}
	if fc.MinTLS != nil {
		cfg.MinTLS = *fc.MinTLS
	}
	if fc.BufferSize != nil {
		cfg.BufferSize = *fc.BufferSize
	}
	if fc.Tunnel != nil {
		cfg.TunnelSpec = *fc.Tunnel
	}
	if fc.SSHKey != nil {
		cfg.SSHKeyPath = *fc.SSHKey
	}
	if fc.SSHAgent != nil {
		cfg.UseSSHAgent = *fc.SSHAgent
	}
	if fc.StrictHostKey != nil {
		cfg.StrictHostKey = *fc.StrictHostKey
	}
	if fc.KnownHosts != nil {
		cfg.KnownHostsPath = *fc.KnownHosts
	}
	if fc.Retry != nil {
		cfg.RetryAttempts = *fc.Retry
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.Metrics != nil {
		cfg.ShowMetrics = *fc.Metrics
	}
	return nil
}
