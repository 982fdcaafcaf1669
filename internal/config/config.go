// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Logger    log.Logger
	LogFormat string `yaml:"log_format"`

	Sqlite  Sqlite  `yaml:"sqlite"`
	ODFI    ODFI    `yaml:"odfi"`
	Storage Storage `yaml:"storage"`
}

type Sqlite struct {
	Path string `yaml:"path"`
}

// ODFI holds the originating bank's identifiers written into every generated
// file, plus the optional cutoff schedule and upload destination.
type ODFI struct {
	// RoutingNumber is the ODFI's ABA routing number. Its first 8 digits
	// prefix every trace number.
	RoutingNumber string `yaml:"routing_number"`

	Gateway Gateway `yaml:"gateway"`

	// TestGateway overrides Gateway identifiers for batches not flagged
	// production, so test files never address the live ACH operator.
	TestGateway *Gateway `yaml:"test_gateway"`

	Cutoffs Cutoffs `yaml:"cutoffs"`
	SFTP    *SFTP   `yaml:"sftp"`
}

type Gateway struct {
	Origin          string `yaml:"origin"`
	OriginName      string `yaml:"origin_name"`
	Destination     string `yaml:"destination"`
	DestinationName string `yaml:"destination_name"`
}

// Cutoffs schedules automatic file generation for approved batches on
// banking days.
type Cutoffs struct {
	Timezone string   `yaml:"timezone"`
	Windows  []string `yaml:"windows"` // "15:04" timestamps
}

type SFTP struct {
	Hostname         string `yaml:"hostname"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	ClientPrivateKey string `yaml:"client_private_key"`
	HostPublicKey    string `yaml:"host_public_key"`
	OutboundPath     string `yaml:"outbound_path"`

	DialTimeout           string `yaml:"dial_timeout"`
	MaxConnectionsPerFile int    `yaml:"max_connections_per_file"`
	MaxPacketSize         int    `yaml:"max_packet_size"`
}

func (cfg *SFTP) MaxConnections() int {
	if cfg == nil || cfg.MaxConnectionsPerFile <= 0 {
		return 8 // pkg/sftp's default is 64
	}
	return cfg.MaxConnectionsPerFile
}

func (cfg *SFTP) PacketSize() int {
	if cfg == nil || cfg.MaxPacketSize <= 0 {
		return 20480
	}
	return cfg.MaxPacketSize
}

func (cfg *SFTP) Timeout() time.Duration {
	if cfg == nil || cfg.DialTimeout == "" {
		return 10 * time.Second
	}
	if d, err := time.ParseDuration(cfg.DialTimeout); err == nil {
		return d
	}
	return 10 * time.Second
}

type Storage struct {
	// BucketURI is a gocloud.dev/blob URI, e.g. file:///var/vendorpay/storage
	BucketURI string `yaml:"bucket_uri"`
}

func Empty() *Config {
	return &Config{
		Logger: log.NewNopLogger(),
	}
}

func LoadConfig(path string, logFormat *string) (*Config, error) {
	cfg := Empty()

	if path != "" {
		bs, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %v", path, err)
		}
		if err := yaml.Unmarshal(bs, cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal %s: %v", path, err)
		}
	}

	OverrideWithEnvVars(cfg)

	// Setup our Logger
	if logFormat != nil && *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if strings.EqualFold(cfg.LogFormat, "json") {
		cfg.Logger = log.NewJSONLogger(os.Stderr)
	} else {
		cfg.Logger = log.NewLogfmtLogger(os.Stderr)
	}
	cfg.Logger = log.With(cfg.Logger, "ts", log.DefaultTimestampUTC)
	cfg.Logger = log.With(cfg.Logger, "caller", log.DefaultCaller)

	return cfg, nil
}

func override(env string, field *string) {
	if v := os.Getenv(env); v != "" {
		*field = v
	}
}

func OverrideWithEnvVars(cfg *Config) {
	override("SQLITE_DB_PATH", &cfg.Sqlite.Path)
	override("ODFI_ROUTING_NUMBER", &cfg.ODFI.RoutingNumber)
	override("ODFI_GATEWAY_ORIGIN", &cfg.ODFI.Gateway.Origin)
	override("ODFI_GATEWAY_DESTINATION", &cfg.ODFI.Gateway.Destination)
	override("STORAGE_BUCKET_URI", &cfg.Storage.BucketURI)
}
