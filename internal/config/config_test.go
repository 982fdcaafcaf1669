// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig__LoadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "vendorpay-config")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.yaml")
	contents := []byte(`
log_format: json
odfi:
  routing_number: "121042882"
  gateway:
    origin: "1210428820"
    origin_name: "My Bank"
    destination: "231380104"
    destination_name: "Federal Reserve"
  cutoffs:
    timezone: "America/New_York"
    windows: ["16:30"]
storage:
  bucket_uri: "file:///tmp/vendorpay"
`)
	if err := ioutil.WriteFile(path, contents, 0644); err != nil {
		t.Fatal(err)
	}

	logFormat := ""
	cfg, err := LoadConfig(path, &logFormat)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("log format=%s", cfg.LogFormat)
	}
	if cfg.ODFI.RoutingNumber != "121042882" {
		t.Errorf("routing number=%s", cfg.ODFI.RoutingNumber)
	}
	if cfg.ODFI.Gateway.DestinationName != "Federal Reserve" {
		t.Errorf("gateway=%#v", cfg.ODFI.Gateway)
	}
	if len(cfg.ODFI.Cutoffs.Windows) != 1 {
		t.Errorf("cutoffs=%#v", cfg.ODFI.Cutoffs)
	}
	if cfg.Storage.BucketURI != "file:///tmp/vendorpay" {
		t.Errorf("storage=%#v", cfg.Storage)
	}
}

func TestConfig__Overrides(t *testing.T) {
	os.Setenv("ODFI_ROUTING_NUMBER", "321174851")
	defer os.Unsetenv("ODFI_ROUTING_NUMBER")

	cfg := Empty()
	OverrideWithEnvVars(cfg)
	if cfg.ODFI.RoutingNumber != "321174851" {
		t.Errorf("routing number=%s", cfg.ODFI.RoutingNumber)
	}
}

func TestConfig__SFTPTimeout(t *testing.T) {
	var cfg *SFTP
	if v := cfg.Timeout(); v != 10*time.Second {
		t.Errorf("timeout=%v", v)
	}
	cfg = &SFTP{DialTimeout: "30s"}
	if v := cfg.Timeout(); v != 30*time.Second {
		t.Errorf("timeout=%v", v)
	}
}

func TestConfig__SFTPOptions(t *testing.T) {
	var cfg *SFTP
	if v := cfg.MaxConnections(); v != 8 {
		t.Errorf("max connections=%d", v)
	}
	if v := cfg.PacketSize(); v != 20480 {
		t.Errorf("packet size=%d", v)
	}

	cfg = &SFTP{MaxConnectionsPerFile: 2, MaxPacketSize: 65535}
	if v := cfg.MaxConnections(); v != 2 {
		t.Errorf("max connections=%d", v)
	}
	if v := cfg.PacketSize(); v != 65535 {
		t.Errorf("packet size=%d", v)
	}
}
