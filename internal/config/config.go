/*
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mendonk/gcx"
	"github.com/mendonk/gcx/internal/logger"
)

// Config is the configuration of the gcx command.
type Config struct {
	// Bundle is the path of a connection bundle, a YAML file or a zip archive.
	Bundle string `mapstructure:"bundle"`
	// Hosts are contact points used when Bundle is empty.
	Hosts []string `mapstructure:"hosts"`
	Port  int      `mapstructure:"port"`

	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Keyspace     string `mapstructure:"keyspace"`

	Consistency   string `mapstructure:"consistency"`
	Compression   string `mapstructure:"compression"`
	HostSelection string `mapstructure:"host_selection"`
	LocalDC       string `mapstructure:"local_dc"`
	ProtoVersion  int    `mapstructure:"proto_version"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"`
	SchemaTimeout  time.Duration `mapstructure:"schema_timeout"`

	DisableInitialHostLookup bool `mapstructure:"disable_initial_host_lookup"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Backend string `mapstructure:"backend"`
}

// DefaultConfig returns the configuration used for keys that are set nowhere.
func DefaultConfig() *Config {
	return &Config{
		Keyspace:       "demo",
		ConnectTimeout: 10 * time.Second,
		Timeout:        10 * time.Second,
		SchemaTimeout:  gcx.DefaultSchemaTimeout,
		Log: LogConfig{
			Level:   "info",
			Format:  logger.FormatConsole,
			Backend: logger.BackendZerolog,
		},
	}
}

// Validate checks the settings the session doesn't check itself.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		return fmt.Errorf("log.format must be %q or %q, got %q", logger.FormatConsole, logger.FormatJSON, c.Log.Format)
	}
	switch c.Log.Backend {
	case logger.BackendZerolog, logger.BackendZap:
	default:
		return fmt.Errorf("log.backend must be %q or %q, got %q", logger.BackendZerolog, logger.BackendZap, c.Log.Backend)
	}
	if c.Bundle != "" && len(c.Hosts) > 0 {
		return errors.New("bundle and hosts are mutually exclusive")
	}
	return c.ConnectionConfig(nil).Validate()
}

// ConnectionConfig returns the session configuration, logging to l.
func (c *Config) ConnectionConfig(l gcx.StdLogger) gcx.ConnectionConfig {
	return gcx.ConnectionConfig{
		BundlePath:               c.Bundle,
		Hosts:                    append([]string(nil), c.Hosts...),
		Port:                     c.Port,
		ClientID:                 c.ClientID,
		ClientSecret:             c.ClientSecret,
		Keyspace:                 c.Keyspace,
		Consistency:              c.Consistency,
		Compression:              c.Compression,
		HostSelection:            c.HostSelection,
		LocalDC:                  c.LocalDC,
		ProtoVersion:             c.ProtoVersion,
		ConnectTimeout:           c.ConnectTimeout,
		Timeout:                  c.Timeout,
		SchemaTimeout:            c.SchemaTimeout,
		DisableInitialHostLookup: c.DisableInitialHostLookup,
		Logger:                   l,
	}
}
