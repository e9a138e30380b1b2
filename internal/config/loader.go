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
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding the configuration,
// e.g. GCX_CLIENT_SECRET or GCX_LOG_LEVEL.
const EnvPrefix = "GCX"

// Loader handles configuration loading
type Loader struct {
	configPath string
	v          *viper.Viper
}

// NewLoader creates a new config loader. An empty configPath looks for
// gcx.yaml in the working directory and in $HOME/.gcx, and is not an error
// when there is none.
func NewLoader(configPath string) *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	return &Loader{
		configPath: configPath,
		v:          v,
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	// Every key needs a default for AutomaticEnv to apply on Unmarshal.
	v.SetDefault("bundle", d.Bundle)
	v.SetDefault("hosts", append([]string{}, d.Hosts...))
	v.SetDefault("port", d.Port)
	v.SetDefault("client_id", d.ClientID)
	v.SetDefault("client_secret", d.ClientSecret)
	v.SetDefault("keyspace", d.Keyspace)
	v.SetDefault("consistency", d.Consistency)
	v.SetDefault("compression", d.Compression)
	v.SetDefault("host_selection", d.HostSelection)
	v.SetDefault("local_dc", d.LocalDC)
	v.SetDefault("proto_version", d.ProtoVersion)
	v.SetDefault("connect_timeout", d.ConnectTimeout)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("schema_timeout", d.SchemaTimeout)
	v.SetDefault("disable_initial_host_lookup", d.DisableInitialHostLookup)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.backend", d.Log.Backend)
}

// BindFlags makes the flags of fs override the file and the environment.
// Flag names use dashes where keys use underscores, "log-level" sets
// "log.level". Flags naming no configuration key are ignored.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key := flagKey(f.Name)
		if err != nil || !knownKeys[key] {
			return
		}
		err = l.v.BindPFlag(key, f)
	})
	return err
}

func flagKey(name string) string {
	key := strings.ReplaceAll(name, "-", "_")
	if strings.HasPrefix(key, "log_") {
		key = "log." + strings.TrimPrefix(key, "log_")
	}
	return key
}

var knownKeys = func() map[string]bool {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	keys := make(map[string]bool)
	for _, k := range v.AllKeys() {
		keys[k] = true
	}
	return keys
}()

// Load reads the configuration file, if any, and applies environment and
// flag overrides.
func (l *Loader) Load() (*Config, error) {
	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		l.v.SetConfigFile(l.configPath)
	} else {
		l.v.SetConfigName("gcx")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".gcx"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the file the configuration was read from, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}
