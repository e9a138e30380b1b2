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

package gcx

import (
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/mendonk/gcx/bundle"
)

// DefaultSchemaTimeout bounds every schema statement unless
// ConnectionConfig.SchemaTimeout says otherwise.
const DefaultSchemaTimeout = 10 * time.Second

// ConnectionConfig describes where and as whom to connect. Connect takes a
// copy, so changing a ConnectionConfig after a Session was created has no
// effect on that Session.
type ConnectionConfig struct {
	// BundlePath is the path of a connection bundle. When set, contact
	// points and TLS material come from the bundle and Hosts is ignored.
	BundlePath string
	// Hosts are the initial contact points used when there is no bundle.
	Hosts []string
	// Port overrides the port taken from the bundle or the driver default.
	// +optional
	Port int

	// ClientID and ClientSecret are the client identity credentials. They
	// override the username and password of the bundle's current auth info.
	// +optional
	ClientID     string
	ClientSecret string

	// Keyspace selected by the session. Required.
	Keyspace string

	// Consistency is the default consistency of user queries, e.g. "LOCAL_QUORUM".
	// +optional
	Consistency string
	// Compression is one of "", "none", "snappy" or "lz4".
	// +optional
	Compression string
	// HostSelection is one of "", "round-robin", "token-aware", "dc-aware" or "hostpool".
	// An empty value keeps the driver default.
	// +optional
	HostSelection string
	// LocalDC is required by "dc-aware" and makes "token-aware" prefer local replicas.
	// +optional
	LocalDC string

	// +optional
	ProtoVersion int
	// +optional
	ConnectTimeout time.Duration
	// +optional
	Timeout time.Duration
	// SchemaTimeout bounds each statement run by ExecuteSchema.
	// +optional
	SchemaTimeout time.Duration

	// DisableInitialHostLookup makes the driver connect to the contact
	// points only, which is what a single node behind NAT needs.
	// +optional
	DisableInitialHostLookup bool

	// Logger receives the session's own messages. It is also handed to the driver.
	// +optional
	Logger StdLogger
}

func (cfg ConnectionConfig) clone() ConnectionConfig {
	c := cfg
	c.Hosts = append([]string(nil), cfg.Hosts...)
	if c.SchemaTimeout <= 0 {
		c.SchemaTimeout = DefaultSchemaTimeout
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	return c
}

// Validate reports the first problem that would prevent Connect from even
// trying the cluster.
func (cfg ConnectionConfig) Validate() error {
	if cfg.BundlePath == "" && len(cfg.Hosts) == 0 {
		return ErrNoContactPoints
	}
	if cfg.Keyspace == "" {
		return errors.New("keyspace can't be empty")
	}
	if cfg.ClientID != "" && cfg.ClientSecret == "" {
		return errors.New("client secret can't be empty when client id is set")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Consistency != "" {
		if _, err := gocql.ParseConsistencyWrapper(cfg.Consistency); err != nil {
			return fmt.Errorf("invalid consistency %q: %w", cfg.Consistency, err)
		}
	}
	if _, err := newCompressor(cfg.Compression); err != nil {
		return err
	}
	if _, err := newHostSelectionPolicy(cfg.HostSelection, cfg.LocalDC); err != nil {
		return err
	}
	return nil
}

// clusterConfig translates cfg into a driver cluster configuration.
func (cfg ConnectionConfig) clusterConfig() (*gocql.ClusterConfig, error) {
	var cluster *gocql.ClusterConfig
	if cfg.BundlePath != "" {
		cc, err := bundle.NewCluster(cfg.BundlePath)
		if err != nil {
			return nil, err
		}
		cluster = cc
	} else {
		cluster = gocql.NewCluster(cfg.Hosts...)
	}

	if cfg.Port != 0 {
		cluster.Port = cfg.Port
	}
	cluster.Keyspace = cfg.Keyspace
	if cfg.ClientID != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ClientID,
			Password: cfg.ClientSecret,
		}
	}
	if cfg.Consistency != "" {
		c, err := gocql.ParseConsistencyWrapper(cfg.Consistency)
		if err != nil {
			return nil, fmt.Errorf("invalid consistency %q: %w", cfg.Consistency, err)
		}
		cluster.Consistency = c
	}

	compressor, err := newCompressor(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if compressor != nil {
		cluster.Compressor = compressor
	}

	policy, err := newHostSelectionPolicy(cfg.HostSelection, cfg.LocalDC)
	if err != nil {
		return nil, err
	}
	if policy != nil {
		cluster.PoolConfig.HostSelectionPolicy = policy
	}

	if cfg.ProtoVersion != 0 {
		cluster.ProtoVersion = cfg.ProtoVersion
	}
	if cfg.ConnectTimeout > 0 {
		cluster.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}
	cluster.DisableInitialHostLookup = cfg.DisableInitialHostLookup
	cluster.Logger = cfg.Logger

	return cluster, nil
}
