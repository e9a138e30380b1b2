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

package bundle

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/gocql/gocql"
)

// proxyPort is the port of the SNI proxies described by a bundle.
const proxyPort = 443

// NewCluster loads the bundle at path and returns a cluster configuration
// dialing every node through the bundle's SNI proxies.
func NewCluster(path string) (*gocql.ClusterConfig, error) {
	b, err := Load(path)
	if err != nil {
		return nil, err
	}
	return b.ClusterConfig()
}

// ClusterConfig builds a cluster configuration from b. Credentials of the
// current auth info become a password authenticator.
func (b *Bundle) ClusterConfig() (*gocql.ClusterConfig, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	caPool, err := b.RootCAPool()
	if err != nil {
		return nil, fmt.Errorf("can't create root CA pool: %w", err)
	}

	authInfo, err := b.CurrentAuthInfo()
	if err != nil {
		return nil, err
	}

	cc := gocql.NewCluster(b.ContactPoints()...)
	cc.Port = proxyPort

	// SslOpts only matter for the initial contact points, the host dialer
	// sets up TLS for everything else.
	cc.SslOpts = &gocql.SslOptions{
		EnableHostVerification: false,
		Config: &tls.Config{
			RootCAs: caPool,
			GetClientCertificate: func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
				return b.ClientCertificate()
			},
			InsecureSkipVerify: b.InsecureSkipVerify(),
		},
	}

	var dialer gocql.Dialer = cc.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: cc.ConnectTimeout}
	}
	cc.HostDialer = NewSNIDialer(b, dialer)

	if authInfo.Username != "" || authInfo.Password != "" {
		cc.Authenticator = gocql.PasswordAuthenticator{Username: authInfo.Username, Password: authInfo.Password}
	}

	if b.Parameters != nil {
		if c := b.Parameters.DefaultConsistency; c != "" {
			if err := cc.Consistency.UnmarshalText([]byte(c)); err != nil {
				return nil, fmt.Errorf("unmarshal default consistency: %w", err)
			}
		}
		if c := b.Parameters.DefaultSerialConsistency; c != "" {
			if err := cc.SerialConsistency.UnmarshalText([]byte(c)); err != nil {
				return nil, fmt.Errorf("unmarshal default serial consistency: %w", err)
			}
		}
	}

	return cc, nil
}
