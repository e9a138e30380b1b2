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
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"

	"github.com/gocql/gocql"
	"golang.org/x/net/proxy"
)

// SNIDialer dials nodes through the SNI proxy of their datacenter. The SNI
// of a known node is "<host_id>.<nodeDomain>"; initial contact points, whose
// host_id is not known yet, use the node domain of the current datacenter.
type SNIDialer struct {
	bundle *Bundle
	dialer gocql.Dialer
}

func NewSNIDialer(b *Bundle, dialer gocql.Dialer) *SNIDialer {
	return &SNIDialer{
		bundle: b,
		dialer: dialer,
	}
}

func (s *SNIDialer) DialHost(ctx context.Context, host *gocql.HostInfo) (*gocql.DialedHost, error) {
	hostID := host.HostID()
	if len(hostID) == 0 {
		return s.dialInitialContactPoint(ctx)
	}

	// Nodes of a datacenter the bundle doesn't describe go through the
	// current datacenter's proxy.
	dcName := host.DataCenter()
	dcConf := s.bundle.Datacenters[dcName]
	if dcConf == nil {
		current, err := s.bundle.CurrentDatacenterName()
		if err != nil {
			return nil, fmt.Errorf("datacenter %q configuration not found in connection bundle: %w", dcName, err)
		}
		dcName, dcConf = current, s.bundle.Datacenters[current]
		if dcConf == nil {
			return nil, fmt.Errorf("datacenter %q configuration not found in connection bundle", current)
		}
	}

	dialer, err := s.proxied(ctx, dcConf)
	if err != nil {
		return nil, err
	}

	clientCertificate, err := s.bundle.ClientCertificate()
	if err != nil {
		return nil, fmt.Errorf("can't get client certificate from configuration: %w", err)
	}

	ca, err := s.bundle.DatacenterCAPool(dcName)
	if err != nil {
		return nil, fmt.Errorf("can't get root CA from configuration: %w", err)
	}

	return s.connect(ctx, dialer, dcConf.Server, &tls.Config{
		ServerName:         fmt.Sprintf("%s.%s", hostID, dcConf.NodeDomain),
		RootCAs:            ca,
		InsecureSkipVerify: dcConf.InsecureSkipTLSVerify,
		Certificates:       []tls.Certificate{*clientCertificate},
	})
}

func (s *SNIDialer) dialInitialContactPoint(ctx context.Context) (*gocql.DialedHost, error) {
	clientCertificate, err := s.bundle.ClientCertificate()
	if err != nil {
		return nil, fmt.Errorf("can't get client certificate from configuration: %w", err)
	}

	ca, err := s.bundle.RootCAPool()
	if err != nil {
		return nil, fmt.Errorf("can't get root CA from configuration: %w", err)
	}

	dcConf, err := s.bundle.CurrentDatacenter()
	if err != nil {
		return nil, fmt.Errorf("can't get current datacenter config: %w", err)
	}

	dialer, err := s.proxied(ctx, dcConf)
	if err != nil {
		return nil, err
	}

	serverName := dcConf.TLSServerName
	if serverName == "" {
		serverName = dcConf.NodeDomain
	}
	if serverName == "" {
		serverName = dcConf.Server
	}

	return s.connect(ctx, dialer, dcConf.Server, &tls.Config{
		ServerName:         serverName,
		RootCAs:            ca,
		InsecureSkipVerify: s.bundle.InsecureSkipVerify(),
		Certificates:       []tls.Certificate{*clientCertificate},
	})
}

// proxied wraps the dialer with the datacenter's proxy, if it has one.
func (s *SNIDialer) proxied(ctx context.Context, dcConf *Datacenter) (gocql.Dialer, error) {
	if len(dcConf.ProxyURL) == 0 {
		return s.dialer, nil
	}

	u, err := url.Parse(dcConf.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("can't parse proxy URL %q: %w", dcConf.ProxyURL, err)
	}

	base := s.dialer
	d, err := proxy.FromURL(u, proxyDialerFunc(func(network, addr string) (net.Conn, error) {
		return base.DialContext(ctx, network, addr)
	}))
	if err != nil {
		return nil, fmt.Errorf("can't create proxy dialer: %w", err)
	}

	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy %q does not support dialing with a context", u.Scheme)
	}
	return cd, nil
}

func (s *SNIDialer) connect(ctx context.Context, dialer gocql.Dialer, server string, tlsConfig *tls.Config) (*gocql.DialedHost, error) {
	conn, err := dialer.DialContext(ctx, "tcp", server)
	if err != nil {
		return nil, fmt.Errorf("can't connect to %q: %w", server, err)
	}

	tconn := tls.Client(conn, tlsConfig)
	if err := tconn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't finish TLS handshake with server %q SNI %q: %w", server, tlsConfig.ServerName, err)
	}

	return &gocql.DialedHost{
		Conn:            tconn,
		DisableCoalesce: true,
	}, nil
}

type proxyDialerFunc func(network, addr string) (net.Conn, error)

func (d proxyDialerFunc) Dial(network, addr string) (net.Conn, error) {
	return d(network, addr)
}
