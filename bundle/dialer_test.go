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
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gocql/gocql"
)

const testTimeout = time.Second

func newBasicBundle(server string, pki *testPKI) *Bundle {
	return &Bundle{
		Datacenters: map[string]*Datacenter{
			"us-east-1": {
				CertificateAuthorityData: pki.serverCertPem,
				Server:                   server,
				NodeDomain:               "node.example.com",
			},
		},
		AuthInfos: map[string]*AuthInfo{
			"admin": {
				ClientCertificateData: pki.clientCertPem,
				ClientKeyData:         pki.clientKeyPem,
			},
		},
		Contexts: map[string]*Context{
			"default": {
				DatacenterName: "us-east-1",
				AuthInfoName:   "admin",
			},
		},
		CurrentContext: "default",
	}
}

func TestSNIDialer_InvalidBundle(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pki := newTestPKI(t, nil)
	dialer := &net.Dialer{}

	tt := []struct {
		name          string
		bundle        func() *Bundle
		hostInfo      *gocql.HostInfo
		expectedError string
		notExist      bool
	}{
		{
			name: "empty current context",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.CurrentContext = ""
				return b
			},
			hostInfo:      &gocql.HostInfo{},
			expectedError: "can't get client certificate from configuration: can't get current auth info: can't get current context config: current context can't be empty",
		},
		{
			name: "current context is unknown",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.CurrentContext = "unknown-context"
				return b
			},
			hostInfo:      &gocql.HostInfo{},
			expectedError: `can't get current context config: context "unknown-context" does not exists`,
		},
		{
			name: "unknown default authInfo",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.Contexts[b.CurrentContext].AuthInfoName = "unknown-authinfo"
				return b
			},
			hostInfo:      &gocql.HostInfo{},
			expectedError: `can't get current auth info: authInfo "unknown-authinfo" does not exists`,
		},
		{
			name: "empty client certificate",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.AuthInfos["admin"].ClientCertificateData = nil
				return b
			},
			hostInfo:      &gocql.HostInfo{},
			expectedError: "can't read client certificate",
			notExist:      true,
		},
		{
			name: "empty client key",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.AuthInfos["admin"].ClientKeyData = nil
				return b
			},
			hostInfo:      &gocql.HostInfo{},
			expectedError: "can't read client key",
			notExist:      true,
		},
		{
			name: "empty certificate authority",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.Datacenters["us-east-1"].CertificateAuthorityData = nil
				return b
			},
			hostInfo:      &gocql.HostInfo{},
			expectedError: `can't get root CA from configuration: datacenter "us-east-1" does not include certificate authority`,
		},
		{
			name: "certificate authority without certificates",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.Datacenters["us-east-1"].CertificateAuthorityData = []byte("not a certificate")
				return b
			},
			hostInfo:      &gocql.HostInfo{},
			expectedError: `datacenter "us-east-1" certificate authority holds no PEM certificates`,
		},
		{
			name: "unknown default datacenter",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.Datacenters["other"] = b.Datacenters["us-east-1"]
				b.Contexts[b.CurrentContext].DatacenterName = "unknown-datacenter"
				return b
			},
			hostInfo:      &gocql.HostInfo{},
			expectedError: `can't get current datacenter config: datacenter "unknown-datacenter" does not exists`,
		},
		{
			name: "host of an unknown datacenter without current datacenter",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.Contexts[b.CurrentContext].DatacenterName = ""
				return b
			},
			hostInfo: func() *gocql.HostInfo {
				hi := &gocql.HostInfo{}
				hi.SetHostID("host-id")
				return hi
			}(),
			expectedError: `datacenter "" configuration not found in connection bundle`,
		},
		{
			name: "unsupported proxy scheme",
			bundle: func() *Bundle {
				b := newBasicBundle("127.0.0.1:9142", pki)
				b.Datacenters["us-east-1"].ProxyURL = "ftp://127.0.0.1:21"
				return b
			},
			hostInfo:      &gocql.HostInfo{},
			expectedError: "can't create proxy dialer",
		},
	}
	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			hostDialer := NewSNIDialer(tc.bundle(), dialer)
			_, err := hostDialer.DialHost(ctx, tc.hostInfo)
			if err == nil || !strings.Contains(err.Error(), tc.expectedError) {
				t.Fatalf("expected error containing %q, got %v", tc.expectedError, err)
			}
			if tc.notExist && !errors.Is(err, os.ErrNotExist) {
				t.Errorf("expected not exist error, got %#v", err)
			}
		})
	}
}

func TestSNIDialer_ServerNameIdentifiers(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name        string
		bundle      func(server string, pki *testPKI) *Bundle
		hostInfo    *gocql.HostInfo
		expectedSNI func(b *Bundle) string
	}{
		{
			name:     "node domain as SNI when host info is unknown",
			hostInfo: &gocql.HostInfo{},
			bundle:   newBasicBundle,
			expectedSNI: func(_ *Bundle) string {
				return "node.example.com"
			},
		},
		{
			name:     "tls server name as SNI when host info is unknown",
			hostInfo: &gocql.HostInfo{},
			bundle: func(server string, pki *testPKI) *Bundle {
				b := newBasicBundle(server, pki)
				b.Datacenters["us-east-1"].TLSServerName = "proxy.example.com"
				return b
			},
			expectedSNI: func(_ *Bundle) string {
				return "proxy.example.com"
			},
		},
		{
			name:     "server as SNI when host info is unknown and node domain is empty",
			hostInfo: &gocql.HostInfo{},
			bundle: func(server string, pki *testPKI) *Bundle {
				b := newBasicBundle(server, pki)
				dc := b.Datacenters["us-east-1"]
				dc.NodeDomain = ""
				// The serving certificate isn't signed for an IP address.
				dc.InsecureSkipTLSVerify = true
				return b
			},
			expectedSNI: func(b *Bundle) string {
				return b.Datacenters["us-east-1"].Server
			},
		},
		{
			name: "host SNI when host is known",
			hostInfo: func() *gocql.HostInfo {
				hi := &gocql.HostInfo{}
				hi.SetHostID("host-1-uuid")
				return hi
			}(),
			bundle: newBasicBundle,
			expectedSNI: func(_ *Bundle) string {
				return "host-1-uuid.node.example.com"
			},
		},
	}

	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
			defer cancel()

			pki := newTestPKI(t, []string{"host-1-uuid.node.example.com", "node.example.com", "proxy.example.com"})
			server := pki.tlsServer(t)

			connectionStateCh := make(chan tls.ConnectionState, 1)
			server.TLS.VerifyConnection = func(state tls.ConnectionState) error {
				connectionStateCh <- state
				return nil
			}

			server.StartTLS()
			defer server.Close()

			b := tc.bundle(server.Listener.Addr().String(), pki)
			hostDialer := NewSNIDialer(b, &net.Dialer{})

			dialed, err := hostDialer.DialHost(ctx, tc.hostInfo)
			if err != nil {
				t.Fatal(err)
			}
			defer dialed.Conn.Close()

			if !dialed.DisableCoalesce {
				t.Error("expected coalescing to be disabled on TLS connections")
			}

			select {
			case receivedState := <-connectionStateCh:
				expectedSNI := tc.expectedSNI(b)
				if receivedState.ServerName != expectedSNI {
					t.Errorf("expected %q SNI, got %q", expectedSNI, receivedState.ServerName)
				}
			case <-ctx.Done():
				t.Fatal("expected to receive connection, but timed out")
			}
		})
	}
}
