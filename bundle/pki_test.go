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
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testPKI struct {
	serverCertPem []byte
	serverKeyPem  []byte
	clientCertPem []byte
	clientKeyPem  []byte
}

func newTestPKI(t *testing.T, dnsNames []string) *testPKI {
	t.Helper()

	clientCert, clientKey, err := generateCert("client", x509.ExtKeyUsageClientAuth, nil)
	if err != nil {
		t.Fatal(err)
	}
	serverCert, serverKey, err := generateCert("serving-cert", x509.ExtKeyUsageServerAuth, dnsNames)
	if err != nil {
		t.Fatal(err)
	}

	return &testPKI{
		serverCertPem: encodeCertificate(t, serverCert),
		serverKeyPem:  encodePrivateKey(t, serverKey),
		clientCertPem: encodeCertificate(t, clientCert),
		clientKeyPem:  encodePrivateKey(t, clientKey),
	}
}

// writeFiles stores the CA, client certificate and key in dir as ca.crt,
// client.crt and client.key.
func (p *testPKI) writeFiles(t *testing.T, dir string) {
	t.Helper()
	for name, data := range map[string][]byte{
		"ca.crt":     p.serverCertPem,
		"client.crt": p.clientCertPem,
		"client.key": p.clientKeyPem,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			t.Fatal(err)
		}
	}
}

// tlsServer returns an unstarted TLS server presenting the serving certificate.
func (p *testPKI) tlsServer(t *testing.T) *httptest.Server {
	t.Helper()

	servingCert, err := tls.X509KeyPair(p.serverCertPem, p.serverKeyPem)
	if err != nil {
		t.Fatal(err)
	}
	clientCAPool := x509.NewCertPool()
	clientCAPool.AppendCertsFromPEM(p.clientCertPem)

	server := httptest.NewUnstartedServer(nil)
	server.TLS = &tls.Config{
		Certificates: []tls.Certificate{servingCert},
		ClientCAs:    clientCAPool,
		ClientAuth:   tls.RequestClientCert,
	}
	return server
}

func generateCert(cn string, usage x509.ExtKeyUsage, dnsNames []string) (*x509.Certificate, *rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("can't generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		Subject:               pkix.Name{CommonName: cn},
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{usage},
		NotBefore:             now.Add(-1 * time.Second),
		NotAfter:              now.Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  true,
		SerialNumber:          serialNumber,
		DNSNames:              dnsNames,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("can't create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(derBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("can't parse der encoded certificate: %w", err)
	}
	return cert, privateKey, nil
}

func encodeCertificate(t *testing.T, cert *x509.Certificate) []byte {
	t.Helper()
	buffer := bytes.Buffer{}
	if err := pem.Encode(&buffer, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}); err != nil {
		t.Fatalf("can't pem encode certificate: %v", err)
	}
	return buffer.Bytes()
}

func encodePrivateKey(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	buffer := bytes.Buffer{}
	err := pem.Encode(&buffer, &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err != nil {
		t.Fatalf("can't pem encode rsa private key: %v", err)
	}
	return buffer.Bytes()
}
