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

// Package bundle reads connection bundles: YAML documents, optionally packed
// in a zip archive together with their certificates, that describe how to
// reach a cluster through an SNI proxy.
package bundle

import (
	"archive/zip"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"
)

// maxArchiveEntry caps the size of a single file read from a zip bundle.
const maxArchiveEntry = 1 << 20

type Bundle struct {
	// Kind is a string value representing the REST resource this object represents.
	// +optional
	Kind string `json:"kind,omitempty"`
	// APIVersion defines the versioned schema of this representation of an object.
	// +optional
	APIVersion string `json:"apiVersion,omitempty"`
	// Datacenters is a map of referencable names to datacenter configs.
	Datacenters map[string]*Datacenter `json:"datacenters"`
	// AuthInfos is a map of referencable names to authentication configs.
	AuthInfos map[string]*AuthInfo `json:"authInfos"`
	// Contexts is a map of referencable names to context configs.
	Contexts map[string]*Context `json:"contexts"`
	// CurrentContext is the name of the context used to connect.
	CurrentContext string `json:"currentContext"`
	// Parameters holds driver defaults shipped with the bundle.
	// +optional
	Parameters *Parameters `json:"parameters,omitempty"`

	// baseDir resolves relative paths of a bundle read from a YAML file.
	baseDir string
	// files holds the entries of a bundle read from a zip archive.
	files map[string][]byte
}

type AuthInfo struct {
	// ClientCertificateData contains PEM-encoded data from a client cert file for TLS. Overrides ClientCertificatePath.
	// +optional
	ClientCertificateData []byte `json:"clientCertificateData,omitempty"`
	// ClientCertificatePath is the path to a client cert file for TLS.
	// +optional
	ClientCertificatePath string `json:"clientCertificatePath,omitempty"`
	// ClientKeyData contains PEM-encoded data from a client key file for TLS. Overrides ClientKeyPath.
	// +optional
	ClientKeyData []byte `json:"clientKeyData,omitempty"`
	// ClientKeyPath is the path to a client key file for TLS.
	// +optional
	ClientKeyPath string `json:"clientKeyPath,omitempty"`
	// +optional
	Username string `json:"username,omitempty"`
	// +optional
	Password string `json:"password,omitempty"`
}

type Datacenter struct {
	// CertificateAuthorityPath is the path to a cert file for the certificate authority.
	// +optional
	CertificateAuthorityPath string `json:"certificateAuthorityPath,omitempty"`
	// CertificateAuthorityData contains PEM-encoded certificate authority certificates. Overrides CertificateAuthorityPath.
	// +optional
	CertificateAuthorityData []byte `json:"certificateAuthorityData,omitempty"`
	// Server is the address of the SNI proxy, host:port.
	Server string `json:"server"`
	// TLSServerName is used to check server certificates. If TLSServerName is empty, the hostname used to contact the server is used.
	// +optional
	TLSServerName string `json:"tlsServerName,omitempty"`
	// NodeDomain is the domain suffix appended to the host_id of a node to build its SNI.
	NodeDomain string `json:"nodeDomain"`
	// InsecureSkipTLSVerify skips the validity check for the server's certificate.
	// +optional
	InsecureSkipTLSVerify bool `json:"insecureSkipTlsVerify,omitempty"`
	// ProxyURL is the URL of a proxy, "socks5" scheme, used to reach Server.
	// +optional
	ProxyURL string `json:"proxyUrl,omitempty"`
}

type Context struct {
	DatacenterName string `json:"datacenterName"`
	AuthInfoName   string `json:"authInfoName"`
}

type Parameters struct {
	// +optional
	DefaultConsistency ConsistencyString `json:"defaultConsistency,omitempty"`
	// +optional
	DefaultSerialConsistency ConsistencyString `json:"defaultSerialConsistency,omitempty"`
}

type ConsistencyString string

const (
	DefaultAnyConsistency         ConsistencyString = "ANY"
	DefaultOneConsistency         ConsistencyString = "ONE"
	DefaultTwoConsistency         ConsistencyString = "TWO"
	DefaultThreeConsistency       ConsistencyString = "THREE"
	DefaultQuorumConsistency      ConsistencyString = "QUORUM"
	DefaultAllConsistency         ConsistencyString = "ALL"
	DefaultLocalQuorumConsistency ConsistencyString = "LOCAL_QUORUM"
	DefaultEachQuorumConsistency  ConsistencyString = "EACH_QUORUM"
	DefaultSerialConsistency      ConsistencyString = "SERIAL"
	DefaultLocalSerialConsistency ConsistencyString = "LOCAL_SERIAL"
	DefaultLocalOneConsistency    ConsistencyString = "LOCAL_ONE"
)

var allowedSerialConsistencies = []ConsistencyString{
	DefaultSerialConsistency,
	DefaultLocalSerialConsistency,
}

var allowedConsistencies = []ConsistencyString{
	DefaultThreeConsistency,
	DefaultOneConsistency,
	DefaultTwoConsistency,
	DefaultAnyConsistency,
	DefaultQuorumConsistency,
	DefaultAllConsistency,
	DefaultLocalQuorumConsistency,
	DefaultEachQuorumConsistency,
	DefaultLocalOneConsistency,
}

// Load reads the bundle at p. A path ending in ".zip" is read as an archive
// holding one YAML document, whose certificate paths refer to archive
// entries. Relative paths of a plain YAML bundle are resolved against the
// directory of the bundle.
func Load(p string) (*Bundle, error) {
	if strings.EqualFold(filepath.Ext(p), ".zip") {
		return loadArchive(p)
	}

	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("can't open bundle path: %w", err)
	}
	b, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("can't decode bundle file at %q: %w", p, err)
	}
	b.baseDir = filepath.Dir(p)
	return b, nil
}

// Parse decodes and validates a YAML bundle. Certificate paths are used as given.
func Parse(raw []byte) (*Bundle, error) {
	b := &Bundle{}
	if err := yaml.Unmarshal(raw, b); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func loadArchive(p string) (*Bundle, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("can't open bundle path: %w", err)
	}
	defer zr.Close()

	files := make(map[string][]byte, len(zr.File))
	var docs []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.UncompressedSize64 > maxArchiveEntry {
			return nil, fmt.Errorf("bundle entry %q is larger than %d bytes", f.Name, maxArchiveEntry)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("can't open bundle entry %q: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxArchiveEntry))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("can't read bundle entry %q: %w", f.Name, err)
		}

		name := path.Clean(f.Name)
		files[name] = data
		if ext := strings.ToLower(path.Ext(name)); ext == ".yaml" || ext == ".yml" {
			docs = append(docs, name)
		}
	}

	if len(docs) != 1 {
		return nil, fmt.Errorf("bundle archive %q must hold exactly one YAML document, found %d", p, len(docs))
	}
	b, err := Parse(files[docs[0]])
	if err != nil {
		return nil, fmt.Errorf("can't decode bundle file at %q: %w", p+"!"+docs[0], err)
	}
	b.files = files
	return b, nil
}

// Validate checks that the current context points at a known datacenter and
// auth info and that the bundle parameters hold usable consistencies.
func (b *Bundle) Validate() error {
	confContext := b.Contexts[b.CurrentContext]
	if confContext == nil {
		return fmt.Errorf("current context points to unknown context")
	}
	if b.AuthInfos[confContext.AuthInfoName] == nil {
		return fmt.Errorf("context %q auth info points to unknown authinfo", b.CurrentContext)
	}
	if b.Datacenters[confContext.DatacenterName] == nil {
		return fmt.Errorf("context %q datacenter points to unknown datacenter", b.CurrentContext)
	}
	// Every datacenter is a contact point, not only the current one.
	for _, name := range b.datacenterNames() {
		if b.Datacenters[name] == nil {
			return fmt.Errorf("datacenter %q has no configuration", name)
		}
	}

	if b.Parameters == nil {
		return nil
	}
	if c := b.Parameters.DefaultConsistency; c != "" && !validateConsistency(c, allowedConsistencies) {
		return fmt.Errorf("invalid value of default consistency %q, values can be one of: %v", c, allowedConsistencies)
	}
	if c := b.Parameters.DefaultSerialConsistency; c != "" && !validateConsistency(c, allowedSerialConsistencies) {
		return fmt.Errorf("invalid value of default serial consistency %q, values can be one of: %v", c, allowedSerialConsistencies)
	}
	return nil
}

func validateConsistency(c ConsistencyString, allowed []ConsistencyString) bool {
	for _, ac := range allowed {
		if ac == c {
			return true
		}
	}
	return false
}

// ContactPoints returns the SNI proxy address of every datacenter, sorted.
func (b *Bundle) ContactPoints() []string {
	hosts := make([]string, 0, len(b.Datacenters))
	for _, dc := range b.Datacenters {
		if dc != nil {
			hosts = append(hosts, dc.Server)
		}
	}
	sort.Strings(hosts)
	return hosts
}

// InsecureSkipVerify reports whether any datacenter disables certificate checks.
func (b *Bundle) InsecureSkipVerify() bool {
	for _, dc := range b.Datacenters {
		if dc != nil && dc.InsecureSkipTLSVerify {
			return true
		}
	}
	return false
}

func (b *Bundle) datacenterNames() []string {
	names := make([]string, 0, len(b.Datacenters))
	for name := range b.Datacenters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Bundle) RootCAPool() (*x509.CertPool, error) {
	caPool := x509.NewCertPool()
	for _, dcName := range b.datacenterNames() {
		if err := b.appendCA(caPool, dcName, b.Datacenters[dcName]); err != nil {
			return nil, err
		}
	}
	return caPool, nil
}

func (b *Bundle) DatacenterCAPool(datacenterName string) (*x509.CertPool, error) {
	dc := b.Datacenters[datacenterName]
	if dc == nil {
		return nil, fmt.Errorf("datacenter %q not found in connection bundle", datacenterName)
	}

	caPool := x509.NewCertPool()
	if err := b.appendCA(caPool, datacenterName, dc); err != nil {
		return nil, err
	}
	return caPool, nil
}

func (b *Bundle) appendCA(pool *x509.CertPool, dcName string, dc *Datacenter) error {
	if dc == nil {
		return fmt.Errorf("datacenter %q has no configuration", dcName)
	}
	if len(dc.CertificateAuthorityData) == 0 && len(dc.CertificateAuthorityPath) == 0 {
		return fmt.Errorf("datacenter %q does not include certificate authority", dcName)
	}

	caData, err := b.dataOrFile(dc.CertificateAuthorityData, dc.CertificateAuthorityPath)
	if err != nil {
		return fmt.Errorf("can't read datacenter %q certificate authority file from %q: %w", dcName, dc.CertificateAuthorityPath, err)
	}
	if !pool.AppendCertsFromPEM(caData) {
		return fmt.Errorf("datacenter %q certificate authority holds no PEM certificates", dcName)
	}
	return nil
}

func (b *Bundle) dataOrFile(data []byte, p string) ([]byte, error) {
	if len(data) != 0 {
		return data, nil
	}
	if b.files != nil {
		if data, ok := b.files[path.Clean(p)]; ok {
			return data, nil
		}
		return nil, fmt.Errorf("bundle archive has no entry %q: %w", p, os.ErrNotExist)
	}
	if p != "" && !filepath.IsAbs(p) && b.baseDir != "" {
		p = filepath.Join(b.baseDir, p)
	}
	return os.ReadFile(p)
}

func (b *Bundle) CurrentContextConfig() (*Context, error) {
	if len(b.CurrentContext) == 0 {
		return nil, fmt.Errorf("current context can't be empty")
	}

	contextConf := b.Contexts[b.CurrentContext]
	if contextConf == nil {
		return nil, fmt.Errorf("context %q does not exists", b.CurrentContext)
	}
	return contextConf, nil
}

func (b *Bundle) CurrentDatacenterName() (string, error) {
	contextConf, err := b.CurrentContextConfig()
	if err != nil {
		return "", fmt.Errorf("can't get current context config: %w", err)
	}
	if len(contextConf.DatacenterName) == 0 {
		return "", fmt.Errorf("datacenterName in current context can't be empty")
	}
	return contextConf.DatacenterName, nil
}

func (b *Bundle) CurrentDatacenter() (*Datacenter, error) {
	name, err := b.CurrentDatacenterName()
	if err != nil {
		return nil, err
	}

	dcConf := b.Datacenters[name]
	if dcConf == nil {
		return nil, fmt.Errorf("datacenter %q does not exists", name)
	}
	return dcConf, nil
}

func (b *Bundle) CurrentAuthInfo() (*AuthInfo, error) {
	contextConf, err := b.CurrentContextConfig()
	if err != nil {
		return nil, fmt.Errorf("can't get current context config: %w", err)
	}
	if len(contextConf.AuthInfoName) == 0 {
		return nil, fmt.Errorf("authInfo in current context can't be empty")
	}

	authInfo := b.AuthInfos[contextConf.AuthInfoName]
	if authInfo == nil {
		return nil, fmt.Errorf("authInfo %q does not exists", contextConf.AuthInfoName)
	}
	return authInfo, nil
}

// ClientCertificate returns the key pair of the current auth info.
func (b *Bundle) ClientCertificate() (*tls.Certificate, error) {
	authInfo, err := b.CurrentAuthInfo()
	if err != nil {
		return nil, fmt.Errorf("can't get current auth info: %w", err)
	}

	clientCert, err := b.dataOrFile(authInfo.ClientCertificateData, authInfo.ClientCertificatePath)
	if err != nil {
		return nil, fmt.Errorf("can't read client certificate: %w", err)
	}

	clientKey, err := b.dataOrFile(authInfo.ClientKeyData, authInfo.ClientKeyPath)
	if err != nil {
		return nil, fmt.Errorf("can't read client key: %w", err)
	}

	cert, err := tls.X509KeyPair(clientCert, clientKey)
	if err != nil {
		return nil, fmt.Errorf("can't create x509 pair: %w", err)
	}
	return &cert, nil
}
