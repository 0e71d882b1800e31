/*
Copyright 2026 The llm-d Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// This file builds TLS configurations for clients of out-of-process engines.

package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ClientFiles names the PEM files of a client TLS setup. All fields are optional.
type ClientFiles struct {
	CertFile   string
	KeyFile    string
	CaCertFile string
}

// IsEmpty reports whether no file is configured.
func (f ClientFiles) IsEmpty() bool {
	return f == ClientFiles{}
}

// ClientConfig returns a client TLS config, or nil when neither files nor
// insecure mode are requested so the transport keeps Go's defaults.
func ClientConfig(insecure bool, files ClientFiles) (*tls.Config, error) {
	if !insecure && files.IsEmpty() {
		return nil, nil
	}
	conf := &tls.Config{MinVersion: tls.VersionTLS12}

	if files.CertFile != "" {
		certificate, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client key pair: %w", err) // pragma: allowlist secret
		}
		conf.Certificates = []tls.Certificate{certificate}
	}

	if insecure {
		conf.InsecureSkipVerify = true
		return conf, nil
	}
	if files.CaCertFile != "" {
		ca, err := os.ReadFile(files.CaCertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file: %w", err) // pragma: allowlist secret
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("no certificates found in %s", files.CaCertFile)
		}
		conf.RootCAs = pool
	}
	return conf, nil
}
