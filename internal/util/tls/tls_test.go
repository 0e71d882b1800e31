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

package tls

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClientConfig(t *testing.T) {
	dir := t.TempDir()
	badCA := filepath.Join(dir, "ca.pem")
	if err := os.WriteFile(badCA, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	tests := []struct {
		name     string
		insecure bool
		files    ClientFiles
		wantNil  bool
		wantErr  bool
	}{
		{name: "defaults", wantNil: true},
		{name: "insecure", insecure: true},
		{name: "missing ca file", files: ClientFiles{CaCertFile: filepath.Join(dir, "missing.pem")}, wantErr: true},
		{name: "ca without certificates", files: ClientFiles{CaCertFile: badCA}, wantErr: true},
		{name: "missing key pair", files: ClientFiles{CertFile: filepath.Join(dir, "c.pem"), KeyFile: filepath.Join(dir, "k.pem")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, err := ClientConfig(tt.insecure, tt.files)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil != (conf == nil) {
				t.Fatalf("expected nil config=%v, got %v", tt.wantNil, conf)
			}
			if tt.insecure && !conf.InsecureSkipVerify {
				t.Errorf("expected InsecureSkipVerify")
			}
		})
	}
}
