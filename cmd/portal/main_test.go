package main

import (
	"os"
	"testing"
)

func TestBackendMessage(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"", "Usando localhost:8000"},
		{"192.168.1.20", "Usando bip: 192.168.1.20:8000"},
		{"192.168.1.20:9000", "Usando bip: 192.168.1.20:9000"},
	}

	for _, tt := range tests {
		if got := backendMessage(tt.host); got != tt.want {
			t.Errorf("backendMessage(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestApplyFlags(t *testing.T) {
	t.Setenv("BACKEND_HOST", "from-env")
	t.Setenv("PORTAL_PORT", "3000")

	applyFlags("10.0.0.5", "")

	if got := os.Getenv("BACKEND_HOST"); got != "10.0.0.5" {
		t.Errorf("BACKEND_HOST = %q", got)
	}
	if got := os.Getenv("PORTAL_PORT"); got != "3000" {
		t.Errorf("PORTAL_PORT = %q, an empty flag must not override", got)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := rootCmd()
	for _, name := range []string{"bip", "port"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing --%s flag", name)
		}
	}
}
