package gcp

import (
	"testing"

	"github.com/angelmondragon/printshop-backend/pkg/config"
)

func TestClientOptionsPrioritizesJSON(t *testing.T) {
	opts := ClientOptions(config.GCPConfig{
		CredentialsJSON:        `{"dummy": "value"}`,
		ApplicationCredentials: "/tmp/creds",
	})
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
}

func TestClientOptionsWithFile(t *testing.T) {
	opts := ClientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/creds"})
	if len(opts) != 1 {
		t.Fatalf("expected 1 option when using credentials file, got %d", len(opts))
	}
}

func TestClientOptionsEmpty(t *testing.T) {
	if opts := ClientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected 0 options when no credentials provided, got %d", len(opts))
	}
}
