// Package gcp holds helpers shared by the Google Cloud clients.
package gcp

import (
	"strings"

	"google.golang.org/api/option"

	"github.com/angelmondragon/printshop-backend/pkg/config"
)

// ClientOptions picks inline JSON credentials over a credentials file. With
// neither set the client falls back to application default credentials.
func ClientOptions(cfg config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.ApplicationCredentials))
	}
	return opts
}
