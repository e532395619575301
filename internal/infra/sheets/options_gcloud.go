//go:build gcloud

package sheets

import (
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/KasumiMercury/primind-remind-escalation/internal/config"
)

// ClientOptions uses the runtime service account unless a key file is given.
func ClientOptions(cfg *config.SheetsConfig) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}

	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	return opts
}
