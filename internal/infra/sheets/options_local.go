//go:build !gcloud

package sheets

import (
	"google.golang.org/api/option"

	"github.com/KasumiMercury/primind-remind-escalation/internal/config"
)

// ClientOptions targets an emulator endpoint without auth when one is
// configured, otherwise a service account key file.
func ClientOptions(cfg *config.SheetsConfig) []option.ClientOption {
	if cfg.Endpoint != "" {
		return []option.ClientOption{
			option.WithEndpoint(cfg.Endpoint),
			option.WithoutAuthentication(),
		}
	}

	if cfg.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
	}

	return nil
}
