package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// DefaultCredentialsFile is used when no credentials variable is set and the file exists.
const DefaultCredentialsFile = "google-credentials.json"

// ClientOptionsFromEnv resolves service-account credentials from
// GOOGLE_APPLICATION_CREDENTIALS_JSON (inline JSON) or GOOGLE_APPLICATION_CREDENTIALS
// (inline JSON or a path). With neither set, the client falls back to ADC.
func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		if _, err := os.Stat(DefaultCredentialsFile); err == nil {
			return []option.ClientOption{option.WithCredentialsFile(DefaultCredentialsFile)}
		}
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
