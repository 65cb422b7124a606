package gcp

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"google.golang.org/api/option"
)

// ClientOptions resolves credentials for Google clients. Inline JSON wins over a
// credentials file; with neither, the client falls back to ADC.
func ClientOptions(gcp config.GCPConfig, extra ...option.ClientOption) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return append(opts, extra...)
}

// RegionalEndpoint returns the Vertex AI endpoint for location, e.g.
// https://us-central1-aiplatform.googleapis.com/.
func RegionalEndpoint(location string) string {
	loc := strings.TrimSpace(location)
	if loc == "" || loc == "global" {
		return "https://aiplatform.googleapis.com/"
	}
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/", loc)
}
