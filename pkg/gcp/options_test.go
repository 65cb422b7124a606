package gcp

import (
	"testing"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"google.golang.org/api/option"
)

func TestClientOptionsPrioritizesJSON(t *testing.T) {
	gcp := config.GCPConfig{
		CredentialsJSON:        `{"dummy": "value"}`,
		ApplicationCredentials: "/tmp/creds",
	}
	if opts := ClientOptions(gcp); len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
}

func TestClientOptionsWithFile(t *testing.T) {
	gcp := config.GCPConfig{ApplicationCredentials: "/tmp/creds"}
	if opts := ClientOptions(gcp); len(opts) != 1 {
		t.Fatalf("expected 1 option when using credentials file, got %d", len(opts))
	}
}

func TestClientOptionsEmptyKeepsExtras(t *testing.T) {
	opts := ClientOptions(config.GCPConfig{}, option.WithEndpoint("http://localhost"))
	if len(opts) != 1 {
		t.Fatalf("expected only the extra option, got %d", len(opts))
	}
}

func TestRegionalEndpoint(t *testing.T) {
	cases := map[string]string{
		"":            "https://aiplatform.googleapis.com/",
		"global":      "https://aiplatform.googleapis.com/",
		"us-central1": "https://us-central1-aiplatform.googleapis.com/",
	}
	for in, want := range cases {
		if got := RegionalEndpoint(in); got != want {
			t.Fatalf("RegionalEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
