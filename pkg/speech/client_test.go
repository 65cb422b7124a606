package speech

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"
)

func TestJoinTranscript(t *testing.T) {
	payload := []byte(`{"results":[
		{"alternatives":[{"transcript":"a dog ","confidence":0.9},{"transcript":"a fog"}]},
		{"alternatives":[]},
		{"alternatives":[{"transcript":"on a beach"}]}
	]}`)
	got, err := JoinTranscript(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a dog on a beach" {
		t.Fatalf("unexpected transcript %q", got)
	}

	if _, err := JoinTranscript([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
	if got, err := JoinTranscript([]byte(`{}`)); err != nil || got != "" {
		t.Fatalf("expected empty transcript, got %q err=%v", got, err)
	}
}

func TestFromAPI(t *testing.T) {
	op := fromAPI(&speechapi.Operation{Name: "123", Done: true, Error: &speechapi.Status{Code: 3, Message: "bad audio"}})
	if !op.Failed() {
		t.Fatal("expected failed operation")
	}

	op = fromAPI(&speechapi.Operation{Name: "123", Done: false})
	if op.Failed() || op.Done {
		t.Fatal("running operation should be neither done nor failed")
	}

	op = fromAPI(&speechapi.Operation{Name: "123", Done: true, Response: []byte(`{"results":[]}`)})
	if op.Failed() || string(op.Response) != `{"results":[]}` {
		t.Fatalf("unexpected completed op %+v", op)
	}
}

func TestRecognitionConfigDefaults(t *testing.T) {
	c := New(config.GCPConfig{}, config.SpeechConfig{LanguageCode: "en-US", Model: "default", MaxAlternatives: 1})
	rc := c.recognitionConfig("")
	if rc.LanguageCode != "en-US" || rc.SampleRateHertz != 0 {
		t.Fatalf("unexpected config %+v", rc)
	}
	if rc := c.recognitionConfig("es-ES"); rc.LanguageCode != "es-ES" {
		t.Fatalf("expected language override, got %q", rc.LanguageCode)
	}
}

func TestStartRecognitionValidatesURIBeforeDialing(t *testing.T) {
	c := New(config.GCPConfig{}, config.SpeechConfig{})
	c.newService = func(ctx context.Context, opts ...option.ClientOption) (*speechapi.Service, error) {
		t.Fatal("service should not be constructed")
		return nil, nil
	}
	if _, err := c.StartRecognition(context.Background(), "", "en-US"); err == nil {
		t.Fatal("expected uri error")
	}
}

func TestServiceInitFailureIsReturned(t *testing.T) {
	c := New(config.GCPConfig{}, config.SpeechConfig{})
	c.newService = func(ctx context.Context, opts ...option.ClientOption) (*speechapi.Service, error) {
		return nil, errors.New("no credentials")
	}
	if _, err := c.Operation(context.Background(), "op"); err == nil {
		t.Fatal("expected init error")
	}
}
