package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/angelmondragon/speak2see-backend/pkg/vertex"
)

type stubModel struct {
	out    string
	err    error
	prompt string
	params vertex.TextParams
}

func (s *stubModel) GenerateText(_ context.Context, prompt string, params vertex.TextParams) (string, error) {
	s.prompt, s.params = prompt, params
	return s.out, s.err
}

type stubGenerator struct {
	out string
	err error
}

func (s stubGenerator) Generate(context.Context, string) (string, error) {
	return s.out, s.err
}

func TestVertexGenerate(t *testing.T) {
	model := &stubModel{out: "  A serene landscape with dramatic lighting \n"}
	gen := NewVertex(model, 0)

	out, err := gen.Generate(context.Background(), "a quiet valley at sunset")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "A serene landscape with dramatic lighting" {
		t.Fatalf("unexpected prompt %q", out)
	}
	if !strings.Contains(model.prompt, "Text: a quiet valley at sunset\nPrompt:") {
		t.Fatalf("transcript not embedded in template: %q", model.prompt)
	}
	if model.params.Temperature != 0 || model.params.TopP != 0.9 || model.params.MaxOutputTokens != 256 {
		t.Fatalf("unexpected params %+v", model.params)
	}

	model.out = "   "
	if _, err := gen.Generate(context.Background(), "x"); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	model.err = errors.New("throttled")
	if _, err := gen.Generate(context.Background(), "x"); err == nil {
		t.Fatal("expected model error")
	}
}

func TestClippedGenerator(t *testing.T) {
	long := strings.Repeat("A", 1000)
	gen := ClippedGenerator{Next: stubGenerator{out: long}, MaxChars: 512}
	out, err := gen.Generate(context.Background(), "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 512 {
		t.Fatalf("expected 512 chars, got %d", len(out))
	}

	gen.Next = stubGenerator{err: errors.New("down")}
	if _, err := gen.Generate(context.Background(), "t"); err == nil {
		t.Fatal("expected upstream error to pass through")
	}
}

func TestClipCountsRunes(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo wörld", 4, "héll"},
		{"日本語テキスト", 3, "日本語"},
		{"anything", 0, "anything"},
	}
	for _, tc := range cases {
		got := Clip(tc.in, tc.n)
		if got != tc.want {
			t.Fatalf("Clip(%q,%d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
		if tc.n > 0 && utf8.RuneCountInString(got) > tc.n {
			t.Fatalf("Clip(%q,%d) exceeded limit", tc.in, tc.n)
		}
	}
}
