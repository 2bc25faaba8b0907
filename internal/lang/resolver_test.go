package lang

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubDetector struct {
	answer string
	err    error
	sample string
}

func (d *stubDetector) Detect(_ context.Context, sample string) (string, error) {
	d.sample = sample
	return d.answer, d.err
}

func TestResolveDeclaredLanguage(t *testing.T) {
	r := NewResolver(nil, nil)

	tests := []struct {
		declared string
		want     string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"ja", "ja"},
		{"pt-BR", "pt"},
		{"zh-CN", "zh"},
	}
	for _, tt := range tests {
		if got := r.Resolve(context.Background(), tt.declared, ""); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.declared, got, tt.want)
		}
	}
}

func TestResolveFallsBackToDetector(t *testing.T) {
	det := &stubDetector{answer: "ja"}
	r := NewResolver(det, nil)

	got := r.Resolve(context.Background(), "", strings.Repeat("雨が降っていた。", 20))
	if got != "ja" {
		t.Errorf("Resolve = %q, want %q", got, "ja")
	}
	if det.sample == "" {
		t.Error("detector received empty sample")
	}
}

func TestResolveDetectorEnglishName(t *testing.T) {
	det := &stubDetector{answer: "French"}
	r := NewResolver(det, nil)

	got := r.Resolve(context.Background(), "tlh", strings.Repeat("sample text ", 20))
	if got != "fr" {
		t.Errorf("Resolve = %q, want %q", got, "fr")
	}
}

func TestResolveDetectorFailure(t *testing.T) {
	det := &stubDetector{err: errors.New("endpoint unreachable")}
	r := NewResolver(det, nil)

	got := r.Resolve(context.Background(), "", strings.Repeat("some text ", 20))
	if got != "en" {
		t.Errorf("Resolve = %q, want fallback %q", got, "en")
	}
}

func TestResolveNoDetectorNoDeclared(t *testing.T) {
	r := NewResolver(nil, nil)
	if got := r.Resolve(context.Background(), "", "whatever text"); got != "en" {
		t.Errorf("Resolve = %q, want fallback %q", got, "en")
	}
}

func TestSamplePrefersParagraph(t *testing.T) {
	short := "Too short."
	para := strings.Repeat("A paragraph of reasonable length. ", 5)
	text := short + "\n\n" + para + "\n\n" + strings.Repeat("x", 2000)

	got := Sample(text, 500)
	if got != strings.TrimSpace(para) {
		t.Errorf("Sample = %q, want the mid-length paragraph", got)
	}
}

func TestSampleParagraphWindowCountsRunes(t *testing.T) {
	// 40 characters is under the window even though the UTF-8 encoding is
	// over 100 bytes; 150 characters is inside it.
	short := strings.Repeat("短", 40)
	para := strings.Repeat("長い文章。", 30)
	text := short + "\n\n" + para

	if got := Sample(text, 500); got != para {
		t.Errorf("Sample = %q, want the paragraph of 150 characters", got)
	}
}

func TestSampleCenteredWindow(t *testing.T) {
	text := strings.Repeat("a", 400) + strings.Repeat("b", 400) + strings.Repeat("c", 400)

	got := Sample(text, 500)
	if len(got) != 500 {
		t.Fatalf("sample length = %d, want 500", len(got))
	}
	if !strings.Contains(got, "b") {
		t.Error("centered window missed the middle of the text")
	}
}

func TestSampleShortText(t *testing.T) {
	if got := Sample("  short  ", 500); got != "short" {
		t.Errorf("Sample = %q, want %q", got, "short")
	}
}

func TestSampleEmpty(t *testing.T) {
	if got := Sample("   ", 500); got != "" {
		t.Errorf("Sample = %q, want empty", got)
	}
}
