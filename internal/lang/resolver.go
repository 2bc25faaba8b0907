package lang

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Detector is the external language-detection endpoint: it receives a text
// sample and answers with a language name or tag, or "" when it cannot
// tell. Network detectors live outside this module.
type Detector interface {
	Detect(ctx context.Context, sample string) (string, error)
}

// supported is the fixed set of languages the reading surface can handle.
var supported = []language.Tag{
	language.English, // first entry doubles as the fallback
	language.Japanese,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Portuguese,
	language.Russian,
	language.Korean,
	language.SimplifiedChinese,
}

var matcher = language.NewMatcher(supported)

// Fallback is the language used when nothing else resolves.
var Fallback = language.English

const (
	sampleLimit = 500
	paraMinLen  = 100
	paraMaxLen  = 1000
)

// Resolver decides a book's language: declared metadata first, detection on
// a text sample second, fixed fallback last.
type Resolver struct {
	det Detector
	log *zap.Logger
}

// NewResolver builds a Resolver. det may be nil, in which case only the
// declared language and the fallback are consulted.
func NewResolver(det Detector, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{det: det, log: log}
}

// Resolve returns the base language code (e.g. "en", "ja") for a book.
// declared is the package metadata language, text the normalized book text
// for sampling.
func (r *Resolver) Resolve(ctx context.Context, declared, text string) string {
	if tag, ok := matchSupported(declared); ok {
		return baseOf(tag)
	}
	if declared != "" {
		r.log.Debug("declared language unsupported, sampling text",
			zap.String("declared", declared))
	}

	if r.det != nil {
		sample := Sample(text, sampleLimit)
		if sample != "" {
			name, err := r.det.Detect(ctx, sample)
			if err != nil {
				r.log.Warn("language detection failed", zap.Error(err))
			} else if tag, ok := matchSupported(name); ok {
				return baseOf(tag)
			} else if name != "" {
				r.log.Debug("detector returned unsupported language",
					zap.String("language", name))
			}
		}
	}
	return baseOf(Fallback)
}

// Sample picks up to limit characters of text for detection: the first
// paragraph between paraMinLen and paraMaxLen characters, else a window of
// limit characters centered in the full text.
func Sample(text string, limit int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if n := utf8.RuneCountInString(para); n >= paraMinLen && n <= paraMaxLen {
			return truncate(para, limit)
		}
	}
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	start := (len(r) - limit) / 2
	return string(r[start : start+limit])
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// matchSupported parses a language name or tag and matches it against the
// supported set with high confidence required. Detectors may answer with an
// English language name rather than a tag; the name table is consulted first
// because names like "french" also parse as valid BCP 47 subtags and would
// otherwise dead-end in a low-confidence match.
func matchSupported(name string) (language.Tag, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return language.Und, false
	}
	if t, ok := byEnglishName(name); ok {
		return t, true
	}
	tag, err := language.Parse(name)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf < language.High {
		return language.Und, false
	}
	return supported[idx], true
}

var englishNames = map[string]language.Tag{
	"english":    language.English,
	"japanese":   language.Japanese,
	"german":     language.German,
	"french":     language.French,
	"spanish":    language.Spanish,
	"italian":    language.Italian,
	"portuguese": language.Portuguese,
	"russian":    language.Russian,
	"korean":     language.Korean,
	"chinese":    language.SimplifiedChinese,
}

func byEnglishName(name string) (language.Tag, bool) {
	t, ok := englishNames[strings.ToLower(name)]
	return t, ok
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
