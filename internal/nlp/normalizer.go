// Package nlp implements the text normalization applied before classification.
package nlp

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/segment"
	"github.com/kljensen/snowball"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tokenizer splits text into word tokens.
type Tokenizer interface {
	Name() string
	Tokenize(text string) ([]string, error)
}

// SegmentTokenizer uses Unicode word segmentation (UAX #29).
type SegmentTokenizer struct{}

func (SegmentTokenizer) Name() string { return "segment" }

func (SegmentTokenizer) Tokenize(text string) ([]string, error) {
	seg := segment.NewWordSegmenter(strings.NewReader(text))
	var tokens []string
	for seg.Segment() {
		if seg.Type() == segment.None {
			continue
		}
		tokens = append(tokens, string(seg.Bytes()))
	}
	if err := seg.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// FieldsTokenizer splits on anything that is not a letter, digit or underscore.
type FieldsTokenizer struct{}

func (FieldsTokenizer) Name() string { return "fields" }

func (FieldsTokenizer) Tokenize(text string) ([]string, error) {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	}), nil
}

// Options configures a Normalizer.
type Options struct {
	// Language drives lowercasing rules. Defaults to Brazilian Portuguese.
	Language language.Tag
	// StemLanguages are tried in order; the first one the stemmer supports is used.
	StemLanguages []string
	Tokenizers    []Tokenizer
	StopWords     map[string]struct{}
}

// Normalizer lowercases, strips punctuation, tokenizes, drops stop words and
// stems. It holds only read-only state and is safe for concurrent use.
type Normalizer struct {
	lang       language.Tag
	stemLang   string
	tokenizers []Tokenizer
	stopWords  map[string]struct{}
	logger     *zap.Logger
}

func NewNormalizer(opts Options, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Language == language.Und {
		opts.Language = language.BrazilianPortuguese
	}
	if len(opts.StemLanguages) == 0 {
		opts.StemLanguages = []string{"portuguese", "english"}
	}
	if opts.Tokenizers == nil {
		opts.Tokenizers = []Tokenizer{SegmentTokenizer{}, FieldsTokenizer{}}
	}
	if opts.StopWords == nil {
		opts.StopWords = StopWords
	}

	n := &Normalizer{
		lang:       opts.Language,
		tokenizers: opts.Tokenizers,
		stopWords:  opts.StopWords,
		logger:     logger,
	}

	for _, lang := range opts.StemLanguages {
		if _, err := snowball.Stem("teste", lang, true); err != nil {
			logger.Info("Stemmer language not supported", zap.String("language", lang), zap.Error(err))
			continue
		}
		n.stemLang = lang
		break
	}
	if n.stemLang == "" {
		logger.Warn("No stemmer language available, tokens will not be stemmed")
	}

	return n
}

// StemLanguage returns the stemmer language in use, or "" when stemming is off.
func (n *Normalizer) StemLanguage() string {
	return n.stemLang
}

// Normalize returns the space-joined normalized tokens of text. It never fails.
func (n *Normalizer) Normalize(text string) string {
	text = cases.Lower(n.lang).String(text)
	text = stripPunctuation(text)

	tokens := n.tokenize(text)

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, stop := n.stopWords[tok]; stop || utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		kept = append(kept, n.stem(tok))
	}

	return strings.Join(kept, " ")
}

func (n *Normalizer) tokenize(text string) []string {
	for _, t := range n.tokenizers {
		tokens, err := t.Tokenize(text)
		if err == nil {
			return tokens
		}
		n.logger.Debug("Tokenizer failed, trying next", zap.String("tokenizer", t.Name()), zap.Error(err))
	}
	return strings.Fields(text)
}

func (n *Normalizer) stem(tok string) string {
	if n.stemLang == "" {
		return tok
	}
	stemmed, err := snowball.Stem(tok, n.stemLang, true)
	if err != nil || stemmed == "" {
		return tok
	}
	return stemmed
}

// stripPunctuation replaces everything but letters, digits, underscore and
// whitespace with a space.
func stripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
