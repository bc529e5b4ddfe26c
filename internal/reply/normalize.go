package reply

import (
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// Normalizer runs a raw response through interpretation, sanitizing, capping
// and typography.
type Normalizer struct {
	fontSize string
	maxChars int
	logger   *slog.Logger
}

// Options configures a Normalizer
type Options struct {
	FontSize string
	MaxChars int
	Logger   *slog.Logger
}

// NewNormalizer creates a Normalizer, filling unset options with defaults
func NewNormalizer(opts Options) *Normalizer {
	if opts.FontSize == "" {
		opts.FontSize = DefaultFontSize
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = MaxChars
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Normalizer{
		fontSize: opts.FontSize,
		maxChars: opts.MaxChars,
		logger:   opts.Logger,
	}
}

// Normalize converts a raw response body into a sanitized, size-capped,
// font-size-annotated HTML fragment.
func (n *Normalizer) Normalize(raw string) (string, error) {
	interpreted, err := Interpret(raw)
	if err != nil {
		return "", err
	}

	sanitized := Sanitize(interpreted)

	capped := Cap(sanitized, n.maxChars)
	if capped != sanitized {
		n.logger.Warn("reply truncated",
			"chars", utf8.RuneCountInString(sanitized), "limit", n.maxChars)
	}

	out, err := EnforceFontSize(capped, n.fontSize)
	if err != nil {
		return "", fmt.Errorf("normalizing typography: %w", err)
	}
	return out, nil
}
