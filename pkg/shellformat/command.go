// Package shellformat renders commands as shell lines that can be copied
// from a log and pasted into a terminal.
package shellformat

import (
	"strings"
	"unicode/utf8"

	"mvdan.cc/sh/v3/syntax"
)

// Option configures Command.
type Option func(*config)

type config struct {
	maxArgLen int
	lang      syntax.LangVariant
}

// WithMaxArgLen elides the middle of arguments longer than n runes.
// Zero keeps arguments whole.
func WithMaxArgLen(n int) Option {
	return func(c *config) { c.maxArgLen = n }
}

// WithPOSIX quotes for a POSIX shell instead of Bash.
func WithPOSIX() Option {
	return func(c *config) { c.lang = syntax.LangPOSIX }
}

// Command quotes name and args and joins them with spaces.
func Command(name string, args []string, opts ...Option) string {
	cfg := &config{lang: syntax.LangBash}
	for _, opt := range opts {
		opt(cfg)
	}
	words := make([]string, 0, len(args)+1)
	words = append(words, quote(name, cfg))
	for _, a := range args {
		words = append(words, quote(elide(a, cfg.maxArgLen), cfg))
	}
	return strings.Join(words, " ")
}

func quote(s string, cfg *config) string {
	q, err := syntax.Quote(s, cfg.lang)
	if err != nil {
		// Only strings with bytes no shell can represent end up here.
		q, err = syntax.Quote(strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "?"), cfg.lang)
		if err != nil {
			return "''"
		}
	}
	return q
}

func elide(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	head := n / 2
	tail := n - head
	return string(r[:head]) + "..." + string(r[len(r)-tail:])
}
