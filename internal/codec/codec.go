// Package codec maps text to a sequence of two-digit numeric tokens and back.
// Each supported character has exactly one token; tokens follow the order of
// the alphabet so the mapping is order preserving.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

const alphabet = " !'(),-.0123456789:;?@ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const replacement = '?'

var ErrUnsupported = errors.New("unsupported character")

var (
	tokenByRune = make(map[rune]string, len(alphabet))
	runeByToken = make(map[string]rune, len(alphabet))
)

func init() {
	for i, r := range alphabet {
		tok := fmt.Sprintf("%02d", i+1)
		tokenByRune[r] = tok
		runeByToken[tok] = r
	}
}

// Supported reports whether every rune of text is in the alphabet.
func Supported(text string) bool {
	for _, r := range text {
		if _, ok := tokenByRune[r]; !ok {
			return false
		}
	}
	return true
}

func Encode(text string) ([]string, error) {
	tokens := make([]string, 0, len(text))
	for i, r := range text {
		tok, ok := tokenByRune[r]
		if !ok {
			return nil, fmt.Errorf("%w %q at offset %d", ErrUnsupported, r, i)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func Decode(tokens []string) (string, error) {
	var b strings.Builder
	b.Grow(len(tokens))
	for i, tok := range tokens {
		r, ok := runeByToken[tok]
		if !ok {
			return "", fmt.Errorf("unknown token %q at position %d", tok, i)
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Sanitize replaces unsupported runes so the result always encodes.
func Sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		if _, ok := tokenByRune[r]; ok {
			return r
		}
		return replacement
	}, text)
}

// Format encodes text after sanitizing it and joins the tokens with spaces.
func Format(text string) string {
	tokens, _ := Encode(Sanitize(text))
	return strings.Join(tokens, " ")
}
