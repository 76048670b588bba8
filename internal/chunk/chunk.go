// Package chunk splits long text into pieces that fit a chat message.
package chunk

import (
	"strings"
	"unicode"
)

// TelegramLimit is the hard message size enforced by Telegram.
const TelegramLimit = 4096

// Split cuts text into chunks of at most limit characters (runes).
//
// Cuts are greedy: each chunk is the longest prefix that ends right before a
// blank line, otherwise right before a line break, otherwise exactly limit
// runes long. A line holding only whitespace ("\r" included) counts as blank.
// Blank lines at a cut are consumed, trailing whitespace is trimmed and blank
// chunks are never returned. Text without visible characters gives nil
// whatever its length; other text that fits in limit is returned verbatim.
func Split(text string, limit int) []string {
	if limit < 1 {
		limit = 1
	}

	rest := []rune(text)
	if !hasText(rest) {
		return nil
	}
	if len(rest) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(rest) > 0 {
		if len(rest) <= limit {
			chunks = appendChunk(chunks, rest)
			break
		}

		cut := cutPoint(rest, limit)
		chunks = appendChunk(chunks, rest[:cut])

		rest = skipBlankLines(rest[cut:])
	}

	return chunks
}

// Ищем сначала пустую строку, потом перевод строки, иначе режем жестко
func cutPoint(r []rune, limit int) int {
	if i := lastBreak(r, limit, true); i > 0 {
		return i
	}
	if i := lastBreak(r, limit, false); i > 0 {
		return i
	}
	return limit
}

// lastBreak returns the largest i <= limit such that r[i] starts a separator
// and r[:i] has visible text, or -1.
func lastBreak(r []rune, limit int, blankLine bool) int {
	start := limit
	if start > len(r)-1 {
		start = len(r) - 1
	}

	for i := start; i > 0; i-- {
		if r[i] != '\n' {
			continue
		}
		if blankLine && !blankLineAt(r, i+1) {
			continue
		}
		if hasText(r[:i]) {
			return i
		}
	}

	return -1
}

// blankLineAt reports whether the line starting at r[i] holds only whitespace
// and ends with a line break.
func blankLineAt(r []rune, i int) bool {
	for ; i < len(r); i++ {
		if r[i] == '\n' {
			return true
		}
		if !unicode.IsSpace(r[i]) {
			return false
		}
	}
	return false
}

// Съедаем пустые строки в начале остатка, отступ строки с текстом сохраняется
func skipBlankLines(r []rune) []rune {
	for {
		i := 0
		for i < len(r) && r[i] != '\n' && unicode.IsSpace(r[i]) {
			i++
		}
		if i >= len(r) || r[i] != '\n' {
			return r
		}
		r = r[i+1:]
	}
}

func hasText(r []rune) bool {
	for _, c := range r {
		if !unicode.IsSpace(c) {
			return true
		}
	}
	return false
}

func appendChunk(chunks []string, r []rune) []string {
	s := strings.TrimRightFunc(string(r), unicode.IsSpace)
	if strings.TrimSpace(s) == "" {
		return chunks
	}
	return append(chunks, s)
}
