package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Calculator computes content digests.
type Calculator interface {
	// CalculateRaw hashes the content as-is.
	CalculateRaw(content []byte) string

	// CalculateNormalized hashes the content after normalization.
	CalculateNormalized(content []byte) string

	// Combine hashes the normalized form of every part, in order.
	Combine(parts ...[]byte) string
}

// SHA256 is a zero-size Calculator backed by SHA-256.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of normalized content.
func (c SHA256) CalculateNormalized(content []byte) string {
	hash := sha256.Sum256([]byte(Normalize(string(content))))
	return hex.EncodeToString(hash[:])
}

// Combine computes a digest over the normalized parts. A NUL separator keeps
// ("ab", "c") and ("a", "bc") distinct.
func (c SHA256) Combine(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(Normalize(string(p))))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize strips -- and /* */ comments, collapses whitespace runs to a single
// space and lower-cases text outside single-quoted literals.
func Normalize(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))

	pendingSpace := false
	emit := func(r rune) {
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}

	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case r == '-' && next == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			pendingSpace = true

		case r == '/' && next == '*':
			depth := 0
			for ; i < len(runes); i++ {
				if runes[i] == '/' && i+1 < len(runes) && runes[i+1] == '*' {
					depth++
					i++
				} else if runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/' {
					depth--
					i++
					if depth == 0 {
						break
					}
				}
			}
			pendingSpace = true

		case r == '\'':
			emit(r)
			for i++; i < len(runes); i++ {
				b.WriteRune(runes[i])
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						i++
						b.WriteRune(runes[i])
						continue
					}
					break
				}
			}

		case unicode.IsSpace(r):
			pendingSpace = true

		default:
			emit(unicode.ToLower(r))
		}
	}

	return b.String()
}
