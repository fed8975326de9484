package console

import (
	"fmt"
	"unicode"
)

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_'
}

// tokenize splits a command line into words and single character
// punctuation tokens.
func tokenize(s string) ([]string, error) {
	var out []string
	var wordstart int
	inword := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch {
		case isWordRune(runes[i]):
			if !inword {
				inword = true
				wordstart = i
			}
		case unicode.IsSpace(runes[i]):
			if inword {
				out = append(out, string(runes[wordstart:i]))
				inword = false
			}
		case runes[i] == '=',
			runes[i] == ',':
			if inword {
				out = append(out, string(runes[wordstart:i]))
				inword = false
			}
			out = append(out, string(runes[i]))
		default:
			return nil, fmt.Errorf("invalid character at index %d: %q", i, runes[i])
		}
	}
	if inword {
		out = append(out, string(runes[wordstart:]))
	}

	return out, nil
}

// args drops "=" and "," separators so "volume = 0.3" and "volume 0.3" read
// the same.
func args(tokens []string) []string {
	out := tokens[:0:0]
	for _, t := range tokens {
		if t == "=" || t == "," {
			continue
		}
		out = append(out, t)
	}
	return out
}
