package spec

import (
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s for tokenized matching: NFC, then Unicode lower case.
func Normalize(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// TokenPattern matches one token: a maximal run of letters and decimal
// digits. The search index tokenizes with the same pattern.
const TokenPattern = `[\p{L}\p{Nd}]+`

var tokenRe = regexp.MustCompile(TokenPattern)

// Tokens splits s into normalized tokens at every rune that is neither a
// letter nor a digit.
func Tokens(s string) []string {
	return tokenRe.FindAllString(Normalize(s), -1)
}

func containsAll(tokens, want []string) bool {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

func containsRun(tokens, run []string) bool {
	if len(run) == 0 || len(run) > len(tokens) {
		return false
	}
	for i := 0; i+len(run) <= len(tokens); i++ {
		match := true
		for j := range run {
			if tokens[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
