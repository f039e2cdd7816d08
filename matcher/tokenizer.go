package matcher

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// minTokenLength is the shortest token kept; shorter tokens are filler.
const minTokenLength = 3

// placeholderWord marks generic "Compound N" names that never match.
const placeholderWord = "COMPOUND"

// StopWords is the vocabulary of salts, counter-ions, substituents, hydrate
// states, pharmacopeia abbreviations and dosage-form noise that carries no
// discriminating information about an API.
var StopWords = NewStopWords(
	// acids, cations and salts
	"ACID", "SODIUM", "POTASSIUM", "CALCIUM", "MAGNESIUM", "HYDROCHLORIDE",
	"DIHYDROCHLORIDE", "HCL", "HYDROBROMIDE", "HBR", "ACETATE", "TARTRATE",
	"CITRATE", "MALEATE", "FUMARATE", "MESYLATE", "BESYLATE", "TOSYLATE",
	"SUCCINATE", "PHOSPHATE", "SULFATE", "BASE", "BENZOATE", "PAMOATE",
	"ESTOLATE", "GLUCEPTATE", "GLUCONATE", "LACTATE", "STEARATE", "MALATE",
	"OXALATE", "SALT",
	// substituents and chemical groups
	"ETHYL", "METHYL", "PROPYL", "BUTYL", "PHENYL", "BENZYL", "ESTER",
	"CHAIN", "SIDE", "PROTECTED", "FRAGMENT",
	// hydrate states
	"HYDRATE", "MONOHYDRATE", "DIHYDRATE", "TRIHYDRATE", "HEMIHYDRATE",
	"SESQUIHYDRATE", "ANHYDROUS",
	// pharmacopeias
	"USP", "EP", "BP", "JP",
	// dosage forms
	"TABLETS", "CAPSULES", "INJECTION", "SOLUTION", "ORAL", "EXTENDED",
	"RELEASE",
	// generic noise
	"API", "NAME", "PRODUCT", "DRUG", "SUBSTANCE", "UNKNOWN", "AND", "WITH",
	"FORM", "TYPE", "CLASS", "GRADE", "GROUP", "PART", "COMPOUND", "IMPURITY",
	"NEW", "NAB", "FULL",
)

// StopWordSet is an uppercase word vocabulary.
type StopWordSet map[string]struct{}

// NewStopWords builds a set from words, uppercasing them.
func NewStopWords(words ...string) StopWordSet {
	set := make(StopWordSet, len(words))
	for _, w := range words {
		set[strings.ToUpper(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

// Contains reports whether word (already uppercase) is a stop word.
func (s StopWordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// cleanForTokens uppercases a name and turns hyphens into spaces.
func cleanForTokens(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToUpper(name), "-", " "))
}

// CoreTokens returns the discriminating tokens of a canonical name, sorted.
//
// Tokens shorter than three characters and stop words are dropped. When
// nothing survives, the whole cleaned name becomes the only token, except
// for "Compound" placeholder names, which yield no tokens at all.
func CoreTokens(name string, stop StopWordSet) []string {
	cleaned := cleanForTokens(name)
	if cleaned == "" {
		return nil
	}

	words := strings.Fields(cleaned)
	seen := make(map[string]struct{}, len(words))
	var tokens []string
	placeholder := false
	for _, w := range words {
		if w == placeholderWord {
			placeholder = true
		}
		if utf8.RuneCountInString(w) < minTokenLength || stop.Contains(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}

	if len(tokens) == 0 {
		if placeholder {
			return nil
		}
		return []string{strings.Join(words, " ")}
	}

	sort.Strings(tokens)
	return tokens
}
