// Package screener classifies free-text notes before they are accepted.
//
// The same classifier backs both the interactive check the map UI calls on
// every keystroke and the authoritative check run at submission time, so a
// note that passes one always passes the other.
package screener

import (
	"strings"
	"unicode"

	goaway "github.com/TwiN/go-away"
	"golang.org/x/text/unicode/norm"
)

type Verdict int

const (
	Clean Verdict = iota
	PolicyViolation
	CrisisFlag
)

func (v Verdict) String() string {
	switch v {
	case Clean:
		return "clean"
	case PolicyViolation:
		return "policy_violation"
	case CrisisFlag:
		return "crisis_flag"
	default:
		return "unknown"
	}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

const PolicyViolationMessage = "Your submission contains inappropriate language and cannot be posted."

// Result is what the interactive check returns to the UI.
type Result struct {
	Verdict Verdict `json:"verdict"`
	Blocked bool    `json:"blocked"`
	Message string  `json:"message,omitempty"`
}

type Screener struct {
	crisis        []string
	profanity     []string
	phrases       []string
	detector      *goaway.ProfanityDetector
	crisisMessage string
}

type Option func(*Screener)

// WithCrisisMessage overrides the support-resource text shown for crisis verdicts.
func WithCrisisMessage(msg string) Option {
	return func(s *Screener) {
		if msg != "" {
			s.crisisMessage = msg
		}
	}
}

// WithExtraProfanity adds site-specific words to the profanity lexicon.
func WithExtraProfanity(words ...string) Option {
	return func(s *Screener) {
		for _, w := range words {
			for _, tok := range tokens(normalize(w)) {
				s.profanity = append(s.profanity, tok)
			}
		}
	}
}

func New(opts ...Option) *Screener {
	s := &Screener{
		crisis:    crisisPhrases,
		profanity: append([]string(nil), profanityWords...),
		phrases:   profanityPhrases,
		crisisMessage: "Your submission contains concerning content. " +
			"If you're in crisis, call 988 (Suicide & Crisis Lifeline).",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.detector = goaway.NewProfanityDetector().
		WithCustomDictionary(s.profanity, falsePositives, nil)
	return s
}

// Screen is the authoritative check. Its verdict is final.
func (s *Screener) Screen(text string) Verdict {
	return s.classify(text)
}

// Quick is the cheap interactive check. It applies exactly the rules Screen does
// and adds the message the UI should show.
func (s *Screener) Quick(text string) Result {
	v := s.classify(text)
	return Result{Verdict: v, Blocked: v != Clean, Message: s.Message(v)}
}

func (s *Screener) Message(v Verdict) string {
	switch v {
	case PolicyViolation:
		return PolicyViolationMessage
	case CrisisFlag:
		return s.crisisMessage
	default:
		return ""
	}
}

func (s *Screener) classify(text string) Verdict {
	norm := normalize(text)
	if norm == "" {
		return Clean
	}

	// Crisis first: the response differs, so it must win over profanity.
	for _, phrase := range s.crisis {
		if strings.Contains(norm, phrase) {
			return CrisisFlag
		}
	}

	// Tokens are checked one at a time so that two innocent neighbours
	// ("is hit") never join into a match.
	for _, tok := range tokens(norm) {
		if s.detector.IsProfane(tok) {
			return PolicyViolation
		}
	}
	for _, phrase := range s.phrases {
		if strings.Contains(norm, phrase) {
			return PolicyViolation
		}
	}
	return Clean
}

var leet = strings.NewReplacer(
	"0", "o",
	"1", "i",
	"3", "e",
	"4", "a",
	"5", "s",
	"7", "t",
	"@", "a",
	"$", "s",
)

// normalize folds compatibility forms (fullwidth, ligatures), lower-cases,
// undoes character substitutions inside words and collapses whitespace.
func normalize(text string) string {
	words := strings.Fields(strings.ToLower(norm.NFKC.String(text)))
	for i, w := range words {
		words[i] = foldLeet(w)
	}
	return strings.Join(words, " ")
}

// foldLeet only rewrites words that are mostly letters, so numbers such as
// a room or phone number stay numbers.
func foldLeet(word string) string {
	letters, subs := 0, 0
	for _, r := range word {
		switch {
		case unicode.IsLetter(r):
			letters++
		case strings.ContainsRune("013457@$", r):
			subs++
		}
	}
	if subs == 0 || letters == 0 || subs > letters {
		return word
	}
	return leet.Replace(word)
}

func tokens(norm string) []string {
	return strings.FieldsFunc(norm, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
