// Package sentiment classifies the tone of a submission from its free-text
// fields using fixed vocabularies. The word lists are the compatibility
// contract with previously classified records and must not be edited.
package sentiment

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

var positiveStems = []string{
	"improve", "better", "efficient", "increase", "enhance", "optimize", "boost", "upgrade",
	"streamline", "accelerate", "maximize", "minimize", "reduce", "save", "benefit", "advantage",
	"success", "excellent", "great", "outstanding", "effective", "productive", "innovative",
	"solution", "solve", "resolve", "fix", "repair", "help", "support", "enable", "facilitate",
	"empower", "transform", "revolutionize", "advance", "progress", "growth", "profit", "gain",
	"quality", "excellence", "superior", "optimal", "best", "top", "leading", "cutting-edge",
}

var negativeStems = []string{
	"problem", "issue", "issues", "fail", "error", "errors", "broken", "slow", "difficult", "challenge", "barrier",
	"obstacle", "bottleneck", "inefficient", "waste", "loss", "decline", "decrease", "deteriorate",
	"worse", "worst", "poor", "bad", "terrible", "awful", "horrible", "unacceptable", "bug", "bugs",
	"critical", "urgent", "emergency", "crisis", "risk", "danger",
	"threat", "concern", "worry", "frustration", "complaint", "dissatisfaction", "disappointment",
	"failure", "breakdown", "malfunction", "defect", "flaw", "weakness", "vulnerability",
	"inadequate", "insufficient", "lack", "shortage", "deficit", "gap", "delay", "wait", "poorly",
}

var negationPhrases = []string{
	"not good", "not great", "not working", "not work", "not acceptable", "no improvement",
	"doesn't work", "dont work", "don't work", "isn't working", "isnt working",
	"cannot", "can't", "cant", "never works", "fails to",
}

var strongNegatives = []string{
	"worst", "terrible", "awful", "horrible", "crisis", "emergency", "critical", "unacceptable",
}

const (
	solutionBonusLen = 50
	benefitBonusLen  = 30
)

var (
	positiveRE = compileStems(positiveStems)
	negativeRE = compileStems(negativeStems)
	negationRE = compileLiterals(negationPhrases)
	strongRE   = compileLiterals(strongNegatives)
)

// A stem matches any whole word that starts with it ("improve" matches
// "improvement"). Go's \b and \w are ASCII-only, same as the vocabulary.
func compileStems(stems []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(stems))
	for i, s := range stems {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(s) + `\w*\b`)
	}
	return out
}

func compileLiterals(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// Score holds the raw tallies behind a classification.
type Score struct {
	Positive       int  `json:"positive"`
	Negative       int  `json:"negative"`
	StrongNegative bool `json:"strongNegative"`
}

// Diff is Positive minus Negative.
func (s Score) Diff() int { return s.Positive - s.Negative }

// dottedI lowercases U+0130 to "i" plus a combining dot above, as the full
// Unicode special casing does, instead of a bare "i".
var dottedI = strings.NewReplacer("\u0130", "i\u0307")

// lower is strings.ToLower with full special casing for U+0130.
func lower(s string) string {
	return strings.ToLower(dottedI.Replace(s))
}

// Scores computes the tallies for a submission. benefit may be empty.
func Scores(problem, solution, benefit string) Score {
	text := lower(problem + " " + solution + " " + benefit)

	var sc Score
	sc.Positive = countAll(positiveRE, text)
	sc.Negative = countAll(negativeRE, text) + countAll(negationRE, text)

	if jsLen(solution) > solutionBonusLen {
		sc.Positive++
	}
	if benefit != "" && jsLen(benefit) > benefitBonusLen {
		sc.Positive++
	}

	for _, re := range strongRE {
		if re.MatchString(text) {
			sc.StrongNegative = true
			break
		}
	}
	return sc
}

// Classify returns the sentiment of a submission.
func Classify(problem, solution, benefit string) domain.Sentiment {
	return Decide(Scores(problem, solution, benefit))
}

// Decide maps tallies to a sentiment.
func Decide(sc Score) domain.Sentiment {
	diff := sc.Diff()
	switch {
	case sc.StrongNegative && sc.Negative >= 1 && diff < 2:
		return domain.SentimentNegative
	case diff >= 2:
		return domain.SentimentPositive
	case diff <= -1:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func countAll(res []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range res {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// jsLen is the length in UTF-16 code units; stored thresholds were measured
// that way.
func jsLen(s string) int { return UTF16Len(s) }

// UTF16Len is the length of s in UTF-16 code units. Characters outside the
// Basic Multilingual Plane count twice.
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}
