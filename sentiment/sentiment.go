// Package sentiment wraps a lexicon polarity classifier and maps its
// compound score onto the five emotion buckets.
package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"

	"github.com/deecodes/fansense/model"
)

// Scorer produces polarity scores for already-normalized text. Scoring is
// deterministic for identical input under a fixed lexicon.
type Scorer interface {
	Score(text string) model.SentimentScores
}

var _ Scorer = (*VADER)(nil)

// VADER scores text with the VADER social-media lexicon.
type VADER struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVADER() *VADER {
	return &VADER{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Score never fails: empty or whitespace-only input yields the neutral
// defaults with every score at zero.
func (v *VADER) Score(text string) model.SentimentScores {
	if strings.TrimSpace(text) == "" {
		return model.SentimentScores{}
	}
	s := v.analyzer.PolarityScores(text)
	return model.SentimentScores{
		Negative: s.Negative,
		Neutral:  s.Neutral,
		Positive: s.Positive,
		Compound: s.Compound,
	}
}

// Discretize maps a compound score in [-1,1] onto an emotion bucket:
//
//	c <= -0.60          very_negative
//	-0.60 < c < -0.05   negative
//	-0.05 <= c < 0.05   neutral
//	0.05 <= c < 0.60    positive
//	c >= 0.60           very_positive
func Discretize(compound float64) model.Emotion {
	switch {
	case compound <= -0.6:
		return model.VeryNegative
	case compound < -0.05:
		return model.Negative
	case compound < 0.05:
		return model.Neutral
	case compound < 0.6:
		return model.Positive
	default:
		return model.VeryPositive
	}
}
