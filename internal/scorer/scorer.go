// Package scorer computes the 0-100 opportunity score used to rank leads.
package scorer

import (
	"strings"

	"go.uber.org/zap"

	"github.com/khabzox/business-lead-finder/internal/config"
	"github.com/khabzox/business-lead-finder/internal/model"
)

const baseScore = 20

// Scorer assigns lead scores. Scoring is a pure function of the record's
// fields: the same record always produces the same score.
type Scorer struct {
	cfg config.ScoreConfig
}

// New creates a Scorer.
func New(cfg config.ScoreConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the opportunity score for a record, clamped to [0,100].
// Low-rated businesses score highest: they are the least likely to already
// have a professional web presence. Scoring never fails; an internal panic
// degrades to a score of 0 so one bad record cannot stall the pipeline.
func (s *Scorer) Score(record model.BusinessRecord) (score int) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("scorer: recovered from panic",
				zap.String("name", record.Name),
				zap.Any("panic", r),
			)
			score = 0
		}
	}()

	score = baseScore

	// Website presence is the strongest signal either way.
	if record.HasWebsite() {
		score -= 10
	} else {
		score += 30
	}

	score += ratingPoints(record.Rating)
	score += reviewPoints(record.ReviewCount)

	if record.Phone != "" {
		score += 10
	}

	if s.isHighValueCategory(record.Category) {
		score += 15
	} else {
		score += 5
	}

	if s.inTouristArea(record.Address) {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	zap.L().Debug("scorer: lead scored",
		zap.String("name", record.Name),
		zap.Int("score", score),
		zap.String("opportunity", string(model.Opportunity(score))),
	)
	return score
}

// ratingPoints rewards low ratings: a 2-3 star business is the highest
// opportunity, an unrated one is unknown, and a 4+ star business is
// probably already established. A rating below 2.0 matches no band and
// earns nothing.
func ratingPoints(rating float64) int {
	switch {
	case rating == 0:
		return 10
	case rating >= 2.0 && rating <= 3.5:
		return 25
	case rating > 3.5 && rating <= 4.0:
		return 15
	case rating > 4.0:
		return 8
	default:
		return 0
	}
}

// reviewPoints rewards sparse review counts; a business with hundreds of
// reviews is already established online.
func reviewPoints(reviews int) int {
	switch {
	case reviews == 0:
		return 0
	case reviews <= 20:
		return 15
	case reviews <= 50:
		return 12
	case reviews <= 100:
		return 8
	default:
		return 5
	}
}

func (s *Scorer) isHighValueCategory(category string) bool {
	lower := strings.ToLower(category)
	for _, c := range s.cfg.HighValueCategories {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

func (s *Scorer) inTouristArea(address string) bool {
	lower := strings.ToLower(address)
	for _, landmark := range s.cfg.TouristLandmarks {
		if strings.Contains(lower, landmark) {
			return true
		}
	}
	return false
}
