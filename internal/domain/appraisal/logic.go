package appraisal

import (
	"math"
	"strings"
)

func ValidateObjectives(objectives []ObjectiveInput) error {
	if len(objectives) == 0 {
		return ErrNoObjectives
	}
	total := 0
	for _, o := range objectives {
		if strings.TrimSpace(o.Title) == "" || o.Weight <= 0 {
			return ErrWeightTotal
		}
		total += o.Weight
	}
	if total != 100 {
		return ErrWeightTotal
	}
	return nil
}

func validScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// Score is the weighted average of lead scores. An objective the lead has not
// scored contributes its self score. ok is false when nothing is scored.
func (a Appraisal) Score() (float64, bool) {
	var sum, weights float64
	for _, o := range a.Objectives {
		score := o.LeadScore
		if score == nil {
			score = o.SelfScore
		}
		if score == nil {
			continue
		}
		sum += float64(*score) * float64(o.Weight)
		weights += float64(o.Weight)
	}
	if weights == 0 {
		return 0, false
	}
	return math.Round(sum/weights*100) / 100, true
}

func (a Appraisal) selfScored() bool {
	for _, o := range a.Objectives {
		if o.SelfScore == nil {
			return false
		}
	}
	return len(a.Objectives) > 0
}

// apply writes scores onto the matching objectives, lead or self.
func (a *Appraisal) apply(in Assessment, lead bool) error {
	index := make(map[string]int, len(a.Objectives))
	for i, o := range a.Objectives {
		index[o.ID] = i
	}
	for _, s := range in.Scores {
		if !validScore(s.Score) {
			return ErrInvalidScore
		}
		i, ok := index[s.ObjectiveID]
		if !ok {
			return ErrUnknownObjective
		}
		score := s.Score
		if lead {
			a.Objectives[i].LeadScore = &score
		} else {
			a.Objectives[i].SelfScore = &score
		}
		if c := strings.TrimSpace(s.Comment); c != "" {
			a.Objectives[i].Comment = c
		}
	}
	if lead {
		a.LeadComment = strings.TrimSpace(in.Comment)
	} else {
		a.SelfComment = strings.TrimSpace(in.Comment)
	}
	return nil
}
