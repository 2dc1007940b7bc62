// Package severity scores conditions on a 1-10 scale from historical
// appointment data. The score is an inverse-frequency heuristic, not a
// clinical judgment: conditions that show up often in the history are treated
// as more common and therefore less urgent.
package severity

import (
	"fmt"
	"math"
	"strings"

	"github.com/healthnet/backend/internal/catalog"
)

const defaultScore = 5

// Policy decides the score when no historical appointment mentions the
// condition. Score always returns a value in [1, 10].
type Policy interface {
	Name() string
	Score(condition string, history []catalog.Appointment, patient *catalog.Patient) int
}

// FrequencyPolicy is the primary policy: a flat default when the history is
// silent about the condition.
type FrequencyPolicy struct{}

func (FrequencyPolicy) Name() string { return "frequency" }

func (FrequencyPolicy) Score(condition string, history []catalog.Appointment, _ *catalog.Patient) int {
	if n := matchCount(condition, history); n > 0 {
		return fromFrequency(n)
	}
	return defaultScore
}

// BMIPolicy is the alternate policy: when the history is silent, derive the
// score from the patient's BMI instead.
type BMIPolicy struct{}

func (BMIPolicy) Name() string { return "bmi" }

func (BMIPolicy) Score(condition string, history []catalog.Appointment, patient *catalog.Patient) int {
	if n := matchCount(condition, history); n > 0 {
		return fromFrequency(n)
	}
	if patient == nil {
		return defaultScore
	}
	return clamp(int(math.Round((patient.BMI - 20) * 2)))
}

// ForName returns the policy registered under name, defaulting to frequency.
func ForName(name string) Policy {
	if name == "bmi" {
		return BMIPolicy{}
	}
	return FrequencyPolicy{}
}

// Format renders a score as the wire form "N/10".
func Format(score int) string {
	return fmt.Sprintf("%d/10", score)
}

// ScoreAll maps each condition to its formatted score and returns the maximum
// raw score, which drives the ranker's distance threshold.
func ScoreAll(policy Policy, conditions []string, history []catalog.Appointment, patient *catalog.Patient) (map[string]string, int) {
	scores := make(map[string]string, len(conditions))
	maxScore := 1

	for _, condition := range conditions {
		s := policy.Score(condition, history, patient)
		scores[condition] = Format(s)
		if s > maxScore {
			maxScore = s
		}
	}

	return scores, maxScore
}

func matchCount(condition string, history []catalog.Appointment) int {
	needle := strings.ToLower(condition)
	count := 0
	for _, appt := range history {
		if strings.Contains(strings.ToLower(appt.Diagnosis), needle) {
			count++
		}
	}
	return count
}

func fromFrequency(matches int) int {
	return clamp(10 - matches/5)
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
