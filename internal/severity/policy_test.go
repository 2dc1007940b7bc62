package severity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthnet/backend/internal/catalog"
)

func appointments(diagnoses ...string) []catalog.Appointment {
	out := make([]catalog.Appointment, len(diagnoses))
	for i, d := range diagnoses {
		out[i] = catalog.Appointment{ID: 300 + i, PatientID: 1, DoctorID: 201, Diagnosis: d}
	}
	return out
}

func TestFrequencyPolicy_MatchedHistory(t *testing.T) {
	history := appointments("Severe abdominal pain", "Abdominal pain", "Fever")

	// Two substring matches: 10 - 2/5 = 10.
	assert.Equal(t, 10, FrequencyPolicy{}.Score("abdominal pain", history, nil))
}

func TestFrequencyPolicy_ManyMatchesLowerScore(t *testing.T) {
	var diagnoses []string
	for i := 0; i < 20; i++ {
		diagnoses = append(diagnoses, "Recurring migraine")
	}

	// 20 matches: 10 - 20/5 = 6.
	assert.Equal(t, 6, FrequencyPolicy{}.Score("migraine", appointments(diagnoses...), nil))
}

func TestFrequencyPolicy_NoMatchDefaultsToFive(t *testing.T) {
	assert.Equal(t, 5, FrequencyPolicy{}.Score("rare syndrome", appointments("Fever"), nil))
	assert.Equal(t, 5, FrequencyPolicy{}.Score("anything", nil, nil))
}

func TestFrequencyPolicy_MatchIsCaseInsensitive(t *testing.T) {
	history := appointments("SEVERE ABDOMINAL PAIN")

	assert.Equal(t, 10, FrequencyPolicy{}.Score("Severe Abdominal Pain", history, nil))
}

func TestBMIPolicy_FallsBackToBMI(t *testing.T) {
	patient := &catalog.Patient{ID: 1, Name: "John Doe", Age: 45, BMI: 27.5}

	// (27.5 - 20) * 2 = 15, clamped to 10.
	assert.Equal(t, 10, BMIPolicy{}.Score("rare syndrome", nil, patient))

	lean := &catalog.Patient{ID: 2, Name: "Jane Smith", Age: 30, BMI: 22.0}
	assert.Equal(t, 4, BMIPolicy{}.Score("rare syndrome", nil, lean))
}

func TestBMIPolicy_NilPatientDefaultsToFive(t *testing.T) {
	assert.Equal(t, 5, BMIPolicy{}.Score("rare syndrome", nil, nil))
}

func TestBMIPolicy_HistoryWinsOverBMI(t *testing.T) {
	patient := &catalog.Patient{ID: 1, BMI: 40}
	history := appointments("Vomiting")

	assert.Equal(t, 10, BMIPolicy{}.Score("vomiting", history, patient))
}

func TestScore_AlwaysInRange(t *testing.T) {
	policies := []Policy{FrequencyPolicy{}, BMIPolicy{}}
	patients := []*catalog.Patient{nil, {BMI: 10}, {BMI: 19.9}, {BMI: 50}}
	histories := [][]catalog.Appointment{
		nil,
		appointments("Fever"),
		appointments(make([]string, 100)...),
	}

	for _, p := range policies {
		for _, patient := range patients {
			for _, history := range histories {
				for i := range history {
					history[i].Diagnosis = "chronic cough"
				}
				s := p.Score("chronic cough", history, patient)
				assert.GreaterOrEqual(t, s, 1)
				assert.LessOrEqual(t, s, 10)
			}
		}
	}
}

func TestFormat(t *testing.T) {
	for n := 1; n <= 10; n++ {
		assert.Equal(t, fmt.Sprintf("%d/10", n), Format(n))
	}
}

func TestScoreAll(t *testing.T) {
	history := appointments("Severe abdominal pain", "Vomiting", "Abdominal pain", "Fever")

	scores, maxScore := ScoreAll(FrequencyPolicy{}, []string{"severe abdominal pain", "vomiting"}, history, nil)

	assert.Equal(t, map[string]string{
		"severe abdominal pain": "10/10",
		"vomiting":              "10/10",
	}, scores)
	assert.Equal(t, 10, maxScore)
}

func TestForName(t *testing.T) {
	assert.Equal(t, "bmi", ForName("bmi").Name())
	assert.Equal(t, "frequency", ForName("frequency").Name())
	assert.Equal(t, "frequency", ForName("").Name())
}
