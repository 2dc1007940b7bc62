package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthnet/backend/internal/llm"
)

// RuleBasedGenerator fills the justification from a fixed template. It is the
// default mode and needs no external calls.
type RuleBasedGenerator struct{}

func (RuleBasedGenerator) Name() string { return "rule" }

func (RuleBasedGenerator) Generate(_ context.Context, _ string, _ Context, rec *Recommendation) (string, error) {
	return fmt.Sprintf("Recommended based on proximity and appointment history for %s",
		strings.Join(rec.PredictedConditions, ", ")), nil
}

// LLMGenerator asks the language model for a short narrative grounded in the
// retrieved context. The structured fields stay pipeline-computed; only the
// justification text comes from the model.
type LLMGenerator struct {
	client *llm.Client
}

func NewLLMGenerator(client *llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client}
}

func (*LLMGenerator) Name() string { return "llm" }

func (g *LLMGenerator) Generate(ctx context.Context, query string, retrieved Context, rec *Recommendation) (string, error) {
	hospitalContext := strings.Join(retrieved.HospitalContext, "\n")
	doctorContext := strings.Join(retrieved.DoctorContext, "\n")

	narrative, err := g.client.GenerateNarrative(ctx, query, retrieved.PatientContext, hospitalContext, doctorContext)
	if err != nil {
		return "", err
	}

	return narrative, nil
}

// GeneratorForMode returns the generator matching the configured mode. The
// mode is validated at config load, so anything unrecognized falls back to
// the rule template.
func GeneratorForMode(mode string, client *llm.Client) Generator {
	if mode == "llm" && client != nil {
		return NewLLMGenerator(client)
	}
	return RuleBasedGenerator{}
}
