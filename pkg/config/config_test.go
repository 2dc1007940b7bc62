package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "fixture", cfg.Dataset.Source)
	assert.Equal(t, 1, cfg.Retrieval.PatientTopK)
	assert.Equal(t, 50, cfg.Retrieval.HospitalTopK)
	assert.Equal(t, 2, cfg.Retrieval.DoctorTopK)
	assert.Equal(t, "frequency", cfg.Severity.Policy)
	assert.Equal(t, "rule", cfg.Generator.Mode)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.KG.Enabled)
}

func TestValidate_RejectsBadEnums(t *testing.T) {
	base := func() *Config {
		return &Config{
			Dataset:   DatasetConfig{Source: "fixture"},
			Severity:  SeverityConfig{Policy: "frequency"},
			Generator: GeneratorConfig{Mode: "rule"},
			Retrieval: RetrievalConfig{PatientTopK: 1, HospitalTopK: 50, DoctorTopK: 2},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Dataset.Source = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Dataset.Source = "csv"
	assert.Error(t, cfg.Validate(), "csv source requires a directory")
	cfg.Dataset.Dir = "./data"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Severity.Policy = "random"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Generator.Mode = "markov"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Retrieval.HospitalTopK = 0
	assert.Error(t, cfg.Validate())
}
