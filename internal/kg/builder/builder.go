package builder

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/catalog"
	"github.com/healthnet/backend/internal/kg/neo4j"
	"github.com/healthnet/backend/pkg/logger"
)

// Builder mirrors the hospital catalog into the knowledge graph so that
// doctor lookups can traverse specialty edges instead of scanning documents.
type Builder struct {
	kgClient *neo4j.Client
}

func NewBuilder(kgClient *neo4j.Client) *Builder {
	return &Builder{kgClient: kgClient}
}

// Sync merges every hospital, doctor, and specialty into the graph and wires
// the EMPLOYS, SPECIALIZES_IN, and OFFERS relationships. Merges are
// idempotent, so repeated syncs converge on the same graph.
func (b *Builder) Sync(ctx context.Context, cat *catalog.Catalog) error {
	hospitals := cat.Hospitals()
	doctors := cat.Doctors()

	specialties := make(map[string]bool)
	for _, h := range hospitals {
		for _, s := range splitSpecialties(h.Specialty) {
			specialties[s] = true
		}
	}
	for _, d := range doctors {
		for _, s := range splitSpecialties(d.Specialization) {
			specialties[s] = true
		}
	}

	for s := range specialties {
		if err := b.kgClient.MergeSpecialty(ctx, s); err != nil {
			return fmt.Errorf("failed to sync specialty %q: %w", s, err)
		}
	}

	for _, h := range hospitals {
		err := b.kgClient.MergeHospital(ctx, h.ID, h.Name, h.Location, h.BedsAvailable, h.Latitude, h.Longitude)
		if err != nil {
			return fmt.Errorf("failed to sync hospital %d: %w", h.ID, err)
		}
		for _, s := range splitSpecialties(h.Specialty) {
			if err := b.kgClient.LinkHospitalToSpecialty(ctx, h.ID, s); err != nil {
				logger.Warn("Failed to link hospital to specialty",
					zap.Int("hospital_id", h.ID), zap.String("specialty", s), zap.Error(err))
			}
		}
	}

	for _, d := range doctors {
		if err := b.kgClient.MergeDoctor(ctx, d.ID, d.Name); err != nil {
			return fmt.Errorf("failed to sync doctor %d: %w", d.ID, err)
		}
		for _, s := range splitSpecialties(d.Specialization) {
			if err := b.kgClient.LinkDoctorToSpecialty(ctx, d.ID, s); err != nil {
				logger.Warn("Failed to link doctor to specialty",
					zap.Int("doctor_id", d.ID), zap.String("specialty", s), zap.Error(err))
			}
		}
		if d.HospitalID != 0 {
			if err := b.kgClient.LinkHospitalToDoctor(ctx, d.HospitalID, d.ID); err != nil {
				logger.Warn("Failed to link hospital to doctor",
					zap.Int("hospital_id", d.HospitalID), zap.Int("doctor_id", d.ID), zap.Error(err))
			}
		}
	}

	logger.Info("Knowledge graph synced",
		zap.Int("hospitals", len(hospitals)),
		zap.Int("doctors", len(doctors)),
		zap.Int("specialties", len(specialties)),
	)

	return nil
}

func splitSpecialties(field string) []string {
	var out []string
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
