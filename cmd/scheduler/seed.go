package main

import (
	"context"
	"fmt"
	crewservice "tourdesk/internal/crew/service"
	resourcesservice "tourdesk/internal/resources/service"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/model"
)

const seedActor = "seed"

// applySeed upserts the seeded directories and declares the seeded
// maintenance windows. Running it twice leaves the same state: windows
// that already exist come back as conflicts and are skipped.
func applySeed(ctx context.Context, seed *config.Seed, resources resourcesservice.ResourceService, crew crewservice.CrewService, cfg *config.Config) error {
	for _, r := range seed.Resources {
		resource := &model.Resource{
			ID:       r.ID,
			Name:     r.Name,
			Kind:     model.ResourceKind(r.Kind),
			Capacity: r.Capacity,
		}
		if err := resources.Upsert(ctx, resource); err != nil {
			return fmt.Errorf("seed resource %s: %w", r.ID, err)
		}
	}

	for _, c := range seed.Crew {
		member := &model.CrewMember{
			ID:             c.ID,
			Name:           c.Name,
			Qualifications: c.Qualifications,
		}
		if err := crew.Upsert(ctx, member); err != nil {
			return fmt.Errorf("seed crew member %s: %w", c.ID, err)
		}
	}

	for _, mw := range seed.Maintenance {
		req := &model.MaintenanceRequest{
			Window: model.TimeWindow{Date: mw.Date, Start: mw.Start, End: mw.End},
			Note:   mw.Note,
		}
		if _, err := resources.DeclareMaintenance(ctx, mw.ResourceID, req, seedActor); err != nil {
			if apperrors.HasCode(err, apperrors.CodeConflict) {
				cfg.Log.Warn("Skipping seeded maintenance window",
					"resource_id", mw.ResourceID, "date", mw.Date, "start", mw.Start, "end", mw.End, "reason", err.Error())
				continue
			}
			return fmt.Errorf("seed maintenance for %s on %s: %w", mw.ResourceID, mw.Date, err)
		}
	}

	cfg.Log.Info("Seed applied",
		"resources", len(seed.Resources),
		"crew", len(seed.Crew),
		"maintenance", len(seed.Maintenance),
	)
	return nil
}
