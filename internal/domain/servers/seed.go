package servers

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SeedServers registers the lab's local HAPI instance and the public
// sandbox so the registry is usable out of the box.
func SeedServers(ctx context.Context, repo ServerRepository, localBaseURL, publicBaseURL string) error {
	now := time.Now().UTC()
	demo := []*FhirServer{
		{
			ID:          uuid.New(),
			Name:        "Local HAPI FHIR",
			BaseURL:     localBaseURL,
			FHIRVersion: "4.0.1",
			IsPublic:    false,
			CreatedAt:   now,
		},
		{
			ID:          uuid.New(),
			Name:        "HAPI Public Sandbox",
			BaseURL:     publicBaseURL,
			FHIRVersion: "4.0.1",
			IsPublic:    true,
			CreatedAt:   now,
		},
	}
	for _, s := range demo {
		if err := repo.Create(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
