package points

import "context"

// SeedBadges loads the achievement badge catalog.
func SeedBadges(ctx context.Context, repo BadgeRepository) error {
	badges := []*Badge{
		{
			Code:        "BYOD_CHAMP",
			Name:        "BYOD Champion",
			Description: "Successfully completed the Bring Your Own Data challenge by uploading and processing a custom health dataset through the FHIR pipeline.",
			Points:      50,
		},
		{
			Code:        "FHIR_LOOP_CLOSER",
			Name:        "FHIR Loop Closer",
			Description: "Mastered the complete FHIR data lifecycle by ingesting, transforming, and operationalizing health data with published observations.",
			Points:      75,
		},
		{
			Code:        "QUIZ_MASTER",
			Name:        "Quiz Master",
			Description: "Demonstrated comprehensive FHIR knowledge by achieving high scores across all bootcamp quizzes.",
			Points:      25,
		},
	}
	for _, b := range badges {
		if err := repo.Upsert(ctx, b); err != nil {
			return err
		}
	}
	return nil
}
