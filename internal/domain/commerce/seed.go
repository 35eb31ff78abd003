package commerce

import "context"

// SeedCatalog loads the demo products, prices and courses. Upserts keep the
// operation idempotent across restarts.
func SeedCatalog(ctx context.Context, catalog CatalogRepository) error {
	products := []*Product{
		{
			SKU:         "bootcamp_basic",
			Name:        "FHIR Bootcamp - Basic Access",
			Description: "3-day hands-on FHIR healthcare interoperability bootcamp with basic lab access and community support.",
			Active:      true,
			Features:    []string{"3-day lab access", "Community support", "Certificate of completion"},
		},
		{
			SKU:         "bootcamp_plus",
			Name:        "FHIR Bootcamp - Plus Access",
			Description: "Premium FHIR bootcamp experience with extended lab access, 1-on-1 mentoring, and advanced deep-dive modules.",
			Active:      true,
			Features:    []string{"Extended lab access", "1-on-1 mentoring", "Advanced modules", "Priority support", "Premium certificate"},
		},
		{
			SKU:         "course_fhir101",
			Name:        "FHIR 101 - Fundamentals Course",
			Description: "Comprehensive introduction to FHIR standards, resources, and implementation patterns for healthcare developers.",
			Active:      true,
			Features:    []string{"Self-paced learning", "Interactive quizzes", "Resource library", "Basic certification"},
		},
	}
	for _, p := range products {
		if err := catalog.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}

	prices := []*Price{
		{ProductSKU: "bootcamp_basic", StripePriceID: "price_demo_basic", Currency: "usd", UnitAmount: 29900},
		{ProductSKU: "bootcamp_plus", StripePriceID: "price_demo_plus", Currency: "usd", UnitAmount: 59900},
		{ProductSKU: "course_fhir101", StripePriceID: "price_demo_fhir101", Currency: "usd", UnitAmount: 9900},
	}
	for _, p := range prices {
		if err := catalog.UpsertPrice(ctx, p); err != nil {
			return err
		}
	}

	courses := []*Course{
		{
			Slug:    "fhir-101",
			Title:   "FHIR 101: Healthcare Interoperability Fundamentals",
			Summary: "Learn the basics of the FHIR standard, including resource types, RESTful APIs, and implementation patterns.",
			IsFree:  true,
		},
		{
			Slug:               "health-data-bootcamp",
			Title:              "3-Day Health Data Bootcamp: Ingest, Transform & Operationalize",
			Summary:            "Hands-on intensive bootcamp covering the complete health data lifecycle from ingestion to operationalization using FHIR standards.",
			RequiresProductSKU: "bootcamp_basic",
		},
		{
			Slug:               "fhir-deep-dive",
			Title:              "FHIR Deep Dive: Advanced Implementation & Architecture",
			Summary:            "Advanced course covering complex FHIR implementations, custom extensions, terminology services, and enterprise architecture patterns.",
			RequiresProductSKU: "bootcamp_plus",
		},
	}
	for _, c := range courses {
		if err := catalog.UpsertCourse(ctx, c); err != nil {
			return err
		}
	}

	return nil
}
