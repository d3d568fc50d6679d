// Package bootstrap wires the standalone in-memory collaborators
// (repository records, their embeddings, and the vector index) together at
// process startup so the service has something to recommend against without
// an external product database.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/recoship/ranking/internal/embedding"
	"github.com/recoship/ranking/internal/repository"
	"github.com/recoship/ranking/internal/vectorindex"
)

// SeedRecords is the standalone fixture dataset: enough rental vehicles
// across product types to exercise embedding similarity, availability
// filtering, and reputation weighting in the recommendation pipeline.
func SeedRecords() []repository.ProductRecord {
	return []repository.ProductRecord{
		{ID: "veh-001", ProductType: "vehicle", Brand: "Renault", Model: "Clio", Year: 2023, VehicleType: "car", Transmission: "manual", Fuel: "petrol", Seats: 5, LuggageKg: 300, Location: "Paris", DailyPrice: 42.0, Available: true, AverageRating: 4.6, RentalCount: 128},
		{ID: "veh-002", ProductType: "vehicle", Brand: "Peugeot", Model: "208", Year: 2022, VehicleType: "car", Transmission: "automatic", Fuel: "electric", Seats: 5, LuggageKg: 280, Location: "Paris", DailyPrice: 48.0, Available: true, AverageRating: 4.4, RentalCount: 96},
		{ID: "veh-003", ProductType: "vehicle", Brand: "Yamaha", Model: "MT-07", Year: 2021, VehicleType: "moto", Transmission: "manual", Fuel: "petrol", Seats: 2, LuggageKg: 20, Location: "Lyon", DailyPrice: 55.0, Available: false, AverageRating: 4.2, RentalCount: 61},
		{ID: "veh-004", ProductType: "vehicle", Brand: "Citroen", Model: "C3", Year: 2020, VehicleType: "car", Transmission: "manual", Fuel: "diesel", Seats: 5, LuggageKg: 300, Location: "Marseille", DailyPrice: 35.0, Available: true, AverageRating: 3.9, RentalCount: 210},
		{ID: "veh-005", ProductType: "vehicle", Brand: "Tesla", Model: "Model 3", Year: 2023, VehicleType: "car", Transmission: "automatic", Fuel: "electric", Seats: 5, LuggageKg: 340, Location: "Paris", DailyPrice: 89.0, Available: true, AverageRating: 4.8, RentalCount: 54},
	}
}

// SeedIndex encodes and upserts every record in records into idx, grouped by
// product type, returning an error on the first encoding or upsert failure.
func SeedIndex(ctx context.Context, records []repository.ProductRecord, embedder embedding.Service, idx vectorindex.Index) error {
	byType := make(map[string][]repository.ProductRecord)
	for _, rec := range records {
		byType[rec.ProductType] = append(byType[rec.ProductType], rec)
	}

	for productType, recs := range byType {
		if err := idx.EnsureCollection(ctx, productType, false); err != nil {
			return fmt.Errorf("bootstrap: ensure collection %q: %w", productType, err)
		}
		for _, rec := range recs {
			vec, err := embedder.Encode(ctx, rec.Description())
			if err != nil {
				return fmt.Errorf("bootstrap: encode %q: %w", rec.ID, err)
			}
			if _, err := idx.Upsert(ctx, productType, vectorindex.Point{
				RealProductID: rec.ID,
				Vector:        vec,
				Available:     rec.Available,
				Location:      rec.Location,
				Price:         rec.DailyPrice,
				Rating:        rec.AverageRating,
			}); err != nil {
				return fmt.Errorf("bootstrap: upsert %q: %w", rec.ID, err)
			}
		}
	}
	return nil
}
