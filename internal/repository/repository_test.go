package repository

import (
	"context"
	"testing"
	"time"

	"github.com/recoship/ranking/internal/config"
)

func testConfigs() (config.RepositoryConfig, config.BreakerConfig) {
	return config.RepositoryConfig{Capacity: 10},
		config.BreakerConfig{MaxRequests: 5, Interval: time.Minute, Timeout: time.Second, FailureRate: 0.9}
}

func seedRecords() []ProductRecord {
	return []ProductRecord{
		{ID: "p1", ProductType: "vehicle", Brand: "Renault", Model: "Clio", Year: 2022, VehicleType: "car", Available: true, AverageRating: 4.5},
		{ID: "p2", ProductType: "vehicle", Brand: "Yamaha", Model: "MT-07", Year: 2021, VehicleType: "moto", Available: false, AverageRating: 4.0},
	}
}

func TestGet_FindsSeededRecord(t *testing.T) {
	rcfg, bcfg := testConfigs()
	repo := New(rcfg, bcfg, seedRecords())

	rec, err := repo.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Brand != "Renault" {
		t.Errorf("Brand = %q, want Renault", rec.Brand)
	}
}

func TestGet_MissingReturnsErrNotFound(t *testing.T) {
	rcfg, bcfg := testConfigs()
	repo := New(rcfg, bcfg, seedRecords())

	_, err := repo.Get(context.Background(), "nonexistent")
	if err != ErrNotFound {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGetBatch_SkipsMissingIDs(t *testing.T) {
	rcfg, bcfg := testConfigs()
	repo := New(rcfg, bcfg, seedRecords())

	out, err := repo.GetBatch(context.Background(), []string{"p1", "missing", "p2"})
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if _, ok := out["missing"]; ok {
		t.Errorf("expected missing id to be skipped, not present in result")
	}
}

func TestDescription_IsDeterministic(t *testing.T) {
	rec := seedRecords()[0]
	if rec.Description() != rec.Description() {
		t.Fatal("Description should be stable across calls")
	}
}

func TestHealthCheck(t *testing.T) {
	rcfg, bcfg := testConfigs()
	repo := New(rcfg, bcfg, seedRecords())
	if err := repo.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if err := repo.HealthCheckSync(context.Background()); err != nil {
		t.Fatalf("HealthCheckSync: %v", err)
	}
}

func TestSuggest_MatchesPrefixOnBrandAndModel(t *testing.T) {
	rcfg, bcfg := testConfigs()
	repo := New(rcfg, bcfg, seedRecords())

	if got := repo.Suggest("brand", "Ren", 5); len(got) != 1 || got[0] != "Renault" {
		t.Errorf("Suggest(brand, Ren) = %v, want [Renault]", got)
	}
	if got := repo.Suggest("model", "MT", 5); len(got) != 1 || got[0] != "MT-07" {
		t.Errorf("Suggest(model, MT) = %v, want [MT-07]", got)
	}
	if got := repo.Suggest("brand", "zzz", 5); len(got) != 0 {
		t.Errorf("Suggest(brand, zzz) = %v, want empty", got)
	}
}

func TestSuggest_UnknownFieldReturnsNil(t *testing.T) {
	rcfg, bcfg := testConfigs()
	repo := New(rcfg, bcfg, seedRecords())

	if got := repo.Suggest("color", "re", 5); got != nil {
		t.Errorf("Suggest(unknown field) = %v, want nil", got)
	}
}
