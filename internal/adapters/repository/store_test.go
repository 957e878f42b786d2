package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/draftnexus/internal/domain/hero"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heroes.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

func TestFileSource_Records(t *testing.T) {
	ctx := context.Background()
	path := writeRoster(t, `[
		{"id": 1, "name": "Alpha", "primaryLane": 4, "secondaryLane": 0, "iconUrl": "a.png", "stats": [4, 0, 1]},
		{"id": 2, "name": "Beta", "primaryLane": 4, "secondaryLane": 2, "inRealLogs": true, "stats": [4, 1, 2]}
	]`)

	src := NewFileSource(path)
	if src.Name() != "file:"+path {
		t.Errorf("unexpected name %q", src.Name())
	}

	records, err := src.Records(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Name == nil || *records[1].Name != "Beta" {
		t.Errorf("expected second record Beta, got %v", records[1].Name)
	}

	cat, err := hero.Load(ctx, src)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("expected 2 heroes, got %d", cat.Len())
	}
}

func TestFileSource_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Records(ctx)
	if !errors.Is(err, ErrRosterUnavailable) {
		t.Errorf("expected ErrRosterUnavailable for missing file, got %v", err)
	}

	_, err = NewFileSource("").Records(ctx)
	if !errors.Is(err, ErrRosterUnavailable) {
		t.Errorf("expected ErrRosterUnavailable for empty path, got %v", err)
	}

	_, err = NewFileSource(writeRoster(t, `{"id": 1}`)).Records(ctx)
	if !errors.Is(err, hero.ErrCatalogLoad) {
		t.Errorf("expected ErrCatalogLoad for non-array roster, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := NewFileSource(writeRoster(t, `[]`)).Records(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestHeroRow_Record(t *testing.T) {
	id, lane, second := 5, 3, 0
	name := "Gamma"
	row := HeroRow{ID: &id, Name: &name, PrimaryLane: &lane, SecondaryLane: &second, Stats: "[3, 1, 2.5]"}

	h, err := row.Record().Hero()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ID != 5 || h.Name != "Gamma" || h.PrimaryLane != hero.LaneRoam {
		t.Errorf("unexpected hero %+v", h)
	}
	if h.Stats[2] != 2.5 || h.Stats[3] != 0 {
		t.Errorf("unexpected stats %v", h.Stats)
	}
	if !h.Eligible {
		t.Error("expected eligibility to default to true")
	}

	row.Stats = "not json"
	if _, err := row.Record().Hero(); !errors.Is(err, hero.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for bad stats, got %v", err)
	}
}

func TestPostgresSource_Options(t *testing.T) {
	src := NewPostgresSource(nil, WithTable("roster"))
	if src.Name() != "postgres:roster" {
		t.Errorf("unexpected name %q", src.Name())
	}
	if NewPostgresSource(nil, WithTable("")).table != defaultHeroTable {
		t.Error("expected empty table name to keep the default")
	}
}
