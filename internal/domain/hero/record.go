package hero

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Record is one raw roster entry as produced by the ETL. Pointer fields make
// presence checkable so a missing field is distinguishable from a zero value.
type Record struct {
	ID            *int      `json:"id"            validate:"required,min=1"`
	Name          *string   `json:"name"          validate:"required,notblank"`
	PrimaryLane   *int      `json:"primaryLane"   validate:"required,min=0,max=5"`
	SecondaryLane *int      `json:"secondaryLane" validate:"required,min=0,max=5"`
	IconURL       *string   `json:"iconUrl"`
	InRealLogs    *bool     `json:"inRealLogs"`
	Stats         []float64 `json:"stats"         validate:"required,min=1,max=10"`
}

var (
	validate     *validator.Validate //nolint:gochecknoglobals // validator caches struct metadata
	validateOnce sync.Once           //nolint:gochecknoglobals // guards validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Hero validates the record and converts it. Shorter stat vectors are
// zero-padded to StatCount.
func (r Record) Hero() (Hero, error) {
	if err := recordValidator().Struct(r); err != nil {
		return Hero{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	h := Hero{
		ID:            *r.ID,
		Name:          strings.TrimSpace(*r.Name),
		PrimaryLane:   Lane(*r.PrimaryLane),
		SecondaryLane: Lane(*r.SecondaryLane),
		Eligible:      true,
	}
	if r.IconURL != nil {
		h.IconRef = *r.IconURL
	}
	if r.InRealLogs != nil {
		h.Eligible = *r.InRealLogs
	}
	for i, v := range r.Stats {
		f := float32(v)
		if math.IsNaN(v) || math.IsInf(float64(f), 0) {
			return Hero{}, fmt.Errorf("%w: hero %d stat %d is not finite", ErrInvalidRecord, h.ID, i)
		}
		h.Stats[i] = f
	}
	return h, nil
}

// DecodeRecords parses a JSON array of roster records. A document that is not
// an array fails; an element with a wrong field type decodes to an empty
// Record so that validation rejects it individually.
func DecodeRecords(data []byte) ([]Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: roster is not a JSON array: %w", ErrCatalogLoad, err)
	}

	records := make([]Record, len(raw))
	for i, msg := range raw {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			continue
		}
		records[i] = rec
	}
	return records, nil
}
