package hero_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/draftnexus/internal/domain/hero"
	. "github.com/smartystreets/goconvey/convey"
)

type staticSource struct {
	records []hero.Record
	err     error
}

func (s staticSource) Records(context.Context) ([]hero.Record, error) { return s.records, s.err }
func (s staticSource) Name() string { return "static" }

func decode(t *testing.T, doc string) []hero.Record {
	t.Helper()
	recs, err := hero.DecodeRecords([]byte(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return recs
}

const roster = `[
	{"id": 3, "name": "Zed", "primaryLane": 1, "secondaryLane": 0, "iconUrl": "z.png", "stats": [1,2,3,4,5,6,7,8,9,10]},
	{"id": 1, "name": "Alpha", "primaryLane": 2, "secondaryLane": 3, "stats": [0.5, 1.5]},
	{"id": 2, "name": "Beta", "primaryLane": 4, "secondaryLane": 0, "inRealLogs": false, "stats": [1]},
	{"id": "4", "name": "Stringy", "primaryLane": 1, "secondaryLane": 0, "stats": [1]},
	{"id": 5, "name": "NoStats", "primaryLane": 1, "secondaryLane": 0},
	{"id": 6, "name": "BadLane", "primaryLane": 9, "secondaryLane": 0, "stats": [1]},
	{"id": 7, "name": "TooMany", "primaryLane": 1, "secondaryLane": 0, "stats": [1,2,3,4,5,6,7,8,9,10,11]},
	{"id": 8, "name": "   ", "primaryLane": 1, "secondaryLane": 0, "stats": [1]},
	{"id": 9, "name": "WordStat", "primaryLane": 1, "secondaryLane": 0, "stats": [1, "two"]},
	{"id": 1, "name": "AlphaAgain", "primaryLane": 2, "secondaryLane": 0, "stats": [1]}
]`

func TestLoad(t *testing.T) {
	Convey("Given a roster with valid and malformed records", t, func() {
		ctx := context.Background()
		cat, err := hero.Load(ctx, staticSource{records: decode(t, roster)})

		Convey("Then the load succeeds with the valid heroes only", func() {
			So(err, ShouldBeNil)
			So(cat.Len(), ShouldEqual, 3)
			So(cat.Skipped(), ShouldEqual, 7)
		})

		Convey("Then heroes are sorted by name", func() {
			all := cat.All()
			So(all[0].Name, ShouldEqual, "Alpha")
			So(all[1].Name, ShouldEqual, "Beta")
			So(all[2].Name, ShouldEqual, "Zed")
		})

		Convey("Then short stat vectors are zero padded", func() {
			alpha, ok := cat.ByID(1)
			So(ok, ShouldBeTrue)
			So(alpha.Stats[0], ShouldEqual, float32(0.5))
			So(alpha.Stats[1], ShouldEqual, float32(1.5))
			So(alpha.Stats[9], ShouldEqual, float32(0))
			So(alpha.PrimaryLane, ShouldEqual, hero.LaneMid)
		})

		Convey("Then eligibility defaults to true and honors the flag", func() {
			zed, _ := cat.ByID(3)
			beta, _ := cat.ByID(2)
			So(zed.Eligible, ShouldBeTrue)
			So(zed.IconRef, ShouldEqual, "z.png")
			So(beta.Eligible, ShouldBeFalse)
		})

		Convey("Then the first occurrence of a duplicate id wins", func() {
			alpha, _ := cat.ByID(1)
			So(alpha.Name, ShouldEqual, "Alpha")
		})

		Convey("Then names resolve case-insensitively", func() {
			h, ok := cat.ByName("  bEtA ")
			So(ok, ShouldBeTrue)
			So(h.ID, ShouldEqual, 2)

			_, ok = cat.ByName("Gamma")
			So(ok, ShouldBeFalse)
		})

		Convey("Then All returns a copy", func() {
			all := cat.All()
			all[0].Name = "mutated"
			So(cat.All()[0].Name, ShouldEqual, "Alpha")
		})
	})

	Convey("Given a source that fails", t, func() {
		_, err := hero.Load(context.Background(), staticSource{err: errors.New("disk gone")})

		Convey("Then a catalog load error is returned", func() {
			So(errors.Is(err, hero.ErrCatalogLoad), ShouldBeTrue)
		})
	})

	Convey("Given a source with no valid records", t, func() {
		recs := decode(t, `[{"id": 0, "name": "Zero", "primaryLane": 1, "secondaryLane": 0, "stats": [1]}]`)
		_, err := hero.Load(context.Background(), staticSource{records: recs})

		Convey("Then the load fails", func() {
			So(errors.Is(err, hero.ErrCatalogLoad), ShouldBeTrue)
		})
	})
}

func TestDecodeRecords(t *testing.T) {
	Convey("Given a document that is not an array", t, func() {
		_, err := hero.DecodeRecords([]byte(`{"id": 1}`))

		Convey("Then it is unparsable", func() {
			So(errors.Is(err, hero.ErrCatalogLoad), ShouldBeTrue)
		})
	})

	Convey("Given an element with a wrong type", t, func() {
		recs, err := hero.DecodeRecords([]byte(`[{"id": 1.5, "name": "Half", "primaryLane": 1, "secondaryLane": 0, "stats": [1]}]`))

		Convey("Then the element is kept as an empty record that fails validation", func() {
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
			_, herr := recs[0].Hero()
			So(errors.Is(herr, hero.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestNilCatalog(t *testing.T) {
	Convey("Given a nil catalog", t, func() {
		var cat *hero.Catalog

		So(cat.Len(), ShouldEqual, 0)
		So(cat.All(), ShouldBeNil)
		_, ok := cat.ByID(1)
		So(ok, ShouldBeFalse)
	})
}
