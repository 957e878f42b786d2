package hero

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/draftnexus/pkg/logger"
)

// Source yields raw roster records.
type Source interface {
	// Records returns every record in the source. An error means the source
	// as a whole was unreadable.
	Records(ctx context.Context) ([]Record, error)
	// Name identifies the source in logs.
	Name() string
}

// Catalog is the immutable, name-sorted hero roster.
type Catalog struct {
	heroes  []Hero
	byID    map[int]int
	byName  map[string]int
	skipped int
}

// NewCatalog builds a catalog from already validated heroes. Later duplicates
// of an id are dropped.
func NewCatalog(heroes []Hero) *Catalog {
	c := &Catalog{
		heroes: make([]Hero, 0, len(heroes)),
		byID:   make(map[int]int, len(heroes)),
		byName: make(map[string]int, len(heroes)),
	}
	seen := make(map[int]struct{}, len(heroes))
	for _, h := range heroes {
		if _, dup := seen[h.ID]; dup {
			c.skipped++
			continue
		}
		seen[h.ID] = struct{}{}
		c.heroes = append(c.heroes, h)
	}

	slices.SortStableFunc(c.heroes, func(a, b Hero) int {
		if n := cmp.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for i, h := range c.heroes {
		c.byID[h.ID] = i
		key := strings.ToLower(h.Name)
		if _, ok := c.byName[key]; !ok {
			c.byName[key] = i
		}
	}
	return c
}

// Load reads, validates and sorts the roster from src. Malformed records are
// skipped; the load fails only when src is unreadable or nothing survives.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	log := logger.Named("catalog")

	records, err := src.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogLoad, src.Name(), err)
	}

	heroes := make([]Hero, 0, len(records))
	skipped := 0
	for i, rec := range records {
		h, err := rec.Hero()
		if err != nil {
			skipped++
			log.Warn(ctx, "skipping malformed hero record",
				logger.String("source", src.Name()),
				logger.Int("index", i),
				logger.Error(err))
			continue
		}
		heroes = append(heroes, h)
	}

	cat := NewCatalog(heroes)
	if dups := cat.skipped; dups > 0 {
		log.Warn(ctx, "skipped duplicate hero ids", logger.Int("count", dups))
	}
	cat.skipped += skipped

	if cat.Len() == 0 {
		return nil, fmt.Errorf("%w: %s yielded no valid heroes (%d skipped)", ErrCatalogLoad, src.Name(), cat.skipped)
	}

	log.Info(ctx, "catalog loaded",
		logger.String("source", src.Name()),
		logger.Int("heroes", cat.Len()),
		logger.Int("skipped", cat.skipped))
	return cat, nil
}

// ByID looks up a hero by id.
func (c *Catalog) ByID(id int) (Hero, bool) {
	if c == nil {
		return Hero{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Hero{}, false
	}
	return c.heroes[i], true
}

// ByName looks up a hero by name, ignoring case and surrounding space.
func (c *Catalog) ByName(name string) (Hero, bool) {
	if c == nil {
		return Hero{}, false
	}
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Hero{}, false
	}
	return c.heroes[i], true
}

// All returns a copy of the heroes in display order.
func (c *Catalog) All() []Hero {
	if c == nil {
		return nil
	}
	return slices.Clone(c.heroes)
}

// Len returns the number of heroes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.heroes)
}

// Skipped returns how many records were rejected during load.
func (c *Catalog) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}
