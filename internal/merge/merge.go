// Package merge combines worker tables into the global station table.
package merge

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/jkroepke/1brc-stages/internal/measure"
	"github.com/jkroepke/1brc-stages/internal/table"
)

// Global is the merged station table. It is built by one goroutine.
type Global struct {
	stations *swiss.Map[string, measure.Stats]
}

func New() *Global {
	return &Global{stations: swiss.NewMap[string, measure.Stats](table.MaxStations)}
}

// Reduce folds tables, in order, into a new Global. Nil tables are skipped.
func Reduce(tables []*table.Table) (*Global, error) {
	g := New()
	for i, t := range tables {
		if t == nil {
			continue
		}
		if err := g.Fold(t); err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
	}
	return g, nil
}

// Fold combines every station of t into g.
func (g *Global) Fold(t *table.Table) error {
	var err error
	t.Each(func(name []byte, s measure.Stats) {
		if err != nil {
			return
		}
		err = g.Add(string(name), s)
	})
	return err
}

// Add combines s into the entry for name.
func (g *Global) Add(name string, s measure.Stats) error {
	cur, ok := g.stations.Get(name)
	if !ok {
		if g.stations.Count() == table.MaxStations {
			return table.ErrCapacityExceeded
		}
		g.stations.Put(name, s)
		return nil
	}

	cur.Merge(s)
	g.stations.Put(name, cur)
	return nil
}

func (g *Global) Get(name string) (measure.Stats, bool) {
	return g.stations.Get(name)
}

func (g *Global) Len() int {
	return g.stations.Count()
}

// Snapshot copies g into a plain map.
func (g *Global) Snapshot() map[string]measure.Stats {
	out := make(map[string]measure.Stats, g.stations.Count())
	g.stations.Iter(func(name string, s measure.Stats) bool {
		out[name] = s
		return false
	})
	return out
}
