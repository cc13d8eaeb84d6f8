// Package report renders the merged stations as
// "{name=min/mean/max, ...}\n", sorted by the bytes of the name.
package report

import (
	"bufio"
	"io"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/jkroepke/1brc-stages/internal/merge"
)

// Render writes the report for g to dst.
func Render(dst io.Writer, g *merge.Global) error {
	stations := g.Snapshot()
	names := maps.Keys(stations)
	slices.Sort(names)

	w := bufio.NewWriter(dst)
	buf := make([]byte, 0, 32)

	w.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteString(name)
		w.WriteByte('=')
		buf = stations[name].AppendTo(buf[:0])
		w.Write(buf)
	}
	w.WriteString("}\n")

	return w.Flush()
}
