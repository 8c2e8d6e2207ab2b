// Package report accumulates resolution results and writes the mapping and
// identifier files.
package report

import (
	"workshopmods/internal/resolve"
)

// ErrorMarker follows the item ID on mapping lines of items that yielded no
// mod ID in the download variant.
const ErrorMarker = "Fehler beim Auslesen"

// Aggregator collects mapping lines and the flat mod ID list in input order.
type Aggregator struct {
	lines []string
	ids   []string
}

// AddWeb records a web result: one "<item> : <mod>" line per found mod.
// Items without a mod ID add nothing.
func (a *Aggregator) AddWeb(r resolve.Result) {
	for _, id := range r.ModIDs {
		a.lines = append(a.lines, r.ItemID+" : "+id)
		a.ids = append(a.ids, id)
	}
}

// AddDownload records a download result as a header line followed by one
// indented line per mod, or a single error line when nothing was found.
func (a *Aggregator) AddDownload(r resolve.Result) {
	if !r.Found() {
		a.lines = append(a.lines, r.ItemID+" : "+ErrorMarker)
		return
	}
	a.lines = append(a.lines, r.ItemID+" :")
	for _, id := range r.ModIDs {
		a.lines = append(a.lines, "  "+id)
	}
	a.ids = append(a.ids, r.ModIDs...)
}

// Lines returns the mapping lines.
func (a *Aggregator) Lines() []string { return append([]string(nil), a.lines...) }

// ModIDs returns all mod IDs in discovery order.
func (a *Aggregator) ModIDs() []string { return append([]string(nil), a.ids...) }
