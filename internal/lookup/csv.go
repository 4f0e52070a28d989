// Package lookup emits and persists WRS to MGRS lookup tables.
package lookup

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/wscullen/landsat-downloader/internal/grid"
	"github.com/wscullen/landsat-downloader/internal/intersect"
)

// WriteCSV writes a lookup table as CSV, one row per source tile, the MGRS
// IDs space-joined in the second column:
//
//	pathrow,mgrs_list
//	014031,18TUR 18TUS 18TVR
//
// Rows are sorted by path/row.
func WriteCSV(w io.Writer, mapping intersect.Mapping) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pathrow", "mgrs_list"}); err != nil {
		return eris.Wrap(err, "lookup: write csv header")
	}
	for _, id := range mapping.SourceIDs() {
		if err := cw.Write([]string{id, strings.Join(mapping[id], " ")}); err != nil {
			return eris.Wrapf(err, "lookup: write csv row %s", id)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "lookup: flush csv")
}

// WritePathRowsCSV writes a plain list of WRS path/rows with the path and
// row split out, sorted.
func WritePathRowsCSV(w io.Writer, ids []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pathrow", "path", "row"}); err != nil {
		return eris.Wrap(err, "lookup: write csv header")
	}
	for _, id := range ids {
		path, row := grid.SplitPathRow(id)
		if err := cw.Write([]string{id, path, row}); err != nil {
			return eris.Wrapf(err, "lookup: write csv row %s", id)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "lookup: flush csv")
}
