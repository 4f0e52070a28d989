package lookup

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/wscullen/landsat-downloader/internal/intersect"
)

// WriteXLSX writes a lookup table as a single-sheet XLSX workbook with the
// same columns as the CSV output.
func WriteXLSX(path string, mapping intersect.Mapping) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("wrs_to_mgrs")
	if err != nil {
		return eris.Wrap(err, "lookup: add xlsx sheet")
	}

	header := sheet.AddRow()
	header.AddCell().SetString("pathrow")
	header.AddCell().SetString("mgrs_list")

	for _, id := range mapping.SourceIDs() {
		row := sheet.AddRow()
		row.AddCell().SetString(id)
		row.AddCell().SetString(strings.Join(mapping[id], " "))
	}

	return eris.Wrapf(f.Save(path), "lookup: save xlsx %s", path)
}
