package lookup

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/wscullen/landsat-downloader/internal/intersect"
)

func TestWriteXLSX(t *testing.T) {
	mapping := intersect.Mapping{
		"014031": {"18TUR", "18TUS"},
		"013031": {},
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, mapping))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "wrs_to_mgrs", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "pathrow", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "013031", sheet.Rows[1].Cells[0].Value)
	assert.Equal(t, "014031", sheet.Rows[2].Cells[0].Value)
	assert.Equal(t, "18TUR 18TUS", sheet.Rows[2].Cells[1].Value)
}
