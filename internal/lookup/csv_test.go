package lookup

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wscullen/landsat-downloader/internal/intersect"
)

func TestWriteCSV(t *testing.T) {
	mapping := intersect.Mapping{
		"014031": {"18TUR", "18TUS"},
		"013031": {},
		"015031": {"17TNE"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, mapping))

	want := "pathrow,mgrs_list\n" +
		"013031,\n" +
		"014031,18TUR 18TUS\n" +
		"015031,17TNE\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, intersect.Mapping{}))
	assert.Equal(t, "pathrow,mgrs_list\n", buf.String())
}

func TestWritePathRowsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePathRowsCSV(&buf, []string{"014031", "015032"}))

	want := "pathrow,path,row\n" +
		"014031,014,031\n" +
		"015032,015,032\n"
	assert.Equal(t, want, buf.String())
}
