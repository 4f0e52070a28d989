package grid

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// crsAliases maps normalized CRS names that refer to the same system.
var crsAliases = map[string]string{
	"WGS1984":  "WGS84",
	"EPSG4326": "WGS84",
}

// readPRJ reads the .prj sidecar next to a shapefile and returns the CRS
// name from the WKT definition. A missing sidecar is not an error: the CRS
// is simply unknown and comparison is skipped for that grid.
func readPRJ(shpPath string) (string, error) {
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	data, err := os.ReadFile(prjPath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "grid: read %s", prjPath)
	}
	name := crsNameFromWKT(string(data))
	if name == "" {
		return "", eris.Errorf("grid: no CRS name in %s", prjPath)
	}
	return name, nil
}

// crsNameFromWKT extracts the first quoted identifier from a WKT CRS
// definition, e.g. GEOGCS["GCS_WGS_1984",...] yields GCS_WGS_1984.
func crsNameFromWKT(wkt string) string {
	start := strings.IndexByte(wkt, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(wkt[start+1:], '"')
	if end < 0 {
		return ""
	}
	return wkt[start+1 : start+1+end]
}

// NormalizeCRS reduces a CRS name to a comparable token: uppercased,
// punctuation removed, common prefixes and aliases collapsed. An empty
// name normalizes to empty, which EnsureSameCRS treats as unverifiable.
func NormalizeCRS(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	s := strings.TrimPrefix(b.String(), "GCS")
	if alias, ok := crsAliases[s]; ok {
		return alias
	}
	return s
}
