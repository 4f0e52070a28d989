package grid

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ReadGrid loads a tiling grid from a shapefile. Each record's idField
// attribute becomes the tile ID and its polygon becomes the tile geometry.
// Records with malformed geometry or a duplicate/blank ID are skipped with
// a diagnostic rather than aborting the load; a shapefile that yields zero
// usable tiles is an ErrEmptyGrid.
func ReadGrid(shpPath, idField, name string) (*Grid, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "grid: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, idField)
	if idIdx < 0 {
		return nil, eris.Errorf("grid: field %q not found in %s", idField, shpPath)
	}

	crs, err := readPRJ(shpPath)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("grid", name), zap.String("shapefile", shpPath))

	g := NewGrid(name, crs)
	var skipped int
	for reader.Next() {
		num, shape := reader.Shape()
		id := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))

		mp := shapeToMultiPolygon(shape)
		if mp == nil {
			skipped++
			log.Debug("grid: skipping record without polygon geometry",
				zap.Int("record", num), zap.String("id", id))
			continue
		}

		if err := g.Add(Tile{ID: id, Geom: mp}); err != nil {
			skipped++
			log.Warn("grid: skipping invalid tile",
				zap.Int("record", num), zap.String("id", id), zap.Error(err))
		}
	}

	if skipped > 0 {
		log.Info("grid: skipped shapefile records", zap.Int("skipped", skipped))
	}
	if g.Len() == 0 {
		return nil, eris.Wrapf(ErrEmptyGrid, "shapefile %s", shpPath)
	}

	log.Debug("grid loaded", zap.Int("tiles", g.Len()), zap.String("crs", crs))
	return g, nil
}

// ReadFootprint loads every polygon of a shapefile into one multipolygon,
// ignoring attributes. Used for area-of-interest and reference inputs where
// only the combined geometry matters. Returns the footprint and the CRS
// name from the .prj sidecar.
func ReadFootprint(shpPath string) (*geom.MultiPolygon, string, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, "", eris.Wrapf(err, "grid: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	crs, err := readPRJ(shpPath)
	if err != nil {
		return nil, "", err
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for reader.Next() {
		num, shape := reader.Shape()
		part := shapeToMultiPolygon(shape)
		if part == nil {
			zap.L().Debug("grid: skipping footprint record without polygon geometry",
				zap.String("shapefile", shpPath), zap.Int("record", num))
			continue
		}
		for i := 0; i < part.NumPolygons(); i++ {
			if err := mp.Push(part.Polygon(i)); err != nil {
				zap.L().Debug("grid: skipping footprint polygon",
					zap.Int("record", num), zap.Error(err))
			}
		}
	}

	if mp.NumPolygons() == 0 {
		return nil, "", eris.Wrapf(ErrEmptyGrid, "no polygons in %s", shpPath)
	}
	return mp, crs, nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// shapeToMultiPolygon converts a shapefile polygon to a geom.MultiPolygon.
// Each part becomes its own polygon shell; grid tiles carry no holes.
// Returns nil for nil, non-polygon, or empty shapes.
func shapeToMultiPolygon(s shp.Shape) *geom.MultiPolygon {
	p, ok := s.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("grid: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("grid: skipping malformed polygon", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// WriteWRSTiles writes WRS tiles to a polygon shapefile with PR, PATH and
// ROW attribute columns, splitting the six-digit path/row ID.
func WriteWRSTiles(shpPath string, g *Grid) error {
	w, err := shp.Create(shpPath, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "grid: create shapefile %s", shpPath)
	}
	defer w.Close()

	w.SetFields([]shp.Field{
		shp.StringField("PR", 10),
		shp.StringField("PATH", 5),
		shp.StringField("ROW", 5),
	})

	for row, t := range g.Tiles {
		w.Write(multiPolygonToShape(t.Geom))

		path, rowNum := SplitPathRow(t.ID)
		for i, val := range []string{t.ID, path, rowNum} {
			if err := w.WriteAttribute(row, i, val); err != nil {
				return eris.Wrapf(err, "grid: write attribute for tile %s", t.ID)
			}
		}
	}

	return nil
}

// multiPolygonToShape converts a geom.MultiPolygon back to a shapefile
// polygon, one part per ring.
func multiPolygonToShape(mp *geom.MultiPolygon) *shp.Polygon {
	var parts [][]shp.Point
	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		for j := 0; j < p.NumLinearRings(); j++ {
			ring := p.LinearRing(j)
			pts := make([]shp.Point, ring.NumCoords())
			for k := 0; k < ring.NumCoords(); k++ {
				c := ring.Coord(k)
				pts[k] = shp.Point{X: c[0], Y: c[1]}
			}
			parts = append(parts, pts)
		}
	}
	poly := shp.Polygon(*shp.NewPolyLine(parts))
	return &poly
}

// SplitPathRow splits a six-digit WRS path/row identifier like "014031"
// into path and row. Shorter IDs are returned whole as the path.
func SplitPathRow(pr string) (path, row string) {
	if len(pr) < 6 {
		return pr, ""
	}
	return pr[:3], pr[3:6]
}
