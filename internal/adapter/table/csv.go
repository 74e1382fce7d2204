// Package table reads and writes the flat close-approach table.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/neo-risk-etl/internal/domain"
)

var (
	// ErrMissingColumn means a required column is absent from the header row.
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidValue means a cell cannot be parsed as its column's type.
	ErrInvalidValue = errors.New("invalid value")
)

// Column names, in file order.
const (
	ColID            = "neo_id"
	ColName          = "name"
	ColApproachDate  = "close_approach_date"
	ColMissDistance  = "miss_distance_km"
	ColVelocity      = "relative_velocity_km_s"
	ColDiameter      = "diameter_m"
	ColMass          = "mass_kg"
	ColKineticEnergy = "kinetic_energy_kt_TNT"
	ColPalermoProxy  = "palermo_proxy"
	ColRiskCategory  = "risk_cluster"
)

// requiredColumns is how many leading Header columns must be present on read.
const requiredColumns = 8

// Header is the column order written to every table.
var Header = []string{
	ColID, ColName, ColApproachDate, ColMissDistance, ColVelocity,
	ColDiameter, ColMass, ColKineticEnergy, ColPalermoProxy, ColRiskCategory,
}

// WriteCSV writes the header and one row per record. Floats use the shortest
// representation that parses back to the same value; absent analytic fields
// are empty cells.
func WriteCSV(w io.Writer, records []domain.ObjectApproachRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range records {
		if err := cw.Write(formatRow(records[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatRow(r domain.ObjectApproachRecord) []string {
	row := []string{
		r.ID,
		r.Name,
		r.ApproachDate.Format(domain.DateLayout),
		formatFloat(r.MissDistanceKM),
		formatFloat(r.RelativeVelocityKMS),
		formatFloat(r.DiameterM),
		formatFloat(r.MassKG),
		formatFloat(r.KineticEnergyKT),
		"",
		"",
	}
	if r.PalermoProxy != nil {
		row[8] = formatFloat(*r.PalermoProxy)
	}
	if r.RiskCategory != nil {
		row[9] = string(*r.RiskCategory)
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadCSV parses a table written by WriteCSV. Columns are matched by header
// name, so order does not matter and unknown columns are ignored. The analytic
// columns are optional.
func ReadCSV(r io.Reader) ([]domain.ObjectApproachRecord, error) {
	return readCSV(r, false)
}

// ReadBaseCSV parses a table like ReadCSV but ignores palermo_proxy and
// risk_cluster. Whatever those cells hold is left out of the records.
func ReadBaseCSV(r io.Reader) ([]domain.ObjectApproachRecord, error) {
	return readCSV(r, true)
}

func readCSV(r io.Reader, skipAnalytics bool) ([]domain.ObjectApproachRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: table has no header row", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}
	if skipAnalytics {
		cols[ColPalermoProxy] = -1
		cols[ColRiskCategory] = -1
	}

	var records []domain.ObjectApproachRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		rec, err := cols.parse(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// columns maps each known column to its index in the file, -1 when absent.
type columns map[string]int

func indexColumns(header []string) (columns, error) {
	cols := columns{}
	for _, name := range Header {
		cols[name] = -1
	}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if idx, known := cols[name]; known && idx < 0 {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range Header[:requiredColumns] {
		if cols[name] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) cell(row []string, name string) string {
	idx := c[name]
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (c columns) parse(row []string) (domain.ObjectApproachRecord, error) {
	rec := domain.ObjectApproachRecord{
		ID:   c.cell(row, ColID),
		Name: c.cell(row, ColName),
	}
	if rec.ID == "" {
		return rec, invalid(ColID, "")
	}

	date, err := time.Parse(domain.DateLayout, c.cell(row, ColApproachDate))
	if err != nil {
		return rec, invalid(ColApproachDate, c.cell(row, ColApproachDate))
	}
	rec.ApproachDate = date

	floats := []struct {
		name string
		dst  *float64
	}{
		{ColMissDistance, &rec.MissDistanceKM},
		{ColVelocity, &rec.RelativeVelocityKMS},
		{ColDiameter, &rec.DiameterM},
		{ColMass, &rec.MassKG},
		{ColKineticEnergy, &rec.KineticEnergyKT},
	}
	for _, f := range floats {
		raw := c.cell(row, f.name)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, invalid(f.name, raw)
		}
		*f.dst = v
	}

	if raw := c.cell(row, ColPalermoProxy); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, invalid(ColPalermoProxy, raw)
		}
		rec.PalermoProxy = &v
	}
	if raw := c.cell(row, ColRiskCategory); raw != "" {
		category, err := domain.ParseRiskCategory(raw)
		if err != nil {
			return rec, invalid(ColRiskCategory, raw)
		}
		rec.RiskCategory = &category
	}
	return rec, nil
}

func invalid(column, raw string) error {
	return fmt.Errorf("%w: %s=%q", ErrInvalidValue, column, raw)
}
