package dataset

import (
	"time"

	"PriceCast/internal/domain/models"
)

const stage = "assemble"

// Dataset is the supervised learning set built from feature rows.
// X[i] is the scaled vector of day i and Y[i] is the close of day i+1.
type Dataset struct {
	Dates  []time.Time
	Raw    []models.FeatureVector
	X      [][]float64
	Y      []float64
	Scaler *Scaler
	// Latest is the final feature row, which has no target and seeds forecasts.
	Latest models.FeatureRow
}

// Len returns the number of (X, y) pairs.
func (d *Dataset) Len() int { return len(d.Y) }

// Assembler turns feature rows into a scaled matrix and a shifted target.
type Assembler struct{}

// NewAssembler creates an Assembler.
func NewAssembler() *Assembler { return &Assembler{} }

// Assemble pairs every row with the next row's close, drops the last row and fits
// a min-max scaler on the resulting matrix.
func (a *Assembler) Assemble(rows []models.FeatureRow) (*Dataset, error) {
	if len(rows) < 2 {
		return nil, models.NewPipelineError(models.ErrAssembly, stage,
			"need at least 2 feature rows to build a training pair, got %d", len(rows))
	}

	n := len(rows) - 1
	ds := &Dataset{
		Dates:  make([]time.Time, n),
		Raw:    make([]models.FeatureVector, n),
		X:      make([][]float64, n),
		Y:      make([]float64, n),
		Latest: rows[len(rows)-1],
	}
	for i := 0; i < n; i++ {
		v := rows[i].Vector()
		if v.HasNull() {
			return nil, models.NewPipelineError(models.ErrAssembly, stage, "row %s has a null feature", rows[i].Date.Format("2006-01-02"))
		}
		ds.Dates[i] = rows[i].Date
		ds.Raw[i] = v
		ds.Y[i] = rows[i+1].Close
	}

	scaler, err := FitScaler(ds.Raw)
	if err != nil {
		return nil, err
	}
	ds.Scaler = scaler
	for i, v := range ds.Raw {
		ds.X[i] = scaler.Transform(v).Slice()
	}
	return ds, nil
}
