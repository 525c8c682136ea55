package models

// FeatureDim is the width of the model input.
const FeatureDim = 9

// Feature vector positions.
const (
	IdxOpen = iota
	IdxHigh
	IdxLow
	IdxClose
	IdxVolume
	IdxMA5
	IdxMA10
	IdxVolatility
	IdxSentiment
)

// FeatureNames lists the vector columns in order.
var FeatureNames = [FeatureDim]string{
	"open", "high", "low", "close", "volume", "ma5", "ma10", "volatility", "sentiment_score",
}

// FeatureVector is a model input. It is an array so every copy is an independent snapshot.
type FeatureVector [FeatureDim]float64

// WithClose returns a copy of v with the close dimension replaced.
func (v FeatureVector) WithClose(close float64) FeatureVector {
	v[IdxClose] = close
	return v
}

// WithSentiment returns a copy of v with the sentiment dimension replaced.
func (v FeatureVector) WithSentiment(score float64) FeatureVector {
	v[IdxSentiment] = score
	return v
}

// HasNull reports whether any dimension is missing.
func (v FeatureVector) HasNull() bool {
	for _, x := range v {
		if IsNull(x) {
			return true
		}
	}
	return false
}

// Slice returns v as a freshly allocated slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureDim)
	copy(out, v[:])
	return out
}

// FeatureRow is an aligned row plus derived technical indicators.
type FeatureRow struct {
	AlignedRow
	PriceChange    float64
	PriceChangePct float64
	MA5            float64
	MA10           float64
	Volatility     float64
}

// Vector returns the model input for the row.
func (r FeatureRow) Vector() FeatureVector {
	return FeatureVector{
		IdxOpen:       r.Open,
		IdxHigh:       r.High,
		IdxLow:        r.Low,
		IdxClose:      r.Close,
		IdxVolume:     r.Volume,
		IdxMA5:        r.MA5,
		IdxMA10:       r.MA10,
		IdxVolatility: r.Volatility,
		IdxSentiment:  r.SentimentScore,
	}
}
