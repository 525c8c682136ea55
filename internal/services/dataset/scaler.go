package dataset

import (
	"encoding/json"
	"fmt"

	"PriceCast/internal/domain/models"
)

const scalerKind = "minmax"

// Scaler is a fitted per-dimension min-max transform onto [0,1].
type Scaler struct {
	Min [models.FeatureDim]float64 `json:"min"`
	Max [models.FeatureDim]float64 `json:"max"`
}

// FitScaler computes the per-dimension bounds of xs.
func FitScaler(xs []models.FeatureVector) (*Scaler, error) {
	if len(xs) == 0 {
		return nil, models.NewPipelineError(models.ErrAssembly, stage, "cannot fit scaler on empty matrix")
	}
	s := &Scaler{Min: xs[0], Max: xs[0]}
	for _, v := range xs[1:] {
		for j, x := range v {
			if x < s.Min[j] {
				s.Min[j] = x
			}
			if x > s.Max[j] {
				s.Max[j] = x
			}
		}
	}
	return s, nil
}

// scale returns the divisor for dimension j; constant columns map onto 0.
func (s *Scaler) scale(j int) float64 {
	r := s.Max[j] - s.Min[j]
	if r == 0 {
		return 1
	}
	return r
}

// Transform maps v into the fitted range. Values outside the fit range land outside [0,1].
func (s *Scaler) Transform(v models.FeatureVector) models.FeatureVector {
	var out models.FeatureVector
	for j, x := range v {
		out[j] = (x - s.Min[j]) / s.scale(j)
	}
	return out
}

// InverseTransform undoes Transform.
func (s *Scaler) InverseTransform(v models.FeatureVector) models.FeatureVector {
	var out models.FeatureVector
	for j, x := range v {
		out[j] = x*s.scale(j) + s.Min[j]
	}
	return out
}

type scalerEnvelope struct {
	Kind     string   `json:"kind"`
	Features []string `json:"features"`
	Scaler   *Scaler  `json:"scaler"`
}

// Encode serializes the scaler with its feature layout.
func (s *Scaler) Encode() ([]byte, error) {
	return json.MarshalIndent(scalerEnvelope{
		Kind:     scalerKind,
		Features: models.FeatureNames[:],
		Scaler:   s,
	}, "", "  ")
}

// DecodeScaler restores a scaler written by Encode.
func DecodeScaler(b []byte) (*Scaler, error) {
	var env scalerEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if env.Kind != scalerKind || env.Scaler == nil {
		return nil, fmt.Errorf("decode scaler: unexpected kind %q", env.Kind)
	}
	if len(env.Features) != models.FeatureDim {
		return nil, fmt.Errorf("decode scaler: %d features, want %d", len(env.Features), models.FeatureDim)
	}
	for i, name := range env.Features {
		if name != models.FeatureNames[i] {
			return nil, fmt.Errorf("decode scaler: feature %d is %q, want %q", i, name, models.FeatureNames[i])
		}
	}
	return env.Scaler, nil
}
