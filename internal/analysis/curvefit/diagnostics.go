package curvefit

import (
	"math"

	"droplab/domain/curve"
	"droplab/domain/performance"

	"github.com/montanaflynn/stats"
)

// FitDiagnostics summarizes how well a fitted curve reproduces the observed
// campaigns. Advisory only; never feeds back into the fit.
type FitDiagnostics struct {
	Samples          int     `json:"samples"`
	RSquared         float64 `json:"r_squared"`
	RMSE             float64 `json:"rmse"`
	MeanObservedRate float64 `json:"mean_observed_rate"`
	MaxResidual      float64 `json:"max_residual"`
}

// Diagnostics scores a config against the history it was fitted from.
// Fewer than two usable points yields zeroed diagnostics.
func (f *Fitter) Diagnostics(history []performance.CampaignOutcome, cfg curve.Config) FitDiagnostics {
	observed := make([]float64, 0, len(history))
	predicted := make([]float64, 0, len(history))
	rates := make([]float64, 0, len(history))

	for _, c := range history {
		if c.Quantity <= 0 {
			continue
		}
		observed = append(observed, c.Conversions)
		predicted = append(predicted, curve.Calculate(c.Quantity, cfg).ExpectedConversions)
		rates = append(rates, c.Rate)
	}

	if len(observed) < 2 {
		return FitDiagnostics{Samples: len(observed)}
	}

	meanObserved, _ := stats.Mean(observed)
	meanRate, _ := stats.Mean(rates)

	ssRes := 0.0
	ssTot := 0.0
	maxResidual := 0.0
	for i := range observed {
		residual := observed[i] - predicted[i]
		ssRes += residual * residual
		ssTot += (observed[i] - meanObserved) * (observed[i] - meanObserved)
		if abs := math.Abs(residual); abs > maxResidual {
			maxResidual = abs
		}
	}

	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}

	return FitDiagnostics{
		Samples:          len(observed),
		RSquared:         rSquared,
		RMSE:             math.Sqrt(ssRes / float64(len(observed))),
		MeanObservedRate: meanRate,
		MaxResidual:      maxResidual,
	}
}
