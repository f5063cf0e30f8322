package geo

import "github.com/planbiir/daytrips/internal/sample"

// TraceOptions controls how a raw trace is cleaned before it is measured.
type TraceOptions struct {
	MaxAccuracy  float64
	SpikePasses  int
	Simplify     bool
	SEDKeepRatio float64
	SEDMinPoints int
}

// CleanTrace filters by accuracy, removes spikes and optionally applies
// SED simplification. The input is never modified.
func CleanTrace(locs []sample.Location, opts TraceOptions) []sample.Location {
	out := FilterAccuracy(locs, opts.MaxAccuracy)
	out = RemoveSpikes(out, opts.SpikePasses)
	if opts.Simplify {
		out = SimplifySED(out, opts.SEDKeepRatio, opts.SEDMinPoints)
	}
	return out
}

// IsLinearTrajectory reports whether any two fixes of the cleaned trace
// are further apart than threshold meters.
func IsLinearTrajectory(locs []sample.Location, threshold float64, opts TraceOptions) bool {
	pts := CleanTrace(locs, opts)
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if Distance(pts[i], pts[j]) > threshold {
				return true
			}
		}
	}
	return false
}
