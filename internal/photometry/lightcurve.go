package photometry

import (
	"sort"

	"github.com/boom-astro/babamul/internal/domain"
)

// History holds the reconciled photometry lists embedded in an alert.
// NonDetections is always empty for LSST.
type History struct {
	Detections    []domain.Photometry `json:"prv_candidates"`
	NonDetections []domain.Photometry `json:"prv_nondetections"`
	Forced        []domain.Photometry `json:"fp_hists"`
}

// Len returns the number of points across all lists.
func (h History) Len() int {
	return len(h.Detections) + len(h.NonDetections) + len(h.Forced)
}

// Combine concatenates detections, forced photometry and non-detections in
// that order and sorts the result by JD. Equal JDs keep concatenation order.
// With dedup set, only the first point for each (jd, band) pair is kept, so
// detections win over forced photometry, which wins over limits.
// The input lists are not modified.
func Combine(h History, dedup bool) []domain.Photometry {
	out := make([]domain.Photometry, 0, h.Len())
	out = append(out, h.Detections...)
	out = append(out, h.Forced...)
	out = append(out, h.NonDetections...)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].JD < out[j].JD
	})

	if !dedup {
		return out
	}
	return Dedup(out)
}

// Dedup drops every point whose (jd, band) pair was already seen, keeping the first.
func Dedup(points []domain.Photometry) []domain.Photometry {
	type key struct {
		jd   float64
		band domain.Band
	}
	seen := make(map[key]struct{}, len(points))
	out := make([]domain.Photometry, 0, len(points))
	for _, p := range points {
		k := key{p.JD, p.Band}
		if _, exists := seen[k]; exists {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}
