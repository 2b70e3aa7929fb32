package schema

import "github.com/boom-astro/babamul/internal/domain"

var stampNames = [...][2]string{
	{"cutoutScience", "cutout_science"},
	{"cutoutTemplate", "cutout_template"},
	{"cutoutDifference", "cutout_difference"},
}

// Cutouts reads the three image stamps of rec. Stamps may be raw bytes or
// base64 text; absent, null or empty stamps stay nil.
func Cutouts(rec Record, candid int64) (*domain.Cutouts, error) {
	co := &domain.Cutouts{Candid: candid}
	dst := [...]*[]byte{&co.Science, &co.Template, &co.Difference}
	for i, names := range stampNames {
		v, ok := Lookup(rec, names[0], names[1])
		if !ok || v == nil || v == "" {
			continue
		}
		b, err := Bytes(names[0], v)
		if err != nil {
			return nil, err
		}
		*dst[i] = b
	}
	return co, nil
}
