package domain

// Identifier is a catalog identifier that may arrive as a string, an integer or a boolean.
type Identifier string

// NedMatch is a NASA/IPAC Extragalactic Database counterpart.
type NedMatch struct {
	ObjName        *string     `json:"objname" alias:"obj_name,_id"`
	ObjType        *string     `json:"objtype"`
	RA             float64     `json:"ra"`
	Dec            float64     `json:"dec"`
	Z              *float64    `json:"z"`
	ZUnc           *float64    `json:"z_unc"`
	ZTech          *string     `json:"z_tech"`
	ZQual          *Identifier `json:"z_qual"`
	DistMpc        *float64    `json:"DistMpc"`
	DistMpcUnc     *float64    `json:"DistMpc_unc"`
	EBV            *float64    `json:"ebv"`
	DistanceArcsec *float64    `json:"distance_arcsec"`
	DistanceKpc    *float64    `json:"distance_kpc"`
}

// CatwiseMatch is a CatWISE2020 counterpart.
type CatwiseMatch struct {
	SourceName     string      `json:"source_name"`
	RA             float64     `json:"ra"`
	Dec            float64     `json:"dec"`
	SigRA          *float64    `json:"sigra"`
	SigDec         *float64    `json:"sigdec"`
	W1MPro         *float64    `json:"w1mpro"`
	W2MPro         *float64    `json:"w2mpro"`
	W1SigMPro      *float64    `json:"w1sigmpro"`
	W2SigMPro      *float64    `json:"w2sigmpro"`
	W1RChi2        *float64    `json:"w1rchi2"`
	W2RChi2        *float64    `json:"w2rchi2"`
	PMRA           *float64    `json:"pmra"`
	PMDec          *float64    `json:"pmdec"`
	SigPMRA        *float64    `json:"sigpmra"`
	SigPMDec       *float64    `json:"sigpmdec"`
	UnwiseObjID    *Identifier `json:"unwise_objid"`
	DistanceArcsec *float64    `json:"distance_arcsec"`
}

// VsxMatch is an AAVSO Variable Star Index counterpart.
type VsxMatch struct {
	Name           string      `json:"name"`
	VarFlag        *Identifier `json:"var_flag"`
	RA             float64     `json:"ra"`
	Dec            float64     `json:"dec"`
	Types          []string    `json:"types"`
	Max            *float64    `json:"max"`
	MaxBand        *string     `json:"max_band"`
	MinIsAmplitude *bool       `json:"min_is_amplitude"`
	Min            *float64    `json:"min"`
	MinBand        *string     `json:"min_band"`
	Epoch          *float64    `json:"epoch"`
	Period         *float64    `json:"period"`
	SpectralType   *string     `json:"spectral_type"`
	DistanceArcsec *float64    `json:"distance_arcsec"`
}

// MilliquasarMatch is a Million Quasars catalog counterpart.
type MilliquasarMatch struct {
	ID             *Identifier `json:"_id"`
	RA             float64     `json:"ra"`
	Dec            float64     `json:"dec"`
	DistanceArcsec *float64    `json:"distance_arcsec"`
}

// GaiaMatch is a Gaia DR3 counterpart.
type GaiaMatch struct {
	ID                   Identifier `json:"id" alias:"_id"`
	RA                   float64    `json:"ra"`
	Dec                  float64    `json:"dec"`
	Parallax             *float64   `json:"parallax"`
	ParallaxError        *float64   `json:"parallax_error"`
	PM                   *float64   `json:"pm"`
	PMRA                 *float64   `json:"pmra"`
	PMRAError            *float64   `json:"pmra_error"`
	PMDec                *float64   `json:"pmdec"`
	PMDecError           *float64   `json:"pmdec_error"`
	PhotGMeanMag         *float64   `json:"phot_g_mean_mag"`
	PhotBPMeanMag        *float64   `json:"phot_bp_mean_mag"`
	PhotRPMeanMag        *float64   `json:"phot_rp_mean_mag"`
	PhotGNObs            *int64     `json:"phot_g_n_obs"`
	PhotBPNObs           *int64     `json:"phot_bp_n_obs"`
	PhotRPNObs           *int64     `json:"phot_rp_n_obs"`
	RUWE                 *float64   `json:"ruwe"`
	PhotBPRPExcessFactor *float64   `json:"phot_bp_rp_excess_factor"`
	DistanceArcsec       *float64   `json:"distance_arcsec"`
}

// LspscMatch is a Legacy Survey point-source catalog counterpart.
type LspscMatch struct {
	ID             Identifier `json:"id" alias:"_id"`
	RA             float64    `json:"ra"`
	Dec            float64    `json:"dec"`
	Score          *float64   `json:"score"`
	MagWhite       *float64   `json:"mag_white"`
	DistanceArcsec *float64   `json:"distance_arcsec"`
}

// CrossMatches groups archival catalog counterparts of one object.
// A catalog missing from the response is an empty list.
type CrossMatches struct {
	NED         []NedMatch         `json:"ned" alias:"NED"`
	CatWISE     []CatwiseMatch     `json:"catwise" alias:"CatWISE,CatWISE2020"`
	VSX         []VsxMatch         `json:"vsx" alias:"VSX"`
	Milliquasar []MilliquasarMatch `json:"milliquasar" alias:"Milliquasar,milliquas_v8"`
	Gaia        []GaiaMatch        `json:"gaia" alias:"Gaia,Gaia_DR3,Gaia_EDR3"`
	LSPSC       []LspscMatch       `json:"lspsc" alias:"LSPSC,LegacySurveyPSCCatalog"`
}

// Len returns the total number of counterparts across catalogs.
func (c *CrossMatches) Len() int {
	if c == nil {
		return 0
	}
	return len(c.NED) + len(c.CatWISE) + len(c.VSX) + len(c.Milliquasar) + len(c.Gaia) + len(c.LSPSC)
}
