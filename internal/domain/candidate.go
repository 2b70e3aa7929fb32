package domain

import (
	"math"
	"time"
)

// unixEpochJD is the Julian Date of 1970-01-01T00:00:00Z.
const unixEpochJD = 2440587.5

// JDToTime converts a Julian Date to a UTC time with microsecond precision.
func JDToTime(jd float64) time.Time {
	days := jd - unixEpochJD
	us := math.Round(days * 86400e6)
	return time.UnixMicro(int64(us)).UTC()
}

// ZtfCandidate is the triggering detection of a ZTF alert.
// Pointer fields are nullable on the wire.
type ZtfCandidate struct {
	JD             float64  `json:"jd"`
	FID            int32    `json:"fid"`
	PID            int64    `json:"pid"`
	DiffMagLim     *float64 `json:"diffmaglim"`
	ProgramPI      *string  `json:"programpi"`
	ProgramID      int32    `json:"programid"`
	Candid         int64    `json:"candid"`
	IsDiffPos      bool     `json:"isdiffpos"`
	NID            *int64   `json:"nid"`
	RCID           *int64   `json:"rcid"`
	Field          *int64   `json:"field"`
	RA             float64  `json:"ra"`
	Dec            float64  `json:"dec"`
	MagPSF         float64  `json:"magpsf"`
	SigmaPSF       float64  `json:"sigmapsf"`
	ChiPSF         *float64 `json:"chipsf"`
	MagAp          *float64 `json:"magap"`
	SigmaGAp       *float64 `json:"sigmagap"`
	DistNR         *float64 `json:"distnr"`
	MagNR          *float64 `json:"magnr"`
	SigmaGNR       *float64 `json:"sigmagnr"`
	ChiNR          *float64 `json:"chinr"`
	SharpNR        *float64 `json:"sharpnr"`
	Sky            *float64 `json:"sky"`
	FWHM           *float64 `json:"fwhm"`
	ClassStar      *float64 `json:"classtar"`
	MinDToEdge     *float64 `json:"mindtoedge"`
	SeeRatio       *float64 `json:"seeratio"`
	AImage         *float64 `json:"aimage"`
	BImage         *float64 `json:"bimage"`
	Elong          *float64 `json:"elong"`
	NNeg           *int64   `json:"nneg"`
	NBad           *int64   `json:"nbad"`
	RB             *float64 `json:"rb"`
	SSDistNR       *float64 `json:"ssdistnr"`
	SSMagNR        *float64 `json:"ssmagnr"`
	SSNameNR       *string  `json:"ssnamenr"`
	RANR           float64  `json:"ranr"`
	DecNR          float64  `json:"decnr"`
	SGMag1         *float64 `json:"sgmag1"`
	SRMag1         *float64 `json:"srmag1"`
	SIMag1         *float64 `json:"simag1"`
	SZMag1         *float64 `json:"szmag1"`
	SGScore1       *float64 `json:"sgscore1"`
	DistPSNR1      *float64 `json:"distpsnr1"`
	NDetHist       int32    `json:"ndethist"`
	NCovHist       int32    `json:"ncovhist"`
	JDStartHist    *float64 `json:"jdstarthist"`
	SCorr          *float64 `json:"scorr"`
	SGMag2         *float64 `json:"sgmag2"`
	SRMag2         *float64 `json:"srmag2"`
	SIMag2         *float64 `json:"simag2"`
	SZMag2         *float64 `json:"szmag2"`
	SGScore2       *float64 `json:"sgscore2"`
	DistPSNR2      *float64 `json:"distpsnr2"`
	SGMag3         *float64 `json:"sgmag3"`
	SRMag3         *float64 `json:"srmag3"`
	SIMag3         *float64 `json:"simag3"`
	SZMag3         *float64 `json:"szmag3"`
	SGScore3       *float64 `json:"sgscore3"`
	DistPSNR3      *float64 `json:"distpsnr3"`
	NMtchPS        int32    `json:"nmtchps"`
	DSNRMS         *float64 `json:"dsnrms"`
	SSNRMS         *float64 `json:"ssnrms"`
	DSDiff         *float64 `json:"dsdiff"`
	MagZPSci       *float64 `json:"magzpsci"`
	MagZPSciUnc    *float64 `json:"magzpsciunc"`
	MagZPSciRMS    *float64 `json:"magzpscirms"`
	ZPMed          *float64 `json:"zpmed"`
	ExpTime        *float64 `json:"exptime"`
	DRB            *float64 `json:"drb"` // deep-learning real-bogus score
	ClrCoeff       *float64 `json:"clrcoeff"`
	ClrCounc       *float64 `json:"clrcounc"`
	NearGaia       *float64 `json:"neargaia"`
	MagGaia        *float64 `json:"maggaia"`
	NearGaiaBright *float64 `json:"neargaiabright"`
	MagGaiaBright  *float64 `json:"maggaiabright"`
	PSFFlux        float64  `json:"psfFlux"`
	PSFFluxErr     float64  `json:"psfFluxErr"`
	SNR            float64  `json:"snr"`
	Band           Band     `json:"band"`
}

// Datetime returns the observation time.
func (c *ZtfCandidate) Datetime() time.Time {
	return JDToTime(c.JD)
}

// LsstCandidate is the triggering DIA source of an LSST alert.
// The broker adds jd, magpsf, sigmapsf, diffmaglim, isdiffpos, snr and magap
// so both surveys expose the same derived quantities.
type LsstCandidate struct {
	DiaSourceID                      int64    `json:"diaSourceId"`
	Visit                            int64    `json:"visit"`
	Detector                         int32    `json:"detector"`
	DiaObjectID                      *int64   `json:"diaObjectId"`
	SSObjectID                       *int64   `json:"ssObjectId"`
	ParentDiaSourceID                *int64   `json:"parentDiaSourceId"`
	MidpointMjdTai                   float64  `json:"midpointMjdTai"`
	RA                               float64  `json:"ra"`
	RAErr                            *float64 `json:"raErr"`
	Dec                              float64  `json:"dec"`
	DecErr                           *float64 `json:"decErr"`
	CentroidFlag                     *bool    `json:"centroid_flag"`
	ApFlux                           *float64 `json:"apFlux"`
	ApFluxErr                        *float64 `json:"apFluxErr"`
	ApFluxFlag                       *bool    `json:"apFlux_flag"`
	ApFluxFlagApertureTruncated      *bool    `json:"apFlux_flag_apertureTruncated"`
	PSFFlux                          *float64 `json:"psfFlux"`
	PSFFluxErr                       *float64 `json:"psfFluxErr"`
	PSFChi2                          *float64 `json:"psfChi2"`
	PSFNdata                         *int64   `json:"psfNdata"`
	PSFFluxFlag                      *bool    `json:"psfFlux_flag"`
	PSFFluxFlagEdge                  *bool    `json:"psfFlux_flag_edge"`
	PSFFluxFlagNoGoodPixels          *bool    `json:"psfFlux_flag_noGoodPixels"`
	TrailFlux                        *float64 `json:"trailFlux"`
	TrailFluxErr                     *float64 `json:"trailFluxErr"`
	TrailRA                          *float64 `json:"trailRa"`
	TrailRAErr                       *float64 `json:"trailRaErr"`
	TrailDec                         *float64 `json:"trailDec"`
	TrailDecErr                      *float64 `json:"trailDecErr"`
	TrailLength                      *float64 `json:"trailLength"`
	TrailLengthErr                   *float64 `json:"trailLengthErr"`
	TrailAngle                       *float64 `json:"trailAngle"`
	TrailAngleErr                    *float64 `json:"trailAngleErr"`
	TrailChi2                        *float64 `json:"trailChi2"`
	TrailNdata                       *int64   `json:"trailNdata"`
	TrailFlagEdge                    *bool    `json:"trail_flag_edge"`
	ScienceFlux                      *float64 `json:"scienceFlux"`
	ScienceFluxErr                   *float64 `json:"scienceFluxErr"`
	ForcedPSFFluxFlag                *bool    `json:"forced_PsfFlux_flag"`
	ForcedPSFFluxFlagEdge            *bool    `json:"forced_PsfFlux_flag_edge"`
	ForcedPSFFluxFlagNoGoodPixels    *bool    `json:"forced_PsfFlux_flag_noGoodPixels"`
	TemplateFlux                     *float64 `json:"templateFlux"`
	TemplateFluxErr                  *float64 `json:"templateFluxErr"`
	ShapeFlag                        *bool    `json:"shape_flag"`
	ShapeFlagNoPixels                *bool    `json:"shape_flag_no_pixels"`
	ShapeFlagNotContained            *bool    `json:"shape_flag_not_contained"`
	ShapeFlagParentSource            *bool    `json:"shape_flag_parent_source"`
	Extendedness                     *float64 `json:"extendedness"`
	Reliability                      *float64 `json:"reliability"`
	Band                             *Band    `json:"band"`
	IsDipole                         *bool    `json:"isDipole"`
	PixelFlags                       *bool    `json:"pixelFlags"`
	PixelFlagsBad                    *bool    `json:"pixelFlags_bad"`
	PixelFlagsCR                     *bool    `json:"pixelFlags_cr"`
	PixelFlagsCRCenter               *bool    `json:"pixelFlags_crCenter"`
	PixelFlagsEdge                   *bool    `json:"pixelFlags_edge"`
	PixelFlagsNodata                 *bool    `json:"pixelFlags_nodata"`
	PixelFlagsNodataCenter           *bool    `json:"pixelFlags_nodataCenter"`
	PixelFlagsInterpolated           *bool    `json:"pixelFlags_interpolated"`
	PixelFlagsInterpolatedCenter     *bool    `json:"pixelFlags_interpolatedCenter"`
	PixelFlagsOffimage               *bool    `json:"pixelFlags_offimage"`
	PixelFlagsSaturated              *bool    `json:"pixelFlags_saturated"`
	PixelFlagsSaturatedCenter        *bool    `json:"pixelFlags_saturatedCenter"`
	PixelFlagsSuspect                *bool    `json:"pixelFlags_suspect"`
	PixelFlagsSuspectCenter          *bool    `json:"pixelFlags_suspectCenter"`
	PixelFlagsStreak                 *bool    `json:"pixelFlags_streak"`
	PixelFlagsStreakCenter           *bool    `json:"pixelFlags_streakCenter"`
	PixelFlagsInjected               *bool    `json:"pixelFlags_injected"`
	PixelFlagsInjectedCenter         *bool    `json:"pixelFlags_injectedCenter"`
	PixelFlagsInjectedTemplate       *bool    `json:"pixelFlags_injected_template"`
	PixelFlagsInjectedTemplateCenter *bool    `json:"pixelFlags_injected_templateCenter"`
	GlintTrail                       *bool    `json:"glint_trail"`
	ObjectID                         string   `json:"objectId" alias:"object_id"`
	JD                               float64  `json:"jd"`
	MagPSF                           float64  `json:"magpsf"`
	SigmaPSF                         float64  `json:"sigmapsf"`
	DiffMagLim                       float64  `json:"diffmaglim"`
	IsDiffPos                        bool     `json:"isdiffpos"`
	SNR                              float64  `json:"snr"`
	MagAp                            float64  `json:"magap"`
	SigmaGAp                         float64  `json:"sigmagap"`
	JDStartHist                      *float64 `json:"jdstarthist"`
	NDetHist                         *int64   `json:"ndethist"`
}

// Datetime returns the observation time.
func (c *LsstCandidate) Datetime() time.Time {
	return JDToTime(c.JD)
}
