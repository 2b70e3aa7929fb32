package domain

// ArchivedAlert is one alert row of the local archive.
type ArchivedAlert struct {
	Survey     Survey   `json:"survey"`
	Candid     int64    `json:"candid"`
	ObjectID   string   `json:"objectId"`
	Topic      string   `json:"topic"`       // empty for alerts fetched over REST
	JD         float64  `json:"jd"`
	RA         float64  `json:"ra"`
	Dec        float64  `json:"dec"`
	MagPSF     float64  `json:"magpsf"`
	SigmaPSF   float64  `json:"sigmapsf"`
	Band       Band     `json:"band"`
	DRB        *float64 `json:"drb"`
	ReceivedAt int64    `json:"received_at"` // Unix ms
}

// ArchivedPoint is one light-curve point of an archived object.
type ArchivedPoint struct {
	Survey   Survey `json:"survey"`
	ObjectID string `json:"objectId"`
	Photometry
}

// PointKey identifies a light-curve point within an object.
type PointKey struct {
	JD   float64
	Band Band
}

// Key returns the point's (jd, band) identity.
func (p *ArchivedPoint) Key() PointKey {
	return PointKey{JD: p.JD, Band: p.Band}
}
