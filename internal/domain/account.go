package domain

import "time"

// Cutouts are the image stamps of one alert. A nil slice means the stamp is absent.
type Cutouts struct {
	Candid     int64  `json:"candid"`
	Science    []byte `json:"cutoutScience"`
	Template   []byte `json:"cutoutTemplate"`
	Difference []byte `json:"cutoutDifference"`
}

// Complete reports whether all three stamps are present.
func (c *Cutouts) Complete() bool {
	return c != nil && c.Science != nil && c.Template != nil && c.Difference != nil
}

// UserProfile is the authenticated account.
type UserProfile struct {
	ID        string `json:"id" alias:"_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"` // Unix seconds
}

// KafkaCredential is a broker credential owned by the account.
// Password is only returned when the credential is created.
type KafkaCredential struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	KafkaUsername string  `json:"kafka_username"`
	KafkaPassword *string `json:"kafka_password,omitempty"`
	CreatedAt     int64   `json:"created_at"`
}

// ObjectSearchResult is one hit of an object-id prefix search.
type ObjectSearchResult struct {
	ObjectID string  `json:"objectId" alias:"object_id"`
	RA       float64 `json:"ra"`
	Dec      float64 `json:"dec"`
	Survey   Survey  `json:"survey"`
}

// Created returns the credential creation time.
func (k *KafkaCredential) Created() time.Time {
	return time.Unix(k.CreatedAt, 0).UTC()
}
