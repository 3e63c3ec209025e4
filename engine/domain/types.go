// Package domain defines the vehicle record accepted by the decoder services and
// the validation gate applied to it at entry points.
package domain

// Vehicle is a caller-declared vehicle, optionally carrying its VIN.
type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	VIN   string `json:"vin,omitempty"`
}
