// Package vpic looks up VINs in the NHTSA vPIC (Product Information Catalog)
// decoder API. It is the optional enrichment source for make and model, which
// a VIN does not encode in a standard way.
package vpic

import (
	"strconv"
	"strings"
	"time"

	"github.com/WessleyAI/vindecoder/pkg/fn"
)

// Vehicle is the subset of a vPIC decode we keep.
type Vehicle struct {
	VIN          string `json:"vin"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	ModelYear    int    `json:"model_year,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	VehicleType  string `json:"vehicle_type,omitempty"`
	BodyClass    string `json:"body_class,omitempty"`
	PlantCountry string `json:"plant_country,omitempty"`
}

// decodeResponse is the DecodeVinValues response envelope.
type decodeResponse struct {
	Count          int           `json:"Count"`
	Message        string        `json:"Message"`
	SearchCriteria string        `json:"SearchCriteria"`
	Results        []decodeEntry `json:"Results"`
}

type decodeEntry struct {
	Make         string `json:"Make"`
	Model        string `json:"Model"`
	ModelYear    string `json:"ModelYear"`
	Manufacturer string `json:"Manufacturer"`
	VehicleType  string `json:"VehicleType"`
	BodyClass    string `json:"BodyClass"`
	PlantCountry string `json:"PlantCountry"`
	ErrorCode    string `json:"ErrorCode"`
	ErrorText    string `json:"ErrorText"`
}

// clean reports whether vPIC decoded the VIN without errors. ErrorCode is a
// comma-separated list; "0" means clean.
func (e decodeEntry) clean() bool {
	for _, code := range strings.Split(e.ErrorCode, ",") {
		if strings.TrimSpace(code) != "0" {
			return false
		}
	}
	return true
}

func (e decodeEntry) vehicle(vin string) Vehicle {
	year, _ := strconv.Atoi(strings.TrimSpace(e.ModelYear))
	return Vehicle{
		VIN:          vin,
		Make:         strings.TrimSpace(e.Make),
		Model:        strings.TrimSpace(e.Model),
		ModelYear:    year,
		Manufacturer: strings.TrimSpace(e.Manufacturer),
		VehicleType:  strings.TrimSpace(e.VehicleType),
		BodyClass:    strings.TrimSpace(e.BodyClass),
		PlantCountry: strings.TrimSpace(e.PlantCountry),
	}
}

// Config controls the vPIC client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit time.Duration // minimum spacing between requests
	Burst     int
	CacheTTL  time.Duration
	Retry     fn.RetryOpts
	UserAgent string
}

// DefaultConfig returns production settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://vpic.nhtsa.dot.gov/api/vehicles",
		Timeout:   15 * time.Second,
		RateLimit: 200 * time.Millisecond,
		Burst:     5,
		CacheTTL:  30 * 24 * time.Hour,
		Retry: fn.RetryOpts{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Jitter:      true,
		},
		UserAgent: "vindecoder/1.0",
	}
}
