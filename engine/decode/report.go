package decode

import (
	"github.com/WessleyAI/vindecoder/engine/vin"
)

// Report is the decoded view of one VIN candidate.
type Report struct {
	VIN                string `json:"vin"`
	Raw                string `json:"raw,omitempty"`
	Valid              bool   `json:"valid"`
	Error              string `json:"error,omitempty"`
	WMI                string `json:"wmi"`
	VDS                string `json:"vds"`
	VIS                string `json:"vis"`
	CheckDigit         string `json:"check_digit"`
	ExpectedCheckDigit string `json:"expected_check_digit,omitempty"`
	ModelYear          int    `json:"model_year,omitempty"`
	Region             string `json:"region,omitempty"`
	Country            string `json:"country,omitempty"`
	Manufacturer       string `json:"manufacturer,omitempty"`
	Make               string `json:"make,omitempty"`
	Model              string `json:"model,omitempty"`
	Source             string `json:"source,omitempty"`
}

// SourceLocal marks a report built only from the VIN and the WMI table.
const SourceLocal = "local"

func describe(v *vin.Vin) Report {
	r := Report{
		VIN:        v.String(),
		WMI:        v.WMI(),
		VDS:        v.VDS(),
		VIS:        v.VIS(),
		CheckDigit: v.CheckDigit(),
		Source:     SourceLocal,
	}
	if v.Raw() != v.String() {
		r.Raw = v.Raw()
	}
	if c, ok := vin.ComputeCheckDigit(v.String()); ok {
		r.ExpectedCheckDigit = string(c)
	}
	if err := v.Validate(); err != nil {
		r.Error = err.Error()
		return r
	}
	r.Valid = true
	r.ModelYear, _ = v.ModelYear()
	r.Region, _ = v.Region()
	r.Country, _ = v.Country()
	r.Manufacturer, _ = v.Manufacturer()
	r.Model, _ = v.Model()
	return r
}

// merge overlays non-empty enrichment fields. The locally decoded model year
// wins; the enrichment's year only fills a gap.
func (r Report) merge(e Enrichment) Report {
	if e.Make != "" {
		r.Make = e.Make
	}
	if e.Model != "" {
		r.Model = e.Model
	}
	if e.Manufacturer != "" && r.Manufacturer == "" {
		r.Manufacturer = e.Manufacturer
	}
	if r.ModelYear == 0 && e.ModelYear != 0 {
		r.ModelYear = e.ModelYear
	}
	if e.Source != "" {
		r.Source = SourceLocal + "+" + e.Source
	}
	return r
}
