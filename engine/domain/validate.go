package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/WessleyAI/vindecoder/engine/vin"
)

// ValidateVIN returns nil if s is a valid VIN (case-insensitive).
func ValidateVIN(s string) error {
	if err := vin.New(s).Validate(); err != nil {
		ve := NewValidationError("vin", s, ErrInvalidVIN)
		ve.Cause = err
		return ve
	}
	return nil
}

// ValidateVehicle validates a Vehicle against the built-in WMI table.
//
// A supplied VIN must be valid and, when it encodes a model year, agree with
// Year. A make outside SupportedMakes is accepted only when the VIN's WMI
// resolves to that manufacturer.
func ValidateVehicle(v Vehicle) error {
	return ValidateVehicleWith(v, nil)
}

// ValidateVehicleWith is ValidateVehicle with the WMI lookup done by r, so
// operator overrides count when matching the make. A nil r uses the built-in
// table.
func ValidateVehicleWith(v Vehicle, r vin.Resolver) error {
	var decoded *vin.Vin
	if v.VIN != "" {
		if err := ValidateVIN(v.VIN); err != nil {
			return err
		}
		var opts []vin.Option
		if r != nil {
			opts = append(opts, vin.WithResolver(r))
		}
		decoded = vin.New(v.VIN, opts...)
	}

	// Make / model
	if models, ok := SupportedMakes[v.Make]; ok {
		if !containsFold(models, v.Model) {
			return NewValidationError("model", v.Model, ErrUnsupportedModel)
		}
	} else if !manufacturerIs(decoded, v.Make) {
		return NewValidationError("make", v.Make, ErrUnsupportedMake)
	}

	// Year
	if v.Year < MinModelYear || v.Year > MaxModelYear {
		return NewValidationError("year", strconv.Itoa(v.Year), ErrYearOutOfRange)
	}
	if decoded != nil {
		if year, ok := decoded.ModelYear(); ok && year != v.Year {
			return NewValidationError("year", fmt.Sprintf("%d (VIN: %d)", v.Year, year), ErrDecodedYearMismatch)
		}
	}

	return nil
}

func containsFold(list []string, s string) bool {
	for _, m := range list {
		if strings.EqualFold(m, s) {
			return true
		}
	}
	return false
}

func manufacturerIs(v *vin.Vin, make_ string) bool {
	if v == nil || make_ == "" {
		return false
	}
	m, ok := v.Manufacturer()
	return ok && strings.EqualFold(m, make_)
}
