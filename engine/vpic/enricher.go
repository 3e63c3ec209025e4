package vpic

import (
	"context"

	"github.com/WessleyAI/vindecoder/engine/decode"
)

// SourceVPIC tags enrichment that came from vPIC.
const SourceVPIC = "vpic"

// Enricher adapts a Client to decode.Enricher.
type Enricher struct {
	Client *Client
}

var _ decode.Enricher = Enricher{}

func (e Enricher) Enrich(ctx context.Context, vin string) (decode.Enrichment, error) {
	v, err := e.Client.DecodeVIN(ctx, vin)
	if err != nil {
		return decode.Enrichment{}, err
	}
	return decode.Enrichment{
		Make:         v.Make,
		Model:        v.Model,
		Manufacturer: v.Manufacturer,
		ModelYear:    v.ModelYear,
		Source:       SourceVPIC,
	}, nil
}
