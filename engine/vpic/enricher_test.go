package vpic

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/vindecoder/engine/decode"
)

func TestEnricherFeedsDecode(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, http.StatusOK, hondaBody, &hits)
	svc := decode.New(nil, Enricher{Client: NewClient(testConfig(srv.URL), nil, nil)}, decode.DefaultOptions(), nil, nil)

	r := svc.Decode(context.Background(), hondaVIN)
	require.True(t, r.Valid)
	assert.Equal(t, "HONDA", r.Make)
	assert.Equal(t, "Accord", r.Model)
	assert.Equal(t, "Honda", r.Manufacturer, "local WMI name wins")
	assert.Equal(t, 2003, r.ModelYear)
	assert.Equal(t, "local+vpic", r.Source)
}

func TestEnricherError(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, http.StatusOK, `{"Count":0,"Results":[]}`, &hits)
	_, err := Enricher{Client: NewClient(testConfig(srv.URL), nil, nil)}.Enrich(context.Background(), hondaVIN)
	assert.ErrorIs(t, err, ErrNotDecoded)
}
