package decode

import (
	"time"

	"github.com/google/uuid"
)

const (
	// RequestSubject is the NATS subject serving decode requests.
	RequestSubject = "vin.decode"
	// BatchSubject serves BatchRequest and replies with []Report.
	BatchSubject = "vin.decode.batch"
	// DecodedSubject receives an event for every valid VIN decoded by a worker.
	DecodedSubject = "vin.decoded"
)

// Request is the body of a decode request.
type Request struct {
	VIN string `json:"vin"`
}

// BatchRequest is the body of a batch decode request.
type BatchRequest struct {
	VINs []string `json:"vins"`
}

// DecodedEvent announces a decoded VIN.
type DecodedEvent struct {
	ID     string    `json:"id"`
	Report Report    `json:"report"`
	At     time.Time `json:"at"`
}

// NewDecodedEvent stamps r with a fresh event ID.
func NewDecodedEvent(r Report, at time.Time) DecodedEvent {
	return DecodedEvent{ID: uuid.NewString(), Report: r, At: at.UTC()}
}
