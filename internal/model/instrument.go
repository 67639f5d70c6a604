package model

// DefaultDisplayDigits is used when the data source does not report a price precision.
const DefaultDisplayDigits = 8

// Instrument identifies a tradable symbol. Two instruments are the same iff all fields match.
type Instrument struct {
	Name          string `json:"name"`
	RefID         string `json:"ref_id"`
	DisplayDigits int    `json:"display_digits"`
	Currency      string `json:"currency,omitempty"`
}

// NewInstrument returns an instrument with the default display precision.
func NewInstrument(name, refID string) Instrument {
	if refID == "" {
		refID = name
	}
	return Instrument{Name: name, RefID: refID, DisplayDigits: DefaultDisplayDigits}
}

func (i Instrument) String() string { return i.Name }
