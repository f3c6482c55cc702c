package model

// InstrumentMetadata describes a tradeable instrument as returned by symbol
// search or carried inline on enriched stream messages. Expiry and Strike
// are set only for derivatives: Expiry like "15MAR24", Strike 0 when absent.
type InstrumentMetadata struct {
	Token    string  `json:"token"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Exchange string  `json:"exchange"`
	Expiry   string  `json:"expiry,omitempty"`
	Strike   float64 `json:"strike,omitempty"`
}
