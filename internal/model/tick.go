package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Tick represents a single price update for one instrument from the market
// data stream. Prices are rupees as served by the backend feed; values stay
// float64 because this client only derives display math from them.
type Tick struct {
	Token         string  `json:"token"`
	LastPrice     float64 `json:"ltp"`
	ChangeAbs     float64 `json:"change_diff"`
	ChangePercent float64 `json:"percent_change"`
}

// Errors returned by ParseTick for malformed stream payloads.
var (
	ErrNoToken = errors.New("tick has no instrument token")
	ErrNoPrice = errors.New("tick has no price field")
)

// wireTick mirrors the stream JSON. The feed has shipped two spellings for
// the price and percent fields over time, so both are accepted. Metadata
// fields are present only when the feed enriches the message.
type wireTick struct {
	Token         json.Number `json:"token"`
	LTP           *float64    `json:"ltp"`
	LastPrice     *float64    `json:"last_price"`
	ChangeDiff    *float64    `json:"change_diff"`
	PercentChange *float64    `json:"percent_change"`
	ChangePercent *float64    `json:"change_percent"`

	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Exchange string  `json:"exchange"`
	Expiry   string  `json:"expiry"`
	Strike   float64 `json:"strike"`
}

// ParseTick decodes one stream message into a Tick plus whatever instrument
// metadata the message carried (zero-valued fields when absent). Malformed
// payloads — unparseable JSON, missing token, missing price — return an
// error and must be dropped by the caller, never propagated.
func ParseTick(data []byte) (Tick, InstrumentMetadata, error) {
	var w wireTick
	if err := json.Unmarshal(data, &w); err != nil {
		return Tick{}, InstrumentMetadata{}, fmt.Errorf("decode tick: %w", err)
	}

	token := w.Token.String()
	if token == "" || token == "null" || token == "undefined" {
		return Tick{}, InstrumentMetadata{}, ErrNoToken
	}

	var price float64
	switch {
	case w.LastPrice != nil:
		price = *w.LastPrice
	case w.LTP != nil:
		price = *w.LTP
	default:
		return Tick{}, InstrumentMetadata{}, ErrNoPrice
	}

	t := Tick{Token: token, LastPrice: price}
	if w.ChangeDiff != nil {
		t.ChangeAbs = *w.ChangeDiff
	}
	switch {
	case w.PercentChange != nil:
		t.ChangePercent = *w.PercentChange
	case w.ChangePercent != nil:
		t.ChangePercent = *w.ChangePercent
	}

	meta := InstrumentMetadata{
		Token:    token,
		Symbol:   w.Symbol,
		Name:     w.Name,
		Exchange: w.Exchange,
		Expiry:   w.Expiry,
		Strike:   w.Strike,
	}
	return t, meta, nil
}
