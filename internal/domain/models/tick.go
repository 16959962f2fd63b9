package models

// Tick is one trade print from the realtime stream.
type Tick struct {
	Symbol    string  `json:"s"`
	Price     float64 `json:"p"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"` // unix seconds
}
