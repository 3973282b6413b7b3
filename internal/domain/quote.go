package domain

import "time"

// Quote is a single mid-price observation for an instrument.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}
