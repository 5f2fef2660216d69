package database

import (
	"time"
)

type DeliveryKind string

const (
	DeliveryKindReview  DeliveryKind = "review"
	DeliveryKindWelcome DeliveryKind = "welcome"
)

type DeliveryStatus string

const (
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
	DeliveryStatusDropped DeliveryStatus = "dropped"
)

// Delivery is one webhook delivery attempt.
type Delivery struct {
	ID        string         `json:"id"`
	AppName   string         `json:"app_name"`
	ReviewID  string         `json:"review_id,omitempty"`
	Kind      DeliveryKind   `json:"kind"`
	Status    DeliveryStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type DeliveryStats struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Dropped int `json:"dropped"`
}
