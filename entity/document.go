package entity

import "time"

// Document is a raw queryables document received from a source, not decoded yet.
type Document struct {
	Source     string    `json:"source"`
	Collection string    `json:"collection"`
	Data       []byte    `json:"data"`
	ReceivedAt time.Time `json:"receivedAt"`
}
