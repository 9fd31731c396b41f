package domain

import (
	"encoding/json"
	"time"
)

// TimeLayout matches the text form of SQL CURRENT_TIMESTAMP.
const TimeLayout = "2006-01-02 15:04:05"

type ChatMessage struct {
	ID         uint      `json:"id"`
	Message    string    `json:"message"`
	CreateTime time.Time `json:"create_time"`
}

func (m ChatMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         uint   `json:"id"`
		Message    string `json:"message"`
		CreateTime string `json:"create_time"`
	}{
		ID:         m.ID,
		Message:    m.Message,
		CreateTime: m.CreateTime.UTC().Format(TimeLayout),
	})
}

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder defaults to newest first.
func ParseOrder(s string) Order {
	if s == string(OrderAsc) {
		return OrderAsc
	}
	return OrderDesc
}
