package models

import "time"

// Member represents a cooperative member
type Member struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Phone    string    `json:"phone"`
	JoinedOn time.Time `json:"joined_on"`
}
