package domain

import "time"

type Question struct {
	ID              int64     `json:"id"`
	Text            string    `json:"text"`
	Category        string    `json:"category"`
	StakeholderType Role      `json:"stakeholderType"`
	CreatedAt       time.Time `json:"createdAt"`
}
