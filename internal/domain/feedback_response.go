package domain

import "time"

// FeedbackResponse 一经创建不可修改，Department 与 Batch 是提交时从 Profile 复制的快照
type FeedbackResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userID"`
	QuestionID int64     `json:"questionID"`
	Rating     int32     `json:"rating"`
	Comment    string    `json:"comment"`
	Department string    `json:"department"`
	Batch      string    `json:"batch"`
	CreatedAt  time.Time `json:"createdAt"`
}

type FeedbackResponseFilter struct {
	UserID     *int64
	QuestionID *int64
	Department *string
}

const (
	MinRating = 1
	MaxRating = 5
)
