package analytics

import "github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"

type CategoryAverage struct {
	Category string  `json:"category"`
	Mean     float64 `json:"mean"`
}

type QuestionRating struct {
	QuestionID int64   `json:"questionID"`
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	Mean       float64 `json:"mean"`
	Count      int     `json:"count"`
}

type Rankings struct {
	Questions   []QuestionRating `json:"questions"`   // 至少有一条回复的问题，按输入顺序
	WeakAreas   []QuestionRating `json:"weakAreas"`   // 均分最低的 3 个，升序
	StrongAreas []QuestionRating `json:"strongAreas"` // 均分最高的 3 个，降序
}

// MonthlyAverage 的 Month 形如 "2025-03"
type MonthlyAverage struct {
	Month string  `json:"month"`
	Mean  float64 `json:"mean"`
}

type RoleCount struct {
	Students  int `json:"students"`
	Alumni    int `json:"alumni"`
	Employers int `json:"employers"`
}

// QuestionStat 的 Mean 为 nil 表示该问题还没有任何回复
type QuestionStat struct {
	Question *domain.Question `json:"question"`
	Count    int              `json:"count"`
	Mean     *float64         `json:"mean"`
}

type StakeholderGroup struct {
	StakeholderType domain.Role    `json:"stakeholderType"`
	Questions       []QuestionStat `json:"questions"`
}

type Dashboard struct {
	TotalResponses   int               `json:"totalResponses"`
	RoleCount        RoleCount         `json:"roleCount"`
	CategoryAverages []CategoryAverage `json:"categoryAverages"`
	WeakAreas        []QuestionRating  `json:"weakAreas"`
	StrongAreas      []QuestionRating  `json:"strongAreas"`
	MonthlyTrend     []MonthlyAverage  `json:"monthlyTrend"`
}
