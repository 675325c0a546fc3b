package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

func RatingField(questionID int64) string {
	return fmt.Sprintf("rating_%d", questionID)
}

func CommentField(questionID int64) string {
	return fmt.Sprintf("comment_%d", questionID)
}

// ParseRating 只接受 1~5 的整数
func ParseRating(raw string) (int32, bool) {
	rating, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, false
	}
	if rating < domain.MinRating || rating > domain.MaxRating {
		return 0, false
	}
	return int32(rating), true
}

// QuestionsForRole 返回面向该角色的问题，管理员没有需要回答的问题
func QuestionsForRole(questions []*domain.Question, role domain.Role) []*domain.Question {
	result := make([]*domain.Question, 0)
	if !role.IsStakeholder() {
		return result
	}
	for _, q := range questions {
		if q.StakeholderType == role {
			result = append(result, q)
		}
	}
	return result
}

// BuildFeedbackResponses 根据表单生成回复。评分缺失或非法的问题直接跳过，不影响其他问题；
// 院系与届别在此时从 Profile 复制
func BuildFeedbackResponses(user *domain.User, profile *domain.Profile, questions []*domain.Question, form url.Values) []*domain.FeedbackResponse {
	responses := make([]*domain.FeedbackResponse, 0)

	for _, q := range QuestionsForRole(questions, profile.Role) {
		rating, ok := ParseRating(form.Get(RatingField(q.ID)))
		if !ok {
			continue
		}

		responses = append(responses, &domain.FeedbackResponse{
			UserID:     user.ID,
			QuestionID: q.ID,
			Rating:     rating,
			Comment:    strings.TrimSpace(form.Get(CommentField(q.ID))),
			Department: profile.Department,
			Batch:      profile.Batch,
		})
	}

	return responses
}

func ValidateQuestion(q *domain.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("问题内容不能为空")
	}
	if strings.TrimSpace(q.Category) == "" {
		return fmt.Errorf("问题分类不能为空")
	}
	if !q.StakeholderType.IsStakeholder() {
		return fmt.Errorf("问题的对象类型 %q 非法", q.StakeholderType)
	}
	return nil
}

// ValidateProfile 检查新建用户的资料，只有用人单位需要填写公司
func ValidateProfile(p *domain.Profile) error {
	if !p.Role.IsValid() {
		return fmt.Errorf("角色 %q 非法", p.Role)
	}
	if p.Role != domain.RoleEmployer && p.Company != "" {
		return fmt.Errorf("只有用人单位可以填写公司")
	}
	return nil
}
