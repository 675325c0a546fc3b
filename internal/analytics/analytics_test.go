package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

var now = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func question(id int64, text, category string, st domain.Role) *domain.Question {
	return &domain.Question{ID: id, Text: text, Category: category, StakeholderType: st}
}

func response(questionID int64, rating int32, createdAt time.Time) *domain.FeedbackResponse {
	return &domain.FeedbackResponse{QuestionID: questionID, Rating: rating, CreatedAt: createdAt}
}

func studentQuestions() []*domain.Question {
	return []*domain.Question{
		question(1, "Quality of teaching", "Teaching", domain.RoleStudent),
		question(2, "Course content relevance", "Curriculum", domain.RoleStudent),
		question(3, "Lab facilities and equipment", "Infrastructure", domain.RoleStudent),
		question(4, "Faculty availability and support", "Teaching", domain.RoleStudent),
		question(5, "Learning resources (library, online)", "Resources", domain.RoleStudent),
	}
}

func means(ratings []QuestionRating) []float64 {
	result := make([]float64, 0, len(ratings))
	for _, r := range ratings {
		result = append(result, r.Mean)
	}
	return result
}

func isRounded2(x float64) bool {
	return math.Abs(x*100-math.Round(x*100)) < 1e-9
}

func TestCategoryAverages(t *testing.T) {
	questions := studentQuestions()
	responses := []*domain.FeedbackResponse{
		response(1, 5, now),
		response(4, 4, now),
		response(4, 4, now),
		response(2, 1, now),
		response(2, 2, now),
		response(2, 2, now),
		response(99, 1, now), // 不存在的问题会被忽略
	}

	got := CategoryAverages(responses, questions)

	// Infrastructure 与 Resources 没有回复，不出现在结果中
	require.Len(t, got, 2)
	assert.Equal(t, CategoryAverage{Category: "Teaching", Mean: 4.33}, got[0])
	assert.Equal(t, CategoryAverage{Category: "Curriculum", Mean: 1.67}, got[1])

	for _, avg := range got {
		assert.GreaterOrEqual(t, avg.Mean, 1.0)
		assert.LessOrEqual(t, avg.Mean, 5.0)
		assert.True(t, isRounded2(avg.Mean), "mean %v is not rounded to 2 decimals", avg.Mean)
	}
}

func TestCategoryAverages_Empty(t *testing.T) {
	assert.Empty(t, CategoryAverages(nil, studentQuestions()))
	assert.Empty(t, CategoryAverages(nil, nil))
}

func TestQuestionRankings_Scenario(t *testing.T) {
	questions := studentQuestions()
	responses := []*domain.FeedbackResponse{
		response(1, 5, now),
		response(2, 4, now),
		response(3, 3, now),
		response(4, 2, now),
		response(5, 1, now),
	}

	got := QuestionRankings(responses, questions)

	assert.Len(t, got.Questions, 5)
	assert.Equal(t, []float64{5, 4, 3}, means(got.StrongAreas))
	assert.Equal(t, []float64{1, 2, 3}, means(got.WeakAreas))
	assert.Equal(t, "Quality of teaching", got.StrongAreas[0].Text)
	assert.Equal(t, "Learning resources (library, online)", got.WeakAreas[0].Text)
}

func TestQuestionRankings_TiesKeepInputOrder(t *testing.T) {
	questions := studentQuestions()
	responses := []*domain.FeedbackResponse{
		response(1, 3, now),
		response(2, 3, now),
		response(3, 3, now),
		response(4, 3, now),
	}

	got := QuestionRankings(responses, questions)

	ids := func(ratings []QuestionRating) []int64 {
		result := make([]int64, 0, len(ratings))
		for _, r := range ratings {
			result = append(result, r.QuestionID)
		}
		return result
	}
	assert.Equal(t, []int64{1, 2, 3}, ids(got.WeakAreas))
	assert.Equal(t, []int64{1, 2, 3}, ids(got.StrongAreas))
}

func TestQuestionRankings_FewerThanThree(t *testing.T) {
	questions := studentQuestions()
	responses := []*domain.FeedbackResponse{
		response(2, 2, now),
		response(5, 4, now),
		response(5, 5, now),
	}

	got := QuestionRankings(responses, questions)

	require.Len(t, got.WeakAreas, 2)
	require.Len(t, got.StrongAreas, 2)
	assert.Equal(t, []float64{2, 4.5}, means(got.WeakAreas))
	assert.Equal(t, []float64{4.5, 2}, means(got.StrongAreas))
	assert.Equal(t, 2, got.StrongAreas[0].Count)
}

func TestQuestionRankings_Ordering(t *testing.T) {
	questions := studentQuestions()
	responses := []*domain.FeedbackResponse{
		response(1, 2, now), response(1, 3, now),
		response(2, 5, now),
		response(3, 1, now), response(3, 4, now),
		response(4, 4, now),
		response(5, 3, now), response(5, 3, now), response(5, 4, now),
	}

	got := QuestionRankings(responses, questions)

	require.LessOrEqual(t, len(got.WeakAreas), 3)
	require.LessOrEqual(t, len(got.StrongAreas), 3)
	for i := 1; i < len(got.WeakAreas); i++ {
		assert.LessOrEqual(t, got.WeakAreas[i-1].Mean, got.WeakAreas[i].Mean)
	}
	for i := 1; i < len(got.StrongAreas); i++ {
		assert.GreaterOrEqual(t, got.StrongAreas[i-1].Mean, got.StrongAreas[i].Mean)
	}
	assert.Equal(t, []float64{2.5, 2.5, 3.33}, means(got.WeakAreas))
	assert.Equal(t, []float64{5, 4, 3.33}, means(got.StrongAreas))
}

func TestQuestionRankings_Empty(t *testing.T) {
	got := QuestionRankings(nil, studentQuestions())
	assert.Empty(t, got.Questions)
	assert.Empty(t, got.WeakAreas)
	assert.Empty(t, got.StrongAreas)
}

func TestMonthlyTrend(t *testing.T) {
	responses := []*domain.FeedbackResponse{
		response(1, 4, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)),
		response(1, 2, time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)),
		response(2, 5, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
		response(2, 3, time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)),
		response(3, 4, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)),
		// 按 UTC 分桶：东八区的 2025-02-01 01:00 属于 2025-01
		response(3, 1, time.Date(2025, 2, 1, 1, 0, 0, 0, time.FixedZone("CST", 8*3600))),
	}

	got := MonthlyTrend(responses)

	assert.Equal(t, []MonthlyAverage{
		{Month: "2024-12", Mean: 3},
		{Month: "2025-01", Mean: 3},
		{Month: "2025-03", Mean: 3.5},
	}, got)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Month, got[i].Month)
	}
}

func TestMonthlyTrend_Empty(t *testing.T) {
	assert.Empty(t, MonthlyTrend(nil))
}

func TestRoleCounts(t *testing.T) {
	profiles := []*domain.Profile{
		{Role: domain.RoleStudent},
		{Role: domain.RoleStudent},
		{Role: domain.RoleAlumni},
		{Role: domain.RoleEmployer},
		{Role: domain.RoleAdmin},
	}

	assert.Equal(t, RoleCount{Students: 2, Alumni: 1, Employers: 1}, RoleCounts(profiles))
	assert.Equal(t, RoleCount{}, RoleCounts(nil))
}

func TestQuestionStats(t *testing.T) {
	questions := studentQuestions()[:3]
	responses := []*domain.FeedbackResponse{
		response(1, 5, now),
		response(1, 4, now),
		response(3, 2, now),
	}

	got := QuestionStats(questions, responses)

	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Count)
	require.NotNil(t, got[0].Mean)
	assert.Equal(t, 4.5, *got[0].Mean)
	assert.Equal(t, 0, got[1].Count)
	assert.Nil(t, got[1].Mean)
	assert.Same(t, questions[2], got[2].Question)
}

func TestStakeholderBreakdown(t *testing.T) {
	questions := []*domain.Question{
		question(1, "Technical skills of graduates", "Skills", domain.RoleEmployer),
		question(2, "Quality of teaching", "Teaching", domain.RoleStudent),
		question(3, "Placement assistance quality", "Placements", domain.RoleAlumni),
		question(4, "Communication skills", "Communication", domain.RoleEmployer),
	}
	responses := []*domain.FeedbackResponse{response(4, 3, now)}

	got := StakeholderBreakdown(questions, responses)

	require.Len(t, got, 3)
	assert.Equal(t, domain.RoleStudent, got[0].StakeholderType)
	assert.Equal(t, domain.RoleAlumni, got[1].StakeholderType)
	assert.Equal(t, domain.RoleEmployer, got[2].StakeholderType)
	require.Len(t, got[2].Questions, 2)
	assert.Nil(t, got[2].Questions[0].Mean)
	assert.Equal(t, 3.0, *got[2].Questions[1].Mean)
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := BuildDashboard(studentQuestions(), nil, nil)

	assert.Equal(t, 0, d.TotalResponses)
	assert.Equal(t, RoleCount{}, d.RoleCount)
	assert.Empty(t, d.CategoryAverages)
	assert.Empty(t, d.WeakAreas)
	assert.Empty(t, d.StrongAreas)
	assert.Empty(t, d.MonthlyTrend)
}

func TestBuildDashboard(t *testing.T) {
	responses := []*domain.FeedbackResponse{
		response(1, 5, now),
		response(2, 3, now.AddDate(0, -1, 0)),
	}
	profiles := []*domain.Profile{{Role: domain.RoleStudent}, {Role: domain.RoleAdmin}}

	d := BuildDashboard(studentQuestions(), responses, profiles)

	assert.Equal(t, 2, d.TotalResponses)
	assert.Equal(t, 1, d.RoleCount.Students)
	assert.Len(t, d.CategoryAverages, 2)
	assert.Equal(t, []float64{3, 5}, means(d.WeakAreas))
	assert.Equal(t, []float64{5, 3}, means(d.StrongAreas))
	assert.Equal(t, []MonthlyAverage{{Month: "2025-02", Mean: 3}, {Month: "2025-03", Mean: 5}}, d.MonthlyTrend)
}
