package analytics

import (
	"sort"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

func indexQuestions(questions []*domain.Question) map[int64]*domain.Question {
	m := make(map[int64]*domain.Question, len(questions))
	for _, q := range questions {
		m[q.ID] = q
	}
	return m
}

func accumulateByQuestion(responses []*domain.FeedbackResponse) map[int64]*accumulator {
	m := make(map[int64]*accumulator)
	for _, resp := range responses {
		acc, exists := m[resp.QuestionID]
		if !exists {
			acc = &accumulator{}
			m[resp.QuestionID] = acc
		}
		acc.add(resp.Rating)
	}
	return m
}

// CategoryAverages 按问题的分类计算平均分，分类顺序为遍历 questions 时首次出现的顺序，
// 没有任何回复的分类不会出现在结果中
func CategoryAverages(responses []*domain.FeedbackResponse, questions []*domain.Question) []CategoryAverage {
	questionMap := indexQuestions(questions)

	accs := make(map[string]*accumulator)
	for _, resp := range responses {
		q, exists := questionMap[resp.QuestionID]
		if !exists {
			continue
		}
		acc, exists := accs[q.Category]
		if !exists {
			acc = &accumulator{}
			accs[q.Category] = acc
		}
		acc.add(resp.Rating)
	}

	result := make([]CategoryAverage, 0, len(accs))
	seen := make(map[string]bool)
	for _, q := range questions {
		if seen[q.Category] {
			continue
		}
		seen[q.Category] = true

		acc, exists := accs[q.Category]
		if !exists || acc.count == 0 {
			continue
		}
		result = append(result, CategoryAverage{Category: q.Category, Mean: acc.mean()})
	}

	return result
}

// QuestionRankings 计算每个问题的平均分，并选出最弱和最强的 3 个问题。
// 均分相同时保持输入顺序；不足 3 个时全部返回，两个列表允许重叠
func QuestionRankings(responses []*domain.FeedbackResponse, questions []*domain.Question) Rankings {
	accs := accumulateByQuestion(responses)

	rated := make([]QuestionRating, 0, len(questions))
	for _, q := range questions {
		acc, exists := accs[q.ID]
		if !exists || acc.count == 0 {
			continue
		}
		rated = append(rated, QuestionRating{
			QuestionID: q.ID,
			Text:       q.Text,
			Category:   q.Category,
			Mean:       acc.mean(),
			Count:      acc.count,
		})
	}

	ascending := append([]QuestionRating{}, rated...)
	sort.SliceStable(ascending, func(i, j int) bool {
		return ascending[i].Mean < ascending[j].Mean
	})

	descending := append([]QuestionRating{}, rated...)
	sort.SliceStable(descending, func(i, j int) bool {
		return descending[i].Mean > descending[j].Mean
	})

	return Rankings{
		Questions:   rated,
		WeakAreas:   ascending[:min(rankingSize, len(ascending))],
		StrongAreas: descending[:min(rankingSize, len(descending))],
	}
}

// MonthlyTrend 按创建时间（UTC）所在的年月分桶，结果按月份升序
func MonthlyTrend(responses []*domain.FeedbackResponse) []MonthlyAverage {
	accs := make(map[string]*accumulator)
	for _, resp := range responses {
		month := resp.CreatedAt.UTC().Format("2006-01")
		acc, exists := accs[month]
		if !exists {
			acc = &accumulator{}
			accs[month] = acc
		}
		acc.add(resp.Rating)
	}

	months := make([]string, 0, len(accs))
	for month := range accs {
		months = append(months, month)
	}
	// "YYYY-MM" 的字典序即时间顺序
	sort.Strings(months)

	result := make([]MonthlyAverage, 0, len(months))
	for _, month := range months {
		result = append(result, MonthlyAverage{Month: month, Mean: accs[month].mean()})
	}

	return result
}

func RoleCounts(profiles []*domain.Profile) RoleCount {
	rc := RoleCount{}
	for _, p := range profiles {
		switch p.Role {
		case domain.RoleStudent:
			rc.Students++
		case domain.RoleAlumni:
			rc.Alumni++
		case domain.RoleEmployer:
			rc.Employers++
		}
	}
	return rc
}

// QuestionStats 为每个问题生成统计，无论是否有回复，顺序与 questions 一致
func QuestionStats(questions []*domain.Question, responses []*domain.FeedbackResponse) []QuestionStat {
	accs := accumulateByQuestion(responses)

	stats := make([]QuestionStat, 0, len(questions))
	for _, q := range questions {
		stat := QuestionStat{Question: q}
		if acc, exists := accs[q.ID]; exists && acc.count > 0 {
			mean := acc.mean()
			stat.Count = acc.count
			stat.Mean = &mean
		}
		stats = append(stats, stat)
	}

	return stats
}

func StakeholderBreakdown(questions []*domain.Question, responses []*domain.FeedbackResponse) []StakeholderGroup {
	stats := QuestionStats(questions, responses)

	groups := make([]StakeholderGroup, 0, len(domain.StakeholderTypes))
	for _, st := range domain.StakeholderTypes {
		group := StakeholderGroup{
			StakeholderType: st,
			Questions:       make([]QuestionStat, 0),
		}
		for _, stat := range stats {
			if stat.Question.StakeholderType == st {
				group.Questions = append(group.Questions, stat)
			}
		}
		groups = append(groups, group)
	}

	return groups
}

func BuildDashboard(questions []*domain.Question, responses []*domain.FeedbackResponse, profiles []*domain.Profile) *Dashboard {
	rankings := QuestionRankings(responses, questions)

	return &Dashboard{
		TotalResponses:   len(responses),
		RoleCount:        RoleCounts(profiles),
		CategoryAverages: CategoryAverages(responses, questions),
		WeakAreas:        rankings.WeakAreas,
		StrongAreas:      rankings.StrongAreas,
		MonthlyTrend:     MonthlyTrend(responses),
	}
}
