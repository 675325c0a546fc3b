package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/analytics"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

const NotAvailable = "N/A"

var Header = []string{"Question", "Category", "Stakeholder", "Average Rating", "Total Responses"}

func Filename(now time.Time) string {
	return fmt.Sprintf("feedback_report_%s.csv", now.Format("20060102"))
}

// WriteCSV 为每个问题输出一行，行顺序与 questions 一致，没有回复的问题均分为 N/A
func WriteCSV(w io.Writer, questions []*domain.Question, responses []*domain.FeedbackResponse) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return err
	}

	for _, stat := range analytics.QuestionStats(questions, responses) {
		average := NotAvailable
		if stat.Mean != nil {
			average = strconv.FormatFloat(*stat.Mean, 'f', 2, 64)
		}

		record := []string{
			stat.Question.Text,
			stat.Question.Category,
			string(stat.Question.StakeholderType),
			average,
			strconv.Itoa(stat.Count),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
