package seed

import (
	"database/sql"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

//go:embed data/questions.csv
var defaultQuestionsCSV string

// Store 是填充数据时用到的持久化操作，由 *repository.Repository 实现
type Store interface {
	GetUserByUsername(username string) (*domain.User, error)
	CreateUserWithProfile(user *domain.User, profile *domain.Profile) error
	GetAllQuestions() ([]*domain.Question, error)
	CreateQuestion(question *domain.Question) error
	CreateFeedbackResponses(responses []*domain.FeedbackResponse) error
}

var questionHeaders = []string{"text", "category", "stakeholder_type"}

// LoadQuestions 读取 text,category,stakeholder_type 三列的 CSV，第一行为表头
func LoadQuestions(r io.Reader) ([]*domain.Question, error) {
	reader := csv.NewReader(r)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	if len(headers) != len(questionHeaders) {
		return nil, fmt.Errorf("表头应为 %s", strings.Join(questionHeaders, ","))
	}
	for i, header := range headers {
		if strings.TrimSpace(header) != questionHeaders[i] {
			return nil, fmt.Errorf("表头应为 %s", strings.Join(questionHeaders, ","))
		}
	}

	questions := make([]*domain.Question, 0)
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		q := &domain.Question{
			Text:            strings.TrimSpace(row[0]),
			Category:        strings.TrimSpace(row[1]),
			StakeholderType: domain.Role(strings.TrimSpace(row[2])),
		}
		if err := utils.ValidateQuestion(q); err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}

		questions = append(questions, q)
	}

	return questions, nil
}

func DefaultQuestions() ([]*domain.Question, error) {
	return LoadQuestions(strings.NewReader(defaultQuestionsCSV))
}

// SeedQuestions 插入问题，返回成功插入的数量
func SeedQuestions(s Store, questions []*domain.Question) int {
	cnt := 0
	for _, q := range questions {
		if err := s.CreateQuestion(q); err != nil {
			slog.Error("插入问题失败", "text", q.Text, "error", err)
			continue
		}
		cnt++
	}
	return cnt
}

type sampleUser struct {
	Username  string
	Password  string
	FullName  string
	Profile   domain.Profile
	MinRating int
	Comment   string
}

var sampleUsers = []sampleUser{
	{
		Username:  "student1",
		Password:  "student123",
		FullName:  "John Doe",
		Profile:   domain.Profile{Role: domain.RoleStudent, Department: "计算机科学", Batch: "2024"},
		MinRating: 3,
		Comment:   "Sample feedback from student",
	},
	{
		Username:  "alumni1",
		Password:  "alumni123",
		FullName:  "Jane Smith",
		Profile:   domain.Profile{Role: domain.RoleAlumni, Department: "计算机科学", Batch: "2022"},
		MinRating: 3,
		Comment:   "Sample feedback from alumni",
	},
	{
		Username:  "employer1",
		Password:  "employer123",
		FullName:  "HR Manager",
		Profile:   domain.Profile{Role: domain.RoleEmployer, Company: "Tech Corp"},
		MinRating: 2,
		Comment:   "Sample feedback from employer",
	},
}

// SeedSampleData 插入示例用户、默认问题和示例反馈，已存在的用户与问题不会重复插入
func SeedSampleData(s Store, emailDomainName string) error {
	questions, err := s.GetAllQuestions()
	if err != nil {
		return err
	}

	if len(questions) == 0 {
		defaults, err := DefaultQuestions()
		if err != nil {
			return err
		}
		slog.Info("插入默认问题", "count", SeedQuestions(s, defaults))

		questions, err = s.GetAllQuestions()
		if err != nil {
			return err
		}
	}

	for _, su := range sampleUsers {
		_, err := s.GetUserByUsername(su.Username)
		switch {
		case err == nil:
			slog.Info("示例用户已存在，跳过", "username", su.Username)
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		user := &domain.User{
			Username:     su.Username,
			PasswordHash: string(passwordHash),
			FullName:     su.FullName,
			Email:        su.Username + "@" + emailDomainName,
		}
		profile := su.Profile
		if err := s.CreateUserWithProfile(user, &profile); err != nil {
			return err
		}

		responses := make([]*domain.FeedbackResponse, 0)
		for _, q := range utils.QuestionsForRole(questions, profile.Role) {
			responses = append(responses, &domain.FeedbackResponse{
				UserID:     user.ID,
				QuestionID: q.ID,
				Rating:     int32(su.MinRating + rand.Intn(domain.MaxRating-su.MinRating+1)),
				Comment:    su.Comment,
				Department: profile.Department,
				Batch:      profile.Batch,
			})
		}
		if err := s.CreateFeedbackResponses(responses); err != nil {
			return err
		}

		slog.Info("插入示例用户成功", "username", su.Username, "responses", len(responses))
	}

	return nil
}
