package seed

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

type fakeStore struct {
	nextID    int64
	users     []*domain.User
	profiles  []*domain.Profile
	questions []*domain.Question
	responses []*domain.FeedbackResponse
}

func (f *fakeStore) GetUserByUsername(username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) CreateUserWithProfile(user *domain.User, profile *domain.Profile) error {
	f.nextID++
	user.ID = f.nextID
	profile.UserID = user.ID
	f.users = append(f.users, user)
	f.profiles = append(f.profiles, profile)
	return nil
}

func (f *fakeStore) GetAllQuestions() ([]*domain.Question, error) {
	return f.questions, nil
}

func (f *fakeStore) CreateQuestion(question *domain.Question) error {
	f.nextID++
	question.ID = f.nextID
	f.questions = append(f.questions, question)
	return nil
}

func (f *fakeStore) CreateFeedbackResponses(responses []*domain.FeedbackResponse) error {
	f.responses = append(f.responses, responses...)
	return nil
}

func TestDefaultQuestions(t *testing.T) {
	questions, err := DefaultQuestions()
	require.NoError(t, err)
	require.Len(t, questions, 15)

	counts := map[domain.Role]int{}
	for _, q := range questions {
		counts[q.StakeholderType]++
	}
	assert.Equal(t, map[domain.Role]int{domain.RoleStudent: 5, domain.RoleAlumni: 5, domain.RoleEmployer: 5}, counts)
	assert.Equal(t, "Learning resources (library, online)", questions[4].Text)
}

func TestLoadQuestions_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "question,category,type\nx,y,student\n"},
		{"invalid stakeholder", "text,category,stakeholder_type\nx,y,admin\n"},
		{"missing category", "text,category,stakeholder_type\nx,,student\n"},
		{"wrong field count", "text,category,stakeholder_type\nx,y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadQuestions(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestSeedSampleData(t *testing.T) {
	store := &fakeStore{}

	require.NoError(t, SeedSampleData(store, "example.com"))

	assert.Len(t, store.questions, 15)
	require.Len(t, store.users, 3)
	assert.Equal(t, "student1@example.com", store.users[0].Email)
	assert.Len(t, store.responses, 15)

	for _, resp := range store.responses {
		assert.GreaterOrEqual(t, resp.Rating, int32(2))
		assert.LessOrEqual(t, resp.Rating, int32(domain.MaxRating))
	}

	// 第二次执行不会重复插入
	require.NoError(t, SeedSampleData(store, "example.com"))
	assert.Len(t, store.questions, 15)
	assert.Len(t, store.users, 3)
	assert.Len(t, store.responses, 15)
}
