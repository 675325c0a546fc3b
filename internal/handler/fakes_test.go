package handler

import (
	"database/sql"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/cache"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/config"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepository struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*domain.User
	profiles  map[int64]*domain.Profile
	questions []*domain.Question
	responses []*domain.FeedbackResponse

	lastResponseFilter domain.FeedbackResponseFilter
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:    make(map[int64]*domain.User),
		profiles: make(map[int64]*domain.Profile),
	}
}

func (f *fakeRepository) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepository) GetUserByID(id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeRepository) GetUserByUsername(username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) UpdateUser(user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.users[user.ID]
	if !ok || stored.Version != user.Version {
		return sql.ErrNoRows
	}
	user.Version++
	updated := *user
	f.users[user.ID] = &updated
	return nil
}

func (f *fakeRepository) GetAllUsersWithProfiles() ([]*domain.UserWithProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	users := make([]*domain.UserWithProfile, 0, len(f.users))
	for id, user := range f.users {
		users = append(users, &domain.UserWithProfile{User: user, Profile: f.profiles[id]})
	}
	slices.SortFunc(users, func(a, b *domain.UserWithProfile) int { return int(a.User.ID - b.User.ID) })
	return users, nil
}

func (f *fakeRepository) DeleteUser(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.users, id)
	delete(f.profiles, id)
	f.responses = slices.DeleteFunc(f.responses, func(r *domain.FeedbackResponse) bool { return r.UserID == id })
	return nil
}

func (f *fakeRepository) CreateUserWithProfile(user *domain.User, profile *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Username == user.Username {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
		}
		if u.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}

	user.ID = f.id()
	user.CreatedAt = time.Now()
	user.Version = 1
	profile.ID = f.id()
	profile.UserID = user.ID
	profile.CreatedAt = user.CreatedAt
	f.users[user.ID] = user
	f.profiles[user.ID] = profile
	return nil
}

func (f *fakeRepository) GetProfileByUserID(userID int64) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	profile, ok := f.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return profile, nil
}

func (f *fakeRepository) ListProfiles(filter domain.ProfileFilter) ([]*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	profiles := make([]*domain.Profile, 0)
	for _, p := range f.profiles {
		if filter.Role != nil && p.Role != *filter.Role {
			continue
		}
		if filter.Department != nil && p.Department != *filter.Department {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (f *fakeRepository) GetAllQuestions() ([]*domain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.questions), nil
}

func (f *fakeRepository) GetQuestionsByStakeholderType(stakeholderType domain.Role) ([]*domain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	questions := make([]*domain.Question, 0)
	for _, q := range f.questions {
		if q.StakeholderType == stakeholderType {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (f *fakeRepository) CreateQuestion(question *domain.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	question.ID = f.id()
	question.CreatedAt = time.Now()
	f.questions = append(f.questions, question)
	return nil
}

func (f *fakeRepository) CreateFeedbackResponses(responses []*domain.FeedbackResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, resp := range responses {
		resp.ID = f.id()
		resp.CreatedAt = time.Now()
		f.responses = append(f.responses, resp)
	}
	return nil
}

func (f *fakeRepository) matches(resp *domain.FeedbackResponse, filter domain.FeedbackResponseFilter) bool {
	if filter.UserID != nil && resp.UserID != *filter.UserID {
		return false
	}
	if filter.QuestionID != nil && resp.QuestionID != *filter.QuestionID {
		return false
	}
	if filter.Department != nil && resp.Department != *filter.Department {
		return false
	}
	return true
}

func (f *fakeRepository) ListFeedbackResponses(filter domain.FeedbackResponseFilter) ([]*domain.FeedbackResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastResponseFilter = filter
	responses := make([]*domain.FeedbackResponse, 0)
	for _, resp := range f.responses {
		if f.matches(resp, filter) {
			responses = append(responses, resp)
		}
	}
	return responses, nil
}

func (f *fakeRepository) CountFeedbackResponses(filter domain.FeedbackResponseFilter) (int, error) {
	responses, err := f.ListFeedbackResponses(filter)
	return len(responses), err
}

type fakeSessions struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	otps    map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		revoked: make(map[string]time.Duration),
		otps:    make(map[string]string),
	}
}

func (f *fakeSessions) RevokeToken(jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.revoked[jti] = ttl
	return nil
}

func (f *fakeSessions) IsTokenRevoked(jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.revoked[jti]
	return ok, nil
}

func (f *fakeSessions) SetOTP(purpose, username, otp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.otps[purpose+"/"+username] = otp
	return nil
}

func (f *fakeSessions) GetOTP(purpose, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	otp, ok := f.otps[purpose+"/"+username]
	if !ok {
		return "", cache.ErrNotFound
	}
	return otp, nil
}

func (f *fakeSessions) DelOTP(purpose, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.otps, purpose+"/"+username)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []domain.MailMessage
}

func (f *fakePublisher) Publish(msg domain.MailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, msg)
	return nil
}

type testEnv struct {
	handler   *Handler
	repo      *fakeRepository
	sessions  *fakeSessions
	publisher *fakePublisher
}

func newTestEnv(t *testing.T, opts ...func(cfg *config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Environment = "development"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.InitialAdmin.Username = "admin"
	cfg.NewUser.PasswordLength = 12
	cfg.OTP.Expiration = 900
	for _, opt := range opts {
		opt(cfg)
	}

	env := &testEnv{
		repo:      newFakeRepository(),
		sessions:  newFakeSessions(),
		publisher: &fakePublisher{},
	}

	h, err := NewHandler(cfg, env.repo, env.sessions, env.publisher)
	require.NoError(t, err)
	h.RegisterRoutes()
	env.handler = h

	return env
}

func (e *testEnv) addUser(t *testing.T, username, password string, profile *domain.Profile) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     username + "的姓名",
		Email:        username + "@example.com",
	}
	require.NoError(t, e.repo.CreateUserWithProfile(user, profile))

	return user
}

func (e *testEnv) addQuestion(t *testing.T, text, category string, stakeholderType domain.Role) *domain.Question {
	t.Helper()

	q := &domain.Question{Text: text, Category: category, StakeholderType: stakeholderType}
	require.NoError(t, e.repo.CreateQuestion(q))

	return q
}

// cookieFor 直接签发令牌，跳过登录表单
func (e *testEnv) cookieFor(t *testing.T, user *domain.User) *http.Cookie {
	t.Helper()

	profile, err := e.repo.GetProfileByUserID(user.ID)
	require.NoError(t, err)

	token, expiration, err := e.handler.issueToken(user, profile)
	require.NoError(t, err)

	return &http.Cookie{Name: tokenCookieName, Value: token, Expires: expiration}
}
