package handler

import (
	"html/template"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/config"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Repository 是 handler 需要的持久化操作，由 *repository.Repository 实现
type Repository interface {
	GetUserByID(id int64) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	UpdateUser(user *domain.User) error
	GetAllUsersWithProfiles() ([]*domain.UserWithProfile, error)
	DeleteUser(id int64) error
	CreateUserWithProfile(user *domain.User, profile *domain.Profile) error
	GetProfileByUserID(userID int64) (*domain.Profile, error)
	ListProfiles(filter domain.ProfileFilter) ([]*domain.Profile, error)
	GetAllQuestions() ([]*domain.Question, error)
	GetQuestionsByStakeholderType(stakeholderType domain.Role) ([]*domain.Question, error)
	CreateQuestion(question *domain.Question) error
	CreateFeedbackResponses(responses []*domain.FeedbackResponse) error
	ListFeedbackResponses(filter domain.FeedbackResponseFilter) ([]*domain.FeedbackResponse, error)
	CountFeedbackResponses(filter domain.FeedbackResponseFilter) (int, error)
}

// SessionStore 由 *cache.Store 实现
type SessionStore interface {
	RevokeToken(jti string, ttl time.Duration) error
	IsTokenRevoked(jti string) (bool, error)
	SetOTP(purpose, username, otp string) error
	GetOTP(purpose, username string) (string, error)
	DelOTP(purpose, username string) error
}

// MailPublisher 由 *mailqueue.Publisher 实现
type MailPublisher interface {
	Publish(msg domain.MailMessage) error
}

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    Repository
	translator    ut.Translator
	sessions      SessionStore
	mailPublisher MailPublisher
	pages         map[string]*template.Template
	limiter       *rateLimiter

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Repository, sessions SessionStore, publisher MailPublisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 错误信息中使用 label 标签里的中文字段名
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		label := strings.TrimSpace(field.Tag.Get("label"))
		if label == "" {
			return field.Name
		}
		return label
	})

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	var limiter *rateLimiter
	if cfg.RateLimit.Burst > 0 {
		limiter = newRateLimiter(
			rate.Every(time.Duration(cfg.RateLimit.Interval)*time.Second),
			cfg.RateLimit.Burst,
			time.Duration(cfg.RateLimit.IdleTimeout)*time.Second,
		)
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		sessions:      sessions,
		mailPublisher: publisher,
		pages:         pages,
		limiter:       limiter,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/", h.Index)

	// 认证相关
	h.Mux.Get("/login", h.LoginPage)
	h.Mux.With(h.limitAttempts).Post("/login", h.Login)
	h.Mux.Get("/logout", h.Logout)
	h.Mux.Route("/reset-password", func(r chi.Router) {
		r.Get("/", h.ResetPasswordPage)
		r.With(h.limitAttempts).Post("/", h.RequireResetPassword)
		r.Get("/confirm", h.ConfirmResetPasswordPage)
		r.With(h.limitAttempts).Post("/confirm", h.ConfirmResetPassword)
	})

	// 以下页面必须要在登录后才允许访问
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.viewer)

		r.Get("/dashboard", h.Dashboard)

		r.Route("/submit-feedback", func(r chi.Router) {
			r.Use(h.requireRespondent)
			r.Get("/", h.SubmitFeedbackPage)
			r.Post("/", h.SubmitFeedback)
		})

		// 以下页面只有管理员可以访问
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)

			r.Get("/export-report", h.ExportReport)
			r.Get("/analytics", h.Analytics)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.UsersPage)
				r.Post("/", h.CreateUser)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.userInfo)
					r.With(h.preventOperateInitialAdmin).Post("/delete", h.DeleteUser)
				})
			})

			r.Route("/questions", func(r chi.Router) {
				r.Get("/", h.QuestionsPage)
				r.Post("/", h.CreateQuestion)
			})
		})
	})
}
