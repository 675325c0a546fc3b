package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/analytics"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

type adminDashboardData struct {
	Dashboard   *analytics.Dashboard
	Departments []string
	Department  string
}

type userDashboardData struct {
	User          *domain.User
	Profile       *domain.Profile
	ResponseCount int
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	switch v := viewerFromRequest(r).(type) {
	case *domain.Admin:
		h.adminDashboard(w, r)
	case domain.Respondent:
		h.userDashboard(w, r, v)
	default:
		h.redirect(w, r, "/login")
	}
}

// adminDashboard 中院系筛选只作用于反馈，角色人数始终按全部资料统计
func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	department := strings.TrimSpace(r.URL.Query().Get("department"))

	filter := domain.FeedbackResponseFilter{}
	if department != "" {
		filter.Department = &department
	}

	var (
		responses []*domain.FeedbackResponse
		questions []*domain.Question
		profiles  []*domain.Profile
	)

	// 三个查询互不依赖，并行加载
	g := errgroup.Group{}
	g.Go(func() error {
		var err error
		responses, err = h.repository.ListFeedbackResponses(filter)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = h.repository.GetAllQuestions()
		return err
	})
	g.Go(func() error {
		var err error
		profiles, err = h.repository.ListProfiles(domain.ProfileFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data := h.newPageData(r, "管理员仪表盘")
	data.Data = adminDashboardData{
		Dashboard:   analytics.BuildDashboard(questions, responses, profiles),
		Departments: departmentsOf(profiles),
		Department:  department,
	}
	h.render(w, r, http.StatusOK, "admin_dashboard", data)
}

func (h *Handler) userDashboard(w http.ResponseWriter, r *http.Request, v domain.Respondent) {
	userID := v.User().ID
	count, err := h.repository.CountFeedbackResponses(domain.FeedbackResponseFilter{UserID: &userID})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data := h.newPageData(r, "我的仪表盘")
	data.Data = userDashboardData{
		User:          v.User(),
		Profile:       v.Profile(),
		ResponseCount: count,
	}
	h.render(w, r, http.StatusOK, "user_dashboard", data)
}

func departmentsOf(profiles []*domain.Profile) []string {
	departments := make([]string, 0)
	for _, p := range profiles {
		if p.Department != "" && !slices.Contains(departments, p.Department) {
			departments = append(departments, p.Department)
		}
	}
	slices.Sort(departments)
	return departments
}
