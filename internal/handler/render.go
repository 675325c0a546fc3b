package handler

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/report"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"login",
	"reset_password",
	"reset_password_confirm",
	"admin_dashboard",
	"user_dashboard",
	"submit_feedback",
	"feedback_success",
	"analytics",
	"users",
	"questions",
	"error",
}

var templateFuncs = template.FuncMap{
	"roleName":     func(r domain.Role) string { return r.DisplayName() },
	"ratingField":  utils.RatingField,
	"commentField": utils.CommentField,
	"mean": func(m *float64) string {
		if m == nil {
			return report.NotAvailable
		}
		return fmt.Sprintf("%.2f", *m)
	},
	"ratings": func() []int {
		ratings := make([]int, 0, domain.MaxRating-domain.MinRating+1)
		for i := domain.MinRating; i <= domain.MaxRating; i++ {
			ratings = append(ratings, i)
		}
		return ratings
	},
}

// parsePages 为每个页面单独解析一份模板，页面之间的 content 定义互不覆盖
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("解析页面 %s 失败: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

type pageData struct {
	Title   string
	Viewer  domain.Viewer
	IsAdmin bool
	Message string
	Error   string
	Data    any
}

func (h *Handler) newPageData(r *http.Request, title string) *pageData {
	data := &pageData{Title: title}
	if v, ok := r.Context().Value(ViewerCtxKey).(domain.Viewer); ok {
		data.Viewer = v
		data.IsAdmin = v.Role() == domain.RoleAdmin
	}
	return data
}

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data *pageData) {
	tmpl, ok := h.pages[page]
	if !ok {
		h.logInternalServerError(r, fmt.Errorf("页面 %s 不存在", page))
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
		return
	}

	// 先渲染到缓冲区，避免模板出错时输出半个页面
	buf := &bytes.Buffer{}
	if err := tmpl.ExecuteTemplate(buf, "layout", data); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)

	data := h.newPageData(r, "出错了")
	data.Error = "服务器内部错误"
	h.render(w, r, http.StatusInternalServerError, "error", data)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// validationMessage 返回第一条翻译后的校验错误
func (h *Handler) validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	return validationErrors[0].Translate(h.translator)
}
