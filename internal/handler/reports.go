package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/analytics"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/report"
)

func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	questions, err := h.repository.GetAllQuestions()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	responses, err := h.repository.ListFeedbackResponses(domain.FeedbackResponseFilter{})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	buf := &bytes.Buffer{}
	if err := report.WriteCSV(buf, questions, responses); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	questions, err := h.repository.GetAllQuestions()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	responses, err := h.repository.ListFeedbackResponses(domain.FeedbackResponseFilter{})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data := h.newPageData(r, "详细分析")
	data.Data = analytics.StakeholderBreakdown(questions, responses)
	h.render(w, r, http.StatusOK, "analytics", data)
}
