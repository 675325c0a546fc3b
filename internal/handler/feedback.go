package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/utils"
)

func (h *Handler) SubmitFeedbackPage(w http.ResponseWriter, r *http.Request) {
	respondent := viewerFromRequest(r).(domain.Respondent)

	questions, err := h.repository.GetQuestionsByStakeholderType(respondent.StakeholderType())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data := h.newPageData(r, "提交反馈")
	data.Data = questions
	h.render(w, r, http.StatusOK, "submit_feedback", data)
}

// SubmitFeedback 只保存评分合法的条目，其余条目直接跳过
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	respondent := viewerFromRequest(r).(domain.Respondent)

	if err := r.ParseForm(); err != nil {
		data := h.newPageData(r, "提交反馈")
		data.Error = "表单格式错误"
		h.render(w, r, http.StatusBadRequest, "submit_feedback", data)
		return
	}

	questions, err := h.repository.GetQuestionsByStakeholderType(respondent.StakeholderType())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	responses := utils.BuildFeedbackResponses(respondent.User(), respondent.Profile(), questions, r.PostForm)
	if err := h.repository.CreateFeedbackResponses(responses); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data := h.newPageData(r, "提交成功")
	data.Data = len(responses)
	h.render(w, r, http.StatusOK, "feedback_success", data)
}
