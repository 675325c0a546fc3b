package handler

import (
	"net/http"
	"strings"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/utils"
)

type questionsPageData struct {
	Questions        []*domain.Question
	StakeholderTypes []domain.Role
}

func (h *Handler) renderQuestions(w http.ResponseWriter, r *http.Request, status int, msg, errMsg string) {
	questions, err := h.repository.GetAllQuestions()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data := h.newPageData(r, "问题管理")
	data.Message = msg
	data.Error = errMsg
	data.Data = questionsPageData{
		Questions:        questions,
		StakeholderTypes: domain.StakeholderTypes,
	}
	h.render(w, r, status, "questions", data)
}

func (h *Handler) QuestionsPage(w http.ResponseWriter, r *http.Request) {
	h.renderQuestions(w, r, http.StatusOK, "", "")
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderQuestions(w, r, http.StatusBadRequest, "", "表单格式错误")
		return
	}

	req := struct {
		Text            string `label:"问题内容" validate:"required,max=500"`
		Category        string `label:"分类" validate:"required,max=100"`
		StakeholderType string `label:"对象类型" validate:"required,oneof=student alumni employer"`
	}{
		Text:            strings.TrimSpace(r.PostForm.Get("text")),
		Category:        strings.TrimSpace(r.PostForm.Get("category")),
		StakeholderType: strings.TrimSpace(r.PostForm.Get("stakeholder_type")),
	}
	if err := h.validate.Struct(req); err != nil {
		h.renderQuestions(w, r, http.StatusBadRequest, "", h.validationMessage(err))
		return
	}

	question := &domain.Question{
		Text:            req.Text,
		Category:        req.Category,
		StakeholderType: domain.Role(req.StakeholderType),
	}
	if err := utils.ValidateQuestion(question); err != nil {
		h.renderQuestions(w, r, http.StatusBadRequest, "", err.Error())
		return
	}

	if err := h.repository.CreateQuestion(question); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.renderQuestions(w, r, http.StatusCreated, "问题添加成功", "")
}
