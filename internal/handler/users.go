package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type usersPageData struct {
	Users            []*domain.UserWithProfile
	Roles            []domain.Role
	InitialAdminName string
	CurrentUserID    int64
}

// renderUsers 渲染用户管理页面，msg 与 errMsg 分别为成功与失败提示
func (h *Handler) renderUsers(w http.ResponseWriter, r *http.Request, status int, msg, errMsg string) {
	users, err := h.repository.GetAllUsersWithProfiles()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data := h.newPageData(r, "用户管理")
	data.Message = msg
	data.Error = errMsg
	data.Data = usersPageData{
		Users:            users,
		Roles:            []domain.Role{domain.RoleStudent, domain.RoleAlumni, domain.RoleEmployer, domain.RoleAdmin},
		InitialAdminName: h.config.InitialAdmin.Username,
		CurrentUserID:    viewerFromRequest(r).User().ID,
	}
	h.render(w, r, status, "users", data)
}

func (h *Handler) UsersPage(w http.ResponseWriter, r *http.Request) {
	h.renderUsers(w, r, http.StatusOK, "", "")
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderUsers(w, r, http.StatusBadRequest, "", "表单格式错误")
		return
	}

	req := struct {
		Username   string `label:"用户名" validate:"required,max=50"`
		FullName   string `label:"姓名" validate:"required,max=100"`
		Email      string `label:"邮箱" validate:"required,email"`
		Role       string `label:"角色" validate:"required,oneof=student alumni employer admin"`
		Department string `label:"院系" validate:"max=100"`
		Batch      string `label:"届别" validate:"max=20"`
		Company    string `label:"公司" validate:"max=100"`
	}{
		Username:   strings.TrimSpace(r.PostForm.Get("username")),
		FullName:   strings.TrimSpace(r.PostForm.Get("full_name")),
		Email:      strings.TrimSpace(r.PostForm.Get("email")),
		Role:       strings.TrimSpace(r.PostForm.Get("role")),
		Department: strings.TrimSpace(r.PostForm.Get("department")),
		Batch:      strings.TrimSpace(r.PostForm.Get("batch")),
		Company:    strings.TrimSpace(r.PostForm.Get("company")),
	}
	if err := h.validate.Struct(req); err != nil {
		h.renderUsers(w, r, http.StatusBadRequest, "", h.validationMessage(err))
		return
	}

	profile := &domain.Profile{
		Role:       domain.Role(req.Role),
		Department: req.Department,
		Batch:      req.Batch,
		Company:    req.Company,
	}
	if err := utils.ValidateProfile(profile); err != nil {
		h.renderUsers(w, r, http.StatusBadRequest, "", err.Error())
		return
	}

	// 生成随机密码
	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	// 对密码进行哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 插入用户及其资料到数据库中
	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
	}

	if err := h.repository.CreateUserWithProfile(user, profile); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "users_username_key":
				h.renderUsers(w, r, http.StatusConflict, "", "用户名已存在")
			case pgErr.ConstraintName == "users_email_key":
				h.renderUsers(w, r, http.StatusConflict, "", "邮箱已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 将初始密码通过邮件发送给新用户
	mailMessage := domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			FullName: user.FullName,
			Username: user.Username,
			Password: password,
			Role:     profile.Role.DisplayName(),
		},
	}
	if err := h.mailPublisher.Publish(mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.renderUsers(w, r, http.StatusCreated, "用户创建成功，初始密码已通过邮件发送", "")
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if user.ID == viewerFromRequest(r).User().ID {
		h.renderUsers(w, r, http.StatusForbidden, "", "不能删除自己")
		return
	}

	if err := h.repository.DeleteUser(user.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.renderUsers(w, r, http.StatusNotFound, "", "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.redirect(w, r, "/users")
}
