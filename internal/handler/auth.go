package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/cache"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const tokenCookieName = "__feedback_system_token"

var (
	errInvalidToken = errors.New("无效的令牌")
	errTokenRevoked = errors.New("令牌已登出")
)

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// authenticate 校验用户名和密码，用户不存在或密码错误时返回 nil 用户和 nil 错误
func (h *Handler) authenticate(username, password string) (*domain.User, error) {
	user, err := h.repository.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

func (h *Handler) issueToken(user *domain.User, profile *domain.Profile) (string, time.Time, error) {
	now := time.Now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(profile.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return ss, expiration, nil
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, token string, expiration time.Time) {
	// 通过 http-only 的 cookie 返回给客户端
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)
}

func (h *Handler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
	})
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, "/dashboard")
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	// 已登录的用户直接进入仪表盘
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		if _, err := h.parseToken(cookie.Value); err == nil {
			h.redirect(w, r, "/dashboard")
			return
		}
	}

	h.render(w, r, http.StatusOK, "login", h.newPageData(r, "登录"))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, http.StatusBadRequest, "表单格式错误")
		return
	}

	req := struct {
		Username string `label:"用户名" validate:"required"`
		Password string `label:"密码" validate:"required"`
	}{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.renderLoginError(w, r, http.StatusBadRequest, h.validationMessage(err))
		return
	}

	// 验证用户名和密码
	user, err := h.authenticate(req.Username, req.Password)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if user == nil {
		h.renderLoginError(w, r, http.StatusUnauthorized, "用户名不存在或密码错误")
		return
	}

	profile, err := h.repository.GetProfileByUserID(user.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	token, expiration, err := h.issueToken(user, profile)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.setTokenCookie(w, token, expiration)
	h.redirect(w, r, "/dashboard")
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	data := h.newPageData(r, "登录")
	data.Error = msg
	h.render(w, r, status, "login", data)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		claims, err := h.parseToken(cookie.Value)
		switch {
		case err == nil:
			// 令牌在剩余有效期内都不能再被使用
			ttl := time.Until(claims.ExpiresAt.Time)
			if err := h.sessions.RevokeToken(claims.ID, ttl); err != nil {
				h.internalServerError(w, r, err)
				return
			}
		case errors.Is(err, errInvalidToken), errors.Is(err, errTokenRevoked):
			// 令牌已经失效，只需要清除 cookie
		default:
			h.internalServerError(w, r, err)
			return
		}
	}

	h.clearTokenCookie(w)
	h.redirect(w, r, "/login")
}

func (h *Handler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "reset_password", h.newPageData(r, "重置密码"))
}

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	data := h.newPageData(r, "重置密码")

	if err := r.ParseForm(); err != nil {
		data.Error = "表单格式错误"
		h.render(w, r, http.StatusBadRequest, "reset_password", data)
		return
	}

	req := struct {
		Username string `label:"用户名" validate:"required"`
	}{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
	}
	if err := h.validate.Struct(req); err != nil {
		data.Error = h.validationMessage(err)
		h.render(w, r, http.StatusBadRequest, "reset_password", data)
		return
	}

	user, err := h.repository.GetUserByUsername(req.Username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 这里虽然已经知道了用户不存在，但是为了安全起见，还是告诉客户端邮件已发送，以防止接口被滥用
			h.renderResetPasswordSent(w, r, req.Username)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 生成 OTP 并将 OTP 存到 redis
	otp := utils.GenerateRandomOTP()
	if err := h.sessions.SetOTP(cache.OTPPurposeResetPassword, user.Username, otp); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 发送邮件到消息队列中
	mailMessage := domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   user.Email,
		Data: domain.ResetPasswordMailData{
			FullName:   user.FullName,
			OTP:        otp,
			Expiration: h.config.OTP.Expiration / 60, // 邮件中显示的过期时间以分钟为单位，而配置中以秒为单位
		},
	}
	if err := h.mailPublisher.Publish(mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.renderResetPasswordSent(w, r, user.Username)
}

func (h *Handler) renderResetPasswordSent(w http.ResponseWriter, r *http.Request, username string) {
	data := h.newPageData(r, "重置密码")
	data.Message = "重置密码所需验证码已通过邮件发送"
	data.Data = username
	h.render(w, r, http.StatusOK, "reset_password_confirm", data)
}

func (h *Handler) ConfirmResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	data := h.newPageData(r, "重置密码")
	data.Data = r.URL.Query().Get("username")
	h.render(w, r, http.StatusOK, "reset_password_confirm", data)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	data := h.newPageData(r, "重置密码")

	if err := r.ParseForm(); err != nil {
		data.Error = "表单格式错误"
		h.render(w, r, http.StatusBadRequest, "reset_password_confirm", data)
		return
	}

	req := struct {
		Username string `label:"用户名" validate:"required"`
		OTP      string `label:"验证码" validate:"required,len=6,numeric"`
		Password string `label:"新密码" validate:"required,min=8,max=72"`
	}{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		OTP:      strings.TrimSpace(r.PostForm.Get("otp")),
		Password: r.PostForm.Get("password"),
	}
	data.Data = req.Username

	if err := h.validate.Struct(req); err != nil {
		data.Error = h.validationMessage(err)
		h.render(w, r, http.StatusBadRequest, "reset_password_confirm", data)
		return
	}

	// 检验 OTP
	otp, err := h.sessions.GetOTP(cache.OTPPurposeResetPassword, req.Username)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		h.internalServerError(w, r, err)
		return
	}
	if err != nil || otp != req.OTP {
		data.Error = "验证码错误"
		h.render(w, r, http.StatusBadRequest, "reset_password_confirm", data)
		return
	}

	// 更新密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 先获取用户信息
	user, err := h.repository.GetUserByUsername(req.Username)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user.PasswordHash = string(hashedPassword)

	if err := h.repository.UpdateUser(user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			data.Error = "请重试"
			h.render(w, r, http.StatusConflict, "reset_password_confirm", data)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 删除 OTP
	if err := h.sessions.DelOTP(cache.OTPPurposeResetPassword, req.Username); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	loginData := h.newPageData(r, "登录")
	loginData.Message = "重置密码成功，请重新登录"
	h.render(w, r, http.StatusOK, "login", loginData)
}
