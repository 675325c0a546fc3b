package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

type mailTemplate struct {
	subject string
	tmpl    *template.Template
	data    func() any
}

func loadTemplates() (map[string]mailTemplate, error) {
	createUser, err := template.ParseFS(templateFS, "templates/create_user.html")
	if err != nil {
		return nil, err
	}
	resetPassword, err := template.ParseFS(templateFS, "templates/reset_password.html")
	if err != nil {
		return nil, err
	}

	return map[string]mailTemplate{
		domain.MailTypeCreateUser: {
			subject: "院系反馈系统 - 账户信息",
			tmpl:    createUser,
			data:    func() any { return &domain.CreateUserMailData{} },
		},
		domain.MailTypeResetPassword: {
			subject: "院系反馈系统 - 重置密码",
			tmpl:    resetPassword,
			data:    func() any { return &domain.ResetPasswordMailData{} },
		},
	}, nil
}

// buildMessage 根据队列中的消息构建邮件，返回的错误意味着该消息无法投递，不应重新入队
func buildMessage(from string, templates map[string]mailTemplate, body []byte) (*mail.Msg, error) {
	var raw struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	mt, ok := templates[raw.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型: %s", raw.Type)
	}

	data := mt.data()
	if err := json.Unmarshal(raw.Data, data); err != nil {
		return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(raw.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	if err := msg.SetBodyHTMLTemplate(mt.tmpl, data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	msg.Subject(mt.subject)

	return msg, nil
}
