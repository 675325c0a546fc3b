package domain

import (
	"errors"
	"fmt"
)

var ErrProfileMismatch = errors.New("profile does not belong to user")

// Viewer 表示当前请求的登录者，每个请求只在中间件中构建一次
type Viewer interface {
	User() *User
	Profile() *Profile
	Role() Role
}

// Respondent 是可以提交反馈的登录者（学生、校友、用人单位）
type Respondent interface {
	Viewer
	StakeholderType() Role
}

type viewer struct {
	user    *User
	profile *Profile
}

func (v viewer) User() *User       { return v.user }
func (v viewer) Profile() *Profile { return v.profile }
func (v viewer) Role() Role        { return v.profile.Role }

type Student struct{ viewer }

func (s *Student) StakeholderType() Role { return RoleStudent }

type Alumni struct{ viewer }

func (a *Alumni) StakeholderType() Role { return RoleAlumni }

type Employer struct{ viewer }

func (e *Employer) StakeholderType() Role { return RoleEmployer }

type Admin struct{ viewer }

func NewViewer(user *User, profile *Profile) (Viewer, error) {
	if user == nil || profile == nil || profile.UserID != user.ID {
		return nil, ErrProfileMismatch
	}

	v := viewer{user: user, profile: profile}
	switch profile.Role {
	case RoleStudent:
		return &Student{v}, nil
	case RoleAlumni:
		return &Alumni{v}, nil
	case RoleEmployer:
		return &Employer{v}, nil
	case RoleAdmin:
		return &Admin{v}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", profile.Role)
	}
}
