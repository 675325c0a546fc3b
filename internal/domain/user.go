package domain

import (
	"time"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleAlumni   Role = "alumni"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// StakeholderTypes 是可以提交反馈的角色，顺序即页面与统计中的展示顺序
var StakeholderTypes = []Role{RoleStudent, RoleAlumni, RoleEmployer}

func (r Role) IsStakeholder() bool {
	return r == RoleStudent || r == RoleAlumni || r == RoleEmployer
}

func (r Role) IsValid() bool {
	return r.IsStakeholder() || r == RoleAdmin
}

func (r Role) DisplayName() string {
	switch r {
	case RoleStudent:
		return "学生"
	case RoleAlumni:
		return "校友"
	case RoleEmployer:
		return "用人单位"
	case RoleAdmin:
		return "管理员"
	default:
		return string(r)
	}
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}

// Profile 与 User 一一对应，角色创建后不可修改
type Profile struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userID"`
	Role       Role      `json:"role"`
	Department string    `json:"department"`
	Batch      string    `json:"batch"`
	Company    string    `json:"company"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ProfileFilter struct {
	Role       *Role
	Department *string
}

type UserWithProfile struct {
	User    *User
	Profile *Profile
}
