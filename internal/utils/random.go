package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var Departments = []string{"计算机科学", "电子工程", "机械工程", "土木工程"}

var companies = []string{"腾讯", "华为", "字节跳动", "网易", "美团", "Tech Corp"}

func GenerateRandomStakeholderRole() domain.Role {
	return domain.StakeholderTypes[rand.Intn(len(domain.StakeholderTypes))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomProfile 按角色生成资料：学生和校友有院系与届别，用人单位只有公司
func GenerateRandomProfile(role domain.Role) *domain.Profile {
	profile := &domain.Profile{Role: role}

	switch role {
	case domain.RoleStudent:
		profile.Department = Departments[rand.Intn(len(Departments))]
		profile.Batch = fmt.Sprintf("%d", 2022+rand.Intn(4))
	case domain.RoleAlumni:
		profile.Department = Departments[rand.Intn(len(Departments))]
		profile.Batch = fmt.Sprintf("%d", 2015+rand.Intn(7))
	case domain.RoleEmployer:
		profile.Company = companies[rand.Intn(len(companies))]
	}

	return profile
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, *domain.Profile, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
	}

	return user, GenerateRandomProfile(GenerateRandomStakeholderRole()), nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

// GenerateRandomResponses 为该用户能回答的每个问题生成一条随机评分的回复
func GenerateRandomResponses(user *domain.User, profile *domain.Profile, questions []*domain.Question) []*domain.FeedbackResponse {
	applicable := QuestionsForRole(questions, profile.Role)
	responses := make([]*domain.FeedbackResponse, 0, len(applicable))

	for _, q := range applicable {
		responses = append(responses, &domain.FeedbackResponse{
			UserID:     user.ID,
			QuestionID: q.ID,
			Rating:     int32(rand.Intn(domain.MaxRating-domain.MinRating+1) + domain.MinRating),
			Department: profile.Department,
			Batch:      profile.Batch,
		})
	}

	return responses
}
