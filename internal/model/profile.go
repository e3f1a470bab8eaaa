package model

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"
)

// OtherOption 选择“其他”时需要补充说明
const OtherOption = "Other"

// EnrollmentStatus 在读状态
type EnrollmentStatus string

const (
	EnrollmentStudent  EnrollmentStatus = "Student"
	EnrollmentGraduate EnrollmentStatus = "Graduate"
	EnrollmentEmployed EnrollmentStatus = "Employed"
	EnrollmentOther    EnrollmentStatus = OtherOption
)

var EnrollmentStatuses = []EnrollmentStatus{EnrollmentStudent, EnrollmentGraduate, EnrollmentEmployed, EnrollmentOther}

// Role 当前角色
type Role string

const (
	RoleFounder    Role = "Founder"
	RoleCoFounder  Role = "CoFounder"
	RoleDeveloper  Role = "Developer"
	RoleDesigner   Role = "Designer"
	RoleResearcher Role = "Researcher"
	RoleOther      Role = OtherOption
)

var Roles = []Role{RoleFounder, RoleCoFounder, RoleDeveloper, RoleDesigner, RoleResearcher, RoleOther}

// SupportInterest 希望获得的支持
type SupportInterest string

const (
	SupportMentorship SupportInterest = "Mentorship"
	SupportFunding    SupportInterest = "Funding"
	SupportWorkspace  SupportInterest = "Workspace"
	SupportNetworking SupportInterest = "Networking"
	SupportTraining   SupportInterest = "Training"
	SupportLegal      SupportInterest = "Legal"
	SupportOther      SupportInterest = OtherOption
)

var SupportInterests = []SupportInterest{
	SupportMentorship, SupportFunding, SupportWorkspace, SupportNetworking, SupportTraining, SupportLegal, SupportOther,
}

// Profile 孵化成员资料，远端资料服务为唯一数据源
type Profile struct {
	BaseModel
	PublicID string `gorm:"uniqueIndex;type:varchar(32);not null" json:"public_id"`
	OwnerID  string `gorm:"uniqueIndex;type:varchar(64);not null" json:"owner_id"` // JWT 中的 uid

	// 阶段一：身份与联系方式
	FirstName  string `gorm:"type:varchar(64);not null;default:''" json:"first_name"`
	MiddleName string `gorm:"type:varchar(64);not null;default:''" json:"middle_name"`
	LastName   string `gorm:"type:varchar(64);not null;default:''" json:"last_name"`
	PhotoURL   string `gorm:"type:varchar(512);not null;default:''" json:"photo_url"`
	Email      string `gorm:"type:varchar(254);not null;default:''" json:"email"`
	Phone      string `gorm:"type:varchar(32);not null;default:''" json:"phone"`

	// 阶段二：学业
	EnrollmentStatus      EnrollmentStatus `gorm:"type:varchar(16);not null;default:''" json:"enrollment_status"`
	EnrollmentStatusOther string           `gorm:"type:varchar(128);not null;default:''" json:"enrollment_status_other"`
	Institution           string           `gorm:"type:varchar(128);not null;default:''" json:"institution"`
	Program               string           `gorm:"type:varchar(128);not null;default:''" json:"program"`
	GraduationYear        int              `gorm:"not null;default:0" json:"graduation_year"`

	// 阶段三：职业
	CurrentRole           Role                                 `gorm:"type:varchar(16);not null;default:''" json:"current_role"`
	CurrentRoleOther      string                               `gorm:"type:varchar(128);not null;default:''" json:"current_role_other"`
	Skills                datatypes.JSONSlice[string]          `gorm:"type:jsonb;default:'[]'" json:"skills"`
	SupportInterests      datatypes.JSONSlice[SupportInterest] `gorm:"type:jsonb;default:'[]'" json:"support_interests"`
	SupportInterestsOther string                               `gorm:"type:varchar(256);not null;default:''" json:"support_interests_other"`

	// 阶段五：补充说明
	AdditionalNotes string `gorm:"type:text;not null;default:''" json:"additional_notes"`

	CompletionPercentage int `gorm:"not null;default:0" json:"completion_percentage"`
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}

// Clone 深拷贝，控制器对外只暴露副本
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Skills = append(datatypes.JSONSlice[string](nil), p.Skills...)
	cp.SupportInterests = append(datatypes.JSONSlice[SupportInterest](nil), p.SupportInterests...)
	return &cp
}

// Value 读取字段当前值；未填写返回 nil
func (p *Profile) Value(id FieldID) []string {
	switch id {
	case FieldFirstName:
		return text(p.FirstName)
	case FieldMiddleName:
		return text(p.MiddleName)
	case FieldLastName:
		return text(p.LastName)
	case FieldPhotoURL:
		return text(p.PhotoURL)
	case FieldEmail:
		return text(p.Email)
	case FieldPhone:
		return text(p.Phone)
	case FieldEnrollmentStatus:
		return text(string(p.EnrollmentStatus))
	case FieldEnrollmentStatusOther:
		return text(p.EnrollmentStatusOther)
	case FieldInstitution:
		return text(p.Institution)
	case FieldProgram:
		return text(p.Program)
	case FieldGraduationYear:
		if p.GraduationYear == 0 {
			return nil
		}
		return []string{strconv.Itoa(p.GraduationYear)}
	case FieldCurrentRole:
		return text(string(p.CurrentRole))
	case FieldCurrentRoleOther:
		return text(p.CurrentRoleOther)
	case FieldSkills:
		return nonEmpty(p.Skills)
	case FieldSupportInterests:
		items := make([]string, 0, len(p.SupportInterests))
		for _, s := range p.SupportInterests {
			items = append(items, string(s))
		}
		return nonEmpty(items)
	case FieldSupportInterestsOther:
		return text(p.SupportInterestsOther)
	case FieldAdditionalNotes:
		return text(p.AdditionalNotes)
	default:
		return nil
	}
}

// Set 写入字段；空值清空该字段。调用方负责先做校验，这里只做类型转换
func (p *Profile) Set(id FieldID, values []string) error {
	fs := FieldSet{id: values}
	v := fs.Text(id)

	switch id {
	case FieldFirstName:
		p.FirstName = v
	case FieldMiddleName:
		p.MiddleName = v
	case FieldLastName:
		p.LastName = v
	case FieldPhotoURL:
		p.PhotoURL = v
	case FieldEmail:
		p.Email = v
	case FieldPhone:
		p.Phone = v
	case FieldEnrollmentStatus:
		p.EnrollmentStatus = EnrollmentStatus(v)
	case FieldEnrollmentStatusOther:
		p.EnrollmentStatusOther = v
	case FieldInstitution:
		p.Institution = v
	case FieldProgram:
		p.Program = v
	case FieldGraduationYear:
		if v == "" {
			p.GraduationYear = 0
			return nil
		}
		year, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("graduation_year %q is not a number", v)
		}
		p.GraduationYear = year
	case FieldCurrentRole:
		p.CurrentRole = Role(v)
	case FieldCurrentRoleOther:
		p.CurrentRoleOther = v
	case FieldSkills:
		p.Skills = datatypes.JSONSlice[string](fs.Items(id))
	case FieldSupportInterests:
		items := fs.Items(id)
		interests := make(datatypes.JSONSlice[SupportInterest], 0, len(items))
		for _, item := range items {
			interests = append(interests, SupportInterest(item))
		}
		p.SupportInterests = interests
	case FieldSupportInterestsOther:
		p.SupportInterestsOther = v
	case FieldAdditionalNotes:
		p.AdditionalNotes = v
	default:
		return fmt.Errorf("unknown field %q", id)
	}
	return nil
}

// Apply 写入 FieldSet 中出现的字段，未出现的字段保持不变
func (p *Profile) Apply(fields FieldSet) error {
	for _, id := range fields.IDs() {
		if err := p.Set(id, fields[id]); err != nil {
			return err
		}
	}
	return nil
}

// PhaseValues 某个阶段当前已填写的字段
func (p *Profile) PhaseValues(phase Phase) FieldSet {
	out := FieldSet{}
	for _, id := range PhaseFields[phase] {
		if values := p.Value(id); len(values) > 0 {
			out[id] = values
		}
	}
	return out
}

// CopyPhase 用 src 中该阶段的字段整体覆盖 p，其它阶段不受影响
func (p *Profile) CopyPhase(src *Profile, phase Phase) {
	for _, id := range PhaseFields[phase] {
		_ = p.Set(id, src.Value(id))
	}
}

func text(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return []string{s}
}

func nonEmpty(items []string) []string {
	var out []string
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
