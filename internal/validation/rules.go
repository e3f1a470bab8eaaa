package validation

import (
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
)

// Format 格式校验类型，映射到 validator 的 tag
type Format string

const (
	FormatNone  Format = ""
	FormatEmail Format = "email"
	FormatURL   Format = "url"
	FormatPhone Format = "phone"
)

// Condition 条件必填：companion 字段的值（或多值字段中的任一项）等于 Equals 时生效
type Condition struct {
	Field  model.FieldID
	Equals string
}

// Rule 单个字段的校验规则；长度按字符（rune）计算，均在去掉首尾空白后判断
type Rule struct {
	Label        string
	Required     bool
	RequiredWhen *Condition

	MinLen   int
	MaxLen   int
	MinWords int
	MaxWords int

	// YearWindow > 0 时值必须是整数年份，且在 [今年-YearWindow, 今年+YearWindow] 内
	YearWindow int

	Format  Format
	Options []string

	// 多值字段
	MinItems   int
	MaxItems   int
	MaxItemLen int
}

// Section 阶段内可以单独提交的一组字段
type Section struct {
	Name   string
	Fields []model.FieldID
}

// Table 一个阶段的规则表
type Table struct {
	Phase    model.Phase
	Sections []Section
	Rules    map[model.FieldID]Rule
}

// Section 名称
const (
	SectionIdentity  = "identity"
	SectionContact   = "contact"
	SectionAcademic  = "academic"
	SectionRole      = "role"
	SectionSkills    = "skills"
	SectionInterests = "interests"
	SectionNotes     = "notes"
)

// Fields 规则表覆盖的全部字段，按分组顺序
func (t Table) Fields() []model.FieldID {
	var out []model.FieldID
	for _, s := range t.Sections {
		out = append(out, s.Fields...)
	}
	return out
}

// SectionOf 字段所属分组
func (t Table) SectionOf(id model.FieldID) (Section, bool) {
	for _, s := range t.Sections {
		for _, f := range s.Fields {
			if f == id {
				return s, true
			}
		}
	}
	return Section{}, false
}

func optionsOf[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

var tables = map[model.Phase]Table{
	model.Phase1: {
		Phase: model.Phase1,
		Sections: []Section{
			{Name: SectionIdentity, Fields: []model.FieldID{model.FieldFirstName, model.FieldMiddleName, model.FieldLastName, model.FieldPhotoURL}},
			{Name: SectionContact, Fields: []model.FieldID{model.FieldEmail, model.FieldPhone}},
		},
		Rules: map[model.FieldID]Rule{
			model.FieldFirstName:  {Label: "First name", Required: true, MinLen: 2, MaxLen: 50},
			model.FieldMiddleName: {Label: "Middle name", MaxLen: 50},
			model.FieldLastName:   {Label: "Last name", Required: true, MinLen: 2, MaxLen: 50},
			model.FieldPhotoURL:   {Label: "Photo", MaxLen: 512, Format: FormatURL},
			model.FieldEmail:      {Label: "Email", Required: true, MaxLen: 254, Format: FormatEmail},
			model.FieldPhone:      {Label: "Phone number", Required: true, Format: FormatPhone},
		},
	},
	model.Phase2: {
		Phase: model.Phase2,
		Sections: []Section{
			{Name: SectionAcademic, Fields: []model.FieldID{
				model.FieldEnrollmentStatus, model.FieldEnrollmentStatusOther,
				model.FieldInstitution, model.FieldProgram, model.FieldGraduationYear,
			}},
		},
		Rules: map[model.FieldID]Rule{
			model.FieldEnrollmentStatus: {Label: "Enrollment status", Required: true, Options: optionsOf(model.EnrollmentStatuses)},
			model.FieldEnrollmentStatusOther: {
				Label:        "Enrollment status",
				RequiredWhen: &Condition{Field: model.FieldEnrollmentStatus, Equals: model.OtherOption},
				MaxLen:       100,
			},
			model.FieldInstitution:    {Label: "Institution", Required: true, MinLen: 2, MaxLen: 100},
			model.FieldProgram:        {Label: "Program", Required: true, MinLen: 2, MaxLen: 100},
			model.FieldGraduationYear: {Label: "Graduation year", Required: true, YearWindow: 10},
		},
	},
	model.Phase3: {
		Phase: model.Phase3,
		Sections: []Section{
			{Name: SectionRole, Fields: []model.FieldID{model.FieldCurrentRole, model.FieldCurrentRoleOther}},
			{Name: SectionSkills, Fields: []model.FieldID{model.FieldSkills}},
			{Name: SectionInterests, Fields: []model.FieldID{model.FieldSupportInterests, model.FieldSupportInterestsOther}},
		},
		Rules: map[model.FieldID]Rule{
			model.FieldCurrentRole: {Label: "Current role", Required: true, Options: optionsOf(model.Roles)},
			model.FieldCurrentRoleOther: {
				Label:        "Current role",
				RequiredWhen: &Condition{Field: model.FieldCurrentRole, Equals: model.OtherOption},
				MaxLen:       100,
			},
			model.FieldSkills: {Label: "Skills", Required: true, MinItems: 1, MaxItems: 20, MaxItemLen: 50},
			model.FieldSupportInterests: {
				Label:    "Support interests",
				Required: true,
				MinItems: 1,
				Options:  optionsOf(model.SupportInterests),
			},
			model.FieldSupportInterestsOther: {
				Label:        "Support interests",
				RequiredWhen: &Condition{Field: model.FieldSupportInterests, Equals: model.OtherOption},
				MaxLen:       200,
			},
		},
	},
	model.Phase5: {
		Phase: model.Phase5,
		Sections: []Section{
			{Name: SectionNotes, Fields: []model.FieldID{model.FieldAdditionalNotes}},
		},
		Rules: map[model.FieldID]Rule{
			model.FieldAdditionalNotes: {Label: "Additional notes", Required: true, MaxWords: 500, MaxLen: 10000},
		},
	},
}

// TableFor 返回阶段规则表；不在流程内的阶段返回 false
func TableFor(phase model.Phase) (Table, bool) {
	t, ok := tables[phase]
	return t, ok
}
