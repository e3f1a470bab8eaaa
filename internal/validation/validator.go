// Package validation 资料各阶段字段的校验规则与校验器
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
)

// Result 单个字段的校验结果
type Result struct {
	Field   model.FieldID `json:"field"`
	Valid   bool          `json:"valid"`
	Message string        `json:"message,omitempty"`
}

// Validator 无副作用；相同输入与相同时钟下结果一致
type Validator struct {
	now    func() time.Time
	format *validator.Validate
}

type Option func(*Validator)

// WithClock 注入时钟，年份窗口基于它计算
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{
		now:    time.Now,
		format: validator.New(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate 按规则校验单个字段。fields 提供条件必填所需的关联字段，value 取自其中的 id
func (v *Validator) Validate(id model.FieldID, rule Rule, fields model.FieldSet) Result {
	required := rule.Required || conditionMet(rule.RequiredWhen, fields)

	if id.IsList() {
		return v.validateList(id, rule, fields.Items(id), required)
	}

	value := fields.Text(id)
	if value == "" {
		if required {
			return invalid(id, requiredMessage(rule))
		}
		return valid(id)
	}

	// 同时有字数与长度限制时，先报告字数
	if rule.MinWords > 0 || rule.MaxWords > 0 {
		words := CountWords(value)
		if rule.MinWords > 0 && words < rule.MinWords {
			return invalid(id, fmt.Sprintf("%s must be at least %d words", rule.Label, rule.MinWords))
		}
		if rule.MaxWords > 0 && words > rule.MaxWords {
			return invalid(id, fmt.Sprintf("%s must be at most %d words (currently %d)", rule.Label, rule.MaxWords, words))
		}
	}

	if n := utf8.RuneCountInString(value); rule.MinLen > 0 && n < rule.MinLen {
		return invalid(id, fmt.Sprintf("%s must be at least %d characters", rule.Label, rule.MinLen))
	} else if rule.MaxLen > 0 && n > rule.MaxLen {
		return invalid(id, fmt.Sprintf("%s must be at most %d characters", rule.Label, rule.MaxLen))
	}

	if rule.YearWindow > 0 {
		if msg, ok := v.checkYear(value, rule); !ok {
			return invalid(id, msg)
		}
	}

	if rule.Format != FormatNone && !v.checkFormat(value, rule.Format) {
		return invalid(id, formatMessage(rule))
	}

	if len(rule.Options) > 0 && v.format.Var(value, "oneof="+strings.Join(rule.Options, " ")) != nil {
		return invalid(id, fmt.Sprintf("%s must be one of: %s", rule.Label, strings.Join(rule.Options, ", ")))
	}

	return valid(id)
}

func (v *Validator) validateList(id model.FieldID, rule Rule, items []string, required bool) Result {
	if len(items) == 0 {
		if required {
			return invalid(id, requiredMessage(rule))
		}
		return valid(id)
	}

	if rule.MinItems > 0 && len(items) < rule.MinItems {
		return invalid(id, fmt.Sprintf("Select at least %d %s", rule.MinItems, strings.ToLower(rule.Label)))
	}
	if rule.MaxItems > 0 && len(items) > rule.MaxItems {
		return invalid(id, fmt.Sprintf("Select at most %d %s", rule.MaxItems, strings.ToLower(rule.Label)))
	}

	for _, item := range items {
		if rule.MaxItemLen > 0 && utf8.RuneCountInString(item) > rule.MaxItemLen {
			return invalid(id, fmt.Sprintf("Each entry in %s must be at most %d characters", strings.ToLower(rule.Label), rule.MaxItemLen))
		}
		if len(rule.Options) > 0 && !contains(rule.Options, item) {
			return invalid(id, fmt.Sprintf("%q is not a valid option for %s", item, strings.ToLower(rule.Label)))
		}
	}

	return valid(id)
}

// ValidatePhase 校验一次阶段提交。出现任意字段的分组整体校验（包括未填写的必填项），
// 未出现的分组跳过；不属于该阶段的字段直接判为无效。
func (v *Validator) ValidatePhase(phase model.Phase, fields model.FieldSet) []Result {
	table, ok := TableFor(phase)
	if !ok {
		return []Result{invalid("", fmt.Sprintf("%s is not part of the profile flow", phase))}
	}

	var results []Result
	for _, id := range fields.IDs() {
		if _, known := table.Rules[id]; !known {
			results = append(results, invalid(id, fmt.Sprintf("%s is not a field of %s", id, phase)))
		}
	}

	touched := 0
	for _, section := range table.Sections {
		if !sectionTouched(section, fields) {
			continue
		}
		touched++
		for _, id := range section.Fields {
			results = append(results, v.Validate(id, table.Rules[id], fields))
		}
	}

	if touched == 0 && len(results) == 0 {
		results = append(results, invalid("", "No fields were provided"))
	}

	return results
}

// Failed 是否存在无效结果
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Valid {
			return true
		}
	}
	return false
}

// Invalid 只保留无效结果
func Invalid(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Valid {
			out = append(out, r)
		}
	}
	return out
}

// CountWords 按任意连续空白切分并丢弃空片段
func CountWords(s string) int {
	return len(strings.Fields(s))
}

func (v *Validator) checkYear(value string, rule Rule) (string, bool) {
	year, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Sprintf("%s must be a number", rule.Label), false
	}
	current := v.now().Year()
	lo, hi := current-rule.YearWindow, current+rule.YearWindow
	if year < lo || year > hi {
		return fmt.Sprintf("%s must be between %d and %d", rule.Label, lo, hi), false
	}
	return "", true
}

func (v *Validator) checkFormat(value string, format Format) bool {
	switch format {
	case FormatEmail:
		return v.format.Var(value, "email") == nil
	case FormatURL:
		return v.format.Var(value, "url") == nil
	case FormatPhone:
		digits := strings.TrimPrefix(normalizePhone(value), "+")
		return v.format.Var(digits, "numeric,min=7,max=15") == nil
	default:
		return true
	}
}

// normalizePhone 去掉常见的分隔符
func normalizePhone(value string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(value)
}

func conditionMet(cond *Condition, fields model.FieldSet) bool {
	if cond == nil {
		return false
	}
	for _, item := range fields.Items(cond.Field) {
		if item == cond.Equals {
			return true
		}
	}
	return false
}

func sectionTouched(section Section, fields model.FieldSet) bool {
	for _, id := range section.Fields {
		if _, ok := fields[id]; ok {
			return true
		}
	}
	return false
}

func requiredMessage(rule Rule) string {
	if rule.RequiredWhen != nil && !rule.Required {
		return fmt.Sprintf("Please specify %s", strings.ToLower(rule.Label))
	}
	return fmt.Sprintf("%s is required", rule.Label)
}

func formatMessage(rule Rule) string {
	switch rule.Format {
	case FormatEmail:
		return fmt.Sprintf("%s must be a valid email address", rule.Label)
	case FormatURL:
		return fmt.Sprintf("%s must be a valid URL", rule.Label)
	case FormatPhone:
		return fmt.Sprintf("%s must contain 7 to 15 digits", rule.Label)
	default:
		return fmt.Sprintf("%s is invalid", rule.Label)
	}
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

func valid(id model.FieldID) Result {
	return Result{Field: id, Valid: true}
}

func invalid(id model.FieldID, message string) Result {
	return Result{Field: id, Valid: false, Message: message}
}

// Error 携带逐字段校验结果的错误，errors.Is 可匹配 errors.ValidationFailed
type Error struct {
	Results []Result
}

func (e *Error) Error() string {
	if len(e.Results) == 1 {
		return e.Results[0].Message
	}
	return fmt.Sprintf("%s (%d fields)", errors.ValidationFailed.Message, len(e.Results))
}

func (e *Error) Unwrap() error {
	return errors.ValidationFailed
}

// FieldResults 无效字段的校验结果
func (e *Error) FieldResults() []Result {
	return e.Results
}
