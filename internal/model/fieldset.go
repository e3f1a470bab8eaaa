package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FieldID 表单字段标识
type FieldID string

const (
	FieldFirstName  FieldID = "first_name"
	FieldMiddleName FieldID = "middle_name"
	FieldLastName   FieldID = "last_name"
	FieldPhotoURL   FieldID = "photo_url"
	FieldEmail      FieldID = "email"
	FieldPhone      FieldID = "phone"

	FieldEnrollmentStatus      FieldID = "enrollment_status"
	FieldEnrollmentStatusOther FieldID = "enrollment_status_other"
	FieldInstitution           FieldID = "institution"
	FieldProgram               FieldID = "program"
	FieldGraduationYear        FieldID = "graduation_year"

	FieldCurrentRole           FieldID = "current_role"
	FieldCurrentRoleOther      FieldID = "current_role_other"
	FieldSkills                FieldID = "skills"
	FieldSupportInterests      FieldID = "support_interests"
	FieldSupportInterestsOther FieldID = "support_interests_other"

	FieldAdditionalNotes FieldID = "additional_notes"
)

// IsList 多值字段
func (id FieldID) IsList() bool {
	return id == FieldSkills || id == FieldSupportInterests
}

// FieldSet 一次提交或一份草稿的字段值。标量字段只取第一个值，多值字段取全部非空值。
// 去掉首尾空白后为空的值视为未填写。
type FieldSet map[FieldID][]string

// Text 标量字段的值（已去空白），未填写返回 ""
func (fs FieldSet) Text(id FieldID) string {
	for _, v := range fs[id] {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}

// Items 多值字段的全部非空值（已去空白）
func (fs FieldSet) Items(id FieldID) []string {
	var out []string
	for _, v := range fs[id] {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Has 字段是否有非空值
func (fs FieldSet) Has(id FieldID) bool {
	return fs.Text(id) != ""
}

// Set 设置字段值，返回自身便于链式调用
func (fs FieldSet) Set(id FieldID, values ...string) FieldSet {
	fs[id] = append([]string(nil), values...)
	return fs
}

// Normalize 去掉空白值与空字段，返回新的 FieldSet
func (fs FieldSet) Normalize() FieldSet {
	out := make(FieldSet, len(fs))
	for id := range fs {
		if items := fs.Items(id); len(items) > 0 {
			if id.IsList() {
				out[id] = items
			} else {
				out[id] = items[:1]
			}
		}
	}
	return out
}

// Compact 与 Normalize 相同，但保留全部为空白的字段（标量为 [""]，多值为空列表），
// 用来记录清空字段的意图
func (fs FieldSet) Compact() FieldSet {
	out := fs.Normalize()
	for id := range fs {
		if _, ok := out[id]; ok {
			continue
		}
		if id.IsList() {
			out[id] = []string{}
		} else {
			out[id] = []string{""}
		}
	}
	return out
}

// Overlay 以 fs 为底，other 中出现的字段（包括空值）整体覆盖 fs
func (fs FieldSet) Overlay(other FieldSet) FieldSet {
	out := fs.Clone()
	if out == nil {
		out = FieldSet{}
	}
	for id, values := range other {
		out[id] = append([]string(nil), values...)
	}
	return out
}

// Merge 返回 fs 与 other 的并集，other 中已填写的字段覆盖 fs
func (fs FieldSet) Merge(other FieldSet) FieldSet {
	out := fs.Normalize()
	for id, values := range other.Normalize() {
		out[id] = values
	}
	return out
}

// Only 只保留指定字段
func (fs FieldSet) Only(ids []FieldID) FieldSet {
	out := make(FieldSet, len(ids))
	for _, id := range ids {
		if values, ok := fs[id]; ok {
			out[id] = append([]string(nil), values...)
		}
	}
	return out
}

// Clone 深拷贝
func (fs FieldSet) Clone() FieldSet {
	if fs == nil {
		return nil
	}
	out := make(FieldSet, len(fs))
	for id, values := range fs {
		out[id] = append([]string(nil), values...)
	}
	return out
}

// IDs 按字典序返回字段标识，保证校验结果顺序稳定
func (fs FieldSet) IDs() []FieldID {
	ids := make([]FieldID, 0, len(fs))
	for id := range fs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarshalJSON 标量字段输出字符串，多值字段输出数组
func (fs FieldSet) MarshalJSON() ([]byte, error) {
	out := make(map[FieldID]interface{}, len(fs))
	for id, values := range fs {
		if id.IsList() {
			items := append([]string{}, values...)
			out[id] = items
			continue
		}
		if len(values) == 0 {
			out[id] = ""
			continue
		}
		out[id] = values[0]
	}
	return json.Marshal(out)
}

// UnmarshalJSON 兼容字符串、数字、布尔与数组写法；null 视为未填写
func (fs *FieldSet) UnmarshalJSON(data []byte) error {
	var raw map[FieldID]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(FieldSet, len(raw))
	for id, msg := range raw {
		values, err := decodeValues(msg)
		if err != nil {
			return fmt.Errorf("field %s: %w", id, err)
		}
		if values != nil {
			out[id] = values
		}
	}
	*fs = out
	return nil
}

func decodeValues(msg json.RawMessage) ([]string, error) {
	var v interface{}
	if err := json.Unmarshal(msg, &v); err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		values := make([]string, 0, len(t))
		for _, item := range t {
			s, err := scalarString(item)
			if err != nil {
				return nil, err
			}
			values = append(values, s)
		}
		return values, nil
	default:
		s, err := scalarString(t)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalarString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
