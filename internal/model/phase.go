package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase 资料引导的阶段。第 4 阶段由项目管理模块负责，不属于本流程，因此不定义常量
type Phase int

const (
	Phase1 Phase = 1 // 基本信息：身份 + 联系方式
	Phase2 Phase = 2 // 学业信息
	Phase3 Phase = 3 // 职业信息：角色、技能、支持需求
	Phase5 Phase = 5 // 补充说明（可选）
)

// Sequence 流程内阶段的固定顺序，下一阶段只能从这里推导，不能用 n+1
var Sequence = []Phase{Phase1, Phase2, Phase3, Phase5}

// RequiredPhases 计入完成度分母的阶段，Phase5 为可选阶段不计入
var RequiredPhases = []Phase{Phase1, Phase2, Phase3}

// Valid 是否属于本流程
func (p Phase) Valid() bool {
	switch p {
	case Phase1, Phase2, Phase3, Phase5:
		return true
	default:
		return false
	}
}

// Required 是否计入完成度
func (p Phase) Required() bool {
	return p == Phase1 || p == Phase2 || p == Phase3
}

// Key 草稿存储使用的键，如 "phase1"
func (p Phase) Key() string {
	return "phase" + strconv.Itoa(int(p))
}

func (p Phase) String() string {
	return p.Key()
}

// ParsePhase 解析 "1" 或 "phase1" 形式的阶段标识；不在流程内的阶段返回错误
func ParsePhase(raw string) (Phase, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "phase")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid phase %q", raw)
	}
	p := Phase(n)
	if !p.Valid() {
		return p, fmt.Errorf("phase %d is not part of the profile flow", n)
	}
	return p, nil
}

// PhaseState 导航状态
type PhaseState string

const (
	PhaseStateLocked    PhaseState = "locked"
	PhaseStateUnlocked  PhaseState = "unlocked" // 已解锁、未完成
	PhaseStateDrafted   PhaseState = "drafted"  // 已解锁、未完成、本地存有草稿
	PhaseStateComplete  PhaseState = "complete"
	PhaseStateNotInFlow PhaseState = "not_in_flow"
)

// PhaseFields 每个阶段拥有的字段，合并远端返回的资料时只按这里取值
var PhaseFields = map[Phase][]FieldID{
	Phase1: {FieldFirstName, FieldMiddleName, FieldLastName, FieldPhotoURL, FieldEmail, FieldPhone},
	Phase2: {FieldEnrollmentStatus, FieldEnrollmentStatusOther, FieldInstitution, FieldProgram, FieldGraduationYear},
	Phase3: {FieldCurrentRole, FieldCurrentRoleOther, FieldSkills, FieldSupportInterests, FieldSupportInterestsOther},
	Phase5: {FieldAdditionalNotes},
}

// PhaseOf 返回字段所属阶段
func PhaseOf(id FieldID) (Phase, bool) {
	for _, phase := range Sequence {
		for _, f := range PhaseFields[phase] {
			if f == id {
				return phase, true
			}
		}
	}
	return 0, false
}
