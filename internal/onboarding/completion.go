package onboarding

import (
	"math"
	"strings"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
)

// Derive 从资料快照推导各阶段完成情况，纯函数
func Derive(p *model.Profile) model.Completion {
	if p == nil {
		return model.Completion{}
	}

	c := model.Completion{
		Phase1: present(p.FirstName, p.LastName, p.Email, p.Phone),
		Phase2: present(string(p.EnrollmentStatus), p.Institution, p.Program) && p.GraduationYear != 0,
		Phase3: present(string(p.CurrentRole)) &&
			len(p.Value(model.FieldSkills)) > 0 &&
			len(p.Value(model.FieldSupportInterests)) > 0,
		Phase5: present(p.AdditionalNotes),
	}
	c.Percentage = Percentage(c)
	return c
}

// Percentage 已完成必填阶段占比，四舍五入；可选的 Phase5 不计入分母
func Percentage(c model.Completion) int {
	total := len(model.RequiredPhases)
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(c.CompletedRequired()) / float64(total)))
}

// latch 合并两次推导结果：曾经完成的阶段保持完成
func latch(prev, next model.Completion) model.Completion {
	for _, phase := range model.Sequence {
		if prev.Done(phase) {
			next = next.With(phase, true)
		}
	}
	next.Percentage = Percentage(next)
	return next
}

// regressed 返回 next 相比 prev 丢失完成状态的阶段
func regressed(prev, next model.Completion) []model.Phase {
	var out []model.Phase
	for _, phase := range model.Sequence {
		if prev.Done(phase) && !next.Done(phase) {
			out = append(out, phase)
		}
	}
	return out
}

func present(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
