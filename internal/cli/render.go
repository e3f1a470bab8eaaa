package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/onboarding"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
)

const barWidth = 32

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6B7F88")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorAccent).
	Padding(0, 1)

var phaseTitles = map[model.Phase]string{
	model.Phase1: "Basic information",
	model.Phase2: "Academic background",
	model.Phase3: "Professional details",
	model.Phase5: "Additional notes",
}

var sectionTitles = map[string]string{
	validation.SectionIdentity:  "Who you are",
	validation.SectionContact:   "How to reach you",
	validation.SectionAcademic:  "Studies",
	validation.SectionRole:      "Current role",
	validation.SectionSkills:    "Skills",
	validation.SectionInterests: "Support you are looking for",
	validation.SectionNotes:     "Anything else",
}

// PhaseTitle 阶段的展示名称
func PhaseTitle(phase model.Phase) string {
	if t, ok := phaseTitles[phase]; ok {
		return t
	}
	return phase.Key()
}

func sectionTitle(name string) string {
	if t, ok := sectionTitles[name]; ok {
		return t
	}
	return name
}

func stateIcon(state model.PhaseState) string {
	switch state {
	case model.PhaseStateComplete:
		return successStyle.Render("✓")
	case model.PhaseStateDrafted:
		return warningStyle.Render("✎")
	case model.PhaseStateUnlocked:
		return titleStyle.Render("○")
	default:
		return mutedStyle.Render("•")
	}
}

// RenderStatus 完成度进度条与各阶段状态
func RenderStatus(p model.OnboardingProgressData) string {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Profile completion"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d%%\n\n", bar.ViewAs(float64(p.Percentage)/100), p.Percentage)

	for _, ph := range p.Phases {
		marker := "  "
		if p.CurrentPhase != nil && *p.CurrentPhase == ph.Phase {
			marker = titleStyle.Render("→ ")
		}
		line := fmt.Sprintf("%s%s %-7s %s", marker, stateIcon(ph.State), ph.Key, PhaseTitle(ph.Phase))
		if !ph.Required {
			line += mutedStyle.Render(" (optional)")
		}
		b.WriteString(line)
		b.WriteString(" ")
		b.WriteString(mutedStyle.Render(string(ph.State)))
		b.WriteString("\n")
	}

	if p.CurrentPhase == nil {
		b.WriteString("\n")
		b.WriteString(successStyle.Render("All phases are complete"))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderOutcome 一次阶段提交的结果
func RenderOutcome(out onboarding.Outcome) string {
	var b strings.Builder
	switch out.Kind {
	case onboarding.OutcomeSubmitted:
		b.WriteString(successStyle.Render(fmt.Sprintf("✓ %s saved", PhaseTitle(out.Phase))))
		if out.Next != nil {
			fmt.Fprintf(&b, "\n  next: %s (%s)", out.Next.Key(), PhaseTitle(*out.Next))
		}
	case onboarding.OutcomeDeferred:
		b.WriteString(warningStyle.Render(fmt.Sprintf("✎ %s kept as a draft", PhaseTitle(out.Phase))))
		missing := make([]string, 0, len(out.Missing))
		for _, id := range out.Missing {
			missing = append(missing, string(id))
		}
		fmt.Fprintf(&b, "\n  complete first: %s", strings.Join(missing, ", "))
		if out.Section != "" {
			fmt.Fprintf(&b, " (%s)", sectionTitle(out.Section))
		}
	case onboarding.OutcomeInvalid:
		b.WriteString(errorStyle.Render("✗ " + out.Message))
		for _, r := range validation.Invalid(out.Results) {
			fmt.Fprintf(&b, "\n  %s: %s", r.Field, r.Message)
		}
	default:
		b.WriteString(errorStyle.Render("✗ " + out.Message))
	}
	fmt.Fprintf(&b, "\n  completion: %d%%", out.Completion.Percentage)
	return b.String()
}

// RenderDraft 本地草稿内容
func RenderDraft(phase model.Phase, fields model.FieldSet) string {
	if len(fields) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No draft stored for %s", phase.Key()))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Draft of %s (%s)", phase.Key(), PhaseTitle(phase))))
	for _, id := range fields.IDs() {
		fmt.Fprintf(&b, "\n  %s = %s", id, strings.Join(fields.Items(id), ", "))
	}
	return b.String()
}
