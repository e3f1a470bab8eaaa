package cli

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/onboarding"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/token"
)

type stage struct {
	phase  model.Phase
	id     model.FieldID
	values []string
}

type recordingStager struct {
	staged []stage
}

func (r *recordingStager) Stage(phase model.Phase, id model.FieldID, values ...string) {
	r.staged = append(r.staged, stage{phase: phase, id: id, values: values})
}

func TestParseAssignments(t *testing.T) {
	fields, err := ParseAssignments(model.Phase3, []string{
		"current_role=Developer",
		"skills=Go, SQL",
		"skills=Kubernetes",
		"support_interests=Mentorship",
	})
	require.NoError(t, err)
	assert.Equal(t, "Developer", fields.Text(model.FieldCurrentRole))
	assert.Equal(t, []string{"Go", "SQL", "Kubernetes"}, fields.Items(model.FieldSkills))
	assert.Equal(t, []string{"Mentorship"}, fields.Items(model.FieldSupportInterests))
}

func TestParseAssignmentsKeepsBlankAsClear(t *testing.T) {
	fields, err := ParseAssignments(model.Phase1, []string{"middle_name=", "email=a=b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{""}, fields[model.FieldMiddleName])
	assert.Equal(t, "a=b@example.com", fields.Text(model.FieldEmail))
}

func TestParseAssignmentsRejects(t *testing.T) {
	_, err := ParseAssignments(model.Phase1, []string{"first_name"})
	assert.ErrorContains(t, err, "expected field=value")

	_, err = ParseAssignments(model.Phase1, []string{"=Ada"})
	assert.Error(t, err)

	_, err = ParseAssignments(model.Phase1, []string{"institution=MIT"})
	assert.ErrorContains(t, err, "does not belong to phase1")
}

func TestResolveOwner(t *testing.T) {
	owner, err := ResolveOwner(" member-1 ", "", false)
	require.NoError(t, err)
	assert.Equal(t, "member-1", owner)

	_, err = ResolveOwner("", "", false)
	assert.Error(t, err)

	config.Cfg.JWTSecret = "cli-test-secret"
	require.NoError(t, token.Init())
	signed, _, err := token.GenerateAccessToken("member-7", time.Minute)
	require.NoError(t, err)

	owner, err = ResolveOwner("", signed, true)
	require.NoError(t, err)
	assert.Equal(t, "member-7", owner)

	foreign, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		token.IdentityKey: "member-9",
	}).SignedString([]byte("someone-else"))
	require.NoError(t, err)

	// 未校验时只解码 uid
	owner, err = ResolveOwner("", foreign, false)
	require.NoError(t, err)
	assert.Equal(t, "member-9", owner)

	_, err = ResolveOwner("", foreign, true)
	assert.Error(t, err)

	_, err = ResolveOwner("", "not-a-token", false)
	assert.Error(t, err)
}

func TestPhaseFormPrefillsValues(t *testing.T) {
	initial := model.FieldSet{}.
		Set(model.FieldFirstName, "Ada").
		Set(model.FieldEmail, " ada@example.com ").
		Set(model.FieldMiddleName, "  ")

	form, err := NewPhaseForm(model.Phase1, initial, nil, nil)
	require.NoError(t, err)

	values := form.Values()
	assert.Equal(t, "Ada", values.Text(model.FieldFirstName))
	assert.Equal(t, "ada@example.com", values.Text(model.FieldEmail))
	assert.False(t, values.Has(model.FieldMiddleName))
}

func TestPhaseFormListValues(t *testing.T) {
	initial := model.FieldSet{}.
		Set(model.FieldSkills, "Go", "SQL").
		Set(model.FieldSupportInterests, "Funding")

	form, err := NewPhaseForm(model.Phase3, initial, nil, nil)
	require.NoError(t, err)

	values := form.Values()
	assert.Equal(t, []string{"Go", "SQL"}, values.Items(model.FieldSkills))
	assert.Equal(t, []string{"Funding"}, values.Items(model.FieldSupportInterests))
}

func TestPhaseFormCheckStagesAndValidates(t *testing.T) {
	stager := &recordingStager{}
	form, err := NewPhaseForm(model.Phase1, nil, validation.New(), stager)
	require.NoError(t, err)

	assert.ErrorContains(t, form.check(model.FieldEmail, "not-an-email"), "Email")
	assert.NoError(t, form.check(model.FieldEmail, "ada@example.com"))
	// 空值允许先跳过
	assert.NoError(t, form.check(model.FieldFirstName, ""))

	require.Len(t, stager.staged, 3)
	assert.Equal(t, stage{phase: model.Phase1, id: model.FieldEmail, values: []string{"not-an-email"}}, stager.staged[0])
	assert.Equal(t, model.FieldFirstName, stager.staged[2].id)
}

func TestPhaseFormRejectsPhaseOutsideFlow(t *testing.T) {
	_, err := NewPhaseForm(model.Phase(4), nil, nil, nil)
	assert.Error(t, err)
}

func TestRenderStatus(t *testing.T) {
	current := model.Phase2
	out := RenderStatus(model.OnboardingProgressData{
		CurrentPhase: &current,
		Percentage:   33,
		Phases: []model.PhaseProgress{
			{Phase: model.Phase1, Key: "phase1", State: model.PhaseStateComplete, Complete: true, Required: true},
			{Phase: model.Phase2, Key: "phase2", State: model.PhaseStateDrafted, Required: true},
			{Phase: model.Phase3, Key: "phase3", State: model.PhaseStateLocked, Locked: true, Required: true},
			{Phase: model.Phase5, Key: "phase5", State: model.PhaseStateLocked, Locked: true},
		},
	})

	assert.Contains(t, out, "33%")
	assert.Contains(t, out, "Academic background")
	assert.Contains(t, out, "drafted")
	assert.Contains(t, out, "(optional)")
	assert.NotContains(t, out, "All phases are complete")
}

func TestRenderStatusComplete(t *testing.T) {
	out := RenderStatus(model.OnboardingProgressData{Percentage: 100})
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "All phases are complete")
}

func TestRenderOutcome(t *testing.T) {
	next := model.Phase2
	out := RenderOutcome(onboarding.Outcome{
		Phase:      model.Phase1,
		Kind:       onboarding.OutcomeSubmitted,
		Next:       &next,
		Completion: model.Completion{Percentage: 33},
	})
	assert.Contains(t, out, "Basic information saved")
	assert.Contains(t, out, "next: phase2")
	assert.Contains(t, out, "completion: 33%")

	out = RenderOutcome(onboarding.Outcome{
		Phase:   model.Phase1,
		Kind:    onboarding.OutcomeDeferred,
		Missing: []model.FieldID{model.FieldPhone},
		Section: validation.SectionContact,
	})
	assert.Contains(t, out, "complete first: phone")
	assert.Contains(t, out, "How to reach you")

	out = RenderOutcome(onboarding.Outcome{
		Phase:   model.Phase1,
		Kind:    onboarding.OutcomeInvalid,
		Message: "Validation failed",
		Results: []validation.Result{
			{Field: model.FieldFirstName, Valid: true},
			{Field: model.FieldEmail, Message: "Email must be a valid email address"},
		},
	})
	assert.Contains(t, out, "email: Email must be a valid email address")
	assert.NotContains(t, out, "first_name")
}

func TestRenderDraft(t *testing.T) {
	assert.Contains(t, RenderDraft(model.Phase2, nil), "No draft stored for phase2")

	out := RenderDraft(model.Phase3, model.FieldSet{}.Set(model.FieldSkills, "Go", "SQL"))
	assert.Contains(t, out, "skills = Go, SQL")
}
