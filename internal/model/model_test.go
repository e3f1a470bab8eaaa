package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhase(t *testing.T) {
	for raw, want := range map[string]Phase{"1": Phase1, "phase2": Phase2, " Phase3 ": Phase3, "5": Phase5} {
		got, err := ParsePhase(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParsePhase("4")
	assert.ErrorContains(t, err, "not part of the profile flow")
	_, err = ParsePhase("phase")
	assert.Error(t, err)
	_, err = ParsePhase("six")
	assert.Error(t, err)
}

func TestPhaseOf(t *testing.T) {
	phase, ok := PhaseOf(FieldPhone)
	require.True(t, ok)
	assert.Equal(t, Phase1, phase)

	phase, ok = PhaseOf(FieldAdditionalNotes)
	require.True(t, ok)
	assert.Equal(t, Phase5, phase)

	_, ok = PhaseOf(FieldID("favourite_colour"))
	assert.False(t, ok)
}

func TestFieldSetJSON(t *testing.T) {
	var fs FieldSet
	require.NoError(t, json.Unmarshal([]byte(`{
		"first_name": "Ada",
		"graduation_year": 2026,
		"skills": ["Go", " ", "SQL"],
		"middle_name": null
	}`), &fs))

	assert.Equal(t, "Ada", fs.Text(FieldFirstName))
	assert.Equal(t, "2026", fs.Text(FieldGraduationYear))
	assert.Equal(t, []string{"Go", "SQL"}, fs.Items(FieldSkills))
	_, present := fs[FieldMiddleName]
	assert.False(t, present)

	data, err := json.Marshal(FieldSet{}.Set(FieldSkills, "Go").Set(FieldEmail, "ada@example.com"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"skills":["Go"],"email":"ada@example.com"}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"first_name": {"nested": true}}`), &fs))
}

func TestFieldSetNormalizeAndMerge(t *testing.T) {
	base := FieldSet{}.Set(FieldFirstName, "Ada").Set(FieldLastName, "  ").Set(FieldEmail, "old@example.com")
	merged := base.Merge(FieldSet{}.Set(FieldEmail, "new@example.com").Set(FieldPhone, ""))

	assert.Equal(t, FieldSet{
		FieldFirstName: {"Ada"},
		FieldEmail:     {"new@example.com"},
	}, merged)
	assert.Equal(t, []FieldID{FieldEmail, FieldFirstName}, merged.IDs())
}

func TestProfileApplyAndPhaseValues(t *testing.T) {
	p := &Profile{}
	require.NoError(t, p.Apply(FieldSet{}.
		Set(FieldInstitution, "University of Rwanda").
		Set(FieldGraduationYear, "2027").
		Set(FieldSkills, "Go", "", "SQL")))

	assert.Equal(t, 2027, p.GraduationYear)
	assert.Equal(t, []string{"Go", "SQL"}, []string(p.Skills))
	assert.Equal(t, FieldSet{
		FieldInstitution:    {"University of Rwanda"},
		FieldGraduationYear: {"2027"},
	}, p.PhaseValues(Phase2))

	// 空值清空字段
	require.NoError(t, p.Apply(FieldSet{}.Set(FieldInstitution, " ")))
	assert.Empty(t, p.Institution)

	assert.Error(t, p.Set(FieldGraduationYear, []string{"soon"}))
	assert.Error(t, p.Set(FieldID("unknown"), []string{"x"}))
}

func TestProfileCloneIsDeep(t *testing.T) {
	p := &Profile{}
	require.NoError(t, p.Set(FieldSkills, []string{"Go"}))

	cp := p.Clone()
	cp.Skills[0] = "Rust"
	assert.Equal(t, "Go", p.Skills[0])

	var nilProfile *Profile
	assert.Nil(t, nilProfile.Clone())
}

func TestCopyPhaseOnlyTouchesThatPhase(t *testing.T) {
	dst := &Profile{FirstName: "Ada", Institution: "Old"}
	src := &Profile{FirstName: "Grace", Institution: "New"}

	dst.CopyPhase(src, Phase2)
	assert.Equal(t, "Ada", dst.FirstName)
	assert.Equal(t, "New", dst.Institution)
}

func TestCompletion(t *testing.T) {
	c := Completion{}.With(Phase1, true).With(Phase5, true).With(Phase(4), true)
	assert.True(t, c.Done(Phase1))
	assert.True(t, c.Done(Phase5))
	assert.False(t, c.Done(Phase(4)))
	assert.Equal(t, 1, c.CompletedRequired())
}

func TestCompactKeepsClearedFields(t *testing.T) {
	fs := FieldSet{}.
		Set(FieldFirstName, " Jane ").
		Set(FieldMiddleName, "  ").
		Set(FieldSkills)

	out := fs.Compact()
	assert.Equal(t, FieldSet{
		FieldFirstName:  {"Jane"},
		FieldMiddleName: {""},
		FieldSkills:     {},
	}, out)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	var back FieldSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Contains(t, back, FieldMiddleName)
	assert.Contains(t, back, FieldSkills)
}

func TestOverlayReplacesPresentFields(t *testing.T) {
	base := FieldSet{}.Set(FieldFirstName, "Jane").Set(FieldMiddleName, "Ann")

	out := base.Overlay(FieldSet{}.Set(FieldMiddleName, ""))
	assert.Equal(t, "Jane", out.Text(FieldFirstName))
	assert.Contains(t, out, FieldMiddleName)
	assert.Empty(t, out.Text(FieldMiddleName))
	assert.Equal(t, "Ann", base.Text(FieldMiddleName))

	var empty FieldSet
	assert.Equal(t, FieldSet{FieldEmail: {"a@b.co"}}, empty.Overlay(FieldSet{}.Set(FieldEmail, "a@b.co")))
}
