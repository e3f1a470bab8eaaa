package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
)

func TestNextPhaseAfterSkipsPhase4(t *testing.T) {
	next, ok := NextPhaseAfter(model.Phase1)
	assert.True(t, ok)
	assert.Equal(t, model.Phase2, next)

	next, ok = NextPhaseAfter(model.Phase2)
	assert.True(t, ok)
	assert.Equal(t, model.Phase3, next)

	next, ok = NextPhaseAfter(model.Phase3)
	assert.True(t, ok)
	assert.Equal(t, model.Phase5, next)

	_, ok = NextPhaseAfter(model.Phase5)
	assert.False(t, ok)
	_, ok = NextPhaseAfter(model.Phase(4))
	assert.False(t, ok)
}

func TestLockRules(t *testing.T) {
	nav := NewNavigation(model.Completion{}, nil)
	assert.False(t, nav.IsLocked(model.Phase1))
	assert.True(t, nav.IsLocked(model.Phase2))
	assert.True(t, nav.IsLocked(model.Phase3))
	assert.False(t, nav.IsLocked(model.Phase5))

	nav = NewNavigation(model.Completion{Phase1: true}, nil)
	assert.False(t, nav.IsLocked(model.Phase2))
	assert.True(t, nav.IsLocked(model.Phase3))

	nav = NewNavigation(model.Completion{Phase1: true, Phase2: true}, nil)
	assert.False(t, nav.IsLocked(model.Phase3))
}

func TestStates(t *testing.T) {
	nav := NewNavigation(model.Completion{Phase1: true}, map[model.Phase]bool{model.Phase2: true, model.Phase3: true})

	assert.Equal(t, model.PhaseStateComplete, nav.State(model.Phase1))
	assert.Equal(t, model.PhaseStateDrafted, nav.State(model.Phase2))
	// 锁定优先于草稿
	assert.Equal(t, model.PhaseStateLocked, nav.State(model.Phase3))
	assert.Equal(t, model.PhaseStateUnlocked, nav.State(model.Phase5))
	assert.Equal(t, model.PhaseStateNotInFlow, nav.State(model.Phase(4)))
}

func TestProgress(t *testing.T) {
	c := model.Completion{Phase1: true}
	c.Percentage = Percentage(c)

	data := NewNavigation(c, nil).Progress()

	assert.Equal(t, 33, data.Percentage)
	require.NotNil(t, data.CurrentPhase)
	assert.Equal(t, model.Phase2, *data.CurrentPhase)
	require.Len(t, data.Phases, 4)
	assert.Equal(t, "phase5", data.Phases[3].Key)
	assert.False(t, data.Phases[3].Required)
}

func TestProgressAllComplete(t *testing.T) {
	c := model.Completion{Phase1: true, Phase2: true, Phase3: true, Phase5: true}

	data := NewNavigation(c, nil).Progress()

	assert.Nil(t, data.CurrentPhase)
}

func TestDerive(t *testing.T) {
	p := phase3Profile()
	c := Derive(p)
	assert.True(t, c.Phase1 && c.Phase2 && c.Phase3)
	assert.False(t, c.Phase5)
	assert.Equal(t, 100, c.Percentage)

	p.Skills = []string{"  "}
	assert.False(t, Derive(p).Phase3)

	p = phase1Profile()
	p.Phone = ""
	assert.False(t, Derive(p).Phase1)

	p = phase2Profile()
	p.GraduationYear = 0
	assert.False(t, Derive(p).Phase2)

	assert.Equal(t, model.Completion{}, Derive(nil))
}

func TestPercentageRounding(t *testing.T) {
	assert.Equal(t, 0, Percentage(model.Completion{}))
	assert.Equal(t, 33, Percentage(model.Completion{Phase1: true}))
	assert.Equal(t, 67, Percentage(model.Completion{Phase1: true, Phase3: true}))
	assert.Equal(t, 100, Percentage(model.Completion{Phase1: true, Phase2: true, Phase3: true}))
	assert.Equal(t, 0, Percentage(model.Completion{Phase5: true}))
}
