package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"skillshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planStore is an in-memory LearningPlanRepository with version checks.
func planStore(plans ...*models.LearningPlan) *planRepoStub {
	byID := make(map[uint]models.LearningPlan, len(plans))
	for _, p := range plans {
		byID[p.ID] = *p
	}
	repo := noopPlanRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.LearningPlan, error) {
		p, ok := byID[id]
		if !ok {
			return nil, models.NewNotFoundError("LearningPlan", id)
		}
		p.Steps = append([]models.LearningStep(nil), p.Steps...)
		return &p, nil
	}
	repo.updateFn = func(_ context.Context, p *models.LearningPlan) error {
		if byID[p.ID].Version != p.Version {
			return models.ErrStaleRecord
		}
		p.Version++
		cp := *p
		cp.Steps = append([]models.LearningStep(nil), p.Steps...)
		byID[p.ID] = cp
		return nil
	}
	return repo
}

func stepIDs(p *models.PlanView) []string {
	ids := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		ids = append(ids, s.ID)
	}
	return ids
}

func fourStepPlan(ownerID uint) *models.LearningPlan {
	return &models.LearningPlan{
		ID:     1,
		UserID: ownerID,
		Title:  "Go",
		Steps: []models.LearningStep{
			{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"}, {ID: "d", Title: "D"},
		},
	}
}

func TestLearningPlanService_CreatePlan(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com", Followers: []uint{2}}
	plans := noopPlanRepo()
	var saved *models.LearningPlan
	plans.createFn = func(_ context.Context, p *models.LearningPlan) error {
		p.ID = 5
		saved = p
		return nil
	}
	notifier := &recordingNotifier{}
	svc := NewLearningPlanService(plans, usersByEmail(ada), notifier, 3)

	view, err := svc.CreatePlan(context.Background(), CreatePlanInput{
		ActorEmail: "ada@example.com",
		Title:      "Learn Go",
		Skill:      "ignored",
		Skills:     []string{"go", " go", "sql"},
		Steps: []StepInput{
			{Title: "Tour", Completed: true},
			{ID: "keep", Title: "Book"},
			{ID: "keep", Title: "Project"},
			{Title: "Ship"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "sql"}, []string(saved.Skills))
	assert.Equal(t, 25, saved.Progress)
	require.Len(t, saved.Steps, 4)
	assert.NotEmpty(t, saved.Steps[0].ID)
	assert.Equal(t, "keep", saved.Steps[1].ID)
	assert.NotEqual(t, "keep", saved.Steps[2].ID, "duplicate id is replaced")
	assert.Empty(t, notifier.all(), "creation is never a milestone")

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "go", decoded["skill"])
	assert.NotNil(t, decoded["author"])
}

func TestLearningPlanService_CreatePlan_SingleSkill(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com"}
	var saved *models.LearningPlan
	plans := noopPlanRepo()
	plans.createFn = func(_ context.Context, p *models.LearningPlan) error {
		saved = p
		return nil
	}
	svc := NewLearningPlanService(plans, usersByEmail(ada), nil, 3)

	_, err := svc.CreatePlan(context.Background(), CreatePlanInput{ActorEmail: "ada@example.com", Title: "Rust", Skill: "rust"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, []string(saved.Skills))
	assert.Zero(t, saved.Progress)

	_, err = svc.CreatePlan(context.Background(), CreatePlanInput{ActorEmail: "ada@example.com", Title: ""})
	assertValidationError(t, err)
}

func TestLearningPlanService_UpdatePlan(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com"}
	plan := fourStepPlan(1)
	plan.Skills = []string{"go"}
	svc := NewLearningPlanService(planStore(plan), usersByEmail(ada), nil, 3)
	ctx := context.Background()

	view, err := svc.UpdatePlan(ctx, UpdatePlanInput{ActorEmail: "ada@example.com", PlanID: 1, Title: "Go deeper"})
	require.NoError(t, err)
	assert.Equal(t, "Go deeper", view.Title)
	assert.Equal(t, []string{"a", "b", "c", "d"}, stepIDs(view), "empty step list keeps steps")
	assert.Equal(t, []string{"go"}, []string(view.Skills), "no skill input keeps skills")

	view, err = svc.UpdatePlan(ctx, UpdatePlanInput{
		ActorEmail: "ada@example.com",
		PlanID:     1,
		Skill:      "rust",
		Steps:      []StepInput{{ID: "b", Title: "B", Completed: true}, {Title: "New"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, []string(view.Skills))
	require.Len(t, view.Steps, 2)
	assert.Equal(t, "b", view.Steps[0].ID)
	assert.Equal(t, 50, view.Progress)
}

func TestLearningPlanService_RequiresOwner(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com"}
	eve := &models.User{ID: 2, Email: "eve@example.com"}
	svc := NewLearningPlanService(planStore(fourStepPlan(1)), usersByEmail(ada, eve), nil, 3)
	ctx := context.Background()

	ops := map[string]func() error{
		"update": func() error {
			_, err := svc.UpdatePlan(ctx, UpdatePlanInput{ActorEmail: "eve@example.com", PlanID: 1, Title: "x"})
			return err
		},
		"add step": func() error {
			_, err := svc.AddStep(ctx, "eve@example.com", 1, StepInput{Title: "x"})
			return err
		},
		"status": func() error {
			_, err := svc.SetStepStatus(ctx, "eve@example.com", 1, "a", true)
			return err
		},
		"reorder": func() error {
			_, err := svc.ReorderStep(ctx, "eve@example.com", 1, "a", "down")
			return err
		},
		"progress": func() error {
			_, err := svc.SetProgress(ctx, "eve@example.com", 1, 10)
			return err
		},
		"delete": func() error {
			return svc.DeletePlan(ctx, "eve@example.com", 1)
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			assertForbiddenError(t, err)
			assert.Equal(t, "not permitted to modify this learning plan", err.Error())
		})
	}
}

func TestLearningPlanService_StepOperations(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com"}
	svc := NewLearningPlanService(planStore(fourStepPlan(1)), usersByEmail(ada), nil, 3)
	ctx := context.Background()

	view, err := svc.AddStep(ctx, "ada@example.com", 1, StepInput{ID: "client-id", Title: "E", Completed: true})
	require.NoError(t, err)
	require.Len(t, view.Steps, 5)
	added := view.Steps[4]
	assert.NotEqual(t, "client-id", added.ID)
	assert.False(t, added.Completed, "new steps start uncompleted")

	title := "Renamed"
	view, err = svc.UpdateStep(ctx, "ada@example.com", 1, "b", StepPatch{Title: &title, Completed: true})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Steps[1].Title)
	assert.True(t, view.Steps[1].Completed)
	assert.Equal(t, 20, view.Progress)

	view, err = svc.UpdateStep(ctx, "ada@example.com", 1, "b", StepPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Steps[1].Title, "nil title is left unchanged")
	assert.False(t, view.Steps[1].Completed, "completed is always applied")

	view, err = svc.DeleteStep(ctx, "ada@example.com", 1, added.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, stepIDs(view))

	_, err = svc.UpdateStep(ctx, "ada@example.com", 1, "missing", StepPatch{})
	assertNotFoundError(t, err)
	_, err = svc.DeleteStep(ctx, "ada@example.com", 1, "missing")
	assertNotFoundError(t, err)
	_, err = svc.SetStepStatus(ctx, "ada@example.com", 1, "missing", true)
	assertNotFoundError(t, err)
}

func TestLearningPlanService_ReorderStep(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com"}
	plans := planStore(fourStepPlan(1))
	writes := 0
	update := plans.updateFn
	plans.updateFn = func(ctx context.Context, p *models.LearningPlan) error {
		writes++
		return update(ctx, p)
	}
	svc := NewLearningPlanService(plans, usersByEmail(ada), nil, 3)
	ctx := context.Background()

	view, err := svc.ReorderStep(ctx, "ada@example.com", 1, "a", "up")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, stepIDs(view))
	assert.Zero(t, writes, "boundary move does not write")

	view, err = svc.ReorderStep(ctx, "ada@example.com", 1, "d", "DOWN")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, stepIDs(view))

	view, err = svc.ReorderStep(ctx, "ada@example.com", 1, "c", "Up")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b", "d"}, stepIDs(view))
	assert.Equal(t, 1, writes)

	_, err = svc.ReorderStep(ctx, "ada@example.com", 1, "a", "sideways")
	assertValidationError(t, err)
	_, err = svc.ReorderStep(ctx, "ada@example.com", 1, "zz", "up")
	assertNotFoundError(t, err)
}

func TestLearningPlanService_SetProgress(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com", Followers: []uint{2, 3}}
	notifier := &recordingNotifier{}
	svc := NewLearningPlanService(planStore(fourStepPlan(1)), usersByEmail(ada), notifier, 3)
	ctx := context.Background()

	for _, bad := range []int{-1, 101} {
		_, err := svc.SetProgress(ctx, "ada@example.com", 1, bad)
		assertValidationError(t, err)
	}

	view, err := svc.SetProgress(ctx, "ada@example.com", 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, view.Progress)
	assert.Empty(t, notifier.all(), "override never notifies")

	// The next step mutation derives progress from the steps again.
	view, err = svc.SetStepStatus(ctx, "ada@example.com", 1, "a", true)
	require.NoError(t, err)
	assert.Equal(t, 25, view.Progress)
	assert.Empty(t, notifier.all(), "25 after 100 is not an increase")
}

func TestLearningPlanService_MilestoneFanOut(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com", Name: "Ada", Followers: []uint{2, 3}}
	notifier := &recordingNotifier{}
	svc := NewLearningPlanService(planStore(fourStepPlan(1)), usersByEmail(ada), notifier, 3)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := svc.SetStepStatus(ctx, "ada@example.com", 1, id, true)
		require.NoError(t, err)
	}

	sent := notifier.all()
	require.Len(t, sent, 8)
	assert.Equal(t, 4, notifier.fanOuts)
	assert.Equal(t, "Ada reached 25% progress on learning plan: Go", sent[0].Content)
	assert.Equal(t, "Ada completed learning plan: Go", sent[7].Content)
	for _, n := range sent {
		assert.Equal(t, models.NotificationLearningUpdate, n.Type)
		assert.Equal(t, "1", n.EntityID)
	}

	// Re-completing an already completed step changes nothing.
	_, err := svc.SetStepStatus(ctx, "ada@example.com", 1, "d", true)
	require.NoError(t, err)
	assert.Len(t, notifier.all(), 8)
}

func TestLearningPlanService_MilestoneDeliveryFailure(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com", Followers: []uint{2}}
	plans := planStore(fourStepPlan(1))
	svc := NewLearningPlanService(plans, usersByEmail(ada), &recordingNotifier{err: errors.New("fan-out broke")}, 3)

	view, err := svc.SetStepStatus(context.Background(), "ada@example.com", 1, "a", true)
	assertAppError(t, err, models.CodeNotificationDelivery)
	require.NotNil(t, view)
	assert.Equal(t, 25, view.Progress)

	stored, getErr := plans.GetByID(context.Background(), 1)
	require.NoError(t, getErr)
	assert.Equal(t, 25, stored.Progress, "plan change is kept")
}

func TestLearningPlanService_RetriesStaleWrites(t *testing.T) {
	t.Parallel()

	ada := &models.User{ID: 1, Email: "ada@example.com"}
	plans := planStore(fourStepPlan(1))
	update := plans.updateFn
	stale := 2
	plans.updateFn = func(ctx context.Context, p *models.LearningPlan) error {
		if stale > 0 {
			stale--
			return models.ErrStaleRecord
		}
		return update(ctx, p)
	}
	svc := NewLearningPlanService(plans, usersByEmail(ada), nil, 3)

	view, err := svc.SetStepStatus(context.Background(), "ada@example.com", 1, "a", true)
	require.NoError(t, err)
	assert.Equal(t, 25, view.Progress)
}

func TestLearningPlanService_ListPlansBySkill(t *testing.T) {
	st := newTestStack(t)
	ada, bob := st.user(t, "ada"), st.user(t, "bob")
	svc := NewLearningPlanService(st.plans, st.users, nil, 3)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, CreatePlanInput{ActorEmail: emailOf(ada), Title: "Backend", Skills: []string{"go", "sql"}})
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, CreatePlanInput{ActorEmail: emailOf(bob), Title: "Systems", Skills: []string{"rust", "go"}})
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, CreatePlanInput{ActorEmail: emailOf(bob), Title: "Data", Skill: "sql"})
	require.NoError(t, err)

	plans, err := svc.ListPlansBySkill(ctx, "go", 10, 0)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	titles := []string{plans[0].Title, plans[1].Title}
	assert.ElementsMatch(t, []string{"Backend", "Systems"}, titles)

	mine, err := svc.ListPlans(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.Equal(t, "bob", mine[0].Author.Username)

	_, err = svc.ListPlansBySkill(ctx, " ", 10, 0)
	assertValidationError(t, err)
}

func TestLearningPlanService_FollowersReceiveEveryMilestone(t *testing.T) {
	st := newTestStack(t)
	ada, bob, cy := st.user(t, "ada"), st.user(t, "bob"), st.user(t, "cy")
	ctx := context.Background()

	graph := NewGraphService(st.users, st.dispatcher, nil, 3)
	_, err := graph.Follow(ctx, emailOf(bob), ada.ID)
	require.NoError(t, err)
	_, err = graph.Follow(ctx, emailOf(cy), ada.ID)
	require.NoError(t, err)

	svc := NewLearningPlanService(st.plans, st.users, st.dispatcher, 3)
	plan, err := svc.CreatePlan(ctx, CreatePlanInput{
		ActorEmail: emailOf(ada),
		Title:      "Go",
		Steps:      []StepInput{{Title: "1"}, {Title: "2"}, {Title: "3"}, {Title: "4"}},
	})
	require.NoError(t, err)

	progress := make([]int, 0, 4)
	for _, step := range plan.Steps {
		view, err := svc.SetStepStatus(ctx, emailOf(ada), plan.ID, step.ID, true)
		require.NoError(t, err)
		progress = append(progress, view.Progress)
	}
	assert.Equal(t, []int{25, 50, 75, 100}, progress)

	total := 0
	for _, follower := range []*models.User{bob, cy} {
		inbox := st.inbox(t, follower.ID)
		assert.Len(t, inbox, 4)
		total += len(inbox)
		for _, n := range inbox {
			assert.Equal(t, models.NotificationLearningUpdate, n.Type)
			assert.Equal(t, ada.ID, n.SenderID)
		}
	}
	assert.Equal(t, 8, total)
	assert.Empty(t, st.inbox(t, ada.ID))
}
