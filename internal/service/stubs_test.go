package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"skillshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getForUpdateFn  func(context.Context, uint) (*models.User, error)
	getByIDsFn      func(context.Context, []uint) ([]models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	listFn          func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetForUpdate(ctx context.Context, id uint) (*models.User, error) {
	return s.getForUpdateFn(ctx, id)
}
func (s *userRepoStub) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getForUpdateFn:  func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByIDsFn:      func(_ context.Context, _ []uint) ([]models.User, error) { return nil, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		listFn:          func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// usersByEmail returns a user stub whose lookups resolve against the given users.
func usersByEmail(users ...*models.User) *userRepoStub {
	repo := noopUserRepo()
	find := func(id uint) (*models.User, error) {
		for _, u := range users {
			if u.ID == id {
				cp := *u
				return &cp, nil
			}
		}
		return nil, models.NewNotFoundError("User", id)
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) { return find(id) }
	repo.getForUpdateFn = func(_ context.Context, id uint) (*models.User, error) { return find(id) }
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		for _, u := range users {
			if u.Email == email {
				cp := *u
				return &cp, nil
			}
		}
		return nil, nil
	}
	repo.getByIDsFn = func(_ context.Context, ids []uint) ([]models.User, error) {
		var out []models.User
		for _, id := range ids {
			if u, err := find(id); err == nil {
				out = append(out, *u)
			}
		}
		return out, nil
	}
	return repo
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, uint) (*models.Post, error)
	listByUserFn  func(context.Context, uint, int, int) ([]models.Post, error)
	listByUsersFn func(context.Context, []uint, int, int) ([]models.Post, error)
	listFn        func(context.Context, int, int) ([]models.Post, error)
	listRecentFn  func(context.Context, int, int) ([]models.Post, error)
	updateFn      func(context.Context, *models.Post) error
	deleteFn      func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) ListByUsers(ctx context.Context, userIDs []uint, limit, offset int) ([]models.Post, error) {
	return s.listByUsersFn(ctx, userIDs, limit, offset)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) ListRecent(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.listRecentFn(ctx, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:      func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listByUserFn:  func(_ context.Context, _ uint, _, _ int) ([]models.Post, error) { return nil, nil },
		listByUsersFn: func(_ context.Context, _ []uint, _, _ int) ([]models.Post, error) { return nil, nil },
		listFn:        func(_ context.Context, _, _ int) ([]models.Post, error) { return nil, nil },
		listRecentFn:  func(_ context.Context, _, _ int) ([]models.Post, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByPostFn   func(context.Context, uint, int, int) ([]models.Comment, error)
	countByPostFn  func(context.Context, uint) (int64, error)
	updateFn       func(context.Context, *models.Comment) error
	deleteFn       func(context.Context, uint) error
	deleteByPostFn func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) CountByPost(ctx context.Context, postID uint) (int64, error) {
	return s.countByPostFn(ctx, postID)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) DeleteByPost(ctx context.Context, postID uint) error {
	return s.deleteByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn:   func(_ context.Context, _ uint, _, _ int) ([]models.Comment, error) { return nil, nil },
		countByPostFn:  func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		updateFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
		deleteByPostFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// planRepoStub is a stub for repository.LearningPlanRepository.
type planRepoStub struct {
	createFn      func(context.Context, *models.LearningPlan) error
	getByIDFn     func(context.Context, uint) (*models.LearningPlan, error)
	listByUserFn  func(context.Context, uint, int, int) ([]models.LearningPlan, error)
	listBySkillFn func(context.Context, string, int, int) ([]models.LearningPlan, error)
	updateFn      func(context.Context, *models.LearningPlan) error
	deleteFn      func(context.Context, uint) error
}

func (s *planRepoStub) Create(ctx context.Context, p *models.LearningPlan) error {
	return s.createFn(ctx, p)
}
func (s *planRepoStub) GetByID(ctx context.Context, id uint) (*models.LearningPlan, error) {
	return s.getByIDFn(ctx, id)
}
func (s *planRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.LearningPlan, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *planRepoStub) ListBySkill(ctx context.Context, skill string, limit, offset int) ([]models.LearningPlan, error) {
	return s.listBySkillFn(ctx, skill, limit, offset)
}
func (s *planRepoStub) Update(ctx context.Context, p *models.LearningPlan) error {
	return s.updateFn(ctx, p)
}
func (s *planRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPlanRepo() *planRepoStub {
	return &planRepoStub{
		createFn:      func(_ context.Context, _ *models.LearningPlan) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.LearningPlan, error) { return &models.LearningPlan{ID: id}, nil },
		listByUserFn:  func(_ context.Context, _ uint, _, _ int) ([]models.LearningPlan, error) { return nil, nil },
		listBySkillFn: func(_ context.Context, _ string, _, _ int) ([]models.LearningPlan, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.LearningPlan) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
	}
}

// progressRepoStub is a stub for repository.LearningProgressRepository.
type progressRepoStub struct {
	createFn      func(context.Context, *models.LearningProgress) error
	getByIDFn     func(context.Context, uint) (*models.LearningProgress, error)
	listByUserFn  func(context.Context, uint, int, int) ([]models.LearningProgress, error)
	listBySkillFn func(context.Context, string, int, int) ([]models.LearningProgress, error)
	updateFn      func(context.Context, *models.LearningProgress) error
	deleteFn      func(context.Context, uint) error
}

func (s *progressRepoStub) Create(ctx context.Context, e *models.LearningProgress) error {
	return s.createFn(ctx, e)
}
func (s *progressRepoStub) GetByID(ctx context.Context, id uint) (*models.LearningProgress, error) {
	return s.getByIDFn(ctx, id)
}
func (s *progressRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.LearningProgress, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *progressRepoStub) ListBySkill(ctx context.Context, skill string, limit, offset int) ([]models.LearningProgress, error) {
	return s.listBySkillFn(ctx, skill, limit, offset)
}
func (s *progressRepoStub) Update(ctx context.Context, e *models.LearningProgress) error {
	return s.updateFn(ctx, e)
}
func (s *progressRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopProgressRepo() *progressRepoStub {
	return &progressRepoStub{
		createFn:      func(_ context.Context, _ *models.LearningProgress) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.LearningProgress, error) { return &models.LearningProgress{ID: id}, nil },
		listByUserFn:  func(_ context.Context, _ uint, _, _ int) ([]models.LearningProgress, error) { return nil, nil },
		listBySkillFn: func(_ context.Context, _ string, _, _ int) ([]models.LearningProgress, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.LearningProgress) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
	}
}

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	getByIDFn     func(context.Context, uint) (*models.Notification, error)
	listByUserFn  func(context.Context, uint, int, int) ([]models.Notification, error)
	listUnreadFn  func(context.Context, uint) ([]models.Notification, error)
	markReadFn    func(context.Context, uint) error
	countUnreadFn func(context.Context, uint) (int64, error)
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.getByIDFn(ctx, id)
}
func (s *notificationRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *notificationRepoStub) ListUnread(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.listUnreadFn(ctx, userID)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, id uint) error {
	return s.markReadFn(ctx, id)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, userID)
}

func noopNotificationRepo() *notificationRepoStub {
	return &notificationRepoStub{
		createFn:      func(_ context.Context, _ *models.Notification) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Notification, error) { return &models.Notification{ID: id}, nil },
		listByUserFn:  func(_ context.Context, _ uint, _, _ int) ([]models.Notification, error) { return nil, nil },
		listUnreadFn:  func(_ context.Context, _ uint) ([]models.Notification, error) { return nil, nil },
		markReadFn:    func(_ context.Context, _ uint) error { return nil },
		countUnreadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// sentNotification is one call recorded by recordingNotifier.
type sentNotification struct {
	Recipient uint
	Sender    uint
	Type      models.NotificationType
	Content   string
	EntityID  string
}

// recordingNotifier records Notify and FanOutToFollowers calls. Fan-outs are
// recorded once per follower.
type recordingNotifier struct {
	mu      sync.Mutex
	sent    []sentNotification
	fanOuts int
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, recipientID, senderID uint, typ models.NotificationType, content, entityID string) (*models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	n.sent = append(n.sent, sentNotification{recipientID, senderID, typ, content, entityID})
	return &models.Notification{UserID: recipientID, SenderID: senderID, Type: typ, Content: content, EntityID: entityID}, nil
}

func (n *recordingNotifier) FanOutToFollowers(_ context.Context, owner *models.User, typ models.NotificationType, content, entityID string) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fanOuts++
	if n.err != nil {
		return 0, n.err
	}
	recipients := models.DedupeIDs(owner.Followers, owner.ID)
	for _, id := range recipients {
		n.sent = append(n.sent, sentNotification{id, owner.ID, typ, content, entityID})
	}
	return len(recipients), nil
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeForbidden)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeNotFound)
}
