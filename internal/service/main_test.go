package service

import (
	"context"
	"fmt"
	"os"
	"testing"

	"skillshare/internal/database"
	"skillshare/internal/models"
	"skillshare/internal/notifications"
	"skillshare/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// testStack wires the real repositories on a private in-memory sqlite database.
type testStack struct {
	db            *gorm.DB
	users         repository.UserRepository
	posts         repository.PostRepository
	comments      repository.CommentRepository
	plans         repository.LearningPlanRepository
	progress      repository.LearningProgressRepository
	notifications repository.NotificationRepository
	dispatcher    *notifications.Dispatcher
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	notificationRepo := repository.NewNotificationRepository(db)
	return &testStack{
		db:            db,
		users:         repository.NewUserRepository(db),
		posts:         repository.NewPostRepository(db),
		comments:      repository.NewCommentRepository(db),
		plans:         repository.NewLearningPlanRepository(db),
		progress:      repository.NewLearningProgressRepository(db),
		notifications: notificationRepo,
		dispatcher:    notifications.NewDispatcher(notificationRepo, 4),
	}
}

func (s *testStack) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Name:     username,
	}
	require.NoError(t, s.users.Create(context.Background(), u))
	return u
}

func (s *testStack) reload(t *testing.T, id uint) *models.User {
	t.Helper()
	u, err := s.users.GetForUpdate(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (s *testStack) inbox(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	list, err := s.notifications.ListByUser(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	return list
}

func emailOf(u *models.User) string {
	return fmt.Sprintf("%s@example.com", u.Username)
}
