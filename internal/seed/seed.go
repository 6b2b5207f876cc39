package seed

import (
	"context"
	"fmt"
	"math/rand"

	"skillshare/internal/database"
	"skillshare/internal/middleware"
	"skillshare/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers        int
	NumPosts        int
	FollowsPerUser  int
	PlansPerUser    int
	ProgressPerUser int
	CommentsPerPost int
	ShouldClean     bool
	SkipBcrypt      bool
	DryRun          bool
	MaxDays         int
	RandomSeed      int64
	Skills          []string
}

// Report counts what a seeding run created.
type Report struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
	Plans    int
	Progress int
}

func (r Report) String() string {
	return fmt.Sprintf("users=%d follows=%d posts=%d likes=%d comments=%d plans=%d progress=%d",
		r.Users, r.Follows, r.Posts, r.Likes, r.Comments, r.Plans, r.Progress)
}

// Seeder fills a database with a coherent demo data set: follow edges are
// recorded on both users, like and comment counters match their lists and
// plan progress matches completed steps.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder writing through db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Factory exposes the seeder's entity factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// Run executes a full seeding pass.
func (s *Seeder) Run(ctx context.Context) (Report, error) {
	var report Report
	middleware.Logger.InfoContext(ctx, "seeding database",
		"users", s.opts.NumUsers, "posts", s.opts.NumPosts, "dry_run", s.opts.DryRun)

	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return report, err
		}
	}

	users, err := s.SeedUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return report, fmt.Errorf("seed users: %w", err)
	}
	report.Users = len(users)

	if report.Follows, err = s.SeedSocialMesh(ctx, users, s.opts.FollowsPerUser); err != nil {
		return report, fmt.Errorf("seed follows: %w", err)
	}
	if err := s.SeedEngagement(ctx, users, &report); err != nil {
		return report, fmt.Errorf("seed engagement: %w", err)
	}
	if err := s.SeedLearning(ctx, users, &report); err != nil {
		return report, fmt.Errorf("seed learning: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "seeding complete", "report", report.String())
	return report, nil
}

// ClearAll removes every row from the schema-managed tables, soft-deleted
// rows included.
func (s *Seeder) ClearAll(ctx context.Context) error {
	if s.opts.DryRun {
		middleware.Logger.InfoContext(ctx, "dry-run: skipping clear")
		return nil
	}
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	if s.db == nil {
		return fmt.Errorf("clear: no database")
	}

	all := database.PersistentModels()
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Unscoped().Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	return nil
}

// SeedUsers creates n users.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	f := s.factory.bind(ctx)
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return users, err
		}
		users = append(users, u)
	}
	return users, nil
}

// SeedSocialMesh makes every user follow up to perUser others and writes
// both sides of each edge. It returns the number of edges created.
func (s *Seeder) SeedSocialMesh(ctx context.Context, users []*models.User, perUser int) (int, error) {
	if len(users) < 2 || perUser <= 0 {
		return 0, nil
	}
	rng := s.factory.rng
	edges := 0
	for _, u := range users {
		for _, idx := range rng.Perm(len(users)) {
			if len(u.Following) >= perUser {
				break
			}
			target := users[idx]
			if target.ID == u.ID {
				continue
			}
			if u.AddFollowing(target.ID) {
				target.AddFollower(u.ID)
				edges++
			}
		}
	}

	if s.opts.DryRun {
		return edges, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range users {
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
				"followers": u.Followers,
				"following": u.Following,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return edges, err
}

// SeedEngagement creates posts with likes and comments.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, report *Report) error {
	if len(users) == 0 {
		return nil
	}
	f := s.factory.bind(ctx)
	rng := f.rng

	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[rng.Intn(len(users))]
		likers := likersFor(rng, author, users, rng.Intn(len(users)))
		post, err := f.CreatePost(author, func(p *models.Post) { p.LikedBy = likers })
		if err != nil {
			return err
		}
		report.Posts++
		report.Likes += post.LikesCount

		if s.opts.CommentsPerPost <= 0 {
			continue
		}
		n := rng.Intn(s.opts.CommentsPerPost + 1)
		for j := 0; j < n; j++ {
			if _, err := f.CreateComment(users[rng.Intn(len(users))], post); err != nil {
				return err
			}
		}
		if n > 0 && !s.opts.DryRun {
			if err := f.db.Model(&models.Post{}).Where("id = ?", post.ID).
				Update("comments_count", n).Error; err != nil {
				return err
			}
		}
		post.CommentsCount = n
		report.Comments += n
	}
	return nil
}

// SeedLearning creates learning plans and journal entries for every user.
func (s *Seeder) SeedLearning(ctx context.Context, users []*models.User, report *Report) error {
	f := s.factory.bind(ctx)
	for _, u := range users {
		for i := 0; i < s.opts.PlansPerUser; i++ {
			if _, err := f.CreatePlan(u); err != nil {
				return err
			}
			report.Plans++
		}
		for i := 0; i < s.opts.ProgressPerUser; i++ {
			if _, err := f.CreateProgress(u); err != nil {
				return err
			}
			report.Progress++
		}
	}
	return nil
}

// likersFor picks up to n distinct users other than author.
func likersFor(rng *rand.Rand, author *models.User, users []*models.User, n int) []uint {
	ids := make([]uint, 0, n)
	for _, idx := range rng.Perm(len(users)) {
		if len(ids) >= n {
			break
		}
		if u := users[idx]; u.ID != author.ID {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// bind scopes the factory's writes to ctx.
func (f *Factory) bind(ctx context.Context) *Factory {
	if f.db != nil {
		f.db = f.db.WithContext(ctx)
	}
	return f
}
