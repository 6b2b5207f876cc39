// Package seed provides helpers to create demo and test data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"skillshare/internal/middleware"
	"skillshare/internal/models"
	"skillshare/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "Skillshare-Demo-1!"

var progressTypes = []models.ProgressType{
	models.ProgressCourse,
	models.ProgressProject,
	models.ProgressCertification,
	models.ProgressBook,
	models.ProgressOther,
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	rng   *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
	serial int
	// bcrypt is slow; every account shares one hash
	passwordHash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		rng:    rand.New(rand.NewSource(seed)),
		nextID: 1000,
	}
}

func (f *Factory) skills() []string {
	if len(f.opts.Skills) > 0 {
		return f.opts.Skills
	}
	return defaultSkills
}

func (f *Factory) pickSkill() string {
	s := f.skills()
	return s[f.rng.Intn(len(s))]
}

// pickSkills returns n distinct skills.
func (f *Factory) pickSkills(n int) []string {
	s := f.skills()
	if n > len(s) {
		n = len(s)
	}
	out := make([]string, 0, n)
	for _, i := range f.rng.Perm(len(s))[:n] {
		out = append(out, s[i])
	}
	return out
}

// pastTime spreads timestamps over the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.passwordHash == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash seed password: %w", err)
		}
		f.passwordHash = string(hashed)
	}
	return f.passwordHash, nil
}

func (f *Factory) assignID() uint {
	f.nextID++
	return f.nextID
}

func (f *Factory) persist(kind string, value interface{}) error {
	if f.opts.DryRun {
		middleware.Logger.Debug("dry-run create", "kind", kind)
		return nil
	}
	return f.db.Create(value).Error
}

// BuildUser constructs a user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	f.serial++
	username := fmt.Sprintf("%s_%s%d", sanitizeHandle(first), sanitizeHandle(last), f.serial)
	if len(username) > 30 {
		username = fmt.Sprintf("learner%d", f.serial)
	}

	password, err := f.password()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  password,
		Name:      first + " " + last,
		Bio:       f.faker.Sentence(10),
		Location:  f.faker.City(),
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Skills:    f.pickSkills(1 + f.rng.Intn(3)),
		Interests: f.pickSkills(1 + f.rng.Intn(3)),
		Followers: []uint{},
		Following: []uint{},
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		user.ID = f.assignID()
	}
	if err := f.persist("user", user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for author without persisting it.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	skill := f.pickSkill()
	post := &models.Post{
		UserID:        author.ID,
		Content:       fmt.Sprintf("Today in %s: %s", skill, f.faker.Paragraph(1, 3, 8, " ")),
		SkillCategory: skill,
		MediaURLs:     []string{},
		LikedBy:       []uint{},
		CreatedAt:     f.pastTime(),
	}
	for i := f.rng.Intn(3); i > 0; i-- {
		post.MediaURLs = append(post.MediaURLs, fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID()))
	}
	for _, override := range overrides {
		override(post)
	}
	post.LikesCount = len(post.LikedBy)
	return post
}

// CreatePost constructs and persists a sample post for author.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if f.opts.DryRun {
		post.ID = f.assignID()
	}
	if err := f.persist("post", post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by author on post. The caller keeps the
// post's comment counter in step.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Content:   f.faker.Sentence(8 + f.rng.Intn(10)),
		CreatedAt: post.CreatedAt.Add(time.Duration(1+f.rng.Intn(48)) * time.Hour),
	}
	for _, override := range overrides {
		override(comment)
	}
	if f.opts.DryRun {
		comment.ID = f.assignID()
	}
	if err := f.persist("comment", comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// BuildPlan constructs a learning plan with between three and eight steps,
// some of them already completed.
func (f *Factory) BuildPlan(owner *models.User, overrides ...func(*models.LearningPlan)) *models.LearningPlan {
	skills := f.pickSkills(1 + f.rng.Intn(2))
	created := f.pastTime()

	n := 3 + f.rng.Intn(6)
	done := f.rng.Intn(n + 1)
	steps := make([]models.LearningStep, 0, n)
	for i := 0; i < n; i++ {
		step := models.LearningStep{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("%s: %s", skills[0], strings.TrimSuffix(f.faker.Sentence(4), ".")),
			Description: f.faker.Sentence(12),
			Completed:   i < done,
		}
		if f.rng.Intn(2) == 0 {
			due := created.Add(time.Duration(7*(i+1)) * 24 * time.Hour)
			step.Deadline = &due
		}
		if f.rng.Intn(3) == 0 {
			step.Resources = []string{f.faker.URL()}
		}
		steps = append(steps, step)
	}

	plan := &models.LearningPlan{
		UserID:      owner.ID,
		Title:       fmt.Sprintf("Learn %s", skills[0]),
		Description: f.faker.Paragraph(1, 2, 10, " "),
		Skills:      skills,
		Steps:       steps,
		CreatedAt:   created,
	}
	for _, override := range overrides {
		override(plan)
	}
	plan.Progress = service.DeriveProgress(plan.Steps)
	return plan
}

// CreatePlan constructs and persists a sample learning plan.
func (f *Factory) CreatePlan(owner *models.User, overrides ...func(*models.LearningPlan)) (*models.LearningPlan, error) {
	plan := f.BuildPlan(owner, overrides...)
	if f.opts.DryRun {
		plan.ID = f.assignID()
	}
	if err := f.persist("learning_plan", plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// CreateProgress persists a learning journal entry for owner.
func (f *Factory) CreateProgress(owner *models.User, overrides ...func(*models.LearningProgress)) (*models.LearningProgress, error) {
	skill := f.pickSkill()
	kind := progressTypes[f.rng.Intn(len(progressTypes))]
	start := f.pastTime()
	pct := 5 * f.rng.Intn(21)

	entry := &models.LearningProgress{
		UserID:               owner.ID,
		Title:                fmt.Sprintf("%s %s", skill, strings.ToLower(string(kind))),
		Description:          f.faker.Sentence(15),
		Type:                 kind,
		Skills:               []string{skill},
		ResourceURL:          f.faker.URL(),
		CompletionPercentage: pct,
		StartDate:            &start,
		CreatedAt:            start,
	}
	if pct == 100 {
		done := start.Add(time.Duration(1+f.rng.Intn(30)) * 24 * time.Hour)
		entry.CompletionDate = &done
	}
	for _, override := range overrides {
		override(entry)
	}
	if f.opts.DryRun {
		entry.ID = f.assignID()
	}
	if err := f.persist("learning_progress", entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func sanitizeHandle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}
