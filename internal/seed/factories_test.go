package seed

import (
	"net/url"
	"testing"
	"time"

	"skillshare/internal/models"
	"skillshare/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBuildUser_ProducesValidAccounts(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, RandomSeed: 7})

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		u, err := f.BuildUser()
		require.NoError(t, err)
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.NoError(t, validation.ValidateEmail(u.Email), u.Email)
		assert.False(t, seen[u.Username], "duplicate username %s", u.Username)
		seen[u.Username] = true
	}
	assert.NoError(t, validation.ValidatePassword(DefaultPassword))
}

func TestBuildUser_HashesPasswordOnce(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, RandomSeed: 7})
	a, err := f.BuildUser()
	require.NoError(t, err)
	b, err := f.BuildUser()
	require.NoError(t, err)

	assert.Equal(t, a.Password, b.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(DefaultPassword)))
}

func TestBuildPost_TimestampsAndMedia(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30, RandomSeed: 3, Skills: []string{"Go"}}
	f := NewFactory(nil, opts)
	author := &models.User{ID: 1}

	for i := 0; i < 20; i++ {
		p := f.BuildPost(author, func(p *models.Post) { p.LikedBy = []uint{2, 3} })
		assert.Equal(t, "Go", p.SkillCategory)
		assert.Equal(t, 2, p.LikesCount)
		assert.LessOrEqual(t, len(p.MediaURLs), 2)
		for _, m := range p.MediaURLs {
			_, err := url.ParseRequestURI(m)
			assert.NoError(t, err)
		}
		assert.Less(t, time.Since(p.CreatedAt), time.Duration(opts.MaxDays+1)*24*time.Hour)
	}
}

func TestCreatePlan_DryRunAssignsIDs(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, RandomSeed: 11})
	owner := &models.User{ID: 9}

	a, err := f.CreatePlan(owner)
	require.NoError(t, err)
	b, err := f.CreatePlan(owner)
	require.NoError(t, err)

	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.GreaterOrEqual(t, len(a.Steps), 3)
	assert.LessOrEqual(t, len(a.Steps), 8)

	ids := map[string]bool{}
	for _, s := range a.Steps {
		assert.False(t, ids[s.ID])
		ids[s.ID] = true
	}
}

func TestSanitizeHandle(t *testing.T) {
	assert.Equal(t, "oconnor", sanitizeHandle("O'Connor"))
	assert.Equal(t, "jos", sanitizeHandle("José"))
	assert.Equal(t, "x", sanitizeHandle("---"))
}
