package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"skillshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const concurrentWriters = 20

// runConcurrently calls fn once per index from its own goroutine and returns
// how many calls ended in a CONFLICT. Any other error fails the test.
func runConcurrently(t *testing.T, n int, fn func(i int) error) int {
	t.Helper()
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		conflicts int
		others    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := fn(i)
			if err == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if models.HasCode(err, models.CodeConflict) {
				conflicts++
				return
			}
			others = append(others, err)
		}(i)
	}
	wg.Wait()
	require.Empty(t, others)
	return conflicts
}

func TestPostService_ConcurrentLikesKeepCounterInSync(t *testing.T) {
	st := newTestStack(t)
	author := st.user(t, "author")
	likers := make([]*models.User, concurrentWriters)
	for i := range likers {
		likers[i] = st.user(t, fmt.Sprintf("liker%02d", i))
	}
	svc := NewPostService(st.posts, st.comments, st.users, st.dispatcher, 10)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{ActorEmail: emailOf(author), Content: "race me"})
	require.NoError(t, err)

	conflicts := runConcurrently(t, len(likers), func(i int) error {
		_, err := svc.LikePost(ctx, emailOf(likers[i]), post.ID)
		return err
	})
	if conflicts > 0 {
		t.Logf("%d of %d likes gave up after retries", conflicts, len(likers))
	}

	stored, err := st.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, len(stored.LikedBy), stored.LikesCount)
	assert.Equal(t, len(likers)-conflicts, stored.LikesCount)
	assert.ElementsMatch(t, uniqueIDs(stored.LikedBy), []uint(stored.LikedBy), "no liker is recorded twice")
	assert.Len(t, st.inbox(t, author.ID), stored.LikesCount)
}

func TestGraphService_ConcurrentFollowersStaySymmetric(t *testing.T) {
	st := newTestStack(t)
	target := st.user(t, "target")
	followers := make([]*models.User, concurrentWriters)
	for i := range followers {
		followers[i] = st.user(t, fmt.Sprintf("fan%02d", i))
	}
	svc := NewGraphService(st.users, st.dispatcher, followFlags(), 10)
	ctx := context.Background()

	conflicts := runConcurrently(t, len(followers), func(i int) error {
		_, err := svc.Follow(ctx, emailOf(followers[i]), target.ID)
		return err
	})

	// A follow that exhausted its retries may have written only the
	// follower's side. The reconciler is what closes that gap.
	if conflicts > 0 {
		t.Logf("%d of %d follows gave up after retries", conflicts, len(followers))
		report, err := NewReconcileService(st.posts, st.comments, st.users, 10).ReconcileFollowEdges(ctx)
		require.NoError(t, err)
		t.Logf("reconciler repaired %d edges", report.EdgesRepaired)
	}

	stored := st.reload(t, target.ID)
	assert.ElementsMatch(t, uniqueIDs(stored.Followers), []uint(stored.Followers))
	for _, f := range followers {
		follower := st.reload(t, f.ID)
		assert.Equal(t, follower.IsFollowing(target.ID), stored.HasFollower(f.ID),
			"edge %d -> %d stored on one side only", f.ID, target.ID)
	}
	assert.GreaterOrEqual(t, len(stored.Followers), len(followers)-conflicts)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
