package service

import (
	"fmt"

	"skillshare/internal/models"
)

// DeriveProgress is the floor of the completed share of steps, as a percentage.
// A plan without steps is at 0.
func DeriveProgress(steps []models.LearningStep) int {
	if len(steps) == 0 {
		return 0
	}
	completed := 0
	for _, s := range steps {
		if s.Completed {
			completed++
		}
	}
	return completed * 100 / len(steps)
}

// IsMilestone reports whether moving from prev to next progress crosses a
// notification milestone: a strict increase landing on a multiple of 25 or on 100.
func IsMilestone(prev, next int) bool {
	if next <= prev {
		return false
	}
	return next == 100 || next%25 == 0
}

func milestoneContent(ownerName, planTitle string, progress int) string {
	if progress == 100 {
		return fmt.Sprintf("%s completed learning plan: %s", ownerName, planTitle)
	}
	return fmt.Sprintf("%s reached %d%% progress on learning plan: %s", ownerName, progress, planTitle)
}
