package monitor

import (
	"context"
	"sync"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// levelResolver memoizes student training level lookups for the duration of
// one sweep. Unknown students and lookup failures resolve to the most
// conservative level.
type levelResolver struct {
	svc   *Service
	mu    sync.Mutex
	cache map[string]types.TrainingLevel
}

func (s *Service) newLevelResolver() *levelResolver {
	return &levelResolver{svc: s, cache: make(map[string]types.TrainingLevel)}
}

func (r *levelResolver) resolve(ctx context.Context, studentID string) types.TrainingLevel {
	if studentID == "" {
		return types.LevelStudent
	}

	r.mu.Lock()
	cached, ok := r.cache[studentID]
	r.mu.Unlock()
	if ok {
		return cached
	}

	student, err := r.svc.store.GetStudent(ctx, studentID)
	if err != nil {
		r.svc.logError(ctx, types.ErrorStore, "Failed to load student training level", "", studentID, 0)
		return types.LevelStudent
	}
	if !student.TrainingLevel.IsValid() {
		r.svc.logger.Warn("student training level missing or invalid",
			"studentID", studentID,
			"trainingLevel", student.TrainingLevel)
		return types.LevelStudent
	}

	r.mu.Lock()
	r.cache[studentID] = student.TrainingLevel
	r.mu.Unlock()
	return student.TrainingLevel
}
