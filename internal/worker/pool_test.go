package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banksecure/paysim/internal/models"
)

type stubResolver struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubResolver) Resolve(_ context.Context, ref string) (*models.ResolutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ref)
	return &models.ResolutionResult{ComplaintID: ref, Status: models.ComplaintResolved}, nil
}

func (s *stubResolver) resolved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func TestPoolProcessesAllSubmittedJobs(t *testing.T) {
	resolver := &stubResolver{}
	pool := NewPool(16, resolver, zap.NewNop())
	pool.Start(3)

	refs := []string{"CMP01", "CMP02", "CMP03", "CMP04", "CMP05"}
	for _, ref := range refs {
		require.True(t, pool.Submit(ref))
	}
	pool.Shutdown()

	assert.ElementsMatch(t, refs, resolver.resolved())
}

func TestPoolSubmitReportsBackpressure(t *testing.T) {
	resolver := &stubResolver{}
	pool := NewPool(2, resolver, zap.NewNop())
	// Workers not started: the queue fills up and stays full.

	assert.True(t, pool.Submit("CMP01"))
	assert.True(t, pool.Submit("CMP02"))
	assert.False(t, pool.Submit("CMP03"))
}
