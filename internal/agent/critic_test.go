package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

// slowJudge completes later for earlier passages so that completion order
// inverts input order under concurrency.
type slowJudge struct {
	total int
}

func (j *slowJudge) Judge(ctx context.Context, question string, p domain.Passage) (bool, error) {
	time.Sleep(time.Duration(j.total-p.Index) * 2 * time.Millisecond)
	return p.Index%2 == 0, nil
}

func TestEvaluateKeepsInputOrderUnderConcurrency(t *testing.T) {
	n := 8
	ps := passages("p", n)
	critic := NewCritic(&slowJudge{total: n}, n, nil, nil)

	verdicts := critic.Evaluate(context.Background(), "q", ps)

	require.Len(t, verdicts, n)
	for i, v := range verdicts {
		assert.Equal(t, ps[i].Index, v.PassageIndex, "verdict %d out of order", i)
		assert.Equal(t, i%2 == 0, v.Relevant)
	}
}

func TestEvaluateAbsorbsSingleFailure(t *testing.T) {
	ps := passages("p", 5)
	judge := &fakeJudge{relevant: map[int]bool{0: true, 4: true}, failOn: map[int]bool{2: true}}
	critic := NewCritic(judge, 2, nil, nil)

	verdicts := critic.Evaluate(context.Background(), "q", ps)

	require.Len(t, verdicts, 5)
	assert.True(t, verdicts[0].Relevant)
	assert.False(t, verdicts[2].Relevant)
	assert.True(t, verdicts[2].Degraded)
	assert.False(t, verdicts[2].Relevant)
	assert.True(t, verdicts[4].Relevant)
	for i, v := range verdicts {
		if i != 2 {
			assert.False(t, v.Degraded, "verdict %d wrongly degraded", i)
		}
	}
}

func TestEvaluateInvokesProgressPerPassage(t *testing.T) {
	ps := passages("p", 6)
	var notified int64
	var mu sync.Mutex
	seen := map[int]bool{}

	critic := NewCritic(&fakeJudge{relevant: map[int]bool{1: true}}, 3, func(index int, relevant bool) {
		atomic.AddInt64(&notified, 1)
		mu.Lock()
		seen[index] = relevant
		mu.Unlock()
	}, nil)

	critic.Evaluate(context.Background(), "q", ps)

	assert.Equal(t, int64(6), atomic.LoadInt64(&notified))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 6)
	assert.True(t, seen[1])
	assert.False(t, seen[0])
}

func TestEvaluateEmptyBatch(t *testing.T) {
	critic := NewCritic(&fakeJudge{}, 2, nil, nil)
	verdicts := critic.Evaluate(context.Background(), "q", nil)
	assert.Empty(t, verdicts)
}

func TestEvaluateSequentialWhenConcurrencyBelowOne(t *testing.T) {
	ps := passages("p", 3)
	judge := &fakeJudge{relevant: map[int]bool{2: true}}
	critic := NewCritic(judge, 0, nil, nil)

	verdicts := critic.Evaluate(context.Background(), "q", ps)

	require.Len(t, verdicts, 3)
	assert.True(t, verdicts[2].Relevant)
	assert.Equal(t, 3, judge.callCount())
}

func TestEvaluateAllFailures(t *testing.T) {
	ps := passages("p", 3)
	judge := &fakeJudge{failOn: map[int]bool{0: true, 1: true, 2: true}}
	critic := NewCritic(judge, 2, nil, nil)

	verdicts := critic.Evaluate(context.Background(), "q", ps)

	require.Len(t, verdicts, 3)
	for _, v := range verdicts {
		assert.False(t, v.Relevant)
		assert.True(t, v.Degraded)
	}
}
