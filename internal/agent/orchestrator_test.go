package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

type fakeRetriever struct {
	byK    map[int][]domain.Passage
	err    error
	errOnK map[int]error
	calls  []int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, question string, k int) ([]domain.Passage, error) {
	f.calls = append(f.calls, k)
	if f.err != nil {
		return nil, f.err
	}
	if err := f.errOnK[k]; err != nil {
		return nil, err
	}
	return f.byK[k], nil
}

type fakeJudge struct {
	relevant map[int]bool
	failOn   map[int]bool

	mu    sync.Mutex
	calls int
}

func (f *fakeJudge) Judge(ctx context.Context, question string, p domain.Passage) (bool, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn[p.Index] {
		return false, errors.New("judgment backend down")
	}
	return f.relevant[p.Index], nil
}

func (f *fakeJudge) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGenerator struct {
	answer string
	err    error

	mu          sync.Mutex
	calls       int
	lastContext string
}

func (f *fakeGenerator) Generate(ctx context.Context, question, contextText string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastContext = contextText
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func passages(prefix string, n int) []domain.Passage {
	out := make([]domain.Passage, n)
	for i := range out {
		out[i] = domain.Passage{Index: i, Text: fmt.Sprintf("%s passage %d", prefix, i)}
	}
	return out
}

func newTestLoop(t *testing.T, r domain.Retriever, j domain.Judge, g domain.Generator) *Loop {
	t.Helper()
	critic := NewCritic(j, 3, nil, nil)
	loop, err := NewLoop(r, critic, NewSynthesizer(g), DefaultConfig(), nil)
	require.NoError(t, err)
	return loop
}

func TestNarrowRoundAnswerSkipsWideRound(t *testing.T) {
	retriever := &fakeRetriever{byK: map[int][]domain.Passage{5: passages("narrow", 5)}}
	judge := &fakeJudge{relevant: map[int]bool{2: true}}
	gen := &fakeGenerator{answer: "the answer"}

	loop := newTestLoop(t, retriever, judge, gen)
	out, err := loop.Answer(context.Background(), "what is it?")
	require.NoError(t, err)

	assert.True(t, out.Answered)
	assert.Equal(t, "the answer", out.Answer)
	assert.Equal(t, []int{5}, retriever.calls, "wide round must not run after a narrow-round hit")
	assert.Equal(t, 1, out.RoundsUsed)
	require.Len(t, out.RelevantPassages, 1)
	assert.Equal(t, 2, out.RelevantPassages[0].Index)
}

func TestBothRoundsEmptyRefusesWithoutGeneration(t *testing.T) {
	retriever := &fakeRetriever{byK: map[int][]domain.Passage{
		5:  passages("narrow", 5),
		10: passages("wide", 10),
	}}
	judge := &fakeJudge{}
	gen := &fakeGenerator{answer: "should never be produced"}

	loop := newTestLoop(t, retriever, judge, gen)
	out, err := loop.Answer(context.Background(), "unanswerable")
	require.NoError(t, err)

	assert.False(t, out.Answered)
	assert.Equal(t, domain.RefusalNoRelevantContent, out.Reason)
	assert.Equal(t, []int{5, 10}, retriever.calls)
	assert.Equal(t, 2, out.RoundsUsed)
	assert.Equal(t, 0, gen.calls, "synthesis must never run on refusal")
	assert.Empty(t, out.RelevantPassages)
}

func TestWideRoundRescuesBorderlineQuestion(t *testing.T) {
	// The relevant passage only appears at k=10.
	retriever := &fakeRetriever{byK: map[int][]domain.Passage{
		5:  passages("narrow", 5),
		10: passages("wide", 10),
	}}
	judge := &fakeJudge{relevant: map[int]bool{7: true}}
	gen := &fakeGenerator{answer: "found late"}

	loop := newTestLoop(t, retriever, judge, gen)
	out, err := loop.Answer(context.Background(), "borderline")
	require.NoError(t, err)

	assert.True(t, out.Answered)
	assert.Equal(t, 2, out.RoundsUsed)
	assert.Equal(t, 10, out.TotalRetrieved)
	require.Len(t, out.RelevantPassages, 1)
	// The answer context comes from the wide round only, never mixed.
	assert.Contains(t, out.RelevantPassages[0].Text, "wide")
}

func TestIndexUnavailableRefusesImmediately(t *testing.T) {
	retriever := &fakeRetriever{err: domain.ErrIndexUnavailable}
	judge := &fakeJudge{}
	gen := &fakeGenerator{}

	loop := newTestLoop(t, retriever, judge, gen)
	out, err := loop.Answer(context.Background(), "anything")
	require.NoError(t, err)

	assert.False(t, out.Answered)
	assert.Equal(t, domain.RefusalNoDocument, out.Reason)
	assert.Equal(t, 0, judge.callCount(), "critique must not run without an index")
	assert.Equal(t, 0, gen.calls)
	assert.Equal(t, 0, out.RoundsUsed)
}

func TestRetrievalFaultPropagates(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("index backend down")}
	loop := newTestLoop(t, retriever, &fakeJudge{}, &fakeGenerator{})

	_, err := loop.Answer(context.Background(), "anything")
	assert.Error(t, err)
}

func TestWideRoundFaultDegradesToRefusal(t *testing.T) {
	// The narrow round found nothing relevant, so a failed widening ends in
	// an ordinary refusal rather than an error.
	retriever := &fakeRetriever{
		byK:    map[int][]domain.Passage{5: passages("narrow", 5)},
		errOnK: map[int]error{10: errors.New("index backend down")},
	}
	judge := &fakeJudge{}
	gen := &fakeGenerator{answer: "should never be produced"}

	loop := newTestLoop(t, retriever, judge, gen)
	out, err := loop.Answer(context.Background(), "unanswerable")
	require.NoError(t, err)

	assert.False(t, out.Answered)
	assert.Equal(t, domain.RefusalNoRelevantContent, out.Reason)
	assert.Equal(t, []int{5, 10}, retriever.calls)
	assert.Equal(t, 2, out.RoundsUsed)
	assert.Equal(t, 0, gen.calls)
}

func TestSingleFailingJudgmentDoesNotAbortBatch(t *testing.T) {
	retriever := &fakeRetriever{byK: map[int][]domain.Passage{5: passages("narrow", 5)}}
	judge := &fakeJudge{relevant: map[int]bool{3: true}, failOn: map[int]bool{1: true}}
	gen := &fakeGenerator{answer: "still answered"}

	loop := newTestLoop(t, retriever, judge, gen)
	out, err := loop.Answer(context.Background(), "resilient")
	require.NoError(t, err)

	require.Len(t, out.Verdicts, 5)
	assert.False(t, out.Verdicts[1].Relevant)
	assert.True(t, out.Verdicts[1].Degraded)
	assert.True(t, out.Verdicts[3].Relevant)
	assert.True(t, out.Answered)
}

func TestGenerationFailureIsDistinctFromRefusal(t *testing.T) {
	retriever := &fakeRetriever{byK: map[int][]domain.Passage{5: passages("narrow", 5)}}
	judge := &fakeJudge{relevant: map[int]bool{0: true}}
	gen := &fakeGenerator{err: errors.New("model endpoint 503")}

	loop := newTestLoop(t, retriever, judge, gen)
	out, err := loop.Answer(context.Background(), "question")
	require.NoError(t, err)

	assert.False(t, out.Answered)
	assert.Equal(t, domain.RefusalGenerationFailed, out.Reason)
	assert.NotEqual(t, domain.RefusalNoRelevantContent, out.Reason)
	assert.Equal(t, 1, out.RoundsUsed)
}

func TestRepeatedQuestionYieldsIdenticalOutcome(t *testing.T) {
	judge := &fakeJudge{relevant: map[int]bool{1: true, 4: true}}
	gen := &fakeGenerator{answer: "deterministic"}
	makeLoop := func() *Loop {
		retriever := &fakeRetriever{byK: map[int][]domain.Passage{5: passages("narrow", 5)}}
		return newTestLoop(t, retriever, judge, gen)
	}

	first, err := makeLoop().Answer(context.Background(), "same question")
	require.NoError(t, err)
	second, err := makeLoop().Answer(context.Background(), "same question")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCancelledContextAbortsBetweenSteps(t *testing.T) {
	retriever := &fakeRetriever{byK: map[int][]domain.Passage{5: passages("narrow", 5)}}
	loop := newTestLoop(t, retriever, &fakeJudge{}, &fakeGenerator{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loop.Answer(ctx, "cancelled")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, retriever.calls)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"custom widening", Config{KInitial: 3, KFallback: 12}, false},
		{"zero initial", Config{KInitial: 0, KFallback: 10}, true},
		{"negative initial", Config{KInitial: -1, KFallback: 10}, true},
		{"fallback not wider", Config{KInitial: 5, KFallback: 5}, true},
		{"fallback narrower", Config{KInitial: 5, KFallback: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
