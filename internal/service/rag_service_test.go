package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-be/internal/apperr"
	"rag-chat-be/internal/config"
	"rag-chat-be/internal/model"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/store"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string { return "fake-embedding-model" }

type fakeEmbedCache struct {
	vec    []float32
	found  bool
	getErr error
	puts   int
}

func (f *fakeEmbedCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	return f.vec, f.found, f.getErr
}

func (f *fakeEmbedCache) Put(ctx context.Context, model, text string, vector []float32, ttl time.Duration) error {
	f.puts++
	return nil
}

type fakePassages struct {
	results   []store.Passage
	err       error
	calls     int
	lastLimit int
}

func (f *fakePassages) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]store.Passage, error) {
	f.calls++
	f.lastLimit = limit
	return f.results, f.err
}

func (f *fakePassages) CreateBulk(ctx context.Context, passages []*model.Passage) error {
	return nil
}

func (f *fakePassages) Count(ctx context.Context) (int64, error) {
	return int64(len(f.results)), nil
}

type fakeSessions struct {
	turns       map[string][]store.Turn
	readErr     error
	appendCalls int
	clearCalls  int
	touchCalls  int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{turns: make(map[string][]store.Turn)}
}

func (f *fakeSessions) Read(ctx context.Context, sessionID string) ([]store.Turn, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.turns[sessionID], nil
}

func (f *fakeSessions) AppendPair(ctx context.Context, sessionID string, user, assistant store.Turn, ttl time.Duration) error {
	f.appendCalls++
	f.turns[sessionID] = append(f.turns[sessionID], user, assistant)
	return nil
}

func (f *fakeSessions) Clear(ctx context.Context, sessionID string) error {
	f.clearCalls++
	delete(f.turns, sessionID)
	return nil
}

func (f *fakeSessions) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	f.touchCalls++
	return nil
}

func (f *fakeSessions) ListActiveSessionIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.turns))
	for id := range f.turns {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeChatLog struct {
	deleteCalls int
}

func (f *fakeChatLog) AppendTurn(ctx context.Context, sessionID string, turn store.Turn, sources []store.Source) error {
	return nil
}

func (f *fakeChatLog) History(ctx context.Context, sessionID string) ([]store.Turn, error) {
	return nil, nil
}

func (f *fakeChatLog) DeleteSession(ctx context.Context, sessionID string) error {
	f.deleteCalls++
	return nil
}

type fakeLLM struct {
	answer    string
	genErr    error
	fragments []string
	streamErr error
	failAt    int // 1-based fragment index to fail at, 0 disables
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.answer, f.genErr
}

func (f *fakeLLM) GenerateStream(ctx context.Context, prompt string, fn llm.FragmentHandler, options ...llm.Option) error {
	for i, frag := range f.fragments {
		if f.failAt > 0 && i+1 == f.failAt {
			return f.streamErr
		}
		if err := fn(frag); err != nil {
			return err
		}
	}
	return f.streamErr
}

type fakePublisher struct {
	calls    int
	lastUser store.Turn
	lastAsst store.Turn
	lastSrcs []store.Source
}

func (f *fakePublisher) PublishTurnPair(ctx context.Context, sessionID string, user, assistant store.Turn, sources []store.Source) error {
	f.calls++
	f.lastUser = user
	f.lastAsst = assistant
	f.lastSrcs = sources
	return nil
}

type testDeps struct {
	embedder *fakeEmbedder
	cache    *fakeEmbedCache
	passages *fakePassages
	sessions *fakeSessions
	chatLog  *fakeChatLog
	pub      *fakePublisher
	cfg      config.RagConfig
}

func defaultPassages() []store.Passage {
	return []store.Passage{
		{Text: "AI systems have improved rapidly this year.", SourceTitle: "AI Progress Report", SourceURL: "https://news.example.com/ai-progress", Score: 0.91},
		{Text: "Model training costs continue to fall.", SourceTitle: "Compute Trends", SourceURL: "https://news.example.com/compute", Score: 0.77},
	}
}

func newTestDeps() *testDeps {
	return &testDeps{
		embedder: &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}},
		cache:    &fakeEmbedCache{},
		passages: &fakePassages{results: defaultPassages()},
		sessions: newFakeSessions(),
		chatLog:  &fakeChatLog{},
		pub:      &fakePublisher{},
		cfg: config.RagConfig{
			TopK:             5,
			SessionTTL:       time.Hour,
			EmbeddingTTL:     time.Hour,
			StreamBufferSize: 8,
		},
	}
}

func (d *testDeps) build(prov *fakeLLM) IRagService {
	return NewRagService(
		d.embedder,
		d.cache,
		d.passages,
		d.sessions,
		d.chatLog,
		prov,
		d.pub,
		nopLogger{},
		d.cfg,
	)
}

func TestProcessQuery_Success(t *testing.T) {
	deps := newTestDeps()
	svc := deps.build(&fakeLLM{answer: "AI is advancing rapidly [1]."})

	result, err := svc.ProcessQuery(context.Background(), "session-1", "What happened in AI this week?")
	require.NoError(t, err)

	assert.Equal(t, "AI is advancing rapidly [1].", result.Answer)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "AI Progress Report", result.Sources[0].Title)
	assert.Equal(t, 0.91, result.Sources[0].Score)
	assert.Equal(t, "Compute Trends", result.Sources[1].Title)
	assert.Equal(t, 0.77, result.Sources[1].Score)

	// Committed pair is visible to the next read, user turn first.
	turns, err := svc.GetSessionHistory(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, store.RoleUser, turns[0].Role)
	assert.Equal(t, "What happened in AI this week?", turns[0].Content)
	assert.Equal(t, store.RoleAssistant, turns[1].Role)
	assert.Equal(t, "AI is advancing rapidly [1].", turns[1].Content)

	assert.Equal(t, 1, deps.pub.calls)
	assert.Equal(t, 5, deps.passages.lastLimit)
}

func TestProcessQuery_EmptyQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "empty", query: ""},
		{name: "whitespace only", query: "   \t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			svc := deps.build(&fakeLLM{answer: "unused"})

			_, err := svc.ProcessQuery(context.Background(), "session-1", tt.query)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

			// Rejected before any pipeline stage runs.
			assert.Equal(t, 0, deps.embedder.calls)
			assert.Equal(t, 0, deps.passages.calls)
			assert.Equal(t, 0, deps.sessions.appendCalls)
		})
	}
}

func TestProcessQuery_GenerationFailureCommitsNothing(t *testing.T) {
	deps := newTestDeps()
	svc := deps.build(&fakeLLM{genErr: errors.New("model overloaded")})

	_, err := svc.ProcessQuery(context.Background(), "session-1", "anything")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstreamUnavailable))

	assert.Equal(t, 0, deps.sessions.appendCalls)
	assert.Equal(t, 0, deps.pub.calls)
}

func TestProcessQuery_EmbeddingProviderFailure(t *testing.T) {
	deps := newTestDeps()
	deps.embedder.err = errors.New("provider down")
	svc := deps.build(&fakeLLM{answer: "unused"})

	_, err := svc.ProcessQuery(context.Background(), "session-1", "anything")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstreamUnavailable))
	assert.Equal(t, 0, deps.passages.calls)
}

func TestProcessQuery_CacheHitSkipsProvider(t *testing.T) {
	deps := newTestDeps()
	deps.cache.vec = []float32{0.5, 0.5}
	deps.cache.found = true
	svc := deps.build(&fakeLLM{answer: "cached path"})

	_, err := svc.ProcessQuery(context.Background(), "session-1", "repeat question")
	require.NoError(t, err)

	assert.Equal(t, 0, deps.embedder.calls)
	assert.Equal(t, 0, deps.cache.puts)
}

func TestProcessQuery_CacheReadFailureDegrades(t *testing.T) {
	deps := newTestDeps()
	deps.cache.getErr = errors.New("cache down")
	svc := deps.build(&fakeLLM{answer: "regenerated"})

	result, err := svc.ProcessQuery(context.Background(), "session-1", "question")
	require.NoError(t, err)
	assert.Equal(t, "regenerated", result.Answer)
	assert.Equal(t, 1, deps.embedder.calls)
}

func TestProcessQuery_SessionReadFailureDegradesToEmptyHistory(t *testing.T) {
	deps := newTestDeps()
	deps.sessions.readErr = errors.New("store unreachable")
	svc := deps.build(&fakeLLM{answer: "stateless answer"})

	result, err := svc.ProcessQuery(context.Background(), "session-1", "question")
	require.NoError(t, err)
	assert.Equal(t, "stateless answer", result.Answer)
}

func collectStream(ch <-chan StreamEvent) (fragments []string, terminal StreamEvent, count int) {
	for ev := range ch {
		count++
		if ev.Result != nil || ev.Err != nil {
			terminal = ev
			continue
		}
		fragments = append(fragments, ev.Fragment)
	}
	return fragments, terminal, count
}

func TestProcessQueryStream_Success(t *testing.T) {
	deps := newTestDeps()
	svc := deps.build(&fakeLLM{fragments: []string{"AI is ", "advancing ", "rapidly [1]."}})

	ch := svc.ProcessQueryStream(context.Background(), "session-1", "What happened in AI this week?")
	fragments, terminal, _ := collectStream(ch)

	assert.Equal(t, []string{"AI is ", "advancing ", "rapidly [1]."}, fragments)
	require.NotNil(t, terminal.Result)
	assert.NoError(t, terminal.Err)

	// Concatenated fragments equal the terminal answer equal the commit.
	assert.Equal(t, "AI is advancing rapidly [1].", terminal.Result.Answer)
	require.Len(t, terminal.Result.Sources, 2)

	turns := deps.sessions.turns["session-1"]
	require.Len(t, turns, 2)
	assert.Equal(t, "AI is advancing rapidly [1].", turns[1].Content)
	assert.Equal(t, 1, deps.pub.calls)
}

func TestProcessQueryStream_InvalidInputTerminates(t *testing.T) {
	deps := newTestDeps()
	svc := deps.build(&fakeLLM{fragments: []string{"never sent"}})

	ch := svc.ProcessQueryStream(context.Background(), "session-1", "  ")
	fragments, terminal, count := collectStream(ch)

	assert.Empty(t, fragments)
	assert.Equal(t, 1, count)
	require.Error(t, terminal.Err)
	assert.True(t, apperr.IsKind(terminal.Err, apperr.KindInvalidInput))
	assert.Equal(t, 0, deps.sessions.appendCalls)
}

func TestProcessQueryStream_MidStreamFailurePersistsNothing(t *testing.T) {
	deps := newTestDeps()
	svc := deps.build(&fakeLLM{
		fragments: []string{"one ", "two ", "three ", "four ", "five"},
		streamErr: errors.New("connection reset"),
		failAt:    3,
	})

	ch := svc.ProcessQueryStream(context.Background(), "session-1", "question")
	fragments, terminal, _ := collectStream(ch)

	// Two fragments were delivered before the failure; none are persisted.
	assert.Equal(t, []string{"one ", "two "}, fragments)
	require.Error(t, terminal.Err)
	assert.True(t, apperr.IsKind(terminal.Err, apperr.KindUpstreamUnavailable))
	assert.Nil(t, terminal.Result)

	assert.Equal(t, 0, deps.sessions.appendCalls)
	assert.Equal(t, 0, deps.pub.calls)
}

func TestProcessQueryStream_SlowConsumerOverrun(t *testing.T) {
	deps := newTestDeps()
	deps.cfg.StreamBufferSize = 2

	svc := deps.build(&fakeLLM{fragments: []string{"f1", "f2", "f3", "f4", "f5"}})

	// The consumer does not read until generation has already run, so the
	// third fragment finds the buffer full and the stream aborts.
	ch := svc.ProcessQueryStream(context.Background(), "session-1", "question")
	time.Sleep(50 * time.Millisecond)

	fragments, terminal, _ := collectStream(ch)

	assert.Equal(t, []string{"f1", "f2"}, fragments)
	require.Error(t, terminal.Err)
	assert.True(t, apperr.IsKind(terminal.Err, apperr.KindDeliveryOverrun))
	assert.Equal(t, 0, deps.sessions.appendCalls)
	assert.Equal(t, 0, deps.pub.calls)
}

func TestGetSessionHistory(t *testing.T) {
	deps := newTestDeps()
	deps.sessions.turns["session-1"] = []store.Turn{
		{Role: store.RoleUser, Content: "hi"},
		{Role: store.RoleAssistant, Content: "hello"},
	}
	svc := deps.build(&fakeLLM{})

	t.Run("existing session", func(t *testing.T) {
		turns, err := svc.GetSessionHistory(context.Background(), "session-1")
		require.NoError(t, err)
		assert.Len(t, turns, 2)
		assert.Equal(t, 1, deps.sessions.touchCalls)
	})

	t.Run("unknown session is empty, not an error", func(t *testing.T) {
		turns, err := svc.GetSessionHistory(context.Background(), "no-such-session")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("blank session id rejected", func(t *testing.T) {
		_, err := svc.GetSessionHistory(context.Background(), " ")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})
}

func TestGetSessionHistory_StoreFailureDegrades(t *testing.T) {
	deps := newTestDeps()
	deps.sessions.readErr = errors.New("store down")
	svc := deps.build(&fakeLLM{})

	turns, err := svc.GetSessionHistory(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestClearSession(t *testing.T) {
	deps := newTestDeps()
	deps.sessions.turns["session-1"] = []store.Turn{{Role: store.RoleUser, Content: "hi"}}
	svc := deps.build(&fakeLLM{})

	err := svc.ClearSession(context.Background(), "session-1")
	require.NoError(t, err)
	assert.NotContains(t, deps.sessions.turns, "session-1")
	assert.Equal(t, 1, deps.chatLog.deleteCalls)

	// Clearing again is idempotent.
	require.NoError(t, svc.ClearSession(context.Background(), "session-1"))
}

func TestCreateSession_UniqueIDs(t *testing.T) {
	deps := newTestDeps()
	svc := deps.build(&fakeLLM{})

	a := svc.CreateSession(context.Background())
	b := svc.CreateSession(context.Background())
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
