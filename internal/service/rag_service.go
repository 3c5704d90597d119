package service

import (
	"context"
	"strings"
	"time"

	"rag-chat-be/internal/apperr"
	"rag-chat-be/internal/config"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/prompt"
	"rag-chat-be/pkg/store"

	"github.com/google/uuid"
)

// QueryResult is the terminal payload of a successful query.
type QueryResult struct {
	Answer  string
	Sources []store.Source
}

// StreamEvent is one element of a streaming query's delivery sequence:
// zero or more Fragment events followed by exactly one terminal event,
// either Result (complete) or Err (failed). The channel is closed after
// the terminal event.
type StreamEvent struct {
	Fragment string
	Result   *QueryResult
	Err      error
}

// IRagService is the query orchestrator: it sequences embedding resolution,
// similarity search, prompt assembly, generation and the session commit for
// every user query, in blocking and streaming modes.
type IRagService interface {
	CreateSession(ctx context.Context) string
	ProcessQuery(ctx context.Context, sessionID, query string) (*QueryResult, error)
	ProcessQueryStream(ctx context.Context, sessionID, query string) <-chan StreamEvent
	GetSessionHistory(ctx context.Context, sessionID string) ([]store.Turn, error)
	ClearSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]string, error)
}

type ragService struct {
	embedder   embedding.EmbeddingProvider
	embedCache contract.EmbeddingCache
	passages   contract.PassageRepository
	sessions   contract.SessionStore
	chatLog    contract.ChatLogRepository
	llmProv    llm.LLMProvider
	publisher  IPublisherService
	logger     logger.ILogger
	cfg        config.RagConfig
}

func NewRagService(
	embedder embedding.EmbeddingProvider,
	embedCache contract.EmbeddingCache,
	passages contract.PassageRepository,
	sessions contract.SessionStore,
	chatLog contract.ChatLogRepository,
	llmProv llm.LLMProvider,
	publisher IPublisherService,
	log logger.ILogger,
	cfg config.RagConfig,
) IRagService {
	return &ragService{
		embedder:   embedder,
		embedCache: embedCache,
		passages:   passages,
		sessions:   sessions,
		chatLog:    chatLog,
		llmProv:    llmProv,
		publisher:  publisher,
		logger:     log,
		cfg:        cfg,
	}
}

// queryPhase tracks how far a single query attempt has progressed. Phases are
// strictly forward; a failed attempt is never retried internally.
type queryPhase string

const (
	phaseIdle       queryPhase = "idle"
	phaseEmbedding  queryPhase = "embedding"
	phaseRetrieving queryPhase = "retrieving"
	phaseGenerating queryPhase = "generating"
	phaseCommitting queryPhase = "committing"
	phaseDone       queryPhase = "done"
)

// streamState is owned exclusively by the goroutine driving one streaming
// query; it is never shared across concurrent queries.
type streamState struct {
	sessionID   string
	accumulated strings.Builder
	startedAt   time.Time
	phase       queryPhase
}

// queryContext carries the artifacts of steps 1-5, shared by both modes.
type queryContext struct {
	query    string
	passages []store.Passage
	history  []store.Turn
	prompt   string
}

func (s *ragService) CreateSession(ctx context.Context) string {
	return uuid.NewString()
}

func (s *ragService) ProcessQuery(ctx context.Context, sessionID, query string) (*QueryResult, error) {
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	qc, err := s.prepare(ctx, sessionID, query)
	if err != nil {
		return nil, err
	}

	answer, err := s.llmProv.Generate(ctx, qc.prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.UpstreamUnavailable("timeout", ctx.Err())
		}
		return nil, apperr.UpstreamUnavailable("failed to generate response", err)
	}

	result := s.buildResult(answer, qc.passages)
	s.commit(ctx, sessionID, qc.query, answer, result.Sources)

	return result, nil
}

// ProcessQueryStream runs the same lifecycle with incremental delivery. The
// returned channel's buffer is the bounded fragment queue: when the consumer
// falls so far behind that the buffer fills, the stream is aborted with a
// delivery-overrun error and nothing is committed.
func (s *ragService) ProcessQueryStream(ctx context.Context, sessionID, query string) <-chan StreamEvent {
	ch := make(chan StreamEvent, s.cfg.StreamBufferSize)

	go func() {
		defer close(ch)

		if s.cfg.QueryTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
			defer cancel()
		}

		state := &streamState{
			sessionID: sessionID,
			startedAt: time.Now(),
			phase:     phaseIdle,
		}

		qc, err := s.prepareStream(ctx, sessionID, query, state)
		if err != nil {
			s.emitTerminal(ctx, ch, StreamEvent{Err: err})
			return
		}

		state.phase = phaseGenerating
		err = s.llmProv.GenerateStream(ctx, qc.prompt, func(fragment string) error {
			select {
			case ch <- StreamEvent{Fragment: fragment}:
			default:
				return apperr.DeliveryOverrun("stream consumer too slow, fragment buffer exceeded")
			}
			state.accumulated.WriteString(fragment)
			return nil
		})
		if err != nil {
			// Partial accumulated text is discarded, never persisted.
			s.logger.Warn("RagService", "Streaming generation aborted", map[string]interface{}{
				"session_id": sessionID,
				"phase":      string(state.phase),
				"error":      err.Error(),
			})
			s.emitTerminal(ctx, ch, StreamEvent{Err: s.classifyStreamErr(ctx, err)})
			return
		}

		state.phase = phaseCommitting
		answer := state.accumulated.String()
		result := s.buildResult(answer, qc.passages)
		s.commit(ctx, sessionID, qc.query, answer, result.Sources)

		state.phase = phaseDone
		s.emitTerminal(ctx, ch, StreamEvent{Result: result})
	}()

	return ch
}

func (s *ragService) GetSessionHistory(ctx context.Context, sessionID string) ([]store.Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.InvalidInput("session id is required")
	}

	turns, err := s.sessions.Read(ctx, sessionID)
	if err != nil {
		// Degrade to an empty history; the session cache being down must
		// not take reads down with it.
		s.logger.Warn("RagService", "Session store read failed, returning empty history", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return []store.Turn{}, nil
	}

	if err := s.sessions.Touch(ctx, sessionID, s.cfg.SessionTTL); err != nil {
		s.logger.Warn("RagService", "Session TTL refresh failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
	return turns, nil
}

func (s *ragService) ClearSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperr.InvalidInput("session id is required")
	}

	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return apperr.UpstreamUnavailable("failed to clear session", err)
	}

	// Durable-log rows go too, best-effort like every log interaction.
	if s.chatLog != nil {
		if err := s.chatLog.DeleteSession(ctx, sessionID); err != nil {
			s.logger.Warn("RagService", "Durable log delete failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

func (s *ragService) ListSessions(ctx context.Context) ([]string, error) {
	ids, err := s.sessions.ListActiveSessionIDs(ctx)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("failed to list sessions", err)
	}
	return ids, nil
}

// prepare runs steps 1-5 of the query lifecycle: validation, embedding
// resolution, similarity search, history read and prompt assembly.
func (s *ragService) prepare(ctx context.Context, sessionID, query string) (*queryContext, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("message is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.InvalidInput("session id is required")
	}

	vector, err := s.resolveEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	passages, err := s.passages.SearchSimilar(ctx, vector, s.cfg.TopK)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("vector search failed", err)
	}

	history, err := s.sessions.Read(ctx, sessionID)
	if err != nil {
		// A dead session store degrades the query to a stateless turn
		// instead of failing it.
		s.logger.Warn("RagService", "Session store unavailable, degrading to empty history", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		history = []store.Turn{}
	}

	return &queryContext{
		query:    query,
		passages: passages,
		history:  history,
		prompt:   prompt.NewContextualBuilder(passages, history, query).Build(),
	}, nil
}

func (s *ragService) prepareStream(ctx context.Context, sessionID, query string, state *streamState) (*queryContext, error) {
	state.phase = phaseEmbedding
	qc, err := s.prepare(ctx, sessionID, query)
	if err != nil {
		return nil, err
	}
	state.phase = phaseRetrieving
	return qc, nil
}

// resolveEmbedding checks the cache first; a cache failure is degraded
// behavior (treat as miss), a provider failure is fatal to the query.
func (s *ragService) resolveEmbedding(ctx context.Context, query string) ([]float32, error) {
	model := s.embedder.Model()

	vector, found, err := s.embedCache.Get(ctx, model, query)
	if err != nil {
		s.logger.Warn("RagService", "Embedding cache read failed, regenerating", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if found {
		return vector, nil
	}

	vector, err = s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("failed to generate embedding", err)
	}

	if err := s.embedCache.Put(ctx, model, query, vector, s.cfg.EmbeddingTTL); err != nil {
		s.logger.Warn("RagService", "Embedding cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return vector, nil
}

func (s *ragService) buildResult(answer string, passages []store.Passage) *QueryResult {
	sources := make([]store.Source, len(passages))
	for i, p := range passages {
		sources[i] = p.ToSource()
	}
	return &QueryResult{Answer: answer, Sources: sources}
}

// commit appends the user/assistant pair to the session store and hands the
// pair to the durable-log pipeline. It runs detached from the caller's
// cancellation: a disconnected caller must not lose a fully generated turn.
func (s *ragService) commit(ctx context.Context, sessionID, query, answer string, sources []store.Source) {
	ctx = context.WithoutCancel(ctx)

	now := time.Now()
	user := store.Turn{Role: store.RoleUser, Content: query, CreatedAt: now}
	assistant := store.Turn{Role: store.RoleAssistant, Content: answer, CreatedAt: now}

	if err := s.sessions.AppendPair(ctx, sessionID, user, assistant, s.cfg.SessionTTL); err != nil {
		s.logger.Error("RagService", "Session commit failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTurnPair(ctx, sessionID, user, assistant, sources); err != nil {
			s.logger.Warn("RagService", "Durable log publish failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
}

func (s *ragService) classifyStreamErr(ctx context.Context, err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	if ctx.Err() != nil {
		return apperr.UpstreamUnavailable("timeout", ctx.Err())
	}
	return apperr.UpstreamUnavailable("failed to generate stream response", err)
}

// emitTerminal delivers the terminal event. Unlike fragments it may block:
// the terminal signal is part of the contract and is only abandoned when the
// consumer is gone entirely.
func (s *ragService) emitTerminal(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}
