package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/askchopper-dev/askchopper/internal/domain"
	"github.com/askchopper-dev/askchopper/internal/openai"
)

// runPhase is the orchestration state for one user turn. Carrying it as a
// single tagged value keeps illegal transitions (polling before a run
// exists) unrepresentable.
type runPhase int

const (
	phaseCreated runPhase = iota
	phaseThreadReady
	phaseMessagePosted
	phaseRunStarted
	phaseRunCompleted
	phaseRunFailed
	phaseRunExpired
	phaseLedgerWritten
)

func (p runPhase) String() string {
	switch p {
	case phaseCreated:
		return "created"
	case phaseThreadReady:
		return "thread_ready"
	case phaseMessagePosted:
		return "message_posted"
	case phaseRunStarted:
		return "run_started"
	case phaseRunCompleted:
		return "run_completed"
	case phaseRunFailed:
		return "run_failed"
	case phaseRunExpired:
		return "run_expired"
	case phaseLedgerWritten:
		return "ledger_written"
	}
	return "unknown"
}

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_runs_total",
			Help: "Total number of assistant runs by terminal phase",
		},
		[]string{"phase"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_run_duration_seconds",
			Help:    "Wall-clock duration from message post to terminal run state",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)
)

// failureNotice is what the user sees when a run fails or times out. The
// provider error goes to logs, never into the stored message content.
const failureNotice = "Sorry, I couldn't come up with an answer just now. Please try again in a moment."

type OrchestratorService interface {
	Respond(ctx context.Context, userMsg *domain.ChatMessage) (*domain.ChatMessage, error)
}

type RunProvider interface {
	CreateThread(ctx context.Context) (*openai.Thread, error)
	RetrieveThread(ctx context.Context, threadID string) (*openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, req *openai.CreateMessageRequest) (*openai.ThreadMessage, error)
	ListMessages(ctx context.Context, threadID string, limit int) (*openai.MessageList, error)
	CreateRun(ctx context.Context, threadID string, req *openai.CreateRunRequest) (*openai.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (*openai.Run, error)
	CancelRun(ctx context.Context, threadID, runID string) (*openai.Run, error)
	UploadFile(ctx context.Context, filename string, data io.Reader) (*openai.File, error)
}

type OrchestratorOptions struct {
	RunTimeout          time.Duration
	PollInitialInterval time.Duration
	PollMaxInterval     time.Duration
	ReplayDepth         int // turns re-posted when a remote thread must be recreated
}

// Orchestrator drives one remote exchange per user turn: ensure thread,
// post message, start run, poll to a terminal state, write the assistant
// turn back into the ledger.
type Orchestrator struct {
	provider RunProvider
	storage  LedgerStorage
	media    MediaStorage
	index    VectorIndexService
	config   *AssistantConfig
	renderer *Renderer
	opts     OrchestratorOptions

	mu       sync.Mutex
	inflight map[int64]struct{}
}

func NewOrchestrator(provider RunProvider, storage LedgerStorage, media MediaStorage, index VectorIndexService, config *AssistantConfig, renderer *Renderer, opts OrchestratorOptions) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		storage:  storage,
		media:    media,
		index:    index,
		config:   config,
		renderer: renderer,
		opts:     opts,
		inflight: make(map[int64]struct{}),
	}
}

// runState travels through one exchange. Timing starts when the user
// message reaches the remote thread.
type runState struct {
	phase    runPhase
	userMsg  *domain.ChatMessage
	threadID string
	runID    string
	postedAt time.Time
	started  time.Time
	lastErr  error
}

// Respond performs the full exchange for one persisted user turn and
// returns the assistant turn that was appended to the ledger. Provider
// failures do not surface as errors: they produce exactly one assistant
// row carrying a user-visible failure notice. The only errors returned
// are the duplicate-turn guard and ledger write failures.
func (o *Orchestrator) Respond(ctx context.Context, userMsg *domain.ChatMessage) (*domain.ChatMessage, error) {
	if !o.acquire(userMsg.Id) {
		return nil, domain.ErrRunInFlight
	}
	defer o.release(userMsg.Id)

	if err := o.config.Snapshot().Validate(); err != nil {
		return nil, err
	}

	st := &runState{phase: phaseCreated, userMsg: userMsg, started: time.Now()}

	if err := o.ensureThread(ctx, st); err != nil {
		return o.writeTerminal(ctx, st, phaseRunFailed, err)
	}

	if err := o.postUserMessage(ctx, st); err != nil {
		return o.writeTerminal(ctx, st, phaseRunFailed, err)
	}

	if err := o.startRun(ctx, st); err != nil {
		return o.writeTerminal(ctx, st, phaseRunFailed, err)
	}

	phase, err := o.pollUntilTerminal(ctx, st)
	return o.writeTerminal(ctx, st, phase, err)
}

func (o *Orchestrator) acquire(msgID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.inflight[msgID]; ok {
		return false
	}
	o.inflight[msgID] = struct{}{}
	return true
}

func (o *Orchestrator) release(msgID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, msgID)
}

// ensureThread reuses the session's latest remote thread when it still
// exists; otherwise it creates a new thread and replays recent history to
// seed context. CREATED -> THREAD_READY.
func (o *Orchestrator) ensureThread(ctx context.Context, st *runState) error {
	threadID, err := o.storage.LatestThreadID(ctx, st.userMsg.SessionId)
	if err != nil {
		return fmt.Errorf("resolve session thread: %w", err)
	}

	if threadID != "" {
		if _, err := o.provider.RetrieveThread(ctx, threadID); err == nil {
			st.threadID = threadID
			st.phase = phaseThreadReady
			return nil
		} else if !errors.Is(err, domain.ErrProviderRequest) {
			return fmt.Errorf("verify thread %s: %w", threadID, err)
		}
		slog.Warn("remote thread gone, recreating", "session_id", st.userMsg.SessionId, "thread_id", threadID)
	}

	thread, err := o.provider.CreateThread(ctx)
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}

	if threadID != "" {
		// The provider garbage-collected the old thread: replay recent
		// turns so the assistant keeps the conversation context.
		if err := o.replayHistory(ctx, thread.Id, st.userMsg); err != nil {
			slog.Warn("history replay failed, continuing with empty context", "thread_id", thread.Id, "error", err)
		}
	}

	st.threadID = thread.Id
	st.phase = phaseThreadReady
	return nil
}

func (o *Orchestrator) replayHistory(ctx context.Context, threadID string, current *domain.ChatMessage) error {
	history, err := o.storage.GetHistory(ctx, current.SessionId)
	if err != nil {
		return err
	}

	// Drop the turn being answered; it is posted separately with its
	// attachments.
	var prior []*domain.ChatMessage
	for _, msg := range history {
		if msg.Id != current.Id {
			prior = append(prior, msg)
		}
	}
	if len(prior) > o.opts.ReplayDepth {
		prior = prior[len(prior)-o.opts.ReplayDepth:]
	}

	for _, msg := range prior {
		role := "user"
		if msg.MessageType == domain.MessageTypeAssistant {
			role = "assistant"
		}
		if _, err := o.provider.CreateMessage(ctx, threadID, &openai.CreateMessageRequest{
			Role:    role,
			Content: msg.Content,
		}); err != nil {
			return err
		}
	}
	return nil
}

// postUserMessage uploads attachment files and posts the user content to
// the thread. THREAD_READY -> MESSAGE_POSTED.
func (o *Orchestrator) postUserMessage(ctx context.Context, st *runState) error {
	var fileRefs []openai.MessageAttachment
	for _, att := range st.userMsg.Attachments {
		fileID, err := o.uploadAttachment(ctx, att)
		if err != nil {
			// One broken file should not silence the question itself.
			slog.Warn("attachment upload to provider failed", "attachment_id", att.Id, "error", err)
			continue
		}
		fileRefs = append(fileRefs, openai.MessageAttachment{
			FileId: fileID,
			Tools:  []openai.Tool{{Type: "file_search"}},
		})
	}

	remoteMsg, err := o.provider.CreateMessage(ctx, st.threadID, &openai.CreateMessageRequest{
		Role:        "user",
		Content:     st.userMsg.Content,
		Attachments: fileRefs,
	})
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	st.phase = phaseMessagePosted
	st.postedAt = time.Now()

	if err := o.storage.SetRemoteCorrelation(ctx, st.userMsg.Id, st.threadID, remoteMsg.Id); err != nil &&
		!errors.Is(err, domain.ErrAlreadyCompleted) {
		slog.Error("failed to record remote correlation", "message_id", st.userMsg.Id, "error", err)
	}
	return nil
}

func (o *Orchestrator) uploadAttachment(ctx context.Context, att *domain.Attachment) (string, error) {
	src, err := o.media.Read(att.Filename)
	if err != nil {
		return "", err
	}
	defer src.Close()

	f, err := o.provider.UploadFile(ctx, att.OriginalFilename, src)
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

// startRun creates the run with the configuration snapshot captured now;
// later rotation cannot retroactively change this run.
// MESSAGE_POSTED -> RUN_STARTED.
func (o *Orchestrator) startRun(ctx context.Context, st *runState) error {
	snap := o.config.Snapshot()

	req := &openai.CreateRunRequest{
		AssistantId: snap.AssistantID,
		Model:       snap.Model,
	}

	if indexID, err := o.index.EnsureIndex(ctx); err != nil {
		slog.Warn("retrieval index unavailable, running without file_search grounding", "error", err)
	} else {
		req.ToolResources = &openai.ToolResources{
			FileSearch: &openai.FileSearchResources{VectorStoreIds: []string{indexID}},
		}
	}

	run, err := o.provider.CreateRun(ctx, st.threadID, req)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	st.runID = run.Id
	st.phase = phaseRunStarted
	return nil
}

// pollUntilTerminal polls run status with exponential backoff until the
// provider reports a terminal state, the wall-clock deadline passes, or
// the caller cancels.
func (o *Orchestrator) pollUntilTerminal(ctx context.Context, st *runState) (runPhase, error) {
	deadline := time.Now().Add(o.opts.RunTimeout)
	interval := o.opts.PollInitialInterval

	for {
		run, err := o.provider.RetrieveRun(ctx, st.threadID, st.runID)
		if err != nil {
			return phaseRunFailed, fmt.Errorf("poll run %s: %w", st.runID, err)
		}

		if run.Terminal() {
			switch run.Status {
			case openai.RunStatusCompleted:
				return phaseRunCompleted, nil
			case openai.RunStatusExpired:
				return phaseRunExpired, fmt.Errorf("%w: provider expired run %s", domain.ErrProviderTimeout, st.runID)
			default:
				reason := run.Status
				if run.LastError != nil {
					reason = fmt.Sprintf("%s (%s: %s)", run.Status, run.LastError.Code, run.LastError.Message)
				}
				return phaseRunFailed, fmt.Errorf("run %s ended as %s", st.runID, reason)
			}
		}

		if time.Now().After(deadline) {
			o.cancelRemoteRun(st)
			return phaseRunExpired, fmt.Errorf("%w: run %s still %s after %s", domain.ErrProviderTimeout, st.runID, run.Status, o.opts.RunTimeout)
		}

		select {
		case <-ctx.Done():
			o.cancelRemoteRun(st)
			return phaseRunFailed, fmt.Errorf("run %s cancelled: %w", st.runID, ctx.Err())
		case <-time.After(interval):
		}

		interval *= 2
		if interval > o.opts.PollMaxInterval {
			interval = o.opts.PollMaxInterval
		}
	}
}

// cancelRemoteRun requests provider-side cancellation so an abandoned run
// stops consuming the thread. Best effort with its own deadline; the
// caller's context may already be dead.
func (o *Orchestrator) cancelRemoteRun(st *runState) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := o.provider.CancelRun(ctx, st.threadID, st.runID); err != nil {
		slog.Warn("failed to cancel remote run", "run_id", st.runID, "error", err)
	}
}

// writeTerminal appends exactly one assistant turn for the exchange,
// whatever the terminal phase was, keeping the conversation view
// consistent and append-only. terminal -> LEDGER_WRITTEN.
func (o *Orchestrator) writeTerminal(ctx context.Context, st *runState, phase runPhase, runErr error) (*domain.ChatMessage, error) {
	st.phase = phase
	st.lastErr = runErr

	// The caller may already be gone (client disconnect is how runs get
	// cancelled). The reply fetch and ledger write still have to happen
	// or the turn is left without its assistant row.
	ctx = context.WithoutCancel(ctx)

	elapsed := o.elapsedMs(st)
	runsTotal.WithLabelValues(phase.String()).Inc()
	runDuration.Observe(float64(elapsed) / 1000)

	content := failureNotice
	remoteMsgID := ""
	if phase == phaseRunCompleted {
		reply, err := o.fetchReply(ctx, st)
		if err != nil {
			slog.Error("run completed but reply fetch failed", "run_id", st.runID, "error", err)
			st.phase = phaseRunFailed
			phase = phaseRunFailed
		} else {
			content = reply.PlainText()
			remoteMsgID = reply.Id
		}
	}

	if phase != phaseRunCompleted {
		slog.Error("assistant exchange failed",
			"session_id", st.userMsg.SessionId,
			"message_id", st.userMsg.Id,
			"thread_id", st.threadID,
			"run_id", st.runID,
			"phase", phase.String(),
			"elapsed_ms", elapsed,
			"error", runErr)
	}

	assistantMsg := &domain.ChatMessage{
		SessionId:        st.userMsg.SessionId,
		MessageType:      domain.MessageTypeAssistant,
		Content:          content,
		FormattedContent: sql.NullString{String: o.renderer.Render(content), Valid: true},
		ResponseTimeMs:   sql.NullInt64{Int64: elapsed, Valid: true},
	}
	if st.threadID != "" {
		assistantMsg.OpenAIThreadId = sql.NullString{String: st.threadID, Valid: true}
	}
	if remoteMsgID != "" {
		assistantMsg.OpenAIMessageId = sql.NullString{String: remoteMsgID, Valid: true}
	}

	if _, err := o.storage.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("write assistant turn: %w", err)
	}
	st.phase = phaseLedgerWritten

	return assistantMsg, nil
}

func (o *Orchestrator) elapsedMs(st *runState) int64 {
	since := st.postedAt
	if since.IsZero() {
		// The exchange failed before the message reached the thread;
		// record the time spent trying.
		since = st.started
	}
	ms := time.Since(since).Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return ms
}

// fetchReply returns the newest assistant message on the thread, matching
// the run id when the provider reports one.
func (o *Orchestrator) fetchReply(ctx context.Context, st *runState) (*openai.ThreadMessage, error) {
	list, err := o.provider.ListMessages(ctx, st.threadID, 20)
	if err != nil {
		return nil, err
	}
	for i := range list.Data {
		msg := &list.Data[i]
		if msg.Role != "assistant" {
			continue
		}
		if msg.RunId == "" || msg.RunId == st.runID {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("no assistant reply found on thread %s for run %s", st.threadID, st.runID)
}
