// Package session runs the conversation loop shared by the terminal and
// HTTP drivers: classify input, call the inference gateway, update and
// persist the transcript.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatmem/pkg/archive"
	"github.com/papercomputeco/chatmem/pkg/inference"
	"github.com/papercomputeco/chatmem/pkg/logger"
	"github.com/papercomputeco/chatmem/pkg/prompt"
	"github.com/papercomputeco/chatmem/pkg/transcript"
)

// User-facing acknowledgments.
const (
	FarewellMessage = "Conversation saved. Goodbye! 🐾"
	ClearedMessage  = "Conversation history cleared! Starting fresh."
)

// ErrStopped is reported for input received after an exit command.
var ErrStopped = errors.New("session is stopped")

// State is the position of the session in its turn cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateProcessing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateProcessing:
		return "processing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Outcome is the result of handling one input.
type Outcome struct {
	Kind Kind

	// Reply is the assistant's text for a successful message.
	Reply string

	// Err is set when the turn was abandoned: an *inference.InferenceError,
	// or ErrStopped. The transcript is unchanged in both cases.
	Err error

	// SaveErr reports a failed best-effort save. The turn itself succeeded.
	SaveErr error
}

// Options configures a Session.
type Options struct {
	// Path is where the transcript is saved after every change.
	Path string

	// Timeout bounds each inference call. Zero means no limit.
	Timeout time.Duration

	// Recorder, when set, archives every completed turn.
	Recorder *archive.Recorder

	Logger *zap.Logger
}

// Session owns the transcript for the lifetime of the process. Handle is
// safe to call from several goroutines; turns run one at a time.
type Session struct {
	mu sync.Mutex

	transcript *transcript.Transcript
	assembler  *prompt.Assembler
	gateway    inference.Gateway

	path     string
	timeout  time.Duration
	recorder *archive.Recorder
	logger   *zap.Logger

	state atomic.Int32
}

// New returns a Session over t.
func New(t *transcript.Transcript, assembler *prompt.Assembler, gateway inference.Gateway, opts Options) *Session {
	if t == nil {
		t = transcript.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Session{
		transcript: t,
		assembler:  assembler,
		gateway:    gateway,
		path:       opts.Path,
		timeout:    opts.Timeout,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
	}
}

// Restore loads the transcript at path. Any failure is logged and an empty
// transcript is returned so the session can start regardless.
func Restore(path string, log *zap.Logger) *transcript.Transcript {
	t, err := transcript.LoadFile(path)
	if err != nil {
		log.Warn("could not load previous conversation, starting fresh",
			zap.String("path", path),
			zap.Error(err),
		)
		return transcript.New()
	}
	if t.Len() > 0 {
		log.Info("loaded previous conversation from file",
			zap.String("path", path),
			zap.Int("turns", t.Len()),
		)
	}
	return t
}

// Handle runs one turn for input.
func (s *Session) Handle(ctx context.Context, input string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := Classify(input)
	if s.State() == StateStopped {
		return Outcome{Kind: kind, Err: ErrStopped}
	}

	switch kind {
	case KindEmpty:
		s.setState(StateAwaitingInput)
		return Outcome{Kind: kind}

	case KindExit:
		s.setState(StateStopped)
		s.logger.Info("exit requested, saving conversation")
		return Outcome{Kind: kind, Reply: FarewellMessage, SaveErr: s.save()}

	case KindClear:
		s.transcript.Clear()
		if s.recorder != nil {
			s.recorder.Reset()
		}
		s.setState(StateAwaitingInput)
		s.logger.Info("conversation history cleared")
		return Outcome{Kind: kind, Reply: ClearedMessage, SaveErr: s.save()}

	default:
		return s.converse(ctx, strings.TrimSpace(input))
	}
}

func (s *Session) converse(ctx context.Context, input string) Outcome {
	s.setState(StateProcessing)
	// An interrupt may stop the session while the gateway call is running.
	defer s.state.CompareAndSwap(int32(StateProcessing), int32(StateAwaitingInput))

	log := s.logger.With(zap.String("turn_id", uuid.NewString()))
	startTime := time.Now()

	messages := s.assembler.Assemble(s.transcript, input)
	log.Debug("invoking inference gateway",
		zap.Int("message_count", len(messages)),
		zap.String("input_preview", logger.Preview(input, 100)),
	)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.gateway.Invoke(ctx, messages)
	if err != nil {
		var inferErr *inference.InferenceError
		if !errors.As(err, &inferErr) {
			err = &inference.InferenceError{Err: err}
		}
		log.Error("inference failed, turn abandoned", zap.Error(err))
		return Outcome{Kind: KindMessage, Err: err}
	}

	human, assistant := transcript.Human(input), transcript.Assistant(reply)
	s.transcript.Append(human)
	s.transcript.Append(assistant)

	log.Debug("received reply",
		zap.String("reply_preview", logger.Preview(reply, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, human, assistant); err != nil {
			log.Warn("could not archive turn", zap.Error(err))
		} else {
			log.Debug("turn archived", zap.String("head_hash", logger.Preview(s.recorder.Head(), 16)))
		}
	}

	return Outcome{Kind: KindMessage, Reply: reply, SaveErr: s.save()}
}

// Save persists the transcript. Failures are logged and returned; the
// in-memory transcript is kept either way.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Session) save() error {
	if err := s.transcript.Save(s.path); err != nil {
		s.logger.Error("could not save conversation", zap.Error(err))
		return err
	}
	s.logger.Info("conversation saved to file",
		zap.String("path", s.path),
		zap.Int("turns", s.transcript.Len()),
	)
	return nil
}

// Stop moves the session to StateStopped without an exit command, as on an
// interrupt. It does not save.
func (s *Session) Stop() {
	s.setState(StateStopped)
}

// State returns the current state. It does not wait for a running turn.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Stopped reports whether the session has stopped accepting input.
func (s *Session) Stopped() bool {
	return s.State() == StateStopped
}

// Turns returns a snapshot of the transcript.
func (s *Session) Turns() []transcript.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Turns()
}

// Recorder returns the archive recorder, or nil when archiving is disabled.
func (s *Session) Recorder() *archive.Recorder {
	return s.recorder
}
