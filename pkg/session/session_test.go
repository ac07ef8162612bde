package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatmem/pkg/archive"
	"github.com/papercomputeco/chatmem/pkg/inference"
	"github.com/papercomputeco/chatmem/pkg/llm"
	"github.com/papercomputeco/chatmem/pkg/prompt"
	"github.com/papercomputeco/chatmem/pkg/session"
	"github.com/papercomputeco/chatmem/pkg/transcript"
)

var _ = Describe("Session", func() {
	var (
		ctx       context.Context
		path      string
		gateway   *fakeGateway
		assembler *prompt.Assembler
		t         *transcript.Transcript
		s         *session.Session
	)

	newSession := func(opts session.Options) *session.Session {
		if opts.Path == "" {
			opts.Path = path
		}
		opts.Logger = zap.NewNop()
		return session.New(t, assembler, gateway, opts)
	}

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "conversation_memory.json")
		gateway = &fakeGateway{reply: "hi"}

		var err error
		assembler, err = prompt.NewAssembler("test-model", "be brief")
		Expect(err).NotTo(HaveOccurred())

		t = transcript.New()
		s = newSession(session.Options{})
	})

	loadSaved := func() []transcript.Turn {
		saved, err := transcript.LoadFile(path)
		Expect(err).NotTo(HaveOccurred())
		return saved.Turns()
	}

	It("starts idle", func() {
		Expect(s.State()).To(Equal(session.StateIdle))
	})

	Describe("messages", func() {
		It("records exactly the human and assistant turns", func() {
			out := s.Handle(ctx, "hello")

			Expect(out.Kind).To(Equal(session.KindMessage))
			Expect(out.Err).NotTo(HaveOccurred())
			Expect(out.Reply).To(Equal("hi"))
			Expect(s.Turns()).To(Equal([]transcript.Turn{
				transcript.Human("hello"),
				transcript.Assistant("hi"),
			}))
			Expect(s.State()).To(Equal(session.StateAwaitingInput))
		})

		It("sends the history before the new message", func() {
			s.Handle(ctx, "hello")
			s.Handle(ctx, "again")

			Expect(gateway.messages).To(Equal([]llm.Message{
				{Role: llm.RoleSystem, Content: "be brief"},
				{Role: llm.RoleUser, Content: "hello"},
				{Role: llm.RoleAssistant, Content: "hi"},
				{Role: llm.RoleUser, Content: "again"},
			}))
		})

		It("saves after a successful turn", func() {
			s.Handle(ctx, "hello")

			Expect(loadSaved()).To(Equal(s.Turns()))
		})

		It("trims surrounding whitespace from the stored message", func() {
			s.Handle(ctx, "  hello \n")

			Expect(s.Turns()[0].Content).To(Equal("hello"))
		})
	})

	Describe("inference failures", func() {
		It("leaves the transcript unchanged", func() {
			s.Handle(ctx, "hello")
			Expect(s.Turns()).To(HaveLen(2))

			gateway.err = &inference.InferenceError{Err: errEngineDown}
			out := s.Handle(ctx, "again")

			Expect(out.Err).To(HaveOccurred())
			Expect(out.Err.Error()).To(ContainSubstring("connection refused"))
			Expect(s.Turns()).To(HaveLen(2))
			Expect(loadSaved()).To(HaveLen(2))
		})

		It("wraps plain errors as InferenceError", func() {
			gateway.err = errEngineDown

			out := s.Handle(ctx, "hello")

			var inferErr *inference.InferenceError
			Expect(errors.As(out.Err, &inferErr)).To(BeTrue())
			Expect(s.Turns()).To(BeEmpty())
		})

		It("applies the configured timeout", func() {
			s = newSession(session.Options{Timeout: 10 * time.Millisecond})
			gateway.wait = true

			out := s.Handle(ctx, "hello")

			Expect(out.Err).To(MatchError(ContainSubstring("deadline exceeded")))
			Expect(s.Turns()).To(BeEmpty())
		})
	})

	Describe("empty input", func() {
		It("never invokes the gateway or changes the transcript", func() {
			for _, input := range []string{"", "   ", "\t\n"} {
				out := s.Handle(ctx, input)
				Expect(out.Kind).To(Equal(session.KindEmpty))
				Expect(out.Reply).To(BeEmpty())
			}

			Expect(gateway.calls).To(BeZero())
			Expect(s.Turns()).To(BeEmpty())
			_, err := os.Stat(path)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Describe("clear", func() {
		It("empties the transcript and saves an empty array", func() {
			s.Handle(ctx, "hello")

			out := s.Handle(ctx, "CLEAR")

			Expect(out.Kind).To(Equal(session.KindClear))
			Expect(out.Reply).To(Equal(session.ClearedMessage))
			Expect(s.Turns()).To(BeEmpty())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("[]"))
			Expect(gateway.calls).To(Equal(1))
		})
	})

	Describe("exit", func() {
		DescribeTable("saves and stops for every spelling",
			func(input string) {
				s.Handle(ctx, "hello")

				out := s.Handle(ctx, input)

				Expect(out.Kind).To(Equal(session.KindExit))
				Expect(out.Reply).To(Equal(session.FarewellMessage))
				Expect(out.SaveErr).NotTo(HaveOccurred())
				Expect(s.Stopped()).To(BeTrue())
				Expect(loadSaved()).To(HaveLen(2))
			},
			Entry("lower", "bye"),
			Entry("title", "Bye"),
			Entry("upper", "BYE"),
			Entry("exit", "exit"),
			Entry("quit", "Quit"),
		)

		It("refuses further input", func() {
			s.Handle(ctx, "exit")

			out := s.Handle(ctx, "hello")

			Expect(out.Err).To(MatchError(session.ErrStopped))
			Expect(gateway.calls).To(BeZero())
		})
	})

	Describe("persistence failures", func() {
		It("reports the error and keeps the turn in memory", func() {
			s = newSession(session.Options{Path: filepath.Join(GinkgoT().TempDir(), "missing", "memory.json")})

			out := s.Handle(ctx, "hello")

			Expect(out.Err).NotTo(HaveOccurred())
			Expect(out.Reply).To(Equal("hi"))
			var persistErr *transcript.PersistenceError
			Expect(errors.As(out.SaveErr, &persistErr)).To(BeTrue())
			Expect(s.Turns()).To(HaveLen(2))
		})
	})

	Describe("archiving", func() {
		It("records completed turns and restarts the chain on clear", func() {
			storer := archive.NewMemoryStorer()
			s = newSession(session.Options{Recorder: archive.NewRecorder(storer, "test-model")})

			s.Handle(ctx, "hello")
			head := s.Recorder().Head()
			Expect(head).NotTo(BeEmpty())

			history, err := archive.History(ctx, storer, head)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))

			s.Handle(ctx, "clear")
			Expect(s.Recorder().Head()).To(BeEmpty())

			s.Handle(ctx, "hello again")
			roots, err := storer.Roots(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(HaveLen(2))
		})

		It("does not archive failed turns", func() {
			storer := archive.NewMemoryStorer()
			s = newSession(session.Options{Recorder: archive.NewRecorder(storer, "test-model")})
			gateway.err = errEngineDown

			s.Handle(ctx, "hello")

			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(BeEmpty())
		})
	})

	Describe("Restore", func() {
		It("returns an empty transcript for a missing file", func() {
			Expect(session.Restore(path, zap.NewNop()).Len()).To(BeZero())
		})

		It("returns an empty transcript for a corrupt file", func() {
			Expect(os.WriteFile(path, []byte("{not json"), 0o644)).To(Succeed())

			Expect(session.Restore(path, zap.NewNop()).Len()).To(BeZero())
		})

		It("loads a previous conversation", func() {
			s.Handle(ctx, "hello")

			restored := session.Restore(path, zap.NewNop())
			Expect(restored.Turns()).To(Equal(s.Turns()))
		})
	})

	It("Stop halts the session without saving", func() {
		s.Stop()

		Expect(s.State()).To(Equal(session.StateStopped))
		_, err := os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
