package prompt_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatmem/pkg/llm"
	"github.com/papercomputeco/chatmem/pkg/prompt"
	"github.com/papercomputeco/chatmem/pkg/transcript"
)

var _ = Describe("Assembler", func() {
	var a *prompt.Assembler

	BeforeEach(func() {
		var err error
		a, err = prompt.NewAssembler("test-model", "be brief")
		Expect(err).NotTo(HaveOccurred())
	})

	It("puts the system instruction first and the input last", func() {
		msgs := a.Assemble(transcript.New(), "hello")

		Expect(msgs).To(Equal([]llm.Message{
			{Role: llm.RoleSystem, Content: "be brief"},
			{Role: llm.RoleUser, Content: "hello"},
		}))
	})

	It("includes history oldest first with wire roles", func() {
		t := transcript.New()
		t.Append(transcript.Human("hello"))
		t.Append(transcript.Assistant("hi"))

		msgs := a.Assemble(t, "how are you?")

		Expect(msgs).To(Equal([]llm.Message{
			{Role: llm.RoleSystem, Content: "be brief"},
			{Role: llm.RoleUser, Content: "hello"},
			{Role: llm.RoleAssistant, Content: "hi"},
			{Role: llm.RoleUser, Content: "how are you?"},
		}))
	})

	It("does not modify the transcript", func() {
		t := transcript.New()
		t.Append(transcript.Human("hello"))

		a.Assemble(t, "again")

		Expect(t.Len()).To(Equal(1))
	})

	Describe("templated instructions", func() {
		It("renders template data and sprig functions", func() {
			Expect(a.SetInstruction(`You are {{ .Model | upper }}. {{ .Turns }} turns so far.`)).To(Succeed())

			t := transcript.New()
			t.Append(transcript.Human("x"))
			t.Append(transcript.Assistant("y"))

			msgs := a.Assemble(t, "z")
			Expect(msgs[0].Content).To(Equal("You are TEST-MODEL. 2 turns so far."))
		})

		It("falls back to the raw text when the template does not parse", func() {
			err := a.SetInstruction("broken {{ ")
			Expect(err).To(HaveOccurred())

			Expect(a.Instruction(0)).To(Equal("broken {{ "))
		})

		It("falls back to the raw text when execution fails", func() {
			Expect(a.SetInstruction(`{{ .Missing.Field }}`)).To(Succeed())

			Expect(a.Instruction(0)).To(Equal(`{{ .Missing.Field }}`))
		})
	})

	Describe("Watch", func() {
		It("reloads the instruction when the file changes", func() {
			path := filepath.Join(GinkgoT().TempDir(), "system.txt")
			Expect(os.WriteFile(path, []byte("first"), 0o644)).To(Succeed())

			instruction, err := prompt.LoadInstructionFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.SetInstruction(instruction)).To(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			Expect(prompt.Watch(ctx, a, path, zap.NewNop())).To(Succeed())

			Expect(os.WriteFile(path, []byte("  second\n"), 0o644)).To(Succeed())

			Eventually(func() string {
				return a.Instruction(0)
			}).WithTimeout(5 * time.Second).Should(Equal("second"))
		})

		It("fails when the directory does not exist", func() {
			err := prompt.Watch(context.Background(), a, "/nonexistent/dir/system.txt", zap.NewNop())
			Expect(err).To(HaveOccurred())
		})
	})
})
