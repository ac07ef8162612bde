package transcript_test

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatmem/pkg/transcript"
)

var _ = Describe("Transcript", func() {
	var t *transcript.Transcript

	BeforeEach(func() {
		t = transcript.New()
	})

	Describe("Append", func() {
		It("keeps insertion order", func() {
			t.Append(transcript.Human("hello"))
			t.Append(transcript.Assistant("hi"))

			Expect(t.Turns()).To(Equal([]transcript.Turn{
				{Role: transcript.RoleHuman, Content: "hello"},
				{Role: transcript.RoleAssistant, Content: "hi"},
			}))
		})

		It("does not enforce alternation", func() {
			t.Append(transcript.Human("one"))
			t.Append(transcript.Human("two"))

			Expect(t.Len()).To(Equal(2))
		})

		It("returns a copy from Turns", func() {
			t.Append(transcript.Human("hello"))
			turns := t.Turns()
			turns[0].Content = "changed"

			Expect(t.Turns()[0].Content).To(Equal("hello"))
		})
	})

	Describe("Clear", func() {
		It("empties the transcript", func() {
			t.Append(transcript.Human("hello"))
			t.Clear()

			Expect(t.Len()).To(Equal(0))
		})

		It("is idempotent", func() {
			t.Append(transcript.Human("hello"))
			t.Clear()
			once, err := t.Serialize()
			Expect(err).NotTo(HaveOccurred())

			t.Clear()
			twice, err := t.Serialize()
			Expect(err).NotTo(HaveOccurred())

			Expect(t.Len()).To(Equal(0))
			Expect(twice).To(Equal(once))
		})
	})

	Describe("Serialize", func() {
		It("writes an empty array for an empty transcript", func() {
			data, err := t.Serialize()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("[]"))
		})

		It("uses human and ai record types", func() {
			t.Append(transcript.Human("hello"))
			t.Append(transcript.Assistant("hi"))

			data, err := t.Serialize()
			Expect(err).NotTo(HaveOccurred())

			var records []map[string]string
			Expect(json.Unmarshal(data, &records)).To(Succeed())
			Expect(records).To(Equal([]map[string]string{
				{"type": "human", "content": "hello"},
				{"type": "ai", "content": "hi"},
			}))
		})

		It("is indented for diffing", func() {
			t.Append(transcript.Human("hello"))

			data, err := t.Serialize()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("\n  {\n    \"type\": \"human\""))
		})
	})

	Describe("Load", func() {
		It("round-trips a serialized transcript", func() {
			t.Append(transcript.Human("hello"))
			t.Append(transcript.Assistant("hi there"))
			t.Append(transcript.Human("what is Go?"))
			t.Append(transcript.Assistant("A programming language. \"quoted\" and\nmultiline"))

			data, err := t.Serialize()
			Expect(err).NotTo(HaveOccurred())

			loaded, err := transcript.Load(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Turns()).To(Equal(t.Turns()))
		})

		It("skips records with an unrecognized type", func() {
			data := []byte(`[
				{"type": "human", "content": "first"},
				{"type": "system", "content": "ignored"},
				{"type": "ai", "content": "second"}
			]`)

			loaded, err := transcript.Load(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Turns()).To(Equal([]transcript.Turn{
				transcript.Human("first"),
				transcript.Assistant("second"),
			}))
		})

		It("fails with StoreCorruptError on malformed input", func() {
			_, err := transcript.Load([]byte(`[{"type": "human",`))
			Expect(err).To(HaveOccurred())

			var corrupt *transcript.StoreCorruptError
			Expect(err).To(BeAssignableToTypeOf(corrupt))
		})

		It("fails with StoreCorruptError when the top level is not an array", func() {
			_, err := transcript.Load([]byte(`{"type": "human", "content": "x"}`))

			var corrupt *transcript.StoreCorruptError
			Expect(err).To(BeAssignableToTypeOf(corrupt))
		})
	})

	Describe("files", func() {
		var path string

		BeforeEach(func() {
			path = filepath.Join(GinkgoT().TempDir(), "conversation_memory.json")
		})

		It("starts empty when the file does not exist", func() {
			loaded, err := transcript.LoadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Len()).To(Equal(0))
		})

		It("saves and reloads", func() {
			t.Append(transcript.Human("hello"))
			t.Append(transcript.Assistant("hi"))
			Expect(t.Save(path)).To(Succeed())

			loaded, err := transcript.LoadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Turns()).To(Equal(t.Turns()))
		})

		It("overwrites previous content", func() {
			t.Append(transcript.Human("hello"))
			Expect(t.Save(path)).To(Succeed())

			t.Clear()
			Expect(t.Save(path)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("[]"))
		})

		It("reports the path of a corrupt file", func() {
			Expect(os.WriteFile(path, []byte("not json"), 0o644)).To(Succeed())

			_, err := transcript.LoadFile(path)
			var corrupt *transcript.StoreCorruptError
			Expect(err).To(BeAssignableToTypeOf(corrupt))
			Expect(err.Error()).To(ContainSubstring(path))
		})

		It("fails with PersistenceError when the path is unwritable", func() {
			bad := filepath.Join(GinkgoT().TempDir(), "missing", "dir", "memory.json")

			err := t.Save(bad)
			Expect(err).To(HaveOccurred())

			var persistErr *transcript.PersistenceError
			Expect(err).To(BeAssignableToTypeOf(persistErr))
		})
	})
})
