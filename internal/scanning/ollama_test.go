package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server   *ghttp.Server
		prompt   Prompt
		captured ollamaChatRequest
		text     string
		err      error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		prompt = BuildPrompt(Image{Data: []byte("webp bytes"), ContentType: "image/webp"})
		captured = ollamaChatRequest{}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		scanner := NewOllama(ModelConfig{BaseURL: server.URL(), Model: "llava", Temperature: 0.1, Timeout: 5 * time.Second})
		text, err = scanner.Scan(context.Background(), prompt)
	})

	When("the server answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				func(w http.ResponseWriter, r *http.Request) {
					body, readErr := io.ReadAll(r.Body)
					Expect(readErr).NotTo(HaveOccurred())
					Expect(json.Unmarshal(body, &captured)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"message": map[string]any{"role": "assistant", "content": `{"merchant":"Shell"}`},
					"done":    true,
				}),
			))
		})

		It("should return the message content", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(`{"merchant":"Shell"}`))
		})

		It("should attach the image as base64", func() {
			user := captured.Messages[len(captured.Messages)-1]
			Expect(user.Images).To(ConsistOf(base64.StdEncoding.EncodeToString([]byte("webp bytes"))))
			Expect(user.Content).To(Equal(prompt.Instruction))
		})

		It("should bound the output", func() {
			Expect(captured.Stream).To(BeFalse())
			Expect(captured.Options.NumPredict).To(Equal(defaultMaxTokens))
		})
	})

	When("the server fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("should return ErrUpstream", func() {
			Expect(err).To(MatchError(ErrUpstream))
		})
	})

	When("the server returns an empty message", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"done": true}))
		})

		It("should return ErrUpstream", func() {
			Expect(err).To(MatchError(ErrUpstream))
		})
	})
})
