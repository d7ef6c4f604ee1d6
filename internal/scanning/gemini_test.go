package scanning

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ = Describe("Gemini", func() {
	When("no API key is configured", func() {
		var scanner *Gemini

		BeforeEach(func() {
			var err error
			scanner, err = NewGemini(ModelConfig{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should fail Scan with ErrAuthConfiguration", func() {
			_, err := scanner.Scan(context.Background(), BuildPrompt(Image{Data: []byte("x"), ContentType: "image/png"}))
			Expect(err).To(MatchError(ErrAuthConfiguration))
		})

		It("should close cleanly", func() {
			Expect(scanner.Close()).To(Succeed())
		})
	})
})

var _ = Describe("geminiOutputTokens", func() {
	It("should leave room for thinking on top of the reply budget", func() {
		Expect(geminiOutputTokens(300)).To(BeNumerically(">", 300+4096))
	})

	It("should keep the configured reply budget", func() {
		Expect(geminiOutputTokens(1000) - geminiOutputTokens(300)).To(Equal(int32(700)))
	})
})

var _ = Describe("classifyGeminiError", func() {
	DescribeTable("maps provider errors",
		func(in error, want error) {
			Expect(classifyGeminiError(in)).To(MatchError(want))
		},
		Entry("REST 401", &googleapi.Error{Code: http.StatusUnauthorized}, ErrAuthConfiguration),
		Entry("REST 403", &googleapi.Error{Code: http.StatusForbidden}, ErrAuthConfiguration),
		Entry("REST 500", &googleapi.Error{Code: http.StatusInternalServerError}, ErrUpstream),
		Entry("gRPC unauthenticated", status.Error(codes.Unauthenticated, "bad key"), ErrAuthConfiguration),
		Entry("gRPC permission denied", status.Error(codes.PermissionDenied, "no access"), ErrAuthConfiguration),
		Entry("gRPC unavailable", status.Error(codes.Unavailable, "try later"), ErrUpstream),
		Entry("deadline", context.DeadlineExceeded, ErrUpstream),
		Entry("plain error", errors.New("boom"), ErrUpstream),
	)
})
