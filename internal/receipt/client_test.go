package receipt

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/expense-tracker/internal/scanning"
)

var _ = Describe("Client", func() {
	var (
		ghttpServer *ghttp.Server
		client      *Client
	)

	BeforeEach(func() {
		ghttpServer = ghttp.NewServer()
		client = NewClient(ghttpServer.URL()+"/", nil)
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	Describe("Extract", func() {
		When("the server extracts the receipt", func() {
			BeforeEach(func() {
				ghttpServer.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodPost, "/api/extract"),
					func(w http.ResponseWriter, r *http.Request) {
						f, header, err := r.FormFile(formField)
						Expect(err).NotTo(HaveOccurred())
						defer f.Close()
						Expect(header.Filename).To(Equal("lunch.png"))
						Expect(header.Header.Get("Content-Type")).To(Equal("image/png"))
					},
					ghttp.RespondWithJSONEncoded(http.StatusOK, Response{
						Success: true,
						Data: &scanning.ExtractedExpense{
							Merchant: "Cafe",
							Amount:   12.5,
							Currency: "EUR",
							Date:     "2024-03-01",
						},
					}),
				))
			})

			It("should return the expense", func() {
				expense, err := client.Extract(context.Background(), "/tmp/lunch.png", []byte("png"))
				Expect(err).NotTo(HaveOccurred())
				Expect(expense.Merchant).To(Equal("Cafe"))
				Expect(expense.Amount).To(Equal(12.5))
				Expect(expense.Currency).To(Equal("EUR"))
				Expect(ghttpServer.ReceivedRequests()).To(HaveLen(1))
			})
		})

		When("the server rejects the receipt", func() {
			BeforeEach(func() {
				ghttpServer.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusBadRequest, Response{
					Success: false,
					Error:   "Invalid file type",
					Details: "Only JPEG, PNG, WEBP images are allowed.",
				}))
			})

			It("should return an APIError", func() {
				_, err := client.Extract(context.Background(), "lunch.gif", []byte("gif"))
				var apiErr *APIError
				Expect(errors.As(err, &apiErr)).To(BeTrue())
				Expect(apiErr.Status).To(Equal(http.StatusBadRequest))
				Expect(apiErr.Message).To(Equal("Invalid file type"))
				Expect(apiErr.Error()).To(ContainSubstring("status 400"))
			})
		})

		When("the server returns something other than JSON", func() {
			BeforeEach(func() {
				ghttpServer.AppendHandlers(ghttp.RespondWith(http.StatusBadGateway, "bad gateway"))
			})

			It("should return a decode error", func() {
				_, err := client.Extract(context.Background(), "lunch.jpg", []byte("jpg"))
				Expect(err).To(MatchError(ContainSubstring("decoding response (status 502)")))
			})
		})
	})

	Describe("Health", func() {
		It("should return the health body", func() {
			ghttpServer.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/api/health"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, Health{Status: "ok", Timestamp: "2024-01-01T00:00:00.000Z"}),
			))

			health, err := client.Health(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(health.Status).To(Equal("ok"))
		})

		It("should fail on a non-200 status", func() {
			ghttpServer.AppendHandlers(ghttp.RespondWith(http.StatusServiceUnavailable, ""))

			_, err := client.Health(context.Background())
			Expect(err).To(MatchError("health check failed with status 503"))
		})
	})

	Describe("against the real server", func() {
		It("should round-trip an extraction", func() {
			scanner := newMockScanner()
			server := NewServer(NewService(scanner), NewIngestor(UploadLimits{}))
			ghttpServer.AppendHandlers(server.ServeHTTP)

			expense, err := client.Extract(context.Background(), "receipt.jpeg", []byte("jpeg"))
			Expect(err).NotTo(HaveOccurred())
			Expect(expense.Merchant).To(Equal("Test Store"))
			Expect(scanner.calls()).To(Equal(1))
		})
	})
})
