package scanning

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Gate", func() {
	var (
		today    time.Time
		response string
		expense  *ExtractedExpense
		err      error
	)

	BeforeEach(func() {
		today = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	})

	JustBeforeEach(func() {
		candidate, normErr := Normalize(response, today)
		Expect(normErr).NotTo(HaveOccurred())
		expense, err = Gate(candidate)
	})

	When("every field is null", func() {
		BeforeEach(func() {
			response = `{"merchant":null,"amount":null,"currency":null,"date":null}`
		})

		It("should reject with ErrNoExtractableData", func() {
			Expect(err).To(MatchError(ErrNoExtractableData))
			Expect(expense).To(BeNil())
		})
	})

	When("only the currency is present", func() {
		BeforeEach(func() {
			response = `{"merchant":null,"amount":null,"currency":"EUR","date":null}`
		})

		It("should reject with ErrNoExtractableData", func() {
			Expect(err).To(MatchError(ErrNoExtractableData))
		})
	})

	When("merchant and date are present", func() {
		BeforeEach(func() {
			response = `{"merchant":"Shell","amount":null,"currency":null,"date":"2024-01-05"}`
		})

		It("should succeed with defaults", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(expense).To(Equal(&ExtractedExpense{
				Merchant:    "Shell",
				Amount:      0,
				Currency:    "USD",
				Date:        "2024-01-05",
				RawResponse: response,
			}))
		})
	})

	When("only the amount is present", func() {
		BeforeEach(func() {
			response = `{"merchant":null,"amount":8.25,"currency":null,"date":null}`
		})

		It("should succeed with merchant and date defaulted", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(expense.Merchant).To(Equal(UnknownMerchant))
			Expect(expense.Amount).To(Equal(8.25))
			Expect(expense.Date).To(Equal("2024-06-30"))
		})
	})
})
