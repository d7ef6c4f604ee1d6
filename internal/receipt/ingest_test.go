package receipt

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ingestor", func() {
	var (
		ingestor *Ingestor
		request  *http.Request
		upload   *Upload
		err      error
	)

	newRequest := func(filename, contentType string, data []byte) *http.Request {
		body, formType := receiptForm(formField, filename, contentType, data)
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", formType)
		return req
	}

	BeforeEach(func() {
		ingestor = NewIngestor(UploadLimits{})
	})

	JustBeforeEach(func() {
		upload, err = ingestor.Ingest(httptest.NewRecorder(), request)
	})

	Describe("NewIngestor", func() {
		It("should apply default limits", func() {
			Expect(ingestor.Limits().MaxBytes).To(Equal(int64(DefaultMaxUploadBytes)))
			Expect(ingestor.Limits().AllowedTypes).To(Equal(DefaultAllowedTypes))
		})

		It("should normalize configured types", func() {
			custom := NewIngestor(UploadLimits{AllowedTypes: []string{"IMAGE/JPG", "image/png"}})
			Expect(custom.Limits().AllowedTypes).To(Equal([]string{"image/jpeg", "image/png"}))
		})
	})

	When("a JPEG is uploaded", func() {
		BeforeEach(func() {
			request = newRequest("lunch.jpg", "image/jpeg", []byte("jpeg bytes"))
		})

		It("should return the upload", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(upload.Filename).To(Equal("lunch.jpg"))
			Expect(upload.ContentType).To(Equal("image/jpeg"))
			Expect(upload.Data).To(Equal([]byte("jpeg bytes")))
		})
	})

	When("the part uses the image/jpg alias", func() {
		BeforeEach(func() {
			request = newRequest("lunch.jpg", "image/jpg", []byte("jpeg bytes"))
		})

		It("should accept it as image/jpeg", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(upload.ContentType).To(Equal("image/jpeg"))
		})
	})

	When("the part has no specific content type", func() {
		BeforeEach(func() {
			request = newRequest("scan.webp", "application/octet-stream", []byte("webp bytes"))
		})

		It("should use the file extension", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(upload.ContentType).To(Equal("image/webp"))
		})
	})

	When("the content type has parameters", func() {
		BeforeEach(func() {
			request = newRequest("scan.png", "Image/PNG; charset=binary", []byte("png bytes"))
		})

		It("should strip them", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(upload.ContentType).To(Equal("image/png"))
		})
	})

	When("the file is a PDF", func() {
		BeforeEach(func() {
			request = newRequest("receipt.pdf", "application/pdf", []byte("%PDF-1.4"))
		})

		It("should return ErrInvalidUpload", func() {
			Expect(err).To(MatchError(ErrInvalidUpload))
			Expect(upload).To(BeNil())
		})
	})

	When("the file field is missing", func() {
		BeforeEach(func() {
			body, formType := receiptForm("image", "lunch.jpg", "image/jpeg", []byte("jpeg bytes"))
			request = httptest.NewRequest(http.MethodPost, "/api/extract", body)
			request.Header.Set("Content-Type", formType)
		})

		It("should return ErrMissingFile", func() {
			Expect(err).To(MatchError(ErrMissingFile))
		})
	})

	When("the body is not multipart", func() {
		BeforeEach(func() {
			request = httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader("hello"))
			request.Header.Set("Content-Type", "text/plain")
		})

		It("should return ErrMissingFile", func() {
			Expect(err).To(MatchError(ErrMissingFile))
		})
	})

	When("the file exceeds the limit", func() {
		BeforeEach(func() {
			ingestor = NewIngestor(UploadLimits{MaxBytes: 16})
			request = newRequest("lunch.jpg", "image/jpeg", bytes.Repeat([]byte("x"), 17))
		})

		It("should return ErrPayloadTooLarge", func() {
			Expect(err).To(MatchError(ErrPayloadTooLarge))
		})
	})

	When("the file is exactly at the limit", func() {
		BeforeEach(func() {
			ingestor = NewIngestor(UploadLimits{MaxBytes: 16})
			request = newRequest("lunch.jpg", "image/jpeg", bytes.Repeat([]byte("x"), 16))
		})

		It("should accept it", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(upload.Data).To(HaveLen(16))
		})
	})

	When("the request body exceeds the cap", func() {
		BeforeEach(func() {
			ingestor = NewIngestor(UploadLimits{MaxBytes: 16})
			request = newRequest("lunch.jpg", "image/jpeg", bytes.Repeat([]byte("x"), multipartOverhead+1024))
		})

		It("should return ErrPayloadTooLarge", func() {
			Expect(err).To(MatchError(ErrPayloadTooLarge))
		})
	})
})
