package config_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hamed0406/healthchecker/internal/config"
	"github.com/hamed0406/healthchecker/internal/domain"
)

var _ = Describe("Endpoints", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "endpoints-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	write := func(content string) string {
		path := filepath.Join(tempDir, "endpoints.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	Describe("LoadEndpoints", func() {
		Context("with a top-level list", func() {
			It("applies defaults and keeps order", func() {
				path := write(`
- name: home
  url: https://example.com/
- url: https://api.example.com/v1/status
  method: post
  headers:
    Authorization: Bearer abc
  body:
    ping: true
`)
				eps, err := config.LoadEndpoints(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(eps).To(HaveLen(2))

				Expect(eps[0].Name).To(Equal("home"))
				Expect(eps[0].Method).To(Equal("GET"))
				Expect(eps[0].Headers).To(BeEmpty())

				Expect(eps[1].Name).To(Equal(domain.DefaultEndpointName))
				Expect(eps[1].Method).To(Equal("POST"))
				Expect(eps[1].Headers).To(HaveKeyWithValue("Authorization", "Bearer abc"))
				Expect(eps[1].Body).To(HaveKeyWithValue("ping", true))
			})
		})

		Context("with an endpoints mapping", func() {
			It("loads the nested list", func() {
				path := write(`
endpoints:
  - name: a
    url: http://a.example.com
`)
				eps, err := config.LoadEndpoints(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(eps).To(HaveLen(1))
				Expect(eps[0].URL).To(Equal("http://a.example.com"))
			})
		})

		Context("with invalid entries", func() {
			It("rejects the whole file and names every bad entry", func() {
				path := write(`
- name: ok
  url: https://example.com
- name: noscheme
  url: example.com/health
- name: nohost
  url: https://
- name: badverb
  url: https://example.com
  method: FETCH
`)
				eps, err := config.LoadEndpoints(path)
				Expect(err).To(HaveOccurred())
				Expect(eps).To(BeNil())
				Expect(err.Error()).To(ContainSubstring("noscheme"))
				Expect(err.Error()).To(ContainSubstring("nohost"))
				Expect(err.Error()).To(ContainSubstring("badverb"))
				Expect(err.Error()).NotTo(ContainSubstring("(ok)"))
			})

			It("rejects a body that cannot be encoded as JSON", func() {
				path := write(`
- name: numeric-keys
  url: http://127.0.0.1:1/x
  method: POST
  body: {1: one}
`)
				eps, err := config.LoadEndpoints(path)
				Expect(err).To(HaveOccurred())
				Expect(eps).To(BeNil())
				Expect(err.Error()).To(ContainSubstring("numeric-keys"))
				Expect(err.Error()).To(ContainSubstring("body"))
			})

			It("rejects an entry without url", func() {
				path := write(`
- name: empty
`)
				_, err := config.LoadEndpoints(path)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with an empty file", func() {
			It("returns ErrNoEndpoints", func() {
				path := write("")
				_, err := config.LoadEndpoints(path)
				Expect(errors.Is(err, config.ErrNoEndpoints)).To(BeTrue())
			})
		})

		Context("with a missing file", func() {
			It("fails fast", func() {
				_, err := config.LoadEndpoints(filepath.Join(tempDir, "missing.yaml"))
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
			})
		})

		Context("with malformed yaml", func() {
			It("reports a parse error", func() {
				path := write("- name: [unterminated\n")
				_, err := config.LoadEndpoints(path)
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
