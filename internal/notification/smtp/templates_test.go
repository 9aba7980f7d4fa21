package smtp

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/korelearn/tutor-management/internal/notification"
)

func TestSMTPNotifier(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SMTP Notifier Suite")
}

var _ = Describe("render", func() {
	data := map[string]string{
		"first_name": "Amara",
		"email":      "amara@mail.com",
		"password":   "temp-pass-123",
		"login_url":  "https://korelearn.example/login",
	}

	It("should render the welcome mail with the temporary password", func() {
		subject, body, err := render(notification.TemplateTutorWelcome, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(subject).To(ContainSubstring("Welcome"))
		Expect(body).To(ContainSubstring("Amara"))
		Expect(body).To(ContainSubstring("temp-pass-123"))
		Expect(body).To(ContainSubstring("https://korelearn.example/login"))
	})

	It("should render the confirmation mail without any credential", func() {
		subject, body, err := render(notification.TemplateTutorConfirmation, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(subject).To(ContainSubstring("payment received"))
		Expect(body).NotTo(ContainSubstring("temp-pass-123"))
	})

	It("should fall back to a neutral greeting without a first name", func() {
		_, body, err := render(notification.TemplateTutorWelcome, map[string]string{
			"email":     "amara@mail.com",
			"login_url": "https://korelearn.example/login",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(ContainSubstring("Hi there"))
	})

	It("should reject unknown templates", func() {
		_, _, err := render("mystery_template", data)
		Expect(err).To(HaveOccurred())
	})
})
