package provisioning_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/korelearn/tutor-management/internal/provisioning"
)

var _ = Describe("GenerateCredential", func() {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()-_=+"

	It("should generate 12 character credentials", func() {
		credential, err := provisioning.GenerateCredential()
		Expect(err).ToNot(HaveOccurred())
		Expect(credential).To(HaveLen(12))
	})

	It("should only draw from the credential alphabet", func() {
		for i := 0; i < 50; i++ {
			credential, err := provisioning.GenerateCredential()
			Expect(err).ToNot(HaveOccurred())
			for _, r := range credential {
				Expect(strings.ContainsRune(alphabet, r)).To(BeTrue())
			}
		}
	})

	It("should not repeat across calls", func() {
		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			credential, err := provisioning.GenerateCredential()
			Expect(err).ToNot(HaveOccurred())
			Expect(seen[credential]).To(BeFalse())
			seen[credential] = true
		}
	})
})
