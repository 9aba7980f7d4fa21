package account_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/korelearn/tutor-management/internal/core/datamodel/account"
)

func TestAccount(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Account Suite")
}

var _ = Describe("Fields", func() {
	It("should carry a present payment reference", func() {
		acc := &account.Account{PaymentReference: "ref-1"}
		Expect(acc.Fields()[account.FieldPaymentReference]).To(Equal("ref-1"))
	})

	It("should omit an empty payment reference", func() {
		// Seeded accounts have no payment; an empty string would collide on
		// the uniqueness index, absence does not.
		acc := &account.Account{ID: "u-1", Email: "seed@mail.com", Role: account.RoleStudent}
		Expect(acc.Fields()).NotTo(HaveKey(account.FieldPaymentReference))
	})
})
