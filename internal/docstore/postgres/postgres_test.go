package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/korelearn/tutor-management/internal/docstore"
)

func TestDocumentStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Document Store Suite")
}

var _ = Describe("Store", func() {
	var (
		db    *gorm.DB
		store *Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&Document{})
		Expect(err).NotTo(HaveOccurred())

		store = NewStore(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Put and Get", func() {
		It("should round-trip a document", func() {
			fields := map[string]any{
				"email":  "amara@mail.com",
				"role":   "tutor",
				"status": "pending_review",
			}
			Expect(store.Put(ctx, "accounts", "user-1", fields, false)).To(Succeed())

			got, err := store.Get(ctx, "accounts", "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got["email"]).To(Equal("amara@mail.com"))
			Expect(got["role"]).To(Equal("tutor"))
		})

		It("should return ErrNotFound for a missing document", func() {
			_, err := store.Get(ctx, "accounts", "nope")
			Expect(errors.Is(err, docstore.ErrNotFound)).To(BeTrue())
		})

		It("should isolate collections sharing a doc id", func() {
			Expect(store.Put(ctx, "accounts", "id-1", map[string]any{"kind": "account"}, false)).To(Succeed())
			Expect(store.Put(ctx, "tutors", "id-1", map[string]any{"kind": "tutor"}, false)).To(Succeed())

			got, err := store.Get(ctx, "accounts", "id-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got["kind"]).To(Equal("account"))
		})

		It("should replace the document when merge is false", func() {
			Expect(store.Put(ctx, "accounts", "user-1", map[string]any{"a": "1", "b": "2"}, false)).To(Succeed())
			Expect(store.Put(ctx, "accounts", "user-1", map[string]any{"a": "9"}, false)).To(Succeed())

			got, err := store.Get(ctx, "accounts", "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).NotTo(HaveKey("b"))
		})

		It("should keep untouched fields when merge is true", func() {
			Expect(store.Put(ctx, "tutor_applications", "app-1", map[string]any{
				"status":   "pending_payment",
				"subjects": "mathematics",
			}, false)).To(Succeed())

			Expect(store.Put(ctx, "tutor_applications", "app-1", map[string]any{
				"status": "pending_review",
			}, true)).To(Succeed())

			got, err := store.Get(ctx, "tutor_applications", "app-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got["status"]).To(Equal("pending_review"))
			Expect(got["subjects"]).To(Equal("mathematics"))
		})

		It("should create the document when merging into nothing", func() {
			Expect(store.Put(ctx, "accounts", "user-1", map[string]any{"a": "1"}, true)).To(Succeed())

			got, err := store.Get(ctx, "accounts", "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got["a"]).To(Equal("1"))
		})

		It("should keep created_at from the first write across updates", func() {
			Expect(store.Put(ctx, "accounts", "user-1", map[string]any{"a": "1"}, false)).To(Succeed())

			var first Document
			Expect(db.Where("collection = ? AND doc_id = ?", "accounts", "user-1").First(&first).Error).To(Succeed())

			time.Sleep(5 * time.Millisecond)
			Expect(store.Put(ctx, "accounts", "user-1", map[string]any{"a": "2"}, false)).To(Succeed())

			var second Document
			Expect(db.Where("collection = ? AND doc_id = ?", "accounts", "user-1").First(&second).Error).To(Succeed())
			Expect(second.CreatedAt).To(BeTemporally("==", first.CreatedAt))
			Expect(second.UpdatedAt).To(BeTemporally(">", first.UpdatedAt))
		})
	})

	Describe("Create", func() {
		It("should write a new document", func() {
			Expect(store.Create(ctx, "reservations", "ref-1", map[string]any{"claimed": true})).To(Succeed())

			got, err := store.Get(ctx, "reservations", "ref-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got["claimed"]).To(BeTrue())
		})

		It("should return ErrConflict when the document exists", func() {
			Expect(store.Create(ctx, "reservations", "ref-1", map[string]any{"owner": "first"})).To(Succeed())

			err := store.Create(ctx, "reservations", "ref-1", map[string]any{"owner": "second"})
			Expect(errors.Is(err, docstore.ErrConflict)).To(BeTrue())

			got, err := store.Get(ctx, "reservations", "ref-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got["owner"]).To(Equal("first"), "the losing create must not overwrite")
		})
	})

	Describe("FindByField", func() {
		BeforeEach(func() {
			Expect(store.Put(ctx, "accounts", "user-1", map[string]any{
				"email":             "one@mail.com",
				"payment_reference": "ref-1",
			}, false)).To(Succeed())
			Expect(store.Put(ctx, "accounts", "user-2", map[string]any{
				"email":             "two@mail.com",
				"payment_reference": "ref-2",
			}, false)).To(Succeed())
		})

		It("should find a document by field value", func() {
			id, fields, err := store.FindByField(ctx, "accounts", "payment_reference", "ref-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("user-2"))
			Expect(fields["email"]).To(Equal("two@mail.com"))
		})

		It("should return ErrNotFound when no document matches", func() {
			_, _, err := store.FindByField(ctx, "accounts", "payment_reference", "ref-404")
			Expect(errors.Is(err, docstore.ErrNotFound)).To(BeTrue())
		})

		It("should not match documents from another collection", func() {
			Expect(store.Put(ctx, "identities", "ident-1", map[string]any{
				"payment_reference": "ref-1",
			}, false)).To(Succeed())

			id, _, err := store.FindByField(ctx, "accounts", "payment_reference", "ref-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("user-1"))
		})
	})
})
