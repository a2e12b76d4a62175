package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/bastionzero/toysign"
	"github.com/google/uuid"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testKeyPair(owner uuid.UUID, name string) *toysign.KeyPair {
	return toysign.NewKeyPair(owner, name, &toysign.Secret{
		PublicKey: toysign.PublicKey{E: 17, N: 3233},
		D:         2753,
	})
}

// run the Store contract against one implementation
func runContract(newStore func() Store) {
	ctx := context.Background()
	var s Store
	alice, bob := uuid.New(), uuid.New()

	BeforeEach(func() {
		s = newStore()
	})

	It("Reads back what it wrote", func() {
		kp := testKeyPair(alice, "signing")
		Expect(s.Create(ctx, kp)).To(Succeed())

		found, err := s.FindByID(ctx, kp.ID)
		Expect(err).To(BeNil())
		Expect(found).To(Equal(kp))
	})

	It("Refuses duplicate ids", func() {
		kp := testKeyPair(alice, "signing")
		Expect(s.Create(ctx, kp)).To(Succeed())
		Expect(s.Create(ctx, kp)).To(MatchError(ErrDuplicateID))
	})

	It("Reports unknown ids as not found", func() {
		_, err := s.FindByID(ctx, uuid.New())
		Expect(err).To(MatchError(toysign.ErrNotFound))
		Expect(s.Rename(ctx, uuid.New(), "x")).To(MatchError(toysign.ErrNotFound))
		Expect(s.Delete(ctx, uuid.New())).To(MatchError(toysign.ErrNotFound))
	})

	It("Lists only the owner's key pairs, ordered by name", func() {
		b := testKeyPair(alice, "b")
		a := testKeyPair(alice, "a")
		other := testKeyPair(bob, "a")
		for _, kp := range []*toysign.KeyPair{b, a, other} {
			Expect(s.Create(ctx, kp)).To(Succeed())
		}

		summaries, err := s.ListByOwner(ctx, alice)
		Expect(err).To(BeNil())
		Expect(summaries).To(Equal([]Summary{{ID: a.ID, Name: "a"}, {ID: b.ID, Name: "b"}}))

		summaries, err = s.ListByOwner(ctx, uuid.New())
		Expect(err).To(BeNil())
		Expect(summaries).To(BeEmpty())
	})

	It("Renames without touching key material", func() {
		kp := testKeyPair(alice, "old")
		Expect(s.Create(ctx, kp)).To(Succeed())
		Expect(s.Rename(ctx, kp.ID, "new")).To(Succeed())

		found, err := s.FindByID(ctx, kp.ID)
		Expect(err).To(BeNil())
		Expect(found.Name).To(Equal("new"))
		Expect(found.Secret).To(Equal(kp.Secret))
	})

	It("Deletes one key pair and leaves the others", func() {
		gone := testKeyPair(alice, "gone")
		kept := testKeyPair(alice, "kept")
		Expect(s.Create(ctx, gone)).To(Succeed())
		Expect(s.Create(ctx, kept)).To(Succeed())

		Expect(s.Delete(ctx, gone.ID)).To(Succeed())
		_, err := s.FindByID(ctx, gone.ID)
		Expect(err).To(MatchError(toysign.ErrNotFound))

		_, err = s.FindByID(ctx, kept.ID)
		Expect(err).To(BeNil())
	})

	It("Never resurrects a deleted key pair through a rename", func() {
		kp := testKeyPair(alice, "racy")
		Expect(s.Create(ctx, kp)).To(Succeed())

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				err := s.Rename(ctx, kp.ID, "renamed")
				if err != nil {
					Expect(err).To(MatchError(toysign.ErrNotFound))
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer GinkgoRecover()
			defer wg.Done()
			Expect(s.Delete(ctx, kp.ID)).To(Succeed())
		}()
		wg.Wait()

		Expect(s.Rename(ctx, kp.ID, "after")).To(MatchError(toysign.ErrNotFound))
		_, err := s.FindByID(ctx, kp.ID)
		Expect(err).To(MatchError(toysign.ErrNotFound))
	})
}

var _ = Describe("Store", func() {

	Context("In memory", func() {
		runContract(func() Store { return NewMemory() })
	})

	Context("In a keyring file", func() {
		runContract(func() Store {
			return NewFile(filepath.Join(GinkgoT().TempDir(), "test.keyring"))
		})

		It("Survives reopening", func() {
			path := filepath.Join(GinkgoT().TempDir(), "reopen.keyring")
			kp := testKeyPair(uuid.New(), "persisted")
			Expect(NewFile(path).Create(context.Background(), kp)).To(Succeed())

			found, err := NewFile(path).FindByID(context.Background(), kp.ID)
			Expect(err).To(BeNil())
			Expect(found).To(Equal(kp))
		})

		It("Rejects a corrupt keyring", func() {
			path := filepath.Join(GinkgoT().TempDir(), "corrupt.keyring")
			Expect(os.WriteFile(path, []byte("not cbor"), 0o600)).To(Succeed())

			_, err := NewFile(path).ListByOwner(context.Background(), uuid.New())
			Expect(err).NotTo(BeNil())
		})
	})

	Context("In PostgreSQL", func() {
		dsn := os.Getenv("TOYSIGN_TEST_DSN")

		runContract(func() Store {
			if dsn == "" {
				Skip("TOYSIGN_TEST_DSN not set")
			}
			ctx := context.Background()
			pg, err := OpenPostgres(ctx, dsn)
			Expect(err).To(BeNil())
			Expect(pg.Migrate(ctx)).To(Succeed())
			_, err = pg.db.ExecContext(ctx, `TRUNCATE key_pairs`)
			Expect(err).To(BeNil())
			DeferCleanup(pg.Close)
			return pg
		})
	})
})
