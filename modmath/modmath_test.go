package modmath

import (
	"fmt"
	"math"
	"math/big"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// arbitrary-precision reference for ModPow
func bigModPow(a, e, m uint64) uint64 {
	r := new(big.Int).Exp(new(big.Int).SetUint64(a), new(big.Int).SetUint64(e), new(big.Int).SetUint64(m))
	return r.Uint64()
}

var _ = Describe("Modmath", func() {

	Context("Multiplying near the width boundary", func() {
		It("Matches big.Int for operands close to 2^64", func() {
			m := uint64(math.MaxUint64 - 58) // largest 64-bit prime
			a := uint64(math.MaxUint64 - 1)
			b := uint64(math.MaxUint64 - 2)

			want := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
			want.Mod(want, new(big.Int).SetUint64(m))
			Expect(MulMod(a, b, m)).To(Equal(want.Uint64()))
		})
	})

	Context("Modular exponentiation", func() {
		It("Returns 1 mod m for a zero exponent", func() {
			for _, m := range []uint64{1, 2, 3, 3233, math.MaxUint32, math.MaxUint64} {
				for _, a := range []uint64{0, 1, 7, math.MaxUint64} {
					Expect(ModPow(a, 0, m)).To(Equal(1%m), fmt.Sprintf("ModPow(%d, 0, %d)", a, m))
				}
			}
		})

		It("Returns 0 for every input when m is 1", func() {
			Expect(ModPow(12345, 678, 1)).To(BeZero())
		})

		It("Computes the textbook signature and its verification", func() {
			Expect(ModPow(65, 2753, 3233)).To(Equal(uint64(2790)))
			Expect(ModPow(2790, 17, 3233)).To(Equal(uint64(65)))
		})

		It("Panics on a zero modulus", func() {
			Expect(func() { ModPow(2, 3, 0) }).To(Panic())
		})

		When("Comparing against an arbitrary-precision reference", func() {
			r := rand.New(rand.NewPCG(1, 2))

			It("Agrees for moduli up to 2^32", func() {
				for i := 0; i < 2000; i++ {
					m := r.Uint64N(1<<32) + 1
					a, e := r.Uint64(), r.Uint64()
					Expect(ModPow(a, e, m)).To(Equal(bigModPow(a, e, m)), fmt.Sprintf("ModPow(%d, %d, %d)", a, e, m))
				}
			})

			It("Agrees for moduli across the full 64-bit width", func() {
				for i := 0; i < 2000; i++ {
					m := r.Uint64() | 1<<63
					a, e := r.Uint64(), r.Uint64()
					Expect(ModPow(a, e, m)).To(Equal(bigModPow(a, e, m)), fmt.Sprintf("ModPow(%d, %d, %d)", a, e, m))
				}
			})
		})
	})

	Context("Greatest common divisor", func() {
		It("Follows gcd(a, 0) = a", func() {
			Expect(GCD(42, 0)).To(Equal(uint64(42)))
			Expect(GCD(0, 42)).To(Equal(uint64(42)))
		})

		It("Finds common factors", func() {
			Expect(GCD(17, 3120)).To(Equal(uint64(1)))
			Expect(GCD(12, 3120)).To(Equal(uint64(12)))
		})
	})

	Context("Modular inverse", func() {
		It("Inverts the textbook exponent", func() {
			d, err := ModInverse(17, 3120)
			Expect(err).To(BeNil())
			Expect(d).To(Equal(uint64(2753)))
		})

		It("Fails when the value shares a factor with the modulus", func() {
			_, err := ModInverse(12, 3120)
			Expect(err).To(MatchError(ErrNoInverse))

			_, err = ModInverse(0, 7)
			Expect(err).To(MatchError(ErrNoInverse))

			_, err = ModInverse(3, 0)
			Expect(err).To(MatchError(ErrNoInverse))
		})

		It("Agrees with big.Int for random coprime pairs", func() {
			r := rand.New(rand.NewPCG(3, 4))
			checked := 0
			for checked < 1000 {
				m := r.Uint64() | 1
				a := r.Uint64N(m)
				if GCD(a, m) != 1 {
					continue
				}
				d, err := ModInverse(a, m)
				Expect(err).To(BeNil())

				want := new(big.Int).ModInverse(new(big.Int).SetUint64(a), new(big.Int).SetUint64(m))
				Expect(d).To(Equal(want.Uint64()), fmt.Sprintf("ModInverse(%d, %d)", a, m))
				Expect(MulMod(a, d, m)).To(Equal(uint64(1)))
				checked++
			}
		})
	})

	Context("Congruence", func() {
		It("Checks that n divides (a - b)", func() {
			Expect(CongruentModN(17*2753, 1, 3120)).To(BeTrue())
			Expect(CongruentModN(17*2752, 1, 3120)).To(BeFalse())
		})
	})
})
