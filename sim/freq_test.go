package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should convert cycle to time", func() {
		Expect(GHz.TimeOf(17)).To(BeNumerically("~", 17e-9, 1e-15))
		Expect((500 * MHz).TimeOf(3)).To(BeNumerically("~", 6e-9, 1e-15))
		Expect(GHz.TimeOf(0)).To(BeZero())
	})

	It("should print with a unit", func() {
		Expect(GHz.String()).To(Equal("1GHz"))
		Expect((2.5 * GHz).String()).To(Equal("2.5GHz"))
		Expect((800 * MHz).String()).To(Equal("800MHz"))
		Expect((32 * KHz).String()).To(Equal("32KHz"))
		Expect((50 * Hz).String()).To(Equal("50Hz"))
	})
})
