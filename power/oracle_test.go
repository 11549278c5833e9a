package power_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/manmuqingshan/PAF/arch"
	"github.com/manmuqingshan/PAF/power"
	"github.com/manmuqingshan/PAF/trace"
)

var _ = Describe("NullOracle", func() {
	It("should know nothing", func() {
		var o power.NullOracle
		Expect(o.RegBankState(27)).To(BeNil())
		Expect(o.MemoryState(0x1234, 4, 5)).To(Equal(uint64(0)))
	})
})

var _ = Describe("ReplayOracle", func() {
	var o *power.ReplayOracle

	BeforeEach(func() {
		o = power.NewReplayOracle(arch.V7M{}, strdProgram())
	})

	It("should serve a bank as wide as the architecture", func() {
		Expect(o.RegBankState(27)).To(HaveLen(18))
	})

	It("should read as zero before the first instruction", func() {
		bank := o.RegBankState(26)
		for n, v := range bank {
			Expect(v).To(BeZero(), "register %d", n)
		}
	})

	It("should replay register writes up to the queried time", func() {
		bank := o.RegBankState(27)
		Expect(bank[1]).To(Equal(uint64(5)))           // r1
		Expect(bank[16]).To(Equal(uint64(0x21000000))) // cpsr
		Expect(bank[2]).To(BeZero())

		bank = o.RegBankState(28)
		Expect(bank[2]).To(Equal(uint64(5))) // r2
		Expect(bank[3]).To(BeZero())

		bank = o.RegBankState(30)
		Expect(bank[3]).To(Equal(uint64(3)))       // r3
		Expect(bank[4]).To(Equal(uint64(0x21f64))) // r4
	})

	It("should replay memory traffic of both kinds", func() {
		// The stores of the third instruction land at time 29.
		Expect(o.MemoryState(0x21afc, 4, 28)).To(BeZero())
		Expect(o.MemoryState(0x21afc, 4, 29)).To(Equal(uint64(5)))
		Expect(o.MemoryState(0x21b00, 4, 29)).To(Equal(uint64(5)))

		// The loads of the fourth instruction land at time 30.
		Expect(o.MemoryState(0x21f5c, 4, 29)).To(BeZero())
		Expect(o.MemoryState(0x21f5c, 4, 30)).To(Equal(uint64(3)))
		Expect(o.MemoryState(0x21f60, 4, 30)).To(Equal(uint64(0x21f64)))
	})

	It("should assemble bytes across neighbouring writes", func() {
		// 0x21afd..0x21aff come from the write at 0x21afc, 0x21b00 from
		// the next one.
		Expect(o.MemoryState(0x21afd, 4, 29)).To(Equal(uint64(0x05000000)))
		// Bytes below the first write read as zero.
		Expect(o.MemoryState(0x21afa, 4, 29)).To(Equal(uint64(0x050000)))
	})

	It("should clamp oversized reads to eight bytes", func() {
		Expect(o.MemoryState(0x21afc, 12, 29)).To(Equal(o.MemoryState(0x21afc, 8, 29)))
	})

	It("should skip register names the architecture does not know", func() {
		insts := []trace.ReferenceInstruction{
			{
				Time: 1, Executed: true, PC: 0x1000, Width: 16, Opcode: 0x1,
				RegAccess: []trace.RegisterAccess{
					{Reg: "d7", Value: 0xff, Access: trace.Write},
					{Reg: "r5", Value: 0xaa, Access: trace.Write},
				},
			},
		}
		o := power.NewReplayOracle(arch.V7M{}, insts)
		bank := o.RegBankState(1)
		Expect(bank[5]).To(Equal(uint64(0xaa)))
		for n, v := range bank {
			if n != 5 {
				Expect(v).To(BeZero(), "register %d", n)
			}
		}
	})
})
