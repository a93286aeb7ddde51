package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsiss/insts"
	"github.com/sarchlab/mipsiss/timing/latency"
)

var _ = Describe("Latency", func() {
	var (
		table   *latency.Table
		decoder *insts.Decoder
	)

	BeforeEach(func() {
		table = latency.NewTable()
		decoder = insts.NewDecoder()
	})

	Describe("Default Timing Values", func() {
		It("should have correct ALU latency", func() {
			Expect(table.Config().ALULatency).To(Equal(uint64(1)))
		})

		It("should have correct multiply and divide latencies", func() {
			Expect(table.Config().MultiplyLatency).To(Equal(uint64(3)))
			Expect(table.Config().DivideLatency).To(Equal(uint64(17)))
		})

		It("should have correct memory latencies", func() {
			Expect(table.Config().CacheHitLatency).To(Equal(uint64(1)))
			Expect(table.Config().MemoryLatency).To(Equal(uint64(20)))
			Expect(table.Config().DeviceLatency).To(Equal(uint64(4)))
		})
	})

	Describe("Instruction Latencies", func() {
		It("should return 1 cycle for ADDIU", func() {
			// ADDIU $2, $2, 1 -> 0x24420001
			Expect(table.GetLatency(decoder.Decode(0x24420001))).To(Equal(uint64(1)))
		})

		It("should return 1 cycle for ADDU", func() {
			// ADDU $3, $1, $2 -> 0x00221821
			Expect(table.GetLatency(decoder.Decode(0x00221821))).To(Equal(uint64(1)))
		})

		It("should return MultiplyLatency for MULT and MUL", func() {
			// MULT $2, $3 -> 0x00430018
			Expect(table.GetLatency(decoder.Decode(0x00430018))).To(Equal(uint64(3)))
			// MUL $8, $2, $3 -> 0x70434002
			Expect(table.GetLatency(decoder.Decode(0x70434002))).To(Equal(uint64(3)))
		})

		It("should return DivideLatency for DIV", func() {
			// DIV $3, $2 -> 0x0062001a
			Expect(table.GetLatency(decoder.Decode(0x0062001a))).To(Equal(uint64(17)))
		})

		It("should return BranchLatency for branches", func() {
			// BEQ $1, $2, 3 -> 0x10220003
			inst := decoder.Decode(0x10220003)
			Expect(table.IsBranchOp(inst)).To(BeTrue())
			Expect(table.GetLatency(inst)).To(Equal(uint64(1)))
		})

		It("should classify loads and stores", func() {
			// LW $4, 8($29) -> 0x8FA40008
			lw := decoder.Decode(0x8FA40008)
			// SW $4, -4($29) -> 0xAFA4FFFC
			sw := decoder.Decode(0xAFA4FFFC)

			Expect(table.IsLoadOp(lw)).To(BeTrue())
			Expect(table.IsStoreOp(sw)).To(BeTrue())
			Expect(table.IsMemoryOp(lw)).To(BeTrue())
			Expect(table.IsMemoryOp(sw)).To(BeTrue())
			Expect(table.IsMemoryOp(decoder.Decode(0x24420001))).To(BeFalse())
		})
	})

	Describe("Extra Cycles", func() {
		It("should charge nothing beyond issue for single-cycle ops", func() {
			Expect(table.ExtraCycles(decoder.Decode(0x24420001))).To(BeZero())
		})

		It("should charge the remaining divide latency", func() {
			Expect(table.ExtraCycles(decoder.Decode(0x0062001a))).To(Equal(uint32(16)))
		})

		It("should leave memory timing to the bus", func() {
			config := latency.DefaultTimingConfig()
			config.LoadLatency = 5
			custom := latency.NewTableWithConfig(config)

			Expect(custom.GetLatency(decoder.Decode(0x8FA40008))).To(Equal(uint64(5)))
			Expect(custom.ExtraCycles(decoder.Decode(0x8FA40008))).To(BeZero())
		})
	})

	Describe("Nil Instruction Handling", func() {
		It("should return 1 for nil instruction", func() {
			Expect(table.GetLatency(nil)).To(Equal(uint64(1)))
			Expect(table.ExtraCycles(nil)).To(BeZero())
		})

		It("should return false for nil instruction memory check", func() {
			Expect(table.IsMemoryOp(nil)).To(BeFalse())
			Expect(table.IsLoadOp(nil)).To(BeFalse())
			Expect(table.IsStoreOp(nil)).To(BeFalse())
			Expect(table.IsBranchOp(nil)).To(BeFalse())
		})
	})
})

var _ = Describe("TimingConfig", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			Expect(latency.DefaultTimingConfig().Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		It("should reject zero ALU latency", func() {
			config := latency.DefaultTimingConfig()
			config.ALULatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero divide latency", func() {
			config := latency.DefaultTimingConfig()
			config.DivideLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject a cache slower than memory", func() {
			config := latency.DefaultTimingConfig()
			config.CacheHitLatency = 50
			Expect(config.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()

			clone.ALULatency = 100

			Expect(original.ALULatency).To(Equal(uint64(1)))
			Expect(clone.ALULatency).To(Equal(uint64(100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load JSON config", func() {
			original := latency.DefaultTimingConfig()
			original.ALULatency = 5
			original.MemoryLatency = 40

			path := filepath.Join(tempDir, "timing.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ALULatency).To(Equal(uint64(5)))
			Expect(loaded.MemoryLatency).To(Equal(uint64(40)))
		})

		It("should save and load YAML config", func() {
			original := latency.DefaultTimingConfig()
			original.DivideLatency = 33

			path := filepath.Join(tempDir, "timing.yaml")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for fields missing from YAML", func() {
			path := filepath.Join(tempDir, "partial.yml")
			Expect(os.WriteFile(path, []byte("multiply_latency: 7\n"), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.MultiplyLatency).To(Equal(uint64(7)))
			Expect(loaded.MemoryLatency).To(Equal(uint64(20)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/timing.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			Expect(os.WriteFile(path, []byte("not valid json"), 0644)).To(Succeed())

			_, err := latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
