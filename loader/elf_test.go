package loader_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsiss/loader"
)

// testSegment describes one PT_LOAD entry of a generated ELF.
type testSegment struct {
	vaddr   uint32
	flags   uint32
	data    []byte
	memSize uint32
}

// buildELF32 assembles a minimal ELF32 executable.
func buildELF32(order binary.ByteOrder, machine uint16, entry uint32, segs ...testSegment) []byte {
	const (
		ehsize    = 52
		phentsize = 32
	)

	var buf bytes.Buffer
	header := make([]byte, ehsize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1 // ELFCLASS32
	header[5] = 1 // little endian
	if order == binary.BigEndian {
		header[5] = 2
	}
	header[6] = 1 // version

	// ET_EXEC, program headers right after the file header.
	order.PutUint16(header[16:18], 2)
	order.PutUint16(header[18:20], machine)
	order.PutUint32(header[20:24], 1)
	order.PutUint32(header[24:28], entry)
	order.PutUint32(header[28:32], ehsize)
	order.PutUint16(header[40:42], ehsize)
	order.PutUint16(header[42:44], phentsize)
	order.PutUint16(header[44:46], uint16(len(segs)))
	buf.Write(header)

	offset := uint32(ehsize + phentsize*len(segs))
	for _, s := range segs {
		ph := make([]byte, phentsize)
		memSize := s.memSize
		if memSize == 0 {
			memSize = uint32(len(s.data))
		}
		order.PutUint32(ph[0:4], 1) // PT_LOAD
		order.PutUint32(ph[4:8], offset)
		order.PutUint32(ph[8:12], s.vaddr)
		order.PutUint32(ph[12:16], s.vaddr)
		order.PutUint32(ph[16:20], uint32(len(s.data)))
		order.PutUint32(ph[20:24], memSize)
		order.PutUint32(ph[24:28], s.flags)
		order.PutUint32(ph[28:32], 0x1000)
		buf.Write(ph)
		offset += uint32(len(s.data))
	}
	for _, s := range segs {
		buf.Write(s.data)
	}
	return buf.Bytes()
}

const (
	emMIPS = 8
	emX86  = 62
	pfRX   = 0x5
	pfRW   = 0x6
)

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	write := func(name string, data []byte) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, data, 0644)).To(Succeed())
		return path
	}

	// addiu $2, $0, 42; jr $31; nop
	code := []byte{
		0x2a, 0x00, 0x02, 0x24,
		0x08, 0x00, 0xe0, 0x03,
		0x00, 0x00, 0x00, 0x00,
	}

	Describe("Load", func() {
		Context("with a little-endian MIPS32 ELF", func() {
			var path string

			BeforeEach(func() {
				path = write("le.elf", buildELF32(binary.LittleEndian, emMIPS, 0x80000010,
					testSegment{vaddr: 0x80000000, flags: pfRX, data: code}))
			})

			It("should load without error", func() {
				prog, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog).NotTo(BeNil())
			})

			It("should extract the entry point and byte order", func() {
				prog, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x80000010)))
				Expect(prog.LittleEndian).To(BeTrue())
			})

			It("should read segment contents and permissions", func() {
				prog, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.VirtAddr).To(Equal(uint32(0x80000000)))
				Expect(seg.Data).To(Equal(code))
				Expect(seg.MemSize).To(Equal(uint32(len(code))))
				Expect(seg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagWrite).To(BeZero())
			})
		})

		Context("with a big-endian MIPS32 ELF", func() {
			It("should report the byte order", func() {
				path := write("be.elf", buildELF32(binary.BigEndian, emMIPS, 0xbfc00000,
					testSegment{vaddr: 0xbfc00000, flags: pfRX, data: code}))

				prog, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.LittleEndian).To(BeFalse())
				Expect(prog.EntryPoint).To(Equal(uint32(0xbfc00000)))
			})
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				_, err := loader.Load(write("not-elf.bin", []byte("not an elf file")))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("ELF"))
			})

			It("should return error for empty file", func() {
				_, err := loader.Load(write("empty.elf", nil))
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a foreign machine", func() {
			It("should reject non-MIPS ELF files", func() {
				path := write("x86.elf", buildELF32(binary.LittleEndian, emX86, 0))

				_, err := loader.Load(path)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a MIPS"))
			})

			It("should reject 64-bit ELF files", func() {
				header := make([]byte, 64)
				copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
				header[4] = 2 // ELFCLASS64
				header[5] = 1
				header[6] = 1
				binary.LittleEndian.PutUint16(header[16:18], 2)
				binary.LittleEndian.PutUint16(header[18:20], emMIPS)
				binary.LittleEndian.PutUint32(header[20:24], 1)
				binary.LittleEndian.PutUint16(header[52:54], 64)
				binary.LittleEndian.PutUint16(header[54:56], 56)

				_, err := loader.Load(write("elf64.elf", header))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a 32-bit"))
			})
		})
	})

	Describe("Multi-segment ELFs", func() {
		It("should load every PT_LOAD segment", func() {
			data := []byte{0x01, 0x02, 0x03, 0x04}
			image := buildELF32(binary.LittleEndian, emMIPS, 0x80000000,
				testSegment{vaddr: 0x80000000, flags: pfRX, data: code},
				testSegment{vaddr: 0x80010000, flags: pfRW, data: data, memSize: 0x100})

			prog, err := loader.LoadReader(bytes.NewReader(image))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))

			dataSeg := prog.Segments[1]
			Expect(dataSeg.VirtAddr).To(Equal(uint32(0x80010000)))
			Expect(dataSeg.Data).To(Equal(data))
			Expect(dataSeg.MemSize).To(Equal(uint32(0x100)))
			Expect(dataSeg.Flags & loader.SegmentFlagWrite).NotTo(BeZero())
		})

		It("should return an empty list when nothing is loadable", func() {
			prog, err := loader.LoadReader(bytes.NewReader(
				buildELF32(binary.LittleEndian, emMIPS, 0x80000000)))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(BeEmpty())
		})
	})
})
