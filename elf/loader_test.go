package elf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	unicorn "github.com/cksystemsgroup/unicorn-go"
)

// buildMinimalRISCV64ELF hand-assembles the smallest valid 64-bit
// RISC-V ELF with a single PT_LOAD, PF_X segment containing code, so
// Load can be exercised without a real toolchain-produced binary.
func buildMinimalRISCV64ELF(t *testing.T, entry, vaddr uint64, code []byte) []byte {
	t.Helper()
	const ehdrSize = 64
	const phdrSize = 56

	var buf bytes.Buffer

	ident := [16]byte{0x7f, 'E', 'L', 'F', 2 /* ELFCLASS64 */, 1 /* LSB */, 1 /* EV_CURRENT */}
	buf.Write(ident[:])
	binary.Write(&buf, binary.LittleEndian, uint16(2))   // e_type = ET_EXEC
	binary.Write(&buf, binary.LittleEndian, uint16(243)) // e_machine = EM_RISCV
	binary.Write(&buf, binary.LittleEndian, uint32(1))   // e_version
	binary.Write(&buf, binary.LittleEndian, entry)
	binary.Write(&buf, binary.LittleEndian, uint64(ehdrSize)) // e_phoff
	binary.Write(&buf, binary.LittleEndian, uint64(0))        // e_shoff
	binary.Write(&buf, binary.LittleEndian, uint32(0))        // e_flags
	binary.Write(&buf, binary.LittleEndian, uint16(ehdrSize))
	binary.Write(&buf, binary.LittleEndian, uint16(phdrSize))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // e_phnum
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // e_shentsize
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // e_shnum
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // e_shstrndx

	offset := uint64(ehdrSize + phdrSize)
	binary.Write(&buf, binary.LittleEndian, uint32(1))          // p_type = PT_LOAD
	binary.Write(&buf, binary.LittleEndian, uint32(1|4))        // p_flags = PF_X|PF_R
	binary.Write(&buf, binary.LittleEndian, offset)             // p_offset
	binary.Write(&buf, binary.LittleEndian, vaddr)               // p_vaddr
	binary.Write(&buf, binary.LittleEndian, vaddr)               // p_paddr
	binary.Write(&buf, binary.LittleEndian, uint64(len(code)))  // p_filesz
	binary.Write(&buf, binary.LittleEndian, uint64(len(code)))  // p_memsz
	binary.Write(&buf, binary.LittleEndian, uint64(4096))       // p_align

	buf.Write(code)
	return buf.Bytes()
}

func TestLoadParsesEntryCodeAndSegments(t *testing.T) {
	code := []byte{0x13, 0x00, 0x00, 0x00, 0x13, 0x00, 0x00, 0x00} // two nops (addi x0,x0,0)
	const vaddr = 0x10000
	const entry = vaddr

	raw := buildMinimalRISCV64ELF(t, entry, vaddr, code)

	path := filepath.Join(t.TempDir(), "test.elf")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	gotEntry, gotCode, gotBase, segs, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotEntry != entry {
		t.Errorf("entry = %#x, want %#x", gotEntry, entry)
	}
	if gotBase != vaddr {
		t.Errorf("codeBase = %#x, want %#x", gotBase, vaddr)
	}
	if !bytes.Equal(gotCode, code) {
		t.Errorf("code = %x, want %x", gotCode, code)
	}
	if len(segs) != 1 || segs[0].Addr != vaddr || !bytes.Equal(segs[0].Data, code) {
		t.Errorf("segments = %+v, want one segment at %#x with the code bytes", segs, vaddr)
	}
}

func TestLoadRejectsWrongMachine(t *testing.T) {
	code := []byte{0x13, 0x00, 0x00, 0x00}
	raw := buildMinimalRISCV64ELF(t, 0x1000, 0x1000, code)
	raw[18] = 0x3e // e_machine low byte -> EM_X86_64, not EM_RISCV

	path := filepath.Join(t.TempDir(), "wrong.elf")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, _, _, _, err := Load(path)
	if err == nil {
		t.Fatal("Load: expected an error for a non-RISC-V ELF, got nil")
	}
	if !errors.Is(err, unicorn.ErrParse) {
		t.Errorf("Load: error %v does not wrap unicorn.ErrParse", err)
	}
}

func TestLoadRejectsMissingExecutableSegment(t *testing.T) {
	const ehdrSize = 64
	raw := buildMinimalRISCV64ELF(t, 0x1000, 0x1000, nil)
	// Clear PF_X on the lone program header so Load finds no code segment.
	raw[ehdrSize+4] &^= 1

	path := filepath.Join(t.TempDir(), "nocode.elf")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, _, _, _, err := Load(path)
	if err == nil {
		t.Fatal("Load: expected an error for an ELF with no PF_X segment, got nil")
	}
	if !errors.Is(err, unicorn.ErrParse) {
		t.Errorf("Load: error %v does not wrap unicorn.ErrParse", err)
	}
}
