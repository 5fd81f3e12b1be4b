// Package elf loads a RISC-V rv64im ELF executable into the raw
// inputs builder.Build expects: an entry address, the code bytes of
// the text segment, its load address, and the full list of loaded
// program segments used to seed initial memory.
package elf

import (
	"debug/elf"
	"fmt"

	unicorn "github.com/cksystemsgroup/unicorn-go"
)

// Load reads path, verifies it targets 64-bit RISC-V, and returns its
// entry point, the bytes of the first executable (PF_X) segment
// together with its load address, and every PT_LOAD segment's
// (address, data) pair for initial memory seeding.
func Load(path string) (entry uint64, code []byte, codeBase uint64, segments []unicorn.Segment, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, nil, 0, nil, fmt.Errorf("elf: open %s: %w", path, err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS64 {
		return 0, nil, 0, nil, fmt.Errorf("elf: %s is not a 64-bit ELF: %w", path, unicorn.ErrParse)
	}
	if f.Machine != elf.EM_RISCV {
		return 0, nil, 0, nil, fmt.Errorf("elf: %s is not a RISC-V ELF (machine=%v): %w", path, f.Machine, unicorn.ErrParse)
	}

	foundCode := false
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Filesz)
		if len(data) > 0 {
			if _, err := prog.ReadAt(data, 0); err != nil {
				return 0, nil, 0, nil, fmt.Errorf("elf: reading segment at %#x: %w", prog.Vaddr, err)
			}
		}
		segments = append(segments, unicorn.Segment{Addr: prog.Vaddr, Data: data})

		if prog.Flags&elf.PF_X != 0 && !foundCode {
			code = data
			codeBase = prog.Vaddr
			foundCode = true
		}
	}
	if !foundCode {
		return 0, nil, 0, nil, fmt.Errorf("elf: %s has no executable (PF_X) segment: %w", path, unicorn.ErrParse)
	}

	return f.Entry, code, codeBase, segments, nil
}
