package unicorn

import "github.com/davecgh/go-spew/spew"

// dumpConfig renders Node/Model structures compactly: pointer addresses
// are noise for a debug dump of a hash-consed graph, and the Arena's
// own nid already identifies a Node uniquely.
var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// DumpString renders id's Node in full structural detail, for
// inspecting a single BVG node during debugging. The CLI's -v output
// uses Model.Dump, not this.
func (a *Arena) DumpString(id Id) string {
	return dumpConfig.Sdump(a.Node(id))
}

// Dump renders every architectural state of a Model: registers, PC
// flags, memory/brk/halt state, and declared Bad predicates.
func (m *Model) Dump() string {
	return dumpConfig.Sdump(struct {
		Registers [32]Id
		PCFlags   map[uint64]Id
		HaltFlag  Id
		Memory    Id
		Brk       Id
		Fd        Id
		Bad       []Id
		Inputs    []Id
		EntryAddr uint64
	}{
		Registers: m.Registers,
		PCFlags:   m.PCFlags,
		HaltFlag:  m.HaltFlag,
		Memory:    m.Memory,
		Brk:       m.Brk,
		Fd:        m.Fd,
		Bad:       m.Bad,
		Inputs:    m.Inputs,
		EntryAddr: m.EntryAddr,
	})
}
