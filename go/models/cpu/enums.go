package cpu

// hook enums match Unicorn's so the unicorn backend can pass them through
const (
	// called with (Cpu, intno uint32) on every interrupt instruction
	HOOK_INTR = 1
	// called with (Cpu, addr uint64, size uint32) before each instruction
	HOOK_CODE = 4
	// called with (Cpu, access int, addr uint64, size int, val int64) bool on invalid access
	HOOK_MEM_ERR = 1008
)

// memory error kinds passed to HOOK_MEM_ERR
const (
	MEM_WRITE_PROT     = 12
	MEM_READ_PROT      = 13
	MEM_FETCH_PROT     = 14
	MEM_READ_UNMAPPED  = 19
	MEM_WRITE_UNMAPPED = 20
	MEM_FETCH_UNMAPPED = 21
)

const (
	PROT_NONE  = 0
	PROT_READ  = 1
	PROT_WRITE = 2
	PROT_EXEC  = 4
	PROT_ALL   = 7
)
