package gadget

import (
	"debug/elf"
	"fmt"

	"github.com/deathmemory/apkpatcher/internal/apk"
)

// machineFor maps target architectures to the ELF machine the payload
// must carry.
func machineFor(arch apk.Arch) (elf.Machine, bool) {
	switch arch {
	case apk.ArchARM32:
		return elf.EM_ARM, true
	case apk.ArchARM64:
		return elf.EM_AARCH64, true
	case apk.ArchX86:
		return elf.EM_386, true
	case apk.ArchX86_64:
		return elf.EM_X86_64, true
	default:
		return elf.EM_NONE, false
	}
}

// Validate checks that the payload at path really is a shared object for
// the architecture its file name resolved to. A mismatch here means the
// app would abort at load time on the device, so it is caught before any
// placement.
func Validate(path string, arch apk.Arch) error {
	want, ok := machineFor(arch)
	if !ok {
		return apk.ErrUnknownArch
	}

	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("payload %s is not a valid ELF file: %w", path, err)
	}
	defer f.Close()

	if f.Type != elf.ET_DYN {
		return fmt.Errorf("payload %s is not a shared object (type %v)", path, f.Type)
	}
	if f.Machine != want {
		return fmt.Errorf("payload %s targets %v, but its name resolves to %s", path, f.Machine, arch)
	}
	return nil
}
