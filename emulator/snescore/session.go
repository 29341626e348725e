package snescore

import (
	"context"
	"sync"

	"github.com/alttpo/snes/emulator"
	"github.com/charmbracelet/log"

	emu "chainboy/emulator"
	"chainboy/snes"
)

const (
	// the last byte of the bank 0 vector table; code never executes there so RunUntil just
	// burns the cycle budget:
	unreachablePC = 0x00_FFFF
	bootCycles    = 0x8000
)

type Session struct {
	mu sync.Mutex

	system *emulator.System
	rom    *snes.ROM

	log *log.Logger
}

func NewSession() *Session {
	return &Session{log: log.Default().WithPrefix("snescore")}
}

func (s *Session) Start(ctx context.Context, contents []byte) (ok bool, err error) {
	rom, err := snes.NewROM(contents)
	if err != nil {
		s.log.Warn("start: rejected ROM", "err", err)
		return false, nil
	}

	system := &emulator.System{}
	if len(contents) > len(system.ROM) {
		s.log.Warn("start: rejected ROM", "size", len(contents))
		return false, nil
	}
	if err = ctx.Err(); err != nil {
		return false, err
	}

	if err = system.CreateEmulator(); err != nil {
		return false, err
	}
	copy(system.ROM[:], contents)

	system.CPU.Reset()
	system.RunUntil(unreachablePC, bootCycles)

	s.log.Info("start: booted",
		"title", rom.Title(),
		"region", rom.Region(),
		"version", rom.Version(),
		"pc", system.CPU.PC,
	)

	s.mu.Lock()
	s.system = system
	s.rom = rom
	s.mu.Unlock()

	return true, nil
}

// CaptureState returns WRAM followed by the cartridge's SRAM.
func (s *Session) CaptureState(_ context.Context) (emu.SaveBlob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.system == nil {
		return nil, false, nil
	}

	sramSize := int(s.rom.RAMSize())
	if sramSize > len(s.system.SRAM) {
		sramSize = len(s.system.SRAM)
	}
	if s.rom.Header.RAMSize == 0 {
		sramSize = 0
	}

	blob := make(emu.SaveBlob, 0, len(s.system.WRAM)+sramSize)
	blob = append(blob, s.system.WRAM[:]...)
	blob = append(blob, s.system.SRAM[:sramSize]...)
	return blob, true, nil
}
