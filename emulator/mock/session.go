package mock

import (
	"context"
	"sync"
	"time"

	"chainboy/emulator"
)

// MinROMSize is the size of a GBA cartridge header; anything shorter is rejected.
const MinROMSize = 0xC0

// frame counter lives here in wram, as on the SNES:
const frameCounterAddr = 0x1A

type Session struct {
	mu sync.Mutex

	rom  []byte
	wram [0x2000]byte

	frameTicker *time.Ticker
	stop        chan struct{}
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Start(_ context.Context, rom []byte) (bool, error) {
	if len(rom) < MinROMSize {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTicker()

	s.rom = make([]byte, len(rom))
	copy(s.rom, rom)
	s.wram = [0x2000]byte{}
	// seed wram with the cartridge title so captures differ between ROMs:
	copy(s.wram[0x100:], rom[0xA0:0xAC])

	s.frameTicker = time.NewTicker(16_639_265 * time.Nanosecond)
	s.stop = make(chan struct{})
	go s.tick(s.frameTicker, s.stop)

	return true, nil
}

func (s *Session) tick(ticker *time.Ticker, stop <-chan struct{}) {
	// ~60.0988 frames / sec:
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.wram[frameCounterAddr]++
			s.mu.Unlock()
		case <-stop:
			return
		}
	}
}

func (s *Session) CaptureState(_ context.Context) (emulator.SaveBlob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rom == nil {
		return nil, false, nil
	}

	blob := make(emulator.SaveBlob, len(s.wram))
	copy(blob, s.wram[:])
	return blob, true, nil
}

func (s *Session) stopTicker() {
	if s.frameTicker == nil {
		return
	}
	s.frameTicker.Stop()
	close(s.stop)
	s.frameTicker = nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTicker()
	s.rom = nil
	return nil
}
