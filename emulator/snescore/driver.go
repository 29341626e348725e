// Package snescore runs cartridges on the CPU-only SNES core from github.com/alttpo/snes.
package snescore

import "chainboy/emulator"

const driverName = "snes"

type Driver struct{}

func (d *Driver) DisplayName() string {
	return "SNES core"
}

func (d *Driver) DisplayDescription() string {
	return "In-process 65C816 core with LoROM mapping; captures WRAM and SRAM"
}

func (d *Driver) Open() (emulator.Session, error) {
	return NewSession(), nil
}

func init() {
	emulator.Register(driverName, &Driver{})
}
