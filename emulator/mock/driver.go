package mock

import "chainboy/emulator"

const driverName = "mock"

type Driver struct{}

func (d *Driver) DisplayName() string {
	return "Mock Emulator"
}

func (d *Driver) DisplayDescription() string {
	return "Pretend to run any ROM for testing the save workflow"
}

func (d *Driver) Open() (emulator.Session, error) {
	return NewSession(), nil
}

func init() {
	emulator.Register(driverName, &Driver{})
}
