// Package emulator describes the emulator session capability the controller drives, and keeps a
// registry of the drivers that can provide one.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// SaveBlob is captured emulator state. Only the session that produced it knows its layout.
type SaveBlob []byte

// Session is the emulator capability. Either call may block.
type Session interface {
	// Start boots rom. false means the input was rejected and no session exists.
	Start(ctx context.Context, rom []byte) (bool, error)
	// CaptureState snapshots the running game. ok is false when there is nothing to capture;
	// that is not an error.
	CaptureState(ctx context.Context) (blob SaveBlob, ok bool, err error)
}

type Driver interface {
	Open() (Session, error)
}

// DriverDescriptor is optionally implemented by drivers to describe themselves to the user.
type DriverDescriptor interface {
	DisplayName() string
	DisplayDescription() string
}

var ErrUnknownDriver = errors.New("emulator: unknown driver")

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes an emulator driver available by the provided name.
// If Register is called twice with the same name or if driver is nil,
// it panics.
func Register(name string, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("emulator: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("emulator: Register called twice for driver " + name)
	}
	drivers[name] = driver
}

func unregisterAllDrivers() {
	driversMu.Lock()
	defer driversMu.Unlock()
	// For tests.
	drivers = make(map[string]Driver)
}

// Drivers returns a sorted list of the names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]string, 0, len(drivers))
	for name := range drivers {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

func DriverByName(name string) (Driver, bool) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	return d, ok
}

func Open(driverName string) (Session, error) {
	driver, ok := DriverByName(driverName)
	if !ok {
		return nil, fmt.Errorf("%w %q (forgotten import?)", ErrUnknownDriver, driverName)
	}

	return driver.Open()
}
