// Package persist describes the remote persistence capability that accepts save records, and keeps
// a registry of drivers that provide it.
package persist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"chainboy/emulator"
)

// TransactionID is the opaque token a successful upload returns.
type TransactionID string

// Record is what gets uploaded. Build it with NewRecord and do not modify it afterwards.
type Record struct {
	Title      string            `json:"gameTitle"`
	State      emulator.SaveBlob `json:"saveState"`
	CapturedAt time.Time         `json:"timestamp"`
	Platform   string            `json:"platform"`
}

func NewRecord(title string, state emulator.SaveBlob, capturedAt time.Time, platform string) Record {
	blob := make(emulator.SaveBlob, len(state))
	copy(blob, state)
	return Record{
		Title:      title,
		State:      blob,
		CapturedAt: capturedAt.UTC(),
		Platform:   platform,
	}
}

// Persister uploads records. Errors carry a message fit for showing to the user.
type Persister interface {
	Upload(ctx context.Context, record Record) (TransactionID, error)
}

// StoreFunc accepts a record on behalf of a device. Vault servers are built around one.
type StoreFunc func(ctx context.Context, deviceID string, record Record) (TransactionID, error)

// Config is handed to a driver when it is opened. Drivers ignore fields they have no use for.
type Config struct {
	// Endpoint is a base URL, a gRPC target or a database path depending on the driver.
	Endpoint string
	DeviceID string
	// Timeout bounds a single request made by the driver itself.
	Timeout time.Duration
	// Delay is the artificial latency of the mock driver.
	Delay time.Duration
}

type Driver interface {
	Open(cfg Config) (Persister, error)
}

// DriverDescriptor is optionally implemented by drivers to describe themselves to the user.
type DriverDescriptor interface {
	DisplayName() string
	DisplayDescription() string
}

var ErrUnknownDriver = errors.New("persist: unknown driver")

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a persistence driver available by the provided name.
// If Register is called twice with the same name or if driver is nil,
// it panics.
func Register(name string, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("persist: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("persist: Register called twice for driver " + name)
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

func Open(driverName string, cfg Config) (Persister, error) {
	driver, ok := DriverByName(driverName)
	if !ok {
		return nil, fmt.Errorf("%w %q (forgotten import?)", ErrUnknownDriver, driverName)
	}

	return driver.Open(cfg)
}
