package engine

import (
	"chainboy/emulator"
	"chainboy/persist"
)

// ActiveDrivers names the drivers the controller was built from.
type ActiveDrivers struct {
	Emulator    string
	Persistence string
}

// Must be JSON serializable
type DriversViewModel struct {
	active  ActiveDrivers
	isDirty bool

	Emulator    []*DriverViewModel `json:"emulator"`
	Persistence []*DriverViewModel `json:"persistence"`
}

type DriverViewModel struct {
	Name string `json:"name"`

	DisplayName        string `json:"displayName"`
	DisplayDescription string `json:"displayDescription"`

	IsActive bool `json:"isActive"`
}

type descriptor interface {
	DisplayName() string
	DisplayDescription() string
}

func NewDriversViewModel(active ActiveDrivers) *DriversViewModel {
	return &DriversViewModel{active: active, isDirty: true}
}

func (v *DriversViewModel) Init() {
	names := emulator.Drivers()
	v.Emulator = make([]*DriverViewModel, 0, len(names))
	for _, name := range names {
		d, _ := emulator.DriverByName(name)
		v.Emulator = append(v.Emulator, newDriverViewModel(name, d, name == v.active.Emulator))
	}

	names = persist.Drivers()
	v.Persistence = make([]*DriverViewModel, 0, len(names))
	for _, name := range names {
		d, _ := persist.DriverByName(name)
		v.Persistence = append(v.Persistence, newDriverViewModel(name, d, name == v.active.Persistence))
	}

	v.isDirty = true
}

func newDriverViewModel(name string, driver interface{}, active bool) *DriverViewModel {
	dvm := &DriverViewModel{
		Name:     name,
		IsActive: active,
	}
	if d, ok := driver.(descriptor); ok {
		dvm.DisplayName = d.DisplayName()
		dvm.DisplayDescription = d.DisplayDescription()
	} else {
		dvm.DisplayName = name
		dvm.DisplayDescription = name + " driver"
	}
	return dvm
}

func (v *DriversViewModel) IsDirty() bool { return v.isDirty }
func (v *DriversViewModel) ClearDirty()   { v.isDirty = false }
func (v *DriversViewModel) MarkDirty()    { v.isDirty = true }
