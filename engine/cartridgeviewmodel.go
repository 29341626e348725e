package engine

import (
	"fmt"
	"sync"

	"chainboy/cartridge"
	"chainboy/interfaces"
	"chainboy/snes"
)

type CartridgeViewModel struct {
	commands map[string]interfaces.Command

	root    *ViewModel
	isDirty bool

	mu          sync.Mutex
	pendingName string
	header      *snes.ROM
	headerFor   *cartridge.Image

	// public fields for JSON:
	IsSelected bool     `json:"isSelected"`
	Name       string   `json:"name"` // filename loaded from (no path)
	Title      string   `json:"title"`
	Region     string   `json:"region"`
	Version    string   `json:"version"`
	Extensions []string `json:"extensions"`
}

func NewCartridgeViewModel(root *ViewModel) *CartridgeViewModel {
	v := &CartridgeViewModel{
		root:       root,
		isDirty:    true,
		Extensions: cartridge.Extensions,
	}

	v.commands = map[string]interfaces.Command{
		"name": &CartridgeNameCommand{v},
		"data": &CartridgeDataCommand{v},
	}

	return v
}

func (v *CartridgeViewModel) Update(st Status) {
	v.mu.Lock()
	defer v.mu.Unlock()

	img := st.Session.Cartridge
	name, title, region, version := "", "", "", ""
	if img != nil {
		name = img.Name()
		// header details are only known for images that came through the data command:
		if img == v.headerFor && v.header != nil {
			title = v.header.Title()
			region = v.header.Region()
			version = v.header.Version()
		}
	}

	if v.IsSelected == (img != nil) && v.Name == name && v.Title == title && v.Region == region && v.Version == version {
		return
	}
	v.IsSelected = img != nil
	v.Name = name
	v.Title = title
	v.Region = region
	v.Version = version
	v.isDirty = true
}

func (v *CartridgeViewModel) IsDirty() bool { return v.isDirty }
func (v *CartridgeViewModel) ClearDirty()   { v.isDirty = false }
func (v *CartridgeViewModel) MarkDirty()    { v.isDirty = true }

func (v *CartridgeViewModel) CommandFor(command string) (ce interfaces.Command, err error) {
	var ok bool
	ce, ok = v.commands[command]
	if !ok {
		err = fmt.Errorf("no command '%s' found", command)
	}
	return
}

// Commands:

// CartridgeNameCommand announces the file name ahead of the binary data command.
type CartridgeNameCommand struct{ v *CartridgeViewModel }

type CartridgeNameCommandArgs struct {
	Name string `json:"name"`
}

func (ce *CartridgeNameCommand) CreateArgs() interfaces.CommandArgs {
	return &CartridgeNameCommandArgs{}
}
func (ce *CartridgeNameCommand) Execute(args interfaces.CommandArgs) error {
	a, ok := args.(*CartridgeNameCommandArgs)
	if !ok {
		return fmt.Errorf("command args not of expected type")
	}
	return ce.v.NameProvided(a.Name)
}

func (v *CartridgeViewModel) NameProvided(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pendingName = name
	return nil
}

type CartridgeDataCommand struct{ v *CartridgeViewModel }

func (ce *CartridgeDataCommand) CreateArgs() interfaces.CommandArgs {
	panic("this is a binary command")
}
func (ce *CartridgeDataCommand) Execute(args interfaces.CommandArgs) error {
	data, ok := args.([]byte)
	if !ok {
		return fmt.Errorf("command args not of expected type")
	}
	return ce.v.DataProvided(data)
}

// DataProvided selects the uploaded image. An SNES header is parsed when there is one so the view
// can show the internal title; anything else is still selected as is.
func (v *CartridgeViewModel) DataProvided(data []byte) error {
	v.mu.Lock()
	name := v.pendingName
	v.pendingName = ""
	v.mu.Unlock()

	rom, err := snes.NewROM(data)
	if err != nil {
		v.root.log.Debug("no snes header", "name", name, "err", err)
		rom = nil
	}

	if err = v.root.controller.SelectFile(cartridge.Bytes(name, data)); err != nil {
		return err
	}

	v.mu.Lock()
	v.header = rom
	v.headerFor = v.root.controller.Status().Session.Cartridge
	v.mu.Unlock()

	v.root.UpdateAndNotifyView()
	return nil
}
