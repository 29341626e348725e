package snes

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"
)

const (
	headerOffset = uint32(0x007FB0)
	headerSize   = 0x50

	// MinROMSize is the smallest image that can hold a LoROM header.
	MinROMSize = 0x8000
)

type ROM struct {
	Contents []byte

	HeaderOffset    uint32
	Header          Header
	NativeVectors   NativeVectors
	EmulatedVectors EmulatedVectors
}

// $FFB0
type Header struct {
	MakerCode          uint16
	GameCode           uint32
	Fixed1             [7]byte
	ExpansionRAMSize   byte
	SpecialVersion     byte
	CartridgeSubType   byte
	Title              [21]byte
	MapMode            byte
	CartridgeType      byte
	ROMSize            byte
	RAMSize            byte
	DestinationCode    byte
	Fixed2             byte
	MaskROMVersion     byte
	ComplementCheckSum uint16
	CheckSum           uint16
}

type NativeVectors struct {
	Unused1 [4]byte
	COP     uint16
	BRK     uint16
	ABORT   uint16
	NMI     uint16
	Unused2 uint16
	IRQ     uint16
}

type EmulatedVectors struct {
	Unused1 [4]byte
	COP     uint16
	Unused2 uint16
	ABORT   uint16
	NMI     uint16
	RESET   uint16
	IRQBRK  uint16
}

var RegionNames = map[byte]string{
	0x00: "Japan",
	0x01: "North America",
	0x02: "Europe",
	0x03: "Sweden",
	0x04: "Finland",
	0x05: "Denmark",
	0x06: "France",
	0x07: "Netherlands",
	0x08: "Spain",
	0x09: "Germany",
	0x0A: "Italy",
	0x0B: "China",
	0x0C: "Indonesia",
	0x0D: "Korea",
}

func NewROM(contents []byte) (r *ROM, err error) {
	if len(contents) < MinROMSize {
		return nil, fmt.Errorf("ROM file not big enough to contain SNES header")
	}

	r = &ROM{
		Contents:     contents,
		HeaderOffset: headerOffset,
	}

	// Read SNES header:
	b := bytes.NewReader(contents[headerOffset : headerOffset+headerSize])
	err = readBinaryStruct(b, &r.Header)
	if err != nil {
		return
	}
	err = readBinaryStruct(b, &r.NativeVectors)
	if err != nil {
		return
	}
	err = readBinaryStruct(b, &r.EmulatedVectors)
	if err != nil {
		return
	}

	if r.EmulatedVectors.RESET < 0x8000 {
		// LoROM code lives in the upper half of each bank; anything else cannot boot:
		return nil, fmt.Errorf("ROM has invalid RESET vector $%04x", r.EmulatedVectors.RESET)
	}

	return
}

func readBinaryStruct(b *bytes.Reader, into interface{}) (err error) {
	hv := reflect.ValueOf(into).Elem()
	for i := 0; i < hv.NumField(); i++ {
		f := hv.Field(i)
		if !f.CanAddr() {
			panic(fmt.Errorf("error handling struct field %s of type %s; cannot take address of field", hv.Type().Field(i).Name, hv.Type().Name()))
		}

		err = binary.Read(b, binary.LittleEndian, f.Addr().Interface())
		if err != nil {
			return fmt.Errorf("error reading struct field %s of type %s: %w", hv.Type().Field(i).Name, hv.Type().Name(), err)
		}
	}
	return
}

// Title is the header title with the space padding removed.
func (r *ROM) Title() string {
	return strings.TrimRight(string(r.Header.Title[:]), " \x00")
}

func (r *ROM) Region() string {
	name, ok := RegionNames[r.Header.DestinationCode]
	if !ok {
		return fmt.Sprintf("unknown (code %02X)", r.Header.DestinationCode)
	}
	return name
}

func (r *ROM) Version() string {
	return fmt.Sprintf("1.%d", r.Header.MaskROMVersion)
}

func (r *ROM) ROMSize() uint32 {
	return 1024 << r.Header.ROMSize
}

func (r *ROM) RAMSize() uint32 {
	return 1024 << r.Header.RAMSize
}
