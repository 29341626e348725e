package engine

import (
	"fmt"

	"chainboy/cartridge"
	"chainboy/persist"
)

type SessionKind int

const (
	NoCartridge SessionKind = iota
	CartridgeSelected
	Playing
)

var sessionKindNames = [...]string{
	NoCartridge:       "noCartridge",
	CartridgeSelected: "cartridgeSelected",
	Playing:           "playing",
}

func (k SessionKind) String() string {
	if k < 0 || int(k) >= len(sessionKindNames) {
		return fmt.Sprintf("SessionKind(%d)", int(k))
	}
	return sessionKindNames[k]
}

func (k SessionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// SessionState carries the cartridge in every kind except NoCartridge.
type SessionState struct {
	Kind      SessionKind
	Cartridge *cartridge.Image
}

func (s SessionState) String() string {
	if s.Cartridge == nil {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Cartridge.Name())
}

type UploadKind int

const (
	UploadIdle UploadKind = iota
	UploadInFlight
	UploadSucceeded
	UploadFailed
)

var uploadKindNames = [...]string{
	UploadIdle:      "idle",
	UploadInFlight:  "inFlight",
	UploadSucceeded: "succeeded",
	UploadFailed:    "failed",
}

func (k UploadKind) String() string {
	if k < 0 || int(k) >= len(uploadKindNames) {
		return fmt.Sprintf("UploadKind(%d)", int(k))
	}
	return uploadKindNames[k]
}

func (k UploadKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UploadStatus is the outcome of the last save attempt. TransactionID is set only when
// Succeeded, Reason only when Failed.
type UploadStatus struct {
	Kind          UploadKind
	TransactionID persist.TransactionID
	Reason        string
}

func Idle() UploadStatus     { return UploadStatus{Kind: UploadIdle} }
func InFlight() UploadStatus { return UploadStatus{Kind: UploadInFlight} }

func Succeeded(tx persist.TransactionID) UploadStatus {
	return UploadStatus{Kind: UploadSucceeded, TransactionID: tx}
}

func Failed(reason string) UploadStatus {
	return UploadStatus{Kind: UploadFailed, Reason: reason}
}

func (u UploadStatus) String() string {
	switch u.Kind {
	case UploadSucceeded:
		return fmt.Sprintf("%s(%s)", u.Kind, u.TransactionID)
	case UploadFailed:
		return fmt.Sprintf("%s(%q)", u.Kind, u.Reason)
	default:
		return u.Kind.String()
	}
}

// Status is a consistent snapshot of everything the controller shows the user.
//
// Starting and Uploading report the capability locks. They can stay set after a cartridge swap
// until the call made for the previous cartridge returns, and while set the matching action is
// refused.
type Status struct {
	Session SessionState
	Upload  UploadStatus
	Message string

	Starting  bool
	Uploading bool
}
