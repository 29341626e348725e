package engine

import (
	"context"
	"fmt"
	"sync"

	"chainboy/interfaces"
	"chainboy/persist"
)

// SessionViewModel mirrors the controller state machines and carries the start and save commands.
type SessionViewModel struct {
	commands map[string]interfaces.Command

	root    *ViewModel
	isDirty bool
	mu      sync.Mutex

	State         SessionKind           `json:"state"`
	Cartridge     string                `json:"cartridge"`
	Upload        UploadKind            `json:"upload"`
	TransactionID persist.TransactionID `json:"transactionId,omitempty"`
	Reason        string                `json:"reason,omitempty"`
}

func NewSessionViewModel(root *ViewModel) *SessionViewModel {
	v := &SessionViewModel{root: root, isDirty: true}

	v.commands = map[string]interfaces.Command{
		"start": &sessionActionCmd{name: "start", run: root.controller.StartSession, root: root},
		"save":  &sessionActionCmd{name: "save", run: root.controller.SaveToRemote, root: root},
	}

	return v
}

func (v *SessionViewModel) Update(st Status) {
	v.mu.Lock()
	defer v.mu.Unlock()

	name := ""
	if st.Session.Cartridge != nil {
		name = st.Session.Cartridge.Name()
	}
	if v.State == st.Session.Kind && v.Cartridge == name && v.Upload == st.Upload.Kind &&
		v.TransactionID == st.Upload.TransactionID && v.Reason == st.Upload.Reason {
		return
	}

	v.State = st.Session.Kind
	v.Cartridge = name
	v.Upload = st.Upload.Kind
	v.TransactionID = st.Upload.TransactionID
	v.Reason = st.Upload.Reason
	v.isDirty = true
}

func (v *SessionViewModel) IsDirty() bool { return v.isDirty }
func (v *SessionViewModel) ClearDirty()   { v.isDirty = false }
func (v *SessionViewModel) MarkDirty()    { v.isDirty = true }

func (v *SessionViewModel) CommandFor(command string) (ce interfaces.Command, err error) {
	var ok bool
	ce, ok = v.commands[command]
	if !ok {
		err = fmt.Errorf("no command '%s' found", command)
	}
	return
}

// Commands

type sessionActionCmd struct {
	name string
	run  func(ctx context.Context)
	root *ViewModel
}

func (c *sessionActionCmd) CreateArgs() interfaces.CommandArgs { return nil }

// Execute returns immediately; the controller reports progress through status updates.
func (c *sessionActionCmd) Execute(_ interfaces.CommandArgs) error {
	c.root.goAction(c.name, c.run)
	return nil
}
