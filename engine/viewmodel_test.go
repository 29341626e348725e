package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"chainboy/emulator"
	"chainboy/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingNotifier struct {
	mu    sync.Mutex
	views map[string][]byte
}

func (n *capturingNotifier) NotifyView(view string, viewModel interface{}) {
	b, err := json.Marshal(viewModel)
	if err != nil {
		panic(err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.views == nil {
		n.views = make(map[string][]byte)
	}
	n.views[view] = b
}

func (n *capturingNotifier) decode(t *testing.T, view string, into interface{}) {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	b, ok := n.views[view]
	require.True(t, ok, "view %q never published", view)
	require.NoError(t, json.Unmarshal(b, into))
}

func newTestViewModel(t *testing.T, emu *stubSession, store *stubStore) (*ViewModel, *capturingNotifier) {
	t.Helper()
	c := NewController(emu, store, WithLogger(util.NewTestingLogger(t)))
	vm := NewViewModel(context.Background(), c, ActiveDrivers{Emulator: "mock", Persistence: "mock"})
	n := &capturingNotifier{}
	vm.ProvideViewNotifier(n)
	vm.Init()
	t.Cleanup(vm.Close)
	return vm, n
}

func execute(t *testing.T, vm *ViewModel, view, command string, rawArgs string) {
	t.Helper()
	ce, err := vm.CommandFor(view, command)
	require.NoError(t, err)

	args := ce.CreateArgs()
	if args != nil && rawArgs != "" {
		require.NoError(t, json.Unmarshal([]byte(rawArgs), args))
	}
	require.NoError(t, ce.Execute(args))
}

func TestViewModel_CommandFor_Unknown(t *testing.T) {
	vm, _ := newTestViewModel(t, &stubSession{}, &stubStore{})

	_, err := vm.CommandFor("nope", "start")
	assert.Error(t, err)
	_, err = vm.CommandFor("session", "nope")
	assert.Error(t, err)
	_, err = vm.CommandFor("status", "start")
	assert.Error(t, err)
}

func TestViewModel_InitialViews(t *testing.T) {
	_, n := newTestViewModel(t, &stubSession{}, &stubStore{})

	var status StatusView
	n.decode(t, "status", &status)
	assert.False(t, status.CanStart)
	assert.False(t, status.CanSave)
	assert.Equal(t, SaveLabel, status.SaveLabel)

	var session struct {
		State  string `json:"state"`
		Upload string `json:"upload"`
	}
	n.decode(t, "session", &session)
	assert.Equal(t, "noCartridge", session.State)
	assert.Equal(t, "idle", session.Upload)

	var cart struct {
		Extensions []string `json:"extensions"`
	}
	n.decode(t, "cartridge", &cart)
	assert.Contains(t, cart.Extensions, ".gba")
}

func TestViewModel_SelectStartSave(t *testing.T) {
	emu := &stubSession{startOK: true, blob: emulator.SaveBlob{7}, captureOK: true}
	store := &stubStore{tx: "tx-123"}
	vm, n := newTestViewModel(t, emu, store)

	execute(t, vm, "cartridge", "name", `{"name":"zelda.gba"}`)
	ce, err := vm.CommandFor("cartridge", "data")
	require.NoError(t, err)
	require.NoError(t, ce.Execute([]byte{1, 2, 3, 4}))

	var cart struct {
		IsSelected bool   `json:"isSelected"`
		Name       string `json:"name"`
		Title      string `json:"title"`
	}
	n.decode(t, "cartridge", &cart)
	assert.True(t, cart.IsSelected)
	assert.Equal(t, "zelda.gba", cart.Name)
	assert.Empty(t, cart.Title)

	var status StatusView
	n.decode(t, "status", &status)
	assert.True(t, status.CanStart)
	assert.Equal(t, "zelda.gba", status.Selected)

	execute(t, vm, "session", "start", "")
	vm.Wait()
	n.decode(t, "status", &status)
	assert.True(t, status.Playing)
	assert.True(t, status.CanSave)
	assert.False(t, status.CanStart)
	assert.Equal(t, "Game started successfully!", status.Message)
	assert.Equal(t, ToneInfo, status.Tone)

	execute(t, vm, "session", "save", "")
	vm.Wait()
	n.decode(t, "status", &status)
	assert.Equal(t, ToneSuccess, status.Tone)
	assert.Contains(t, status.Message, "tx-123")

	var session struct {
		Upload        string `json:"upload"`
		TransactionID string `json:"transactionId"`
	}
	n.decode(t, "session", &session)
	assert.Equal(t, "succeeded", session.Upload)
	assert.Equal(t, "tx-123", session.TransactionID)
}

func TestViewModel_NotifyViewTo(t *testing.T) {
	vm, _ := newTestViewModel(t, &stubSession{}, &stubStore{})

	late := &capturingNotifier{}
	vm.NotifyViewTo(late)

	for _, view := range []string{"cartridge", "session", "status", "drivers"} {
		_, ok := late.views[view]
		assert.True(t, ok, view)
	}
}

func TestViewModel_Drivers(t *testing.T) {
	// driver packages are not imported here, so the lists are whatever is registered: possibly empty.
	vm, n := newTestViewModel(t, &stubSession{}, &stubStore{})

	var drivers struct {
		Emulator    []DriverViewModel `json:"emulator"`
		Persistence []DriverViewModel `json:"persistence"`
	}
	n.decode(t, "drivers", &drivers)
	assert.Len(t, drivers.Emulator, len(vm.driversViewModel.Emulator))
}
