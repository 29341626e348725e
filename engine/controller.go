package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"chainboy/cartridge"
	"chainboy/emulator"
	"chainboy/interfaces"
	"chainboy/persist"
	"chainboy/util"
)

const (
	DefaultPlatform = "GameBoy Advance"
	UnknownTitle    = "Unknown Game"
)

// Markers used by the status line to pick a tone.
const (
	SuccessMarker = "✅"
	ErrorMarker   = "❌"
)

const (
	msgStartOK      = "Game started successfully!"
	msgStartFailed  = "Failed to start game. Please select a valid ROM file."
	msgNotPlaying   = "Please start a game first!"
	msgUploading    = "Uploading save file..."
	msgNoSaveState  = "Failed to get save state!"
	msgReadFailed   = "Failed to read file: "
	msgUploadOK     = SuccessMarker + " Save file successfully uploaded! Transaction ID: "
	msgUploadFailed = ErrorMarker + " Error uploading save file: "
)

// Controller sequences cartridge selection, emulator start, state capture and upload. All state
// lives here; capabilities are called without holding the lock so Status stays responsive.
type Controller struct {
	emu   emulator.Session
	store persist.Persister

	platform string
	now      func() time.Time
	log      *log.Logger

	mu      sync.Mutex
	session SessionState
	upload  UploadStatus
	message string

	// starting is the advisory start lock. Like uploading it outlives a cartridge swap: the
	// emulator session is shared, so a new start waits until the previous Start returns.
	starting bool
	// uploading is the advisory upload lock. It outlives a cartridge swap so that a stale
	// upload still blocks new ones until it returns.
	uploading bool
	// generation changes on every selection; outcomes from an older generation are dropped.
	generation uint64

	observersMu sync.Mutex
	observers   []interfaces.Observer
}

var _ interfaces.Observable = (*Controller)(nil)

type Option func(c *Controller)

func WithPlatform(platform string) Option {
	return func(c *Controller) { c.platform = platform }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func NewController(emu emulator.Session, store persist.Persister, opts ...Option) *Controller {
	c := &Controller{
		emu:      emu,
		store:    store,
		platform: DefaultPlatform,
		now:      time.Now,
		session:  SessionState{Kind: NoCartridge},
		upload:   Idle(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = log.Default().WithPrefix("engine")
	}
	if c.platform == "" {
		c.platform = DefaultPlatform
	}
	return c
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() Status {
	return Status{
		Session: c.session,
		Upload:  c.upload,
		Message: c.message,

		Starting:  c.starting,
		Uploading: c.uploading,
	}
}

// SelectFile replaces the current selection and abandons any running session. A nil file leaves
// everything as it was and returns cartridge.ErrInvalidFile.
func (c *Controller) SelectFile(f cartridge.File) error {
	img, err := cartridge.Select(f)
	if err != nil {
		return err
	}

	if !cartridge.HasKnownExtension(img.Name()) {
		c.log.Warn("selected file has an unusual extension", "name", img.Name(), "known", cartridge.Extensions)
	}

	c.mu.Lock()
	prev := c.session
	c.session = SessionState{Kind: CartridgeSelected, Cartridge: img}
	c.upload = Idle()
	c.message = ""
	c.generation++
	staleStart, staleUpload := c.starting, c.uploading
	st := c.snapshot()
	c.mu.Unlock()

	c.log.Info("cartridge selected", "name", img.Name(), "previous", prev)
	if staleStart {
		c.log.Warn("start still running for the previous cartridge; its outcome will be dropped")
	}
	if staleUpload {
		c.log.Warn("upload still in flight for the previous cartridge; its outcome will be dropped")
	}
	c.notify(st)
	return nil
}

// StartSession boots the selected cartridge. It does nothing unless a cartridge is selected and
// no other start is under way, including one made for a previously selected cartridge.
func (c *Controller) StartSession(ctx context.Context) {
	c.mu.Lock()
	if c.session.Kind != CartridgeSelected || c.starting {
		kind, starting := c.session.Kind, c.starting
		c.mu.Unlock()
		c.log.Debug("start ignored", "session", kind, "starting", starting)
		return
	}
	c.starting = true
	img := c.session.Cartridge
	gen := c.generation
	st := c.snapshot()
	c.mu.Unlock()
	c.notify(st)

	var data []byte
	err := c.guard("read cartridge", func() (err error) {
		data, err = img.ReadBytes(ctx)
		return
	})
	if err != nil {
		c.log.Error("read cartridge", "name", img.Name(), "err", err)
		c.finishStart(gen, func() { c.message = msgReadFailed + err.Error() })
		return
	}

	var ok bool
	err = c.guard("start emulator", func() (err error) {
		ok, err = c.emu.Start(ctx, data)
		return
	})
	if err != nil {
		// a failing start is reported the same way as a rejected image:
		c.log.Error("start emulator", "name", img.Name(), "err", err)
		ok = false
	}

	if !ok {
		c.log.Info("emulator rejected cartridge", "name", img.Name(), "bytes", len(data))
		c.finishStart(gen, func() { c.message = msgStartFailed })
		return
	}

	c.log.Info("session started", "name", img.Name(), "bytes", len(data))
	c.finishStart(gen, func() {
		c.session = SessionState{Kind: Playing, Cartridge: img}
		c.message = msgStartOK
	})
}

// finishStart releases the start lock and applies fn unless a newer selection happened since
// gen was taken. Every path out of StartSession after taking the lock ends here.
func (c *Controller) finishStart(gen uint64, fn func()) {
	if !c.release(gen, &c.starting, fn) {
		c.log.Warn("dropping outcome of start for a replaced cartridge")
	}
}

// SaveToRemote captures the running game and uploads it. Calls made while an upload is in
// flight return immediately.
func (c *Controller) SaveToRemote(ctx context.Context) {
	c.mu.Lock()
	if c.session.Kind != Playing {
		c.message = msgNotPlaying
		st := c.snapshot()
		c.mu.Unlock()
		c.notify(st)
		return
	}
	if c.uploading {
		c.mu.Unlock()
		c.log.Debug("save ignored: upload already in flight")
		return
	}
	c.uploading = true
	c.upload = InFlight()
	c.message = msgUploading
	img := c.session.Cartridge
	gen := c.generation
	st := c.snapshot()
	c.mu.Unlock()
	c.notify(st)

	var (
		blob     emulator.SaveBlob
		captured bool
	)
	err := c.guard("capture state", func() (err error) {
		blob, captured, err = c.emu.CaptureState(ctx)
		return
	})
	if err != nil {
		c.log.Error("capture state", "err", err)
		c.finishUpload(gen, Failed(err.Error()), msgUploadFailed+err.Error())
		return
	}
	if !captured || len(blob) == 0 {
		c.log.Warn("no state to capture")
		c.finishUpload(gen, Failed(msgNoSaveState), msgNoSaveState)
		return
	}

	title := img.Name()
	if title == "" {
		title = UnknownTitle
	}
	record := persist.NewRecord(title, blob, c.now(), c.platform)

	var tx persist.TransactionID
	err = c.guard("upload", func() (err error) {
		tx, err = c.store.Upload(ctx, record)
		return
	})
	if err != nil {
		c.log.Error("upload", "title", record.Title, "err", err)
		c.finishUpload(gen, Failed(err.Error()), msgUploadFailed+err.Error())
		return
	}

	c.log.Info("upload succeeded", "title", record.Title, "tx", tx, "bytes", len(record.State))
	c.finishUpload(gen, Succeeded(tx), msgUploadOK+string(tx))
}

// finishUpload releases the upload lock and records the outcome. Every path out of
// SaveToRemote after taking the lock ends here.
func (c *Controller) finishUpload(gen uint64, status UploadStatus, message string) {
	applied := c.release(gen, &c.uploading, func() {
		c.upload = status
		c.message = message
	})
	if !applied {
		c.log.Warn("dropping outcome of upload for a replaced cartridge", "outcome", status)
	}
}

// release clears the capability lock unconditionally and runs fn only when no selection
// happened since gen was taken. Observers are notified either way since the lock is part of
// Status.
func (c *Controller) release(gen uint64, lock *bool, fn func()) bool {
	c.mu.Lock()
	*lock = false
	applied := gen == c.generation
	if applied {
		fn()
	}
	st := c.snapshot()
	c.mu.Unlock()

	c.notify(st)
	return applied
}

// guard turns a panic inside a capability call into an error.
func (c *Controller) guard(what string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			util.LogPanic(c.log, p)
			err = fmt.Errorf("%s: %v", what, p)
		}
	}()
	return fn()
}

// Subscribe registers an observer that receives a Status after every change.
func (c *Controller) Subscribe(observer interfaces.Observer) {
	c.observersMu.Lock()
	defer c.observersMu.Unlock()
	c.observers = append(c.observers, observer)
}

func (c *Controller) Unsubscribe(observer interfaces.Observer) {
	c.observersMu.Lock()
	defer c.observersMu.Unlock()
	for i, o := range c.observers {
		if o == observer {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

func (c *Controller) notify(st Status) {
	c.observersMu.Lock()
	observers := make([]interfaces.Observer, len(c.observers))
	copy(observers, c.observers)
	c.observersMu.Unlock()

	for _, o := range observers {
		o.Notify(st)
	}
}
