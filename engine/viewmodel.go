package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"chainboy/interfaces"
	"chainboy/util"
)

// ViewModel is the root view model the web UI binds to. Each child view model is published
// under a unique name and handles its own commands.
type ViewModel struct {
	ctx        context.Context
	controller *Controller
	log        *log.Logger

	// commands that block on a capability run on their own goroutine:
	wg sync.WaitGroup

	// dependency that notifies view of updated view model:
	viewNotifier   interfaces.ViewNotifier
	viewNotifierMu sync.Mutex

	// View Models:
	viewModels map[string]interface{}
	// last published instance of each view model, replayed to new views:
	published      map[string]interface{}
	viewModelsLock sync.Mutex

	cartridgeViewModel *CartridgeViewModel
	sessionViewModel   *SessionViewModel
	statusViewModel    *StatusViewModel
	driversViewModel   *DriversViewModel
}

func NewViewModel(ctx context.Context, controller *Controller, active ActiveDrivers) *ViewModel {
	vm := &ViewModel{
		ctx:        ctx,
		controller: controller,
		log:        log.Default().WithPrefix("viewmodel"),
		published:  make(map[string]interface{}),
	}

	// instantiate each child view model:
	vm.cartridgeViewModel = NewCartridgeViewModel(vm)
	vm.sessionViewModel = NewSessionViewModel(vm)
	vm.statusViewModel = NewStatusViewModel(vm)
	vm.driversViewModel = NewDriversViewModel(active)

	// assign unique names to each view for easy binding with html/js UI:
	vm.viewModels = map[string]interface{}{
		"cartridge": vm.cartridgeViewModel,
		"session":   vm.sessionViewModel,
		"status":    vm.statusViewModel,
		"drivers":   vm.driversViewModel,
	}

	return vm
}

// Init initializes all view models and starts following the controller.
func (vm *ViewModel) Init() {
	for _, model := range vm.viewModels {
		if i, ok := model.(interfaces.Initializable); ok {
			i.Init()
		}
	}

	vm.controller.Subscribe(vm)
	vm.UpdateAndNotifyView()
}

// Close stops following the controller and waits for commands still running.
func (vm *ViewModel) Close() {
	vm.controller.Unsubscribe(vm)
	vm.Wait()
}

func (vm *ViewModel) Wait() {
	vm.wg.Wait()
}

// Notify implements interfaces.Observer for controller status changes. The pushed status is not
// used; concurrent notifications may arrive out of order so the latest status is read instead.
func (vm *ViewModel) Notify(interface{}) {
	vm.UpdateAndNotifyView()
}

// updates all view models and notifies view:
func (vm *ViewModel) UpdateAndNotifyView() {
	vm.viewModelsLock.Lock()
	defer vm.viewModelsLock.Unlock()

	st := vm.controller.Status()
	for view, model := range vm.viewModels {
		if u, ok := model.(statusUpdater); ok {
			u.Update(st)
		}
		vm.notifyViewOf(view, model)
	}
}

type statusUpdater interface {
	Update(st Status)
}

func (vm *ViewModel) notifyViewOf(view string, model interface{}) {
	dirtyable, isDirtyable := model.(interfaces.Dirtyable)
	if isDirtyable && !dirtyable.IsDirty() {
		return
	}

	// allow model to customize the instance to be stored as a view model:
	viewModel := model
	if viewModeler, ok := model.(interfaces.ViewModeler); ok {
		viewModel = viewModeler.ViewModel()
	}
	vm.published[view] = viewModel

	if isDirtyable {
		dirtyable.ClearDirty()
	}

	vm.viewNotifierMu.Lock()
	vn := vm.viewNotifier
	vm.viewNotifierMu.Unlock()
	if vn == nil {
		return
	}
	vn.NotifyView(view, viewModel)
}

func (vm *ViewModel) GetViewModel(view string) (interface{}, bool) {
	vm.viewModelsLock.Lock()
	defer vm.viewModelsLock.Unlock()

	viewModel, ok := vm.published[view]
	return viewModel, ok
}

// NotifyViewTo sends every published view model to viewNotifier regardless of dirty state.
func (vm *ViewModel) NotifyViewTo(viewNotifier interfaces.ViewNotifier) {
	if viewNotifier == nil {
		return
	}

	vm.viewModelsLock.Lock()
	defer vm.viewModelsLock.Unlock()

	for view, viewModel := range vm.published {
		viewNotifier.NotifyView(view, viewModel)
	}
}

func (vm *ViewModel) ProvideViewNotifier(viewNotifier interfaces.ViewNotifier) {
	vm.viewNotifierMu.Lock()
	defer vm.viewNotifierMu.Unlock()
	vm.viewNotifier = viewNotifier
}

// Implements ViewCommandHandler
func (vm *ViewModel) CommandFor(view, command string) (ce interfaces.Command, err error) {
	svm, ok := vm.viewModels[view]
	if !ok {
		return nil, fmt.Errorf("view=%s,cmd=%s: no view model found to handle command", view, command)
	}

	commandHandler, ok := svm.(interfaces.ViewModelCommandHandler)
	if !ok {
		return nil, fmt.Errorf("view=%s,cmd=%s: view model does not handle commands", view, command)
	}

	ce, err = commandHandler.CommandFor(command)
	if err != nil {
		err = fmt.Errorf("view=%s,cmd=%s: error from command handler: %w", view, command, err)
	}
	return
}

// goAction runs fn on its own goroutine so the caller never waits on a capability.
func (vm *ViewModel) goAction(name string, fn func(ctx context.Context)) {
	vm.wg.Add(1)
	go func() {
		defer vm.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				util.LogPanic(vm.log, p)
			}
		}()

		vm.log.Debug("action", "name", name)
		fn(vm.ctx)
	}()
}
