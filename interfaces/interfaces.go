package interfaces

// CommandArgs is the value a Command decodes its JSON arguments into.
type CommandArgs interface{}

// Command is one action a view can request, addressed as `view.command` over the websocket.
type Command interface {
	// CreateArgs returns a fresh value to json.Unmarshal the request arguments into; nil means the
	// command takes no JSON arguments and accepts only binary payloads
	CreateArgs() CommandArgs
	// Execute runs the command. The returned error is logged by the transport and never reaches
	// the user; user-facing outcomes go through the status message instead.
	Execute(args CommandArgs) error
}

// ViewModelCommandHandler is implemented by each named view model.
type ViewModelCommandHandler interface {
	CommandFor(command string) (Command, error)
}

// ViewCommandHandler is implemented by the root view model and used by the transport to route
// `{v, c, a}` requests.
type ViewCommandHandler interface {
	CommandFor(view, command string) (Command, error)

	// NotifyViewTo replays the current value of every view to a newly connected client
	NotifyViewTo(viewNotifier ViewNotifier)
}

// ViewNotifier pushes a changed view model to connected views as `{v, m}`.
type ViewNotifier interface {
	NotifyView(view string, viewModel interface{})
}

// ViewModeler lets a view model publish a different value than itself, e.g. a rendered snapshot.
type ViewModeler interface {
	ViewModel() interface{}
}

// Initializable view models are initialized once when the root view model starts.
type Initializable interface {
	Init()
}

// Dirtyable view models are only published when marked dirty since the last publish.
type Dirtyable interface {
	IsDirty() bool
	ClearDirty()
	MarkDirty()
}

// Observer receives a snapshot of the observed object after every change. Notify may be called
// from any goroutine and must not block for long.
type Observer interface {
	Notify(object interface{})
}

// Observable delivers change notifications to subscribed observers; observers are compared by
// identity so they must be comparable.
type Observable interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
}
