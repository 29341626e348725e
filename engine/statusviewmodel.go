package engine

import (
	"strings"
	"sync"
)

type Tone string

const (
	ToneNone    Tone = ""
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

const (
	SaveLabel      = "💾 Save to Remote"
	UploadingLabel = "⏳ Uploading..."
)

// StatusView is everything the status line and the buttons need to render.
type StatusView struct {
	Message   string `json:"message"`
	Tone      Tone   `json:"tone"`
	Selected  string `json:"selected"`
	Playing   bool   `json:"playing"`
	CanStart  bool   `json:"canStart"`
	CanSave   bool   `json:"canSave"`
	SaveLabel string `json:"saveLabel"`
}

// RenderStatus projects a controller status onto the view.
func RenderStatus(st Status) StatusView {
	view := StatusView{
		Message:   st.Message,
		Tone:      classify(st.Message),
		Playing:   st.Session.Kind == Playing,
		CanStart:  st.Session.Kind == CartridgeSelected && !st.Starting,
		CanSave:   st.Session.Kind == Playing && !st.Uploading && st.Upload.Kind != UploadInFlight,
		SaveLabel: SaveLabel,
	}
	if st.Session.Cartridge != nil {
		view.Selected = st.Session.Cartridge.Name()
	}
	if st.Uploading || st.Upload.Kind == UploadInFlight {
		view.SaveLabel = UploadingLabel
	}
	return view
}

func classify(message string) Tone {
	switch {
	case message == "":
		return ToneNone
	case strings.Contains(message, SuccessMarker):
		return ToneSuccess
	case strings.Contains(message, ErrorMarker):
		return ToneError
	default:
		return ToneInfo
	}
}

type StatusViewModel struct {
	root    *ViewModel
	isDirty bool

	mu   sync.Mutex
	view StatusView
}

func NewStatusViewModel(root *ViewModel) *StatusViewModel {
	return &StatusViewModel{
		root:    root,
		isDirty: true,
		view:    RenderStatus(Status{}),
	}
}

func (v *StatusViewModel) Update(st Status) {
	v.mu.Lock()
	defer v.mu.Unlock()

	view := RenderStatus(st)
	if view == v.view {
		return
	}
	v.view = view
	v.isDirty = true
}

func (v *StatusViewModel) ViewModel() interface{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.view
}

func (v *StatusViewModel) IsDirty() bool { return v.isDirty }
func (v *StatusViewModel) ClearDirty()   { v.isDirty = false }
func (v *StatusViewModel) MarkDirty()    { v.isDirty = true }
