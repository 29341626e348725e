package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"chainboy/interfaces"
)

type WebServer struct {
	listenAddr string
	e          *echo.Echo
	log        *log.Logger

	commandHandler interfaces.ViewCommandHandler

	socketsRw sync.RWMutex
	sockets   []*Socket
}

type ViewModelUpdate struct {
	View      string      `json:"v"`
	ViewModel interface{} `json:"m"`
}

type CommandRequest struct {
	View    string          `json:"v"`
	Command string          `json:"c"`
	Args    json.RawMessage `json:"a"`
}

// NewWebServer serves the static UI from content and a websocket at /ws/ for bidirectional
// communication with it.
func NewWebServer(listenAddr string, content fs.FS) *WebServer {
	s := &WebServer{
		listenAddr: listenAddr,
		e:          echo.New(),
		log:        log.Default().WithPrefix("web"),
		sockets:    make([]*Socket, 0, 2),
	}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	s.e.GET("/ws/", s.handleSocket)
	s.e.GET("/*", echo.WrapHandler(MaxAge(http.FileServer(http.FS(content)))))

	return s
}

func (s *WebServer) handleSocket(c echo.Context) error {
	conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
	if err != nil {
		s.log.Warn("websocket upgrade", "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// create the Socket to handle bidirectional communication:
	socket := NewSocket(s, conn)
	s.appendSocket(socket)

	// start by sending all view models to this new socket:
	if s.commandHandler != nil {
		s.commandHandler.NotifyViewTo(socket)
	}
	return nil
}

func (s *WebServer) Handler() http.Handler { return s.e }

func (s *WebServer) Serve() error {
	s.log.Info("listening", "addr", s.listenAddr)
	err := s.e.Start(s.listenAddr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *WebServer) Shutdown(ctx context.Context) error {
	s.socketsRw.RLock()
	sockets := append([]*Socket(nil), s.sockets...)
	s.socketsRw.RUnlock()
	for _, k := range sockets {
		k.Close()
	}
	return s.e.Shutdown(ctx)
}

func (s *WebServer) appendSocket(socket *Socket) {
	s.socketsRw.Lock()
	defer s.socketsRw.Unlock()
	s.sockets = append(s.sockets, socket)
}

func (s *WebServer) removeSocket(k *Socket) {
	s.socketsRw.Lock()
	defer s.socketsRw.Unlock()

	for i, sk := range s.sockets {
		if sk == k {
			s.sockets = append(s.sockets[:i], s.sockets[i+1:]...)
			break
		}
	}
}

// NotifyView broadcasts to all connected sockets. The view model is encoded right away so the
// caller may keep mutating it afterwards.
func (s *WebServer) NotifyView(view string, viewModel interface{}) {
	b, err := encodeUpdate(view, viewModel)
	if err != nil {
		s.log.Error("encode view model", "view", view, "err", err)
		return
	}

	s.socketsRw.RLock()
	sockets := append([]*Socket(nil), s.sockets...)
	s.socketsRw.RUnlock()

	for _, k := range sockets {
		k.send(b)
	}
}

func (s *WebServer) ProvideViewCommandHandler(commandHandler interfaces.ViewCommandHandler) {
	s.commandHandler = commandHandler
}

func encodeUpdate(view string, viewModel interface{}) ([]byte, error) {
	return json.Marshal(&ViewModelUpdate{View: view, ViewModel: viewModel})
}

type Socket struct {
	ws   *WebServer
	conn net.Conn

	// write channel:
	q    chan []byte
	done chan struct{}
	once sync.Once

	// control frame replies and messages share the connection:
	wmu sync.Mutex
}

func NewSocket(s *WebServer, conn net.Conn) *Socket {
	k := &Socket{
		ws:   s,
		conn: conn,
		q:    make(chan []byte, 64),
		done: make(chan struct{}),
	}

	go k.readHandler()
	go k.writeHandler()

	return k
}

func (k *Socket) NotifyView(view string, viewModel interface{}) {
	b, err := encodeUpdate(view, viewModel)
	if err != nil {
		k.ws.log.Error("encode view model", "view", view, "err", err)
		return
	}
	k.send(b)
}

func (k *Socket) send(b []byte) {
	select {
	case k.q <- b:
	case <-k.done:
	}
}

func (k *Socket) Close() {
	k.once.Do(func() {
		close(k.done)
		_ = k.conn.Close()
		k.ws.removeSocket(k)
	})
}

func (k *Socket) readHandler() {
	// the reader is in control of the lifetime of the socket:
	defer k.Close()

	controlHandler := wsutil.ControlFrameHandler(k.conn, ws.StateServerSide)
	r := &wsutil.Reader{
		Source:    k.conn,
		State:     ws.StateServerSide,
		CheckUTF8: true,
	}

	for {
		hdr, err := r.NextFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				k.ws.log.Warn("error reading next websocket frame", "err", err)
			}
			return
		}

		if hdr.OpCode.IsControl() {
			k.wmu.Lock()
			err = controlHandler(hdr, r)
			k.wmu.Unlock()
			if err != nil {
				// wsutil.ClosedError on a close frame:
				return
			}
			continue
		}

		switch hdr.OpCode {
		case ws.OpText:
			err = k.handleText(r)
		case ws.OpBinary:
			err = k.handleBinary(r)
		}
		if err != nil {
			k.ws.log.Warn("command", "err", err)
		}

		if err := r.Discard(); err != nil {
			k.ws.log.Warn("discard", "err", err)
			return
		}
	}
}

func (k *Socket) handleText(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading json command request: %w", err)
	}

	var creq CommandRequest
	if err = json.Unmarshal(b, &creq); err != nil {
		return fmt.Errorf("error decoding json command request: %w", err)
	}

	// command handler:
	if k.ws.commandHandler == nil {
		return errors.New("no view command handler provided")
	}

	ce, err := k.ws.commandHandler.CommandFor(creq.View, creq.Command)
	if err != nil {
		return fmt.Errorf("error handling json command: %w", err)
	}

	// instantiate a specific args type for the command:
	args := ce.CreateArgs()
	if args != nil && len(creq.Args) > 0 {
		if err = json.Unmarshal(creq.Args, args); err != nil {
			return fmt.Errorf("error deserializing json command args: %w", err)
		}
	}

	if err = ce.Execute(args); err != nil {
		return fmt.Errorf("error handling json command within executor: %w", err)
	}
	return nil
}

// data format:
// [1] view name string length
// [n] view name string
// [1] command name string length
// [n] command name string
// [...] remaining data sent directly as []byte arg to command executor
func (k *Socket) handleBinary(r io.Reader) error {
	viewName, err := readTinyString(r)
	if err != nil {
		return fmt.Errorf("error reading binary command view name: %w", err)
	}
	commandName, err := readTinyString(r)
	if err != nil {
		return fmt.Errorf("error reading binary command command name: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading binary command payload: %w", err)
	}

	if k.ws.commandHandler == nil {
		return errors.New("no view command handler provided")
	}

	ce, err := k.ws.commandHandler.CommandFor(viewName, commandName)
	if err != nil {
		return fmt.Errorf("error handling binary command: %w", err)
	}

	if err = ce.Execute(data); err != nil {
		return fmt.Errorf("error handling binary command within executor: %w", err)
	}
	return nil
}

func readTinyString(r io.Reader) (string, error) {
	var valueLength uint8
	if err := binary.Read(r, binary.LittleEndian, &valueLength); err != nil {
		return "", err
	}

	valueBytes := make([]byte, valueLength)
	if _, err := io.ReadFull(r, valueBytes); err != nil {
		return "", err
	}
	return string(valueBytes), nil
}

func (k *Socket) writeHandler() {
	// wait for encoded updates on the channel:
	for {
		select {
		case b := <-k.q:
			k.wmu.Lock()
			err := wsutil.WriteServerMessage(k.conn, ws.OpText, b)
			k.wmu.Unlock()
			if err != nil {
				k.ws.log.Debug("write", "err", err)
				k.Close()
				return
			}
		case <-k.done:
			return
		}
	}
}
