//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11Backend owns the CLIPBOARD selection through a hidden window and serves
// image/png to requestors from its event loop.
type x11Backend struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  x11Atoms

	mu  sync.RWMutex
	png []byte
}

type x11Atoms struct {
	clipboard, targets, png, property xproto.Atom
}

func openBackend() (backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	b := &x11Backend{conn: conn}
	if err := b.setup(); err != nil {
		conn.Close()
		return nil, err
	}
	go b.serve()
	return b, nil
}

func (b *x11Backend) setup() error {
	screen := xproto.Setup(b.conn).DefaultScreen(b.conn)
	win, err := xproto.NewWindowId(b.conn)
	if err != nil {
		return err
	}
	err = xproto.CreateWindowChecked(b.conn, screen.RootDepth, win, screen.Root,
		0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		return err
	}
	b.window = win

	names := []string{"CLIPBOARD", "TARGETS", "image/png", "PASSPORTFRAME_SELECTION"}
	atoms := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(b.conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return err
		}
		atoms[i] = reply.Atom
	}
	b.atoms = x11Atoms{clipboard: atoms[0], targets: atoms[1], png: atoms[2], property: atoms[3]}
	return nil
}

func (b *x11Backend) writePNG(data []byte) error {
	b.mu.Lock()
	b.png = append([]byte(nil), data...)
	b.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(b.conn, b.window, b.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (b *x11Backend) serve() {
	for {
		ev, err := b.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			b.answer(e)
		case xproto.SelectionClearEvent:
			b.mu.Lock()
			b.png = nil
			b.mu.Unlock()
		}
	}
}

func (b *x11Backend) answer(e xproto.SelectionRequestEvent) {
	b.mu.RLock()
	data := b.png
	b.mu.RUnlock()

	prop := e.Property
	if prop == xproto.AtomNone {
		prop = e.Target
	}
	switch {
	case e.Target == b.atoms.targets:
		offered := []xproto.Atom{b.atoms.targets}
		if len(data) > 0 {
			offered = append(offered, b.atoms.png)
		}
		buf := make([]byte, 4*len(offered))
		for i, a := range offered {
			xgb.Put32(buf[4*i:], uint32(a))
		}
		xproto.ChangeProperty(b.conn, xproto.PropModeReplace, e.Requestor, prop, xproto.AtomAtom, 32, uint32(len(offered)), buf)
	case e.Target == b.atoms.png && len(data) > 0:
		xproto.ChangeProperty(b.conn, xproto.PropModeReplace, e.Requestor, prop, b.atoms.png, 8, uint32(len(data)), data)
	default:
		prop = xproto.AtomNone
	}

	reply := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  prop,
	}
	xproto.SendEvent(b.conn, false, e.Requestor, 0, string(reply.Bytes()))
}

// readPNG asks the current owner for image/png on a separate connection so
// the serving loop keeps running while we wait.
func (b *x11Backend) readPNG() ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	err = xproto.CreateWindowChecked(conn, 0, win, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, win)

	if err := xproto.ConvertSelectionChecked(conn, win, b.atoms.clipboard, b.atoms.png, b.atoms.property, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		sel, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if sel.Property == xproto.AtomNone {
			return nil, ErrNoImage
		}
		reply, perr := xproto.GetProperty(conn, true, win, sel.Property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		if reply == nil {
			return nil, errors.New("empty clipboard property")
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
