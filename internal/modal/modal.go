// Package modal drives the location dialog: visibility, the inert page
// behind it, and a keyboard focus trap.
package modal

import (
	"sync"

	"github.com/i474232898/weather-dashboard/internal/view"
)

// Document is the part of the page the dialog needs. *view.Page satisfies it.
type Document interface {
	Exists(id string) bool
	SetHidden(id string, hidden bool)
	SetAttr(id, name, value string)
	RemoveAttr(id, name string)
	Focusables(container string) []string
	ActiveElement() string
	Focus(id string) bool
	Blur()
}

// State of the dialog.
type State int

const (
	Closed State = iota
	// Open means visible with nothing to trap focus on.
	Open
	Trapped
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Trapped:
		return "trapped"
	default:
		return "unknown"
	}
}

// Key names understood by HandleKey.
const (
	KeyTab    = "Tab"
	KeyEscape = "Escape"
)

// Controller owns the dialog state for one document.
type Controller struct {
	mu sync.Mutex

	doc      Document
	state    State
	restore  string
	hadFocus bool
}

// New returns a closed dialog controller for doc.
func New(doc Document) *Controller {
	return &Controller{doc: doc}
}

// Available reports whether the document carries both the dialog and its
// backdrop.
func (c *Controller) Available() bool {
	return c.doc.Exists(view.Modal) && c.doc.Exists(view.Backdrop)
}

// State returns the current dialog state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsOpen reports whether the dialog is visible.
func (c *Controller) IsOpen() bool {
	return c.State() != Closed
}

// Open shows the dialog and moves focus to its first control. Without a
// dialog or backdrop in the document it does nothing.
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.Available() {
		return
	}
	if c.state == Closed {
		c.restore = c.doc.ActiveElement()
		c.hadFocus = c.restore != ""
	}

	c.doc.SetHidden(view.Modal, false)
	c.doc.SetHidden(view.Backdrop, false)
	c.doc.SetAttr(view.Layout, "aria-hidden", "true")

	focusables := c.doc.Focusables(view.Modal)
	if len(focusables) == 0 {
		c.state = Open
		return
	}
	c.doc.Focus(focusables[0])
	c.state = Trapped
}

// Close hides the dialog and gives focus back to whatever held it before
// Open.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.close()
}

func (c *Controller) close() {
	if !c.Available() {
		return
	}

	c.doc.SetHidden(view.Modal, true)
	c.doc.SetHidden(view.Backdrop, true)
	c.doc.RemoveAttr(view.Layout, "aria-hidden")

	wasOpen := c.state != Closed
	c.state = Closed
	if !wasOpen {
		return
	}
	if !c.hadFocus || !c.doc.Focus(c.restore) {
		c.doc.Blur()
	}
	c.restore, c.hadFocus = "", false
}

// HandleKey applies a key press to the trap. It reports whether the key
// was consumed (the browser default must not run).
func (c *Controller) HandleKey(key string, shift bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Trapped {
		return false
	}

	switch key {
	case KeyEscape:
		c.close()
		return true
	case KeyTab:
		focusables := c.doc.Focusables(view.Modal)
		if len(focusables) == 0 {
			return false
		}
		first, last := focusables[0], focusables[len(focusables)-1]
		active := c.doc.ActiveElement()

		switch {
		case shift && active == first:
			c.doc.Focus(last)
			return true
		case !shift && active == last:
			c.doc.Focus(first)
			return true
		case indexOf(focusables, active) < 0:
			// Focus escaped the dialog; pull it back in.
			if shift {
				c.doc.Focus(last)
			} else {
				c.doc.Focus(first)
			}
			return true
		}
		return false
	}
	return false
}

// Step advances focus like the browser would for an unconsumed Tab. The
// server-rendered page has no browser-driven focus movement, so callers
// use it after HandleKey reports false.
func (c *Controller) Step(shift bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	focusables := c.doc.Focusables(view.Modal)
	i := indexOf(focusables, c.doc.ActiveElement())
	if i < 0 || len(focusables) == 0 {
		return
	}
	if shift {
		i--
	} else {
		i++
	}
	if i >= 0 && i < len(focusables) {
		c.doc.Focus(focusables[i])
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
