// Package menu holds the navbar's dropdown and mobile panel state. Detecting
// outside clicks and route changes is the view layer's job; this package
// only decides what each event does to the state.
package menu

import (
	"sync"
)

// State is the menu's open/closed flags. The zero value is fully closed.
type State struct {
	DropdownOpen    bool `json:"dropdownOpen"`
	MobilePanelOpen bool `json:"mobilePanelOpen"`
}

// Closed reports whether neither surface is open.
func (s State) Closed() bool {
	return !s.DropdownOpen && !s.MobilePanelOpen
}

// Item is one entry of the user dropdown.
type Item struct {
	Label  string `json:"label"`
	Path   string `json:"path,omitempty"`
	Logout bool   `json:"logout,omitempty"`
}

const (
	ProfilePath  = "/Profile"
	HistoryPath  = "/history"
	SettingsPath = "/settings"
)

// DropdownItems returns the user dropdown entries in display order.
func DropdownItems() []Item {
	return []Item{
		{Label: "Profile", Path: ProfilePath},
		{Label: "History", Path: HistoryPath},
		{Label: "Settings", Path: SettingsPath},
		{Label: "Logout", Logout: true},
	}
}

// Controller is safe for concurrent use.
type Controller struct {
	closeDropdownOnRoute bool

	mu    sync.Mutex
	state State
}

// Option modifies a Controller at construction.
type Option func(*Controller)

// WithCloseDropdownOnRouteChange makes route changes close the dropdown as
// well as the mobile panel.
func WithCloseDropdownOnRouteChange() Option {
	return func(c *Controller) {
		c.closeDropdownOnRoute = true
	}
}

// NewController returns a controller in the closed state.
func NewController(options ...Option) *Controller {
	c := &Controller{}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) ToggleDropdown() State {
	return c.update(func(s *State) {
		s.DropdownOpen = !s.DropdownOpen
	})
}

// OutsideClick closes the dropdown whatever its prior state.
func (c *Controller) OutsideClick() State {
	return c.update(func(s *State) {
		s.DropdownOpen = false
	})
}

func (c *Controller) ToggleMobile() State {
	return c.update(func(s *State) {
		s.MobilePanelOpen = !s.MobilePanelOpen
	})
}

// RouteChanged closes the mobile panel, and the dropdown too when the
// controller was built with WithCloseDropdownOnRouteChange.
func (c *Controller) RouteChanged(_ string) State {
	return c.update(func(s *State) {
		s.MobilePanelOpen = false
		if c.closeDropdownOnRoute {
			s.DropdownOpen = false
		}
	})
}

// Select closes the dropdown after an entry has been chosen.
func (c *Controller) Select(item Item) (Item, State) {
	st := c.update(func(s *State) {
		s.DropdownOpen = false
	})
	return item, st
}

// Reset returns to the closed state.
func (c *Controller) Reset() State {
	return c.update(func(s *State) {
		*s = State{}
	})
}

func (c *Controller) update(fn func(*State)) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	return c.state
}
