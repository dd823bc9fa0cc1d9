// Package sdk isolates the vendor launcher script behind a two-operation
// adapter. All global, externally observed state lives here.
package sdk

import (
	"errors"
	"fmt"
	"maps"
)

// Identifiers shared with the launcher script
const (
	ScriptID      = "adpx-launcher"
	ConfigGlobal  = "AdpxConfig"
	UserGlobal    = "AdpxUser"
	InitFunction  = "Adpx.init"
	DefaultScript = "https://cdn.pubtailer.com/launcher.min.js"
	DefaultAcct   = "ffa59da09972e55e"
)

// ErrNotConfigured is returned when a conversion is reported before Configure
var ErrNotConfigured = errors.New("sdk not configured")

// Settings is the launcher configuration object
type Settings struct {
	AccountID string `json:"accountId"`
	AutoShow  bool   `json:"autoShow"`
	ScriptURL string `json:"-"`
}

// DefaultSettings returns the demo account settings
func DefaultSettings() Settings {
	return Settings{AccountID: DefaultAcct, AutoShow: true, ScriptURL: DefaultScript}
}

// UserData is the free-form user object read by the launcher
type UserData map[string]any

// Item is one purchased product in a conversion
type Item struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Adapter is everything the rest of the program may do with the vendor SDK
type Adapter interface {
	Configure(settings Settings, user UserData) error
	ReportConversion(event UserData) error
}

// Script describes the launcher tag
type Script struct {
	ID          string
	Src         string
	Async       bool
	CrossOrigin string
	// OnLoad runs once the script has loaded
	OnLoad Call
}

// Call invokes a page function with the named global as its only argument
type Call struct {
	Function string
	Arg      string
}

// Page is the host document the launcher runs in
type Page interface {
	HasElement(id string) bool
	AppendScript(s Script) error
	SetGlobal(name string, value any) error
	Invoke(c Call) error
}

// Launcher implements Adapter against a Page
type Launcher struct {
	page     Page
	settings Settings
	user     UserData
}

var _ Adapter = (*Launcher)(nil)

// NewLauncher creates a launcher bound to page
func NewLauncher(page Page) *Launcher {
	return &Launcher{page: page}
}

func initCall() Call {
	return Call{Function: InitFunction, Arg: ConfigGlobal}
}

// Configure assigns both globals and injects the launcher script once. If the
// script is already on the page init runs immediately, otherwise on load.
func (l *Launcher) Configure(settings Settings, user UserData) error {
	if settings.AccountID == "" {
		return fmt.Errorf("sdk: account id is required")
	}
	if settings.ScriptURL == "" {
		settings.ScriptURL = DefaultScript
	}

	l.settings = settings
	l.user = maps.Clone(user)
	if l.user == nil {
		l.user = UserData{}
	}

	if err := l.page.SetGlobal(ConfigGlobal, l.settings); err != nil {
		return fmt.Errorf("sdk: set %s: %w", ConfigGlobal, err)
	}
	if err := l.page.SetGlobal(UserGlobal, maps.Clone(l.user)); err != nil {
		return fmt.Errorf("sdk: set %s: %w", UserGlobal, err)
	}

	if l.page.HasElement(ScriptID) {
		return l.page.Invoke(initCall())
	}
	return l.page.AppendScript(Script{
		ID:          ScriptID,
		Src:         settings.ScriptURL,
		Async:       true,
		CrossOrigin: "anonymous",
		OnLoad:      initCall(),
	})
}

// ReportConversion merges event into the user object and re-runs init
func (l *Launcher) ReportConversion(event UserData) error {
	if l.user == nil {
		return ErrNotConfigured
	}
	maps.Copy(l.user, event)
	if err := l.page.SetGlobal(UserGlobal, maps.Clone(l.user)); err != nil {
		return fmt.Errorf("sdk: set %s: %w", UserGlobal, err)
	}
	return l.page.Invoke(initCall())
}

// User returns a copy of the current user object
func (l *Launcher) User() UserData {
	return maps.Clone(l.user)
}
