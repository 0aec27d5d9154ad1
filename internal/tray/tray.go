// Package tray provides a system tray menu for the signlens recognizer.
package tray

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/getlantern/systray"

	"github.com/ayusman/signlens/internal/app"
)

// textWidth is how many trailing characters of the text the menu shows.
const textWidth = 32

// Tray mirrors the recognizer state in the system tray.
type Tray struct {
	onToggle func(enabled bool)
	onClear  func()
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuLetter  *systray.MenuItem
	menuGesture *systray.MenuItem
	menuText    *systray.MenuItem
}

// New creates a Tray showing the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{enabled: enabled}
}

// OnToggle sets the callback for the enable toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnClear sets the callback for the clear text item.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnOpen sets the callback for opening the web view.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("SignLens")
	systray.SetTooltip("SignLens sign recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle recognition")
	systray.AddSeparator()

	t.menuLetter = systray.AddMenuItem(letterTitle("", 0), "Live letter")
	t.menuLetter.Disable()
	t.menuGesture = systray.AddMenuItem(gestureTitle(""), "Last gesture evaluation")
	t.menuGesture.Disable()
	t.menuText = systray.AddMenuItem(textTitle(""), "Recognized text")
	t.menuText.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuClear := systray.AddMenuItem("Clear Text", "Clear the recognized text")
	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the live view")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit SignLens")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuClear.ClickedCh:
				t.call(func() func() { return t.onClear })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	fn := get()
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// Update shows a recognition result. It is safe to call before Run.
func (t *Tray) Update(res app.Result) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuLetter == nil {
		return
	}
	out := res.Output
	t.menuLetter.SetTitle(letterTitle(out.Static.Letter, out.Static.Confidence))
	t.menuGesture.SetTitle(gestureTitle(string(out.Gesture.Name)))
	t.menuText.SetTitle(textTitle(out.Text))
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func letterTitle(letter string, confidence float64) string {
	if letter == "" {
		return "Letter: none"
	}
	return fmt.Sprintf("Letter: %s (%.0f%%)", letter, confidence*100)
}

func gestureTitle(name string) string {
	if name == "" {
		return "Gesture: none"
	}
	return "Gesture: " + name
}

// textTitle shows the tail of the text, which is where new symbols land.
func textTitle(text string) string {
	if text == "" {
		return "Text: (empty)"
	}
	if n := utf8.RuneCountInString(text); n > textWidth {
		r := []rune(text)
		text = "…" + string(r[n-textWidth:])
	}
	return "Text: " + text
}
