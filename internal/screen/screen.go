// Package screen defines the contract between the router and the screens
// it stacks.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingo/internal/ui/layout"
)

// Screen is one page of the TUI.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	// View renders the content area, without header and footer.
	View(width, height int) string
	// Title is shown in the header.
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Closer is implemented by screens that hold resources or an open lesson.
// The router calls Close when the screen leaves the stack.
type Closer interface {
	Close()
}

// Resumer is implemented by screens that reload when they become active
// again after the screen above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// AuthRequiredMsg is emitted by any screen that learns the stored token is
// no longer accepted. The app clears the credentials and exits.
type AuthRequiredMsg struct{}
