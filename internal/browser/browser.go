// Package browser is the UI automation driver: a small Session/Element
// abstraction the site actions are written against, and its go-rod
// implementation.
package browser

import (
	"context"
	"errors"

	"subpilot/internal/pacing"
)

// ErrNotFound is returned when a selector matches nothing before the
// element wait timeout expires.
var ErrNotFound = errors.New("element not found")

// Session is one browser tab driven by the automation.
type Session interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// TypeInto clicks the element and types text one character at a time,
	// pausing for a delay drawn from delay after each character.
	TypeInto(ctx context.Context, selector, text string, delay pacing.Range) error
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// PressEnter sends the Enter key to the element.
	PressEnter(ctx context.Context, selector string) error
	// Find waits for the first element matching selector.
	Find(ctx context.Context, selector string) (Element, error)
	// FindByText waits for an element matching selector whose text contains text.
	FindByText(ctx context.Context, selector, text string) (Element, error)
	// FindAll returns the elements currently matching selector.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// CurrentURL returns the URL of the tab.
	CurrentURL(ctx context.Context) (string, error)
	// Close releases the tab and the browser process.
	Close() error
}

// Element is a handle to a DOM node inside a Session.
type Element interface {
	// Find returns the first descendant matching selector without waiting.
	Find(ctx context.Context, selector string) (Element, error)
	FindAll(ctx context.Context, selector string) ([]Element, error)
	Text(ctx context.Context) (string, error)
	// Attribute returns ErrNotFound when the attribute is absent.
	Attribute(ctx context.Context, name string) (string, error)
	Click(ctx context.Context) error
	TypeText(ctx context.Context, text string, delay pacing.Range) error
}
