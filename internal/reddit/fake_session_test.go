package reddit

import (
	"context"
	"fmt"
	"strings"

	"subpilot/internal/browser"
	"subpilot/internal/pacing"
)

// fakeSession is a scripted browser.Session that records every call.
type fakeSession struct {
	calls   []string
	current string

	// missing selectors fail lookups with browser.ErrNotFound.
	missing map[string]bool
	// urlAfterClick sets the current URL when a selector is clicked.
	urlAfterClick map[string]string
	urlAfterEnter string
	// pages maps a URL to the elements FindAll returns on it.
	pages map[string]map[string][]*fakeElement
	// textual maps "selector|text" to an element for FindByText.
	textual map[string]*fakeElement

	closed bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		missing:       make(map[string]bool),
		urlAfterClick: make(map[string]string),
		pages:         make(map[string]map[string][]*fakeElement),
		textual:       make(map[string]*fakeElement),
	}
}

func (f *fakeSession) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.record("navigate %s", url)
	f.current = url
	return nil
}

func (f *fakeSession) TypeInto(ctx context.Context, selector, text string, delay pacing.Range) error {
	if f.missing[selector] {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	f.record("type %s %s", selector, text)
	return nil
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	if f.missing[selector] {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	f.record("click %s", selector)
	if u, ok := f.urlAfterClick[selector]; ok {
		f.current = u
	}
	return nil
}

func (f *fakeSession) PressEnter(ctx context.Context, selector string) error {
	f.record("enter %s", selector)
	if f.urlAfterEnter != "" {
		f.current = f.urlAfterEnter
	}
	return nil
}

func (f *fakeSession) Find(ctx context.Context, selector string) (browser.Element, error) {
	if f.missing[selector] {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	f.record("find %s", selector)
	return &fakeElement{session: f, name: selector}, nil
}

func (f *fakeSession) FindByText(ctx context.Context, selector, text string) (browser.Element, error) {
	el, ok := f.textual[selector+"|"+text]
	if !ok {
		return nil, fmt.Errorf("%w: %s ~ %s", browser.ErrNotFound, selector, text)
	}
	f.record("findtext %s %s", selector, text)
	return el, nil
}

func (f *fakeSession) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	f.record("findall %s", selector)
	var out []browser.Element
	for _, el := range f.pages[f.current][selector] {
		out = append(out, el)
	}
	return out, nil
}

func (f *fakeSession) CurrentURL(ctx context.Context) (string, error) {
	return f.current, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

// fakeElement is a scripted DOM node.
type fakeElement struct {
	session  *fakeSession
	name     string
	text     string
	attrs    map[string]string
	children map[string][]*fakeElement
	typed    strings.Builder
}

func (e *fakeElement) Find(ctx context.Context, selector string) (browser.Element, error) {
	kids := e.children[selector]
	if len(kids) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return kids[0], nil
}

func (e *fakeElement) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	var out []browser.Element
	for _, k := range e.children[selector] {
		out = append(out, k)
	}
	return out, nil
}

func (e *fakeElement) Text(ctx context.Context) (string, error) {
	return e.text, nil
}

func (e *fakeElement) Attribute(ctx context.Context, name string) (string, error) {
	v, ok := e.attrs[name]
	if !ok {
		return "", fmt.Errorf("%w: attribute %s", browser.ErrNotFound, name)
	}
	return v, nil
}

func (e *fakeElement) Click(ctx context.Context) error {
	if e.session != nil {
		e.session.record("click %s", e.name)
	}
	return nil
}

func (e *fakeElement) TypeText(ctx context.Context, text string, delay pacing.Range) error {
	e.typed.WriteString(text)
	if e.session != nil {
		e.session.record("type %s %s", e.name, text)
	}
	return nil
}
