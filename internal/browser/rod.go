package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"subpilot/internal/pacing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// focusPause is the short beat between clicking a field and typing into it.
const focusPause = 500 * time.Millisecond

// RodSession drives a single stealth tab in a Chrome instance it launched.
type RodSession struct {
	cfg      Config
	pacer    *pacing.Pacer
	logger   *zap.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Open launches Chrome and opens a stealth tab. The caller must Close the
// session.
func Open(ctx context.Context, cfg Config, pacer *pacing.Pacer, logger *zap.Logger) (*RodSession, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("start-maximized").
		Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	for _, rawFlag := range cfg.Flags {
		flagStr := strings.TrimLeft(rawFlag, "-")
		name, val, hasVal := strings.Cut(flagStr, "=")
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}

	var proxyUser *url.Userinfo
	if cfg.Proxy != "" {
		server, user, err := proxyServer(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		l = l.Proxy(server)
		proxyUser = user
		logger.Info("Using proxy", zap.String("server", server))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	if proxyUser != nil {
		password, _ := proxyUser.Password()
		wait := b.HandleAuth(proxyUser.Username(), password)
		go func() {
			if err := wait(); err != nil {
				logger.Debug("Proxy auth handler stopped", zap.Error(err))
			}
		}()
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if cfg.Headless {
		if err := (proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.GetViewportWidth(),
			Height:            cfg.GetViewportHeight(),
			DeviceScaleFactor: 1.0,
			Mobile:            false,
		}).Call(page); err != nil {
			logger.Warn("Failed to set viewport", zap.Error(err))
		}
	}

	logger.Info("Browser ready", zap.Bool("headless", cfg.Headless))
	return &RodSession{
		cfg:      cfg,
		pacer:    pacer,
		logger:   logger,
		launcher: l,
		browser:  b,
		page:     page,
	}, nil
}

// proxyServer splits a proxy URL into the --proxy-server value Chrome
// accepts and the credentials it does not.
func proxyServer(raw string) (string, *url.Userinfo, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	if u.Host == "" {
		return "", nil, fmt.Errorf("invalid proxy url %q: missing host", u.Redacted())
	}
	server := u.Host
	if strings.HasPrefix(u.Scheme, "socks") {
		server = u.Scheme + "://" + u.Host
	}
	return server, u.User, nil
}

func (s *RodSession) Navigate(ctx context.Context, target string) error {
	page := s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout())
	defer page.CancelTimeout()
	if err := page.Navigate(target); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		s.logger.Debug("Page load wait ended early", zap.String("url", target), zap.Error(err))
	}
	return nil
}

func (s *RodSession) TypeInto(ctx context.Context, selector, text string, delay pacing.Range) error {
	el, err := s.Find(ctx, selector)
	if err != nil {
		return err
	}
	return el.TypeText(ctx, text, delay)
}

func (s *RodSession) Click(ctx context.Context, selector string) error {
	el, err := s.Find(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(ctx)
}

func (s *RodSession) PressEnter(ctx context.Context, selector string) error {
	el, err := s.find(ctx, selector)
	if err != nil {
		return err
	}
	return el.Context(ctx).Type(input.Enter)
}

func (s *RodSession) Find(ctx context.Context, selector string) (Element, error) {
	el, err := s.find(ctx, selector)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el, pacer: s.pacer}, nil
}

func (s *RodSession) find(ctx context.Context, selector string) (*rod.Element, error) {
	el, err := s.page.Context(ctx).Timeout(s.cfg.ElementTimeout()).Element(selector)
	if err != nil {
		return nil, lookupError(ctx, selector, err)
	}
	return el.CancelTimeout(), nil
}

func (s *RodSession) FindByText(ctx context.Context, selector, text string) (Element, error) {
	el, err := s.page.Context(ctx).Timeout(s.cfg.ElementTimeout()).ElementR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return nil, lookupError(ctx, selector+" ~ "+text, err)
	}
	return &rodElement{el: el.CancelTimeout(), pacer: s.pacer}, nil
}

func (s *RodSession) FindAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selector, err)
	}
	return wrapElements(els, s.pacer), nil
}

func (s *RodSession) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

// Close shuts the tab, the browser and the launched process.
func (s *RodSession) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	s.logger.Info("Browser closed")
	return errors.Join(errs...)
}

func lookupError(ctx context.Context, selector string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var notFound *rod.ElementNotFoundError
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return fmt.Errorf("find %s: %w", selector, err)
}

type rodElement struct {
	el    *rod.Element
	pacer *pacing.Pacer
}

func wrapElements(els rod.Elements, pacer *pacing.Pacer) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, pacer: pacer})
	}
	return out
}

func (e *rodElement) Find(ctx context.Context, selector string) (Element, error) {
	has, el, err := e.el.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &rodElement{el: el, pacer: e.pacer}, nil
}

func (e *rodElement) FindAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selector, err)
	}
	return wrapElements(els, e.pacer), nil
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", fmt.Errorf("%w: attribute %s", ErrNotFound, name)
	}
	return *v, nil
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// TypeText clicks into the element and inputs text rune by rune.
func (e *rodElement) TypeText(ctx context.Context, text string, delay pacing.Range) error {
	el := e.el.Context(ctx)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("focus input: %w", err)
	}
	if err := e.pacer.Pause(ctx, focusPause); err != nil {
		return err
	}
	for _, r := range text {
		if err := el.Input(string(r)); err != nil {
			return fmt.Errorf("type: %w", err)
		}
		if err := e.pacer.Keystroke(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}
