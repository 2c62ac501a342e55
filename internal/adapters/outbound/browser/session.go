// Package browser implements the render session on a headless Chrome driven
// through Rod. One session is opened per run and reused for every row.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/openkraft/headeraudit/internal/domain"
)

// Options configures the browser.
type Options struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local one.
	RemoteURL         string
	Bin               string
	Headless          bool
	NavigationTimeout time.Duration
	Logger            *zap.Logger
}

func (o *Options) defaults() {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Renderer implements domain.Renderer.
type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	opts.defaults()
	return &Renderer{opts: opts}
}

// FromConfig creates a Renderer from the render section of the config.
func FromConfig(cfg domain.RenderConfig, log *zap.Logger) *Renderer {
	return New(Options{
		RemoteURL:         cfg.RemoteURL,
		Bin:               cfg.Bin,
		Headless:          cfg.IsHeadless(),
		NavigationTimeout: cfg.NavigationTimeout,
		Logger:            log,
	})
}

// Open starts (or connects to) Chrome, opens an isolated context, loads
// origin, injects cookies and reloads so they take effect.
func (r *Renderer) Open(ctx context.Context, origin string, cookies []domain.Cookie) (domain.RenderSession, error) {
	log := r.opts.Logger
	s := &Session{navTimeout: r.opts.NavigationTimeout, log: log}

	controlURL := r.opts.RemoteURL
	if controlURL == "" {
		l := launcher.New().Headless(r.opts.Headless)
		if r.opts.Bin != "" {
			l = l.Bin(r.opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		s.lnch = l
		controlURL = u
		log.Debug("browser: launched local chrome", zap.String("control_url", controlURL))
	} else {
		log.Debug("browser: connecting to remote", zap.String("control_url", controlURL))
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		s.release()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b

	inc, err := b.Incognito()
	if err != nil {
		s.release()
		return nil, fmt.Errorf("browser: incognito context: %w", err)
	}
	s.context = inc

	page, err := inc.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		s.release()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	s.page = page

	if err := s.prime(ctx, origin, cookies); err != nil {
		s.release()
		return nil, err
	}
	log.Info("browser: session ready", zap.String("origin", origin), zap.Int("cookies", len(cookies)))
	return s, nil
}

// Session implements domain.RenderSession. It is not safe for concurrent use.
type Session struct {
	navTimeout time.Duration
	log        *zap.Logger

	lnch    *launcher.Launcher
	browser *rod.Browser
	context *rod.Browser
	page    *rod.Page

	closeOnce sync.Once
	closed    bool
}

func (s *Session) prime(ctx context.Context, origin string, cookies []domain.Cookie) error {
	if origin == "" {
		return nil
	}
	p := s.page.Context(ctx).Timeout(s.navTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(origin); err != nil {
		return fmt.Errorf("browser: loading origin %s: %w", origin, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: waiting for origin: %w", err)
	}
	if len(cookies) == 0 {
		return nil
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:  c.Name,
			Value: c.Value,
			URL:   origin,
		})
	}
	if err := p.SetCookies(params); err != nil {
		return fmt.Errorf("browser: setting cookies: %w", err)
	}
	if err := p.Reload(); err != nil {
		return fmt.Errorf("browser: reloading after cookies: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: waiting for reload: %w", err)
	}
	return nil
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	p := s.page.Context(ctx).Timeout(s.navTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load: %w", err)
	}
	return nil
}

// ReadMarkerClass returns the class tokens of the first node matching
// anchorSelector.
func (s *Session) ReadMarkerClass(ctx context.Context, anchorSelector string) ([]string, error) {
	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	has, el, err := s.page.Context(ctx).Has(anchorSelector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %s: %w", anchorSelector, err)
	}
	if !has {
		return nil, domain.ErrAnchorNotFound
	}
	cls, err := el.Attribute("class")
	if err != nil {
		return nil, fmt.Errorf("browser: read class of %s: %w", anchorSelector, err)
	}
	if cls == nil {
		return nil, nil
	}
	return strings.Fields(*cls), nil
}

// WaitForMarker polls for a node with the marker class. A marker already in
// the DOM is reported without waiting.
func (s *Session) WaitForMarker(ctx context.Context, marker domain.Variant, timeout time.Duration) (bool, error) {
	if s.closed {
		return false, domain.ErrSessionClosed
	}
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	_, err := p.Element(markerSelector(marker))
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return false, nil
	default:
		return false, fmt.Errorf("browser: wait for %s: %w", marker, err)
	}
}

// Close releases the page, the browser context and, for a locally launched
// Chrome, the process. Calling it more than once is a no-op.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed = true
		err = s.release()
		s.log.Debug("browser: session closed")
	})
	return err
}

func (s *Session) release() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing page: %w", err))
		}
		s.page = nil
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("disposing context: %w", err))
		}
		s.context = nil
	}
	// A remote Chrome belongs to someone else; only a launched one is closed.
	if s.lnch != nil {
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing browser: %w", err))
			}
		}
		s.lnch.Cleanup()
		s.lnch = nil
	}
	s.browser = nil
	return errors.Join(errs...)
}

func markerSelector(marker domain.Variant) string {
	return "." + string(marker)
}
