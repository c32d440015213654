package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"revscore/internal/domain"
)

// RodProvider launches one headless browser per session.
type RodProvider struct {
	opts Options
}

func NewRodProvider(opts Options) *RodProvider { return &RodProvider{opts: opts} }

func (p *RodProvider) Acquire(ctx context.Context) (domain.Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true).
		Leakless(false).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("disable-extensions").
		Set("mute-audio")
	if p.opts.UserAgent != "" {
		l = l.Set("user-agent", p.opts.UserAgent)
	}
	if p.opts.Proxy != "" {
		l = l.Proxy(p.opts.Proxy)
	}
	if p.opts.ChromeBin != "" {
		l = l.Bin(p.opts.ChromeBin)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if p.opts.AcceptLanguage != "" {
		if _, err := page.SetExtraHeaders([]string{"Accept-Language", p.opts.AcceptLanguage}); err != nil {
			log.Warn().Err(err).Msg("failed to set browser headers")
		}
	}
	return &rodSession{launcher: l, browser: browser, page: page}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	once     sync.Once
	err      error
}

// Load navigates the session's page. If waitFor never shows up before ctx expires the
// document is reported as empty.
func (s *rodSession) Load(ctx context.Context, url, waitFor string) (string, error) {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to load: %w", err)
	}
	if waitFor != "" {
		if _, err := p.Element(waitFor); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return "", ctx.Err()
			}
			return "", nil
		}
	}
	return p.HTML()
}

func (s *rodSession) Close() error {
	s.once.Do(func() {
		s.err = errors.Join(s.page.Close(), s.browser.Close())
		s.launcher.Kill()
	})
	return s.err
}
