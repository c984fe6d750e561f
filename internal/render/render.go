// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render drives the browser session that renders anthology listing
// pages. Listing pages assemble their paper blocks with JavaScript, so a
// plain GET returns markup without entries; a real browser has to load the
// page before extraction can run.
package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultWaitTimeout bounds the wait for the bottom anchor when the config
// leaves it unset.
const DefaultWaitTimeout = 30 * time.Second

// Session owns one browser for the lifetime of a harvest run. Close releases
// the browser and is safe to call more than once; commands defer it so every
// exit path shuts the browser down exactly once.
type Session struct {
	drv  driver
	once sync.Once
}

// driver abstracts browser automation for testing.
type driver interface {
	// Start launches the browser. A missing or broken binary surfaces here,
	// before any navigation.
	Start() error

	// Navigate loads a URL and blocks until the page load event fires.
	Navigate(url string) error

	// WaitReady blocks until a node matching the XPath expression is
	// attached, or the timeout elapses.
	WaitReady(xpath string, timeout time.Duration) error

	// HTML returns the serialized rendered document.
	HTML() (string, error)

	// Stop releases the browser and its allocator.
	Stop()
}

// NewSession launches a browser. Headless is off by default so a first run
// can be watched; cfg.Headless turns the window off.
func NewSession(ctx context.Context, headless bool) (*Session, error) {
	return startSession(newChromeDriver(ctx, headless))
}

func startSession(d driver) (*Session, error) {
	if err := d.Start(); err != nil {
		d.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	return &Session{drv: d}, nil
}

// Load navigates to url and blocks until the page load event.
func (s *Session) Load(url string) error {
	if err := s.drv.Navigate(url); err != nil {
		return fmt.Errorf("loading %s: %w", url, err)
	}
	return nil
}

// WaitForAnchor blocks until an anchor whose href equals href exactly is
// present in the DOM, or the timeout elapses. A non-positive timeout selects
// DefaultWaitTimeout. A timeout comes back as an error; callers treat it as
// recoverable and extract from whatever has rendered.
func (s *Session) WaitForAnchor(href string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	xpath := fmt.Sprintf("//a[@href='%s']", href)
	if err := s.drv.WaitReady(xpath, timeout); err != nil {
		return fmt.Errorf("waiting for anchor %s: %w", href, err)
	}
	return nil
}

// HTML returns the rendered document for extraction.
func (s *Session) HTML() (string, error) {
	html, err := s.drv.HTML()
	if err != nil {
		return "", fmt.Errorf("reading rendered page: %w", err)
	}
	return html, nil
}

// Close releases the browser. Only the first call acts.
func (s *Session) Close() {
	s.once.Do(s.drv.Stop)
}

// chromeDriver is the production driver backed by chromedp. The browser's
// lifetime is tied to the context built in newChromeDriver; per-action
// timeouts run on derived contexts so an expired wait never tears the
// browser down.
type chromeDriver struct {
	ctx     context.Context
	cancels []context.CancelFunc
}

func newChromeDriver(parent context.Context, headless bool) *chromeDriver {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	return &chromeDriver{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{browserCancel, allocCancel},
	}
}

func (d *chromeDriver) Start() error {
	// Run with no actions forces the launch now.
	return chromedp.Run(d.ctx)
}

func (d *chromeDriver) Navigate(url string) error {
	return chromedp.Run(d.ctx, chromedp.Navigate(url))
}

func (d *chromeDriver) WaitReady(xpath string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.WaitReady(xpath, chromedp.BySearch))
}

func (d *chromeDriver) HTML() (string, error) {
	var html string
	if err := chromedp.Run(d.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (d *chromeDriver) Stop() {
	// Browser context first, allocator second.
	for _, cancel := range d.cancels {
		cancel()
	}
}
