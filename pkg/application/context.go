// ABOUTME: Application context implementation
// ABOUTME: Thin lifecycle and service holder passed to drivers and mixers
package application

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// Config holds application context configuration
type Config struct {
	// Name identifies the application in logs
	Name string

	// AssetsDir is the base directory relative asset paths resolve against
	AssetsDir string

	// Logger receives log output (default: the standard logger)
	Logger *log.Logger

	// OnError is called for every reported error
	OnError func(error)
}

// Context carries lifecycle and shared services
type Context struct {
	config Config
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	errMu   sync.Mutex
	lastErr error
	errors  atomic.Int64
}

// New creates an application context
func New(config Config) *Context {
	if config.Name == "" {
		config.Name = "livepaper"
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Context{
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Name returns the application name
func (c *Context) Name() string {
	return c.config.Name
}

// Logf writes to the application log sink
func (c *Context) Logf(format string, args ...interface{}) {
	c.logger.Printf(format, args...)
}

// Logger returns the application log sink
func (c *Context) Logger() *log.Logger {
	return c.logger
}

// ReportError records an asynchronous failure, logs it and forwards it to
// the OnError callback. A nil error is ignored.
func (c *Context) ReportError(err error) {
	if err == nil {
		return
	}

	c.errMu.Lock()
	c.lastErr = err
	c.errMu.Unlock()
	c.errors.Add(1)

	if c.config.OnError != nil {
		c.config.OnError(err)
		return
	}
	c.logger.Printf("Error: %v", err)
}

// LastError returns the most recently reported error
func (c *Context) LastError() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

// ErrorCount returns how many errors were reported
func (c *Context) ErrorCount() int64 {
	return c.errors.Load()
}

// AssetPath resolves a path against AssetsDir; absolute paths pass through
func (c *Context) AssetPath(path string) string {
	if filepath.IsAbs(path) || c.config.AssetsDir == "" {
		return path
	}
	return filepath.Join(c.config.AssetsDir, path)
}

// Context returns a context cancelled on Shutdown
func (c *Context) Context() context.Context {
	return c.ctx
}

// Done is closed once Shutdown has been called
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Shutdown signals every component bound to this context to stop
func (c *Context) Shutdown() {
	c.cancel()
}
