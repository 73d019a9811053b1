// Package di wires the configuration, logger, preset registry, WebDAV client,
// preset watcher and MCP server together.
package di

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/bmordue/webdav-mcp/internal/config"
	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
	"github.com/bmordue/webdav-mcp/internal/logging"
	"github.com/bmordue/webdav-mcp/internal/mcpserver"
	"github.com/bmordue/webdav-mcp/internal/preset"
	"github.com/bmordue/webdav-mcp/internal/watcher"
	"github.com/bmordue/webdav-mcp/internal/webdav"
)

// Service names.
const (
	ServiceLogger   = "logger"
	ServiceRegistry = "registry"
	ServiceWebDAV   = "webdav"
	ServiceWatcher  = "watcher"
	ServiceMCP      = "mcp"
)

// FactoryFunc creates a service instance, resolving its dependencies through
// resolver.
type FactoryFunc func(resolver DependencyResolver) (interface{}, error)

// DependencyResolver hands out services to factories and detects cycles.
type DependencyResolver interface {
	Get(name string) (interface{}, error)
}

type dependencyResolver struct {
	container *ServiceContainer
	resolving map[string]bool
}

func (dr *dependencyResolver) Get(name string) (interface{}, error) {
	return dr.container.getWithResolver(name, dr.resolving)
}

// ServiceDefinition describes a registered service. Dependencies decide the
// shutdown order.
type ServiceDefinition struct {
	Name         string
	Dependencies []string
}

// ServiceContainer creates each service once, on first use, and owns its
// lifetime.
type ServiceContainer struct {
	services    map[string]ServiceDefinition
	factories   map[string]FactoryFunc
	singletons  map[string]interface{}
	creating    map[string]*sync.WaitGroup
	mu          sync.RWMutex
	config      *config.Config
	logger      logging.Logger
	initialized bool
}

// Option customises a ServiceContainer.
type Option func(*ServiceContainer)

// WithLogger replaces the logger built from the log section of the config.
func WithLogger(logger logging.Logger) Option {
	return func(c *ServiceContainer) {
		c.logger = logger
	}
}

// NewServiceContainer creates an empty container for cfg.
func NewServiceContainer(cfg *config.Config, opts ...Option) *ServiceContainer {
	c := &ServiceContainer{
		services:   make(map[string]ServiceDefinition),
		factories:  make(map[string]FactoryFunc),
		singletons: make(map[string]interface{}),
		creating:   make(map[string]*sync.WaitGroup),
		config:     cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ServiceBuilder adjusts a definition after registration.
type ServiceBuilder struct {
	definition ServiceDefinition
	container  *ServiceContainer
}

// RegisterSingleton adds a service that is created once and then reused.
func (c *ServiceContainer) RegisterSingleton(name string, factory FactoryFunc) *ServiceBuilder {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := &ServiceBuilder{
		definition: ServiceDefinition{Name: name},
		container:  c,
	}
	c.services[name] = b.definition
	c.factories[name] = factory
	return b
}

// RegisterInstance adds an already built service.
func (c *ServiceContainer) RegisterInstance(name string, instance interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.singletons[name] = instance
	c.services[name] = ServiceDefinition{Name: name}
}

// Get returns the named service, creating it if needed.
func (c *ServiceContainer) Get(name string) (interface{}, error) {
	return c.getWithResolver(name, make(map[string]bool))
}

func (c *ServiceContainer) getWithResolver(name string, resolving map[string]bool) (interface{}, error) {
	if resolving[name] {
		return nil, fmt.Errorf("circular dependency detected for service '%s'", name)
	}

	c.mu.Lock()
	if _, exists := c.services[name]; !exists {
		c.mu.Unlock()
		return nil, fmt.Errorf("service '%s' not registered", name)
	}
	factory := c.factories[name]
	if instance, ok := c.singletons[name]; ok {
		c.mu.Unlock()
		return instance, nil
	}
	if wg, busy := c.creating[name]; busy {
		c.mu.Unlock()
		wg.Wait()
		c.mu.RLock()
		instance, ok := c.singletons[name]
		c.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("failed to create singleton service '%s'", name)
		}
		return instance, nil
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	c.creating[name] = wg
	c.mu.Unlock()

	// Factories run without the lock held so they can resolve their own
	// dependencies.
	resolving[name] = true
	instance, err := c.create(factory, resolving)
	delete(resolving, name)

	c.mu.Lock()
	delete(c.creating, name)
	if err == nil {
		c.singletons[name] = instance
	}
	c.mu.Unlock()
	wg.Done()

	if err != nil {
		return nil, fmt.Errorf("failed to create singleton service '%s': %w", name, err)
	}
	return instance, nil
}

func (c *ServiceContainer) create(factory FactoryFunc, resolving map[string]bool) (interface{}, error) {
	if factory == nil {
		return nil, fmt.Errorf("factory is nil")
	}
	return factory(&dependencyResolver{container: c, resolving: resolving})
}

// Initialize registers the application services. It is idempotent.
func (c *ServiceContainer) Initialize() error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.initialized = true
	c.mu.Unlock()

	if c.config == nil {
		return apperrors.NewConfigError(apperrors.ErrCodeConfigInvalid, "container has no configuration")
	}
	c.registerCoreServices()
	return nil
}

func (c *ServiceContainer) registerCoreServices() {
	cfg := c.config

	if c.logger != nil {
		c.RegisterInstance(ServiceLogger, c.logger)
	} else {
		c.RegisterSingleton(ServiceLogger, func(DependencyResolver) (interface{}, error) {
			return logging.Logger(logging.NewLogger(cfg.LoggerConfig())), nil
		})
	}

	c.RegisterSingleton(ServiceRegistry, func(r DependencyResolver) (interface{}, error) {
		logger, err := resolveLogger(r)
		if err != nil {
			return nil, err
		}
		return preset.NewRegistry(cfg.Presets.Dir, cfg.Presets.CacheTTL(), preset.WithLogger(logger)), nil
	}).DependsOn(ServiceLogger)

	c.RegisterSingleton(ServiceWebDAV, func(r DependencyResolver) (interface{}, error) {
		if err := cfg.RequireServer(); err != nil {
			return nil, err
		}
		logger, err := resolveLogger(r)
		if err != nil {
			return nil, err
		}
		return webdav.NewClient(webdav.Options{
			BaseURL:            cfg.Server.URL,
			Username:           cfg.Server.Username,
			Password:           cfg.Server.Password,
			Timeout:            cfg.Server.Timeout,
			InsecureSkipVerify: cfg.Server.InsecureSkipVerify,
			MaxResponseBytes:   cfg.Limits.MaxResponseBytes,
			Logger:             logger.WithComponent("webdav"),
		})
	}).DependsOn(ServiceLogger)

	c.RegisterSingleton(ServiceWatcher, func(r DependencyResolver) (interface{}, error) {
		logger, err := resolveLogger(r)
		if err != nil {
			return nil, err
		}
		reg, err := r.Get(ServiceRegistry)
		if err != nil {
			return nil, err
		}
		registry := reg.(*preset.Registry)

		fw, err := watcher.NewFileWatcher(watcher.DefaultDebounce, logger.WithComponent("watcher"))
		if err != nil {
			return nil, err
		}
		fw.AddFilter(watcher.JSONFilter)
		fw.AddFilter(watcher.NoHiddenFilter)
		fw.AddHandler(func(events []watcher.ChangeEvent) error {
			ctx := context.Background()
			for _, e := range events {
				logger.Debug(ctx, "Preset file changed", "path", e.Path, "change", e.Type.String())
			}
			logger.Info(ctx, "Preset files changed, reloading", "changes", len(events))
			registry.Invalidate()
			return nil
		})
		if err := fw.AddPath(registry.Dir()); err != nil {
			_ = fw.Stop()
			return nil, err
		}
		return fw, nil
	}).DependsOn(ServiceLogger, ServiceRegistry)

	c.RegisterSingleton(ServiceMCP, func(r DependencyResolver) (interface{}, error) {
		logger, err := resolveLogger(r)
		if err != nil {
			return nil, err
		}
		reg, err := r.Get(ServiceRegistry)
		if err != nil {
			return nil, err
		}

		deps := mcpserver.Deps{Registry: reg.(*preset.Registry), Logger: logger}
		if cfg.Server.URL != "" {
			client, err := r.Get(ServiceWebDAV)
			if err != nil {
				return nil, err
			}
			deps.Client = client.(*webdav.Client)
		}
		return mcpserver.New(deps), nil
	}).DependsOn(ServiceLogger, ServiceRegistry, ServiceWebDAV)
}

func resolveLogger(r DependencyResolver) (logging.Logger, error) {
	l, err := r.Get(ServiceLogger)
	if err != nil {
		return nil, err
	}
	return l.(logging.Logger), nil
}

// StartWatching starts the preset watcher when presets.watch is set. A
// missing preset directory is logged and skipped, since there is nothing to
// watch yet.
func (c *ServiceContainer) StartWatching(ctx context.Context) error {
	if c.config == nil || !c.config.Presets.Watch {
		return nil
	}
	logger, err := c.GetLogger()
	if err != nil {
		return err
	}

	dir := c.config.Presets.Dir
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Warn(ctx, err, "Preset directory not found, not watching it", "dir", dir)
		return nil
	}

	fw, err := c.GetFileWatcher()
	if err != nil {
		return err
	}
	logger.Info(ctx, "Watching preset directory", "dir", dir)
	return fw.Start(ctx)
}

// Shutdown stops every created service, each before the services it depends
// on, and forgets them.
func (c *ServiceContainer) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, name := range c.stopOrder() {
		instance := c.singletons[name]
		var err error
		switch s := instance.(type) {
		case interface{ Shutdown(context.Context) error }:
			err = s.Shutdown(ctx)
		case interface{ Stop() error }:
			err = s.Stop()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown %s: %w", name, err))
		}
	}

	c.singletons = make(map[string]interface{})
	return apperrors.Combine(errs...)
}

// stopOrder lists the created services so that every service comes before
// its dependencies. Unrelated services are ordered by name. Callers hold mu.
func (c *ServiceContainer) stopOrder() []string {
	names := make([]string, 0, len(c.singletons))
	for name := range c.singletons {
		names = append(names, name)
	}
	sort.Strings(names)

	visited := make(map[string]bool, len(c.services))
	var order []string
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range c.services[name].Dependencies {
			visit(dep)
		}
		if _, created := c.singletons[name]; created {
			order = append(order, name)
		}
	}
	for _, name := range names {
		visit(name)
	}

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// DependsOn records the services the factory resolves.
func (sb *ServiceBuilder) DependsOn(dependencies ...string) *ServiceBuilder {
	sb.definition.Dependencies = append(sb.definition.Dependencies, dependencies...)
	sb.updateContainer()
	return sb
}

func (sb *ServiceBuilder) updateContainer() {
	sb.container.mu.Lock()
	sb.container.services[sb.definition.Name] = sb.definition
	sb.container.mu.Unlock()
}

// GetLogger returns the application logger.
func (c *ServiceContainer) GetLogger() (logging.Logger, error) {
	s, err := c.Get(ServiceLogger)
	if err != nil {
		return nil, err
	}
	return s.(logging.Logger), nil
}

// GetRegistry returns the preset registry.
func (c *ServiceContainer) GetRegistry() (*preset.Registry, error) {
	s, err := c.Get(ServiceRegistry)
	if err != nil {
		return nil, err
	}
	return s.(*preset.Registry), nil
}

// GetWebDAVClient returns the WebDAV client. It fails when no server URL is
// configured.
func (c *ServiceContainer) GetWebDAVClient() (*webdav.Client, error) {
	s, err := c.Get(ServiceWebDAV)
	if err != nil {
		return nil, err
	}
	return s.(*webdav.Client), nil
}

// GetFileWatcher returns the preset directory watcher.
func (c *ServiceContainer) GetFileWatcher() (*watcher.FileWatcher, error) {
	s, err := c.Get(ServiceWatcher)
	if err != nil {
		return nil, err
	}
	return s.(*watcher.FileWatcher), nil
}

// GetMCPServer returns the MCP server.
func (c *ServiceContainer) GetMCPServer() (*mcpserver.Server, error) {
	s, err := c.Get(ServiceMCP)
	if err != nil {
		return nil, err
	}
	return s.(*mcpserver.Server), nil
}
