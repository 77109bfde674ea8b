package config

import (
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/kochabx/curvebox/core/validator"
	"github.com/kochabx/curvebox/log"
)

// Config manages application configuration
type Config struct {
	mu       sync.RWMutex        // protects concurrent access to target
	viper    *viper.Viper        // viper instance for configuration management
	validate validator.Validator // validator for configuration validation
	target   any                 // target is the destination where the configuration will be unmarshalled
	loader   Loader              // loader is responsible for loading configuration
	watch    bool                // whether to automatically watch for configuration changes
	file     string              // explicit config file path, see WithFile
	onChange []func()            // invoked after a successful reload
}

// New creates a new Config instance with the given options
// If no loader is provided, a default FileLoader will be created with:
//   - filename: "config.yaml"
//   - paths: ["."]
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.Validate,
		target:   target,
		watch:    true,
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	// Create default FileLoader if no loader is provided
	if c.loader == nil {
		name, paths := "config.yaml", []string{"."}
		if c.file != "" {
			name, paths = filepath.Base(c.file), []string{filepath.Dir(c.file)}
		}
		c.loader = NewFileLoader(name, paths, c.viper, c.validate)
	}

	return c
}

// Load reads the configuration using the configured loader
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loader.Load(c.target); err != nil {
		return err
	}

	return nil
}

// Reload reloads the configuration from the loader
func (c *Config) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loader.Load(c.target); err != nil {
		return err
	}

	return nil
}

// Watch sets up automatic configuration watching if enabled
func (c *Config) Watch() error {
	if !c.watch {
		return nil
	}
	return c.loader.Watch(func() {
		log.Info().Msg("config change detected")

		// Attempt to reload configuration
		if err := c.Reload(); err != nil {
			log.Error().Err(err).Msg("failed to reload config after change")
			return
		}

		log.Info().Msg("config reloaded successfully")

		c.mu.RLock()
		callbacks := append([]func(){}, c.onChange...)
		c.mu.RUnlock()
		for _, fn := range callbacks {
			fn()
		}
	})
}

// OnChange registers fn to run after each successful reload.
func (c *Config) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// Read runs fn while holding the read lock, so fn sees a consistent target
// even while a reload is in progress.
func (c *Config) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// GetViper returns the underlying viper instance if the loader is a FileLoader
// This is provided for backward compatibility
func (c *Config) GetViper() *viper.Viper {
	return c.viper
}
