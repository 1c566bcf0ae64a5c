package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

// PermissionGate caches the process-wide location permission grant.
// Once granted, RequestPermission answers without prompting again.
type PermissionGate struct {
	mu       sync.Mutex
	granted  bool
	prompter ports.PermissionPrompter
	log      zerolog.Logger
}

// NewPermissionGate returns a gate that asks prompter when no grant is cached.
func NewPermissionGate(prompter ports.PermissionPrompter, log zerolog.Logger) *PermissionGate {
	return &PermissionGate{prompter: prompter, log: log}
}

// RequestPermission returns the cached grant or prompts for one.
// Denials are not cached, so a later call prompts again.
func (g *PermissionGate) RequestPermission(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.granted {
		return true, nil
	}

	ok, err := g.prompter.Prompt(ctx)
	if err != nil {
		g.log.Error().Err(err).Msg("location permission prompt failed")
		return false, fmt.Errorf("request permission: %w", err)
	}
	g.granted = ok
	g.log.Info().Bool("granted", ok).Msg("location permission requested")
	return ok, nil
}

// Granted reports the cached grant without prompting.
func (g *PermissionGate) Granted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.granted
}

// Revoke drops the cached grant.
func (g *PermissionGate) Revoke() {
	g.mu.Lock()
	g.granted = false
	g.mu.Unlock()
	g.log.Warn().Msg("location permission revoked")
}

// StaticPrompter answers every prompt with a fixed decision taken from configuration.
type StaticPrompter struct {
	Grant bool
}

// Prompt satisfies ports.PermissionPrompter.
func (p StaticPrompter) Prompt(context.Context) (bool, error) {
	return p.Grant, nil
}
