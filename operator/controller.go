// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package operator

import (
	"context"
	"fmt"
	"log/slog"
)

// Controller turns an observed event into actions against the runtime.
type Controller interface {
	Reconcile(ctx context.Context, ev Event, rt Runtime, w Watcher) error
}

// RestartController restarts the server on create and update events and
// leaves it alone when a watched file disappears. The zero value is ready to use.
type RestartController struct {
	Logger *slog.Logger
	// Validate, when set, is consulted before a restart. A non-nil error skips
	// the restart so a broken manifest never replaces a working server.
	Validate func() error
}

func (c *RestartController) Reconcile(ctx context.Context, ev Event, rt Runtime, _ Watcher) error {
	switch ev.Kind {
	case EventCreate, EventUpdate:
		if c.Validate != nil {
			if err := c.Validate(); err != nil {
				c.logWarn("manifest not loadable; keeping current server", "path", ev.Path, "error", err)
				return nil
			}
		}
		if err := rt.Shutdown(ctx); err != nil {
			return err
		}
		return rt.Run(ctx)
	case EventDelete:
		c.logWarn("watched file removed; server keeps its last loaded zone", "path", ev.Path)
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrUnknownEvent, ev.Kind)
	}
}

func (c *RestartController) logWarn(msg string, keyValues ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, keyValues...)
	}
}
