// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package operator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dnsoperator/daemon"
	"dnsoperator/logger"

	"github.com/google/uuid"
)

// Operator drives the watch, reconcile loop for one runtime.
type Operator struct {
	runtime    Runtime
	watcher    Watcher
	controller Controller
	logger     *slog.Logger
	state      *daemon.State
}

// Option configures an Operator.
type Option func(*Operator)

// WithLogger sets the logger used for loop messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *Operator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithState mirrors loop activity (running flag, last event, failures) into s.
func WithState(s *daemon.State) Option {
	return func(o *Operator) { o.state = s }
}

// New wires an operator. All three collaborators are required.
func New(rt Runtime, w Watcher, c Controller, opts ...Option) (*Operator, error) {
	switch {
	case rt == nil:
		return nil, errors.New("operator: runtime is required")
	case w == nil:
		return nil, errors.New("operator: watcher is required")
	case c == nil:
		return nil, errors.New("operator: controller is required")
	}
	o := &Operator{runtime: rt, watcher: w, controller: c, logger: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run starts the runtime and then handles events until ctx is cancelled or a
// watch or reconcile call fails. Cancellation returns nil; any other failure is
// returned and the loop stops.
func (o *Operator) Run(ctx context.Context) error {
	if err := o.runtime.Run(ctx); err != nil {
		o.fail(err)
		return fmt.Errorf("operator: initial start: %w", err)
	}
	o.setRunning(true)
	defer o.setRunning(false)
	o.logger.Info("operator started")

	for {
		ev, err := o.watcher.Watch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				o.logger.Info("operator stopping", "reason", ctx.Err())
				return nil
			}
			o.fail(err)
			return fmt.Errorf("operator: watch: %w", err)
		}

		id := uuid.NewString()
		log := o.logger.With("reconcile_id", id, "kind", ev.Kind.String(), "path", ev.Path)
		log.Info("reconciling")
		if o.state != nil {
			o.state.RecordEvent(daemon.EventSnapshot{ID: id, Kind: ev.Kind.String(), Path: ev.Path})
		}
		if err := o.controller.Reconcile(ctx, ev, o.runtime, o.watcher); err != nil {
			if ctx.Err() != nil {
				log.Info("reconcile interrupted; operator stopping", "error", err)
				return nil
			}
			log.Error("reconcile failed", "error", err)
			o.fail(err)
			return fmt.Errorf("operator: reconcile %s %s: %w", ev.Kind, ev.Path, err)
		}
		log.Info("reconciled")
	}
}

// Shutdown stops the managed server.
func (o *Operator) Shutdown(ctx context.Context) error {
	return o.runtime.Shutdown(ctx)
}

func (o *Operator) setRunning(running bool) {
	if o.state != nil {
		o.state.SetOperatorRunning(running)
	}
}

func (o *Operator) fail(err error) {
	if o.state != nil {
		o.state.RecordError(err)
	}
}
