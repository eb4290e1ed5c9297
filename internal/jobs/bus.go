// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

// Package jobs dispatches sync work through an in-process Watermill bus.
// Ticks and manual triggers publish small job messages; a router consumes
// them and runs the fleet, so slow cycles never block the scheduler or an
// API response.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/punchkit/punchsync/internal/logging"
	"github.com/punchkit/punchsync/internal/metrics"
	syncer "github.com/punchkit/punchsync/internal/sync"
)

// Topics for the two job kinds.
const (
	TopicScheduledSync = "sync.scheduled"
	TopicImport        = "sync.import"
)

// ImportJob is the payload for a manual import dispatched asynchronously.
type ImportJob struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ServerID   string    `json:"server_id,omitempty"`
	EmployeeID string    `json:"employee_id,omitempty"`
}

// Executor runs dispatched jobs. Implemented by *sync.Manager.
type Executor interface {
	RunScheduled(ctx context.Context) (*syncer.FleetReport, error)
	ImportAttendance(ctx context.Context, req syncer.ImportRequest) (*syncer.FleetReport, error)
}

// Bus is the in-process job queue. It implements sync.Dispatcher on the
// publish side and runs a Watermill router on the consume side.
type Bus struct {
	pubsub   *gochannel.GoChannel
	router   *message.Router
	executor Executor
}

// NewBus builds the gochannel pub/sub, the router with recovery middleware,
// and registers the job handlers.
func NewBus(executor Executor) (*Bus, error) {
	logger := newWatermillLogger()

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		// Buffer a handful of jobs; the per-server in-flight locks drop
		// overlapping work anyway.
		OutputChannelBuffer: 16,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 30 * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	bus := &Bus{
		pubsub:   pubsub,
		router:   router,
		executor: executor,
	}

	router.AddNoPublisherHandler("scheduled-sync", TopicScheduledSync, pubsub, bus.handleScheduled)
	router.AddNoPublisherHandler("manual-import", TopicImport, pubsub, bus.handleImport)

	return bus, nil
}

// Serve runs the router until ctx is cancelled. Implements suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Close shuts down the router and the pub/sub channel.
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return err
	}
	return b.pubsub.Close()
}

// DispatchScheduledSync publishes one scheduled fleet run. Implements
// sync.Dispatcher.
func (b *Bus) DispatchScheduledSync(_ context.Context) error {
	msg := message.NewMessage(watermill.NewUUID(), nil)
	if err := b.pubsub.Publish(TopicScheduledSync, msg); err != nil {
		return fmt.Errorf("failed to publish scheduled sync job: %w", err)
	}
	metrics.JobsDispatched.Inc()
	return nil
}

// DispatchImport publishes a manual import to run in the background. The
// caller gets an acknowledgment, not a result; outcomes land in run
// summaries.
func (b *Bus) DispatchImport(job ImportJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode import job: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicImport, msg); err != nil {
		return fmt.Errorf("failed to publish import job: %w", err)
	}
	metrics.JobsDispatched.Inc()
	return nil
}

// handleScheduled executes one scheduled fleet run. Errors are logged and
// the message is acked either way; the next tick retries naturally.
func (b *Bus) handleScheduled(msg *message.Message) error {
	if _, err := b.executor.RunScheduled(msg.Context()); err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("Scheduled sync job failed")
	}
	return nil
}

func (b *Bus) handleImport(msg *message.Message) error {
	var job ImportJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed import job")
		return nil
	}

	_, err := b.executor.ImportAttendance(msg.Context(), syncer.ImportRequest{
		Start:      job.Start,
		End:        job.End,
		ServerID:   job.ServerID,
		EmployeeID: job.EmployeeID,
	})
	if err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("Background import failed")
	}
	return nil
}
