package status

import (
	"context"
	"log/slog"
	"time"

	"sensenode-go/bus"
	"sensenode-go/internal/logging"
	"sensenode-go/services/agent"
	"sensenode-go/types"
)

// Heartbeat logs a one-line liveness summary every Interval using the latest
// agent state seen on the bus.
type Heartbeat struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Run blocks until ctx is done.
func (h *Heartbeat) Run(ctx context.Context, conn *bus.Connection) {
	log := logging.OrDiscard(h.Logger).With("component", "heartbeat")
	interval := h.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	sub := conn.Subscribe(agent.StateTopic)
	defer conn.Unsubscribe(sub)

	tick := time.NewTicker(interval)
	defer tick.Stop()

	var last types.AgentState
	var seen bool
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			switch st := msg.Payload.(type) {
			case types.AgentState:
				last, seen = st, true
			case nil:
				seen = false
			}
		case <-tick.C:
			if !seen {
				log.Info("heartbeat", "state", "starting")
				continue
			}
			log.Info("heartbeat",
				"run_id", last.RunID,
				"ticks", last.Ticks,
				"link", last.Link,
				"last_upload", last.LastUpload,
			)
		}
	}
}
