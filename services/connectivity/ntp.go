package connectivity

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

const DefaultNTPServer = "pool.ntp.org"

// NTPSource queries one NTP server per Offset call.
type NTPSource struct {
	Server  string
	Timeout time.Duration
}

func (n NTPSource) Offset(ctx context.Context) (time.Duration, error) {
	server := n.Server
	if server == "" {
		server = DefaultNTPServer
	}
	timeout := n.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, fmt.Errorf("ntp query %s: %w", server, err)
	}
	if err := resp.Validate(); err != nil {
		return 0, fmt.Errorf("ntp response from %s: %w", server, err)
	}
	return resp.ClockOffset, nil
}
