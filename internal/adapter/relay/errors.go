package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
)

// friendlyMessage converts a transport fault into the text embedded in the
// diagnostic chunk. Callers of the generation endpoint are humans watching
// text appear, so the message says what happened and roughly why rather than
// echoing a Go error chain.
func friendlyMessage(err error, elapsed time.Duration) string {
	switch {
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return fmt.Sprintf("the model stopped responding after %.1fs - it may be overloaded or still loading", elapsed.Seconds())

	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("request cancelled after %.1fs", elapsed.Seconds())
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return fmt.Sprintf("cannot reach the LLM backend at %s - check it is running", opErr.Addr)
		case "read":
			return fmt.Sprintf("lost the connection to the LLM backend after %.1fs", elapsed.Seconds())
		}
	}

	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		return fmt.Sprintf("the LLM backend became unavailable after %.1fs", elapsed.Seconds())
	}

	return fmt.Sprintf("streaming failed after %.1fs: %v", elapsed.Seconds(), err)
}
