package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
)

// classifyTransportError maps raw transport faults onto the two upstream
// error kinds. The exchange deadline shows up as context.DeadlineExceeded
// either directly or wrapped inside a url.Error / net.OpError, so the
// stream's own context is checked first.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}

	return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
}
