package davislive

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReceiveLoopSurvivesTransientReadErrors(t *testing.T) {
	assert.True(t, resumeAfterReadError(errors.New("recvfrom: connection refused")),
		"a transient socket error must not end live ingestion")

	assert.False(t, resumeAfterReadError(net.ErrClosed))
	assert.False(t, resumeAfterReadError(fmt.Errorf("read udp: %w", net.ErrClosed)),
		"a closed socket means rebind or shutdown, not a retry")
}
