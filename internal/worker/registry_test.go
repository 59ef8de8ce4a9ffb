package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistryKeyNaming(t *testing.T) {
	r := NewRegistry(nil, "judge", 30*time.Second)
	assert.Equal(t, "judge:workers", r.setKey())
	assert.Equal(t, "judge:worker:worker-1:heartbeat", r.heartbeatKey("worker-1"))
}
