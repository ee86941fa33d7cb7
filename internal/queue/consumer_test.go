package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConsumerHandleAppendsLine(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer("", "slot.events", dir, zap.NewNop())

	at := time.Date(2025, 11, 20, 15, 0, 0, 0, time.UTC)
	for _, typ := range []string{EventSlotReserved, EventSlotConfirmed} {
		body, err := json.Marshal(SlotEvent{Type: typ, SlotID: 5, TeacherID: 2, Status: "reserved", Actor: "visitor", OccurredAt: at})
		require.NoError(t, err)
		require.NoError(t, c.handle(body))
	}

	data, err := os.ReadFile(filepath.Join(dir, auditLogFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[2025-11-20T15:00:00Z] slot.reserved | slot_id=5 | request_id=0 | teacher_id=2 | status="reserved" | actor="visitor"`, lines[0])
	assert.Contains(t, lines[1], EventSlotConfirmed)
}

func TestConsumerHandleRejectsGarbage(t *testing.T) {
	c := NewConsumer("", "slot.events", t.TempDir(), zap.NewNop())
	assert.Error(t, c.handle([]byte("{")))
	assert.Error(t, c.handle([]byte(`{"slot_id":1}`)))
}
