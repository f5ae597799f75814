package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReporter_PlainOutputWhenNotTerminal(t *testing.T) {
	// Given: a reporter writing to a buffer (not a terminal)
	var buf bytes.Buffer
	r := NewReporter(&buf)

	// When: a change is reported
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	r.Change("/etc/app/config.yaml", at)

	// Then: the line is plain text with timestamp and path
	assert.Equal(t, "09:26:53 changed /etc/app/config.yaml\n", buf.String())
}

func TestReporter_Watching(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.Watching("/var/lib/state.json", "poll")

	assert.Equal(t, "watching /var/lib/state.json (poll)\n", buf.String())
}
