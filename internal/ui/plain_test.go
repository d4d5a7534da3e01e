package ui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

func TestPlainRenderer_StageLines(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))
	require.NoError(t, r.Start(context.Background()))

	// When: progress moves through every stage
	for _, pct := range []int{0, 20, 40, 100} {
		r.UpdateProgress(ProgressEvent{Percent: pct})
	}

	// Then: each running stage gets a line and completion is left to Complete
	out := buf.String()
	assert.Contains(t, out, "[LOAD]   0%")
	assert.Contains(t, out, "[TEXT]  20%")
	assert.Contains(t, out, "[ELS]  40%")
	assert.NotContains(t, out, "DONE")
	assert.NoError(t, r.Stop())
}

func TestPlainRenderer_ThrottlesWithinStage(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	for pct := 40; pct < 100; pct++ {
		r.UpdateProgress(ProgressEvent{Percent: pct, Message: "אלהים"})
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, lines[0], "- אלהים")
}

func TestPlainRenderer_IgnoresRegression(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.UpdateProgress(ProgressEvent{Percent: 60})
	r.UpdateProgress(ProgressEvent{Percent: 10})

	assert.NotContains(t, buf.String(), "LOAD")
}

func TestPlainRenderer_NoANSICodes(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	for pct := 0; pct <= 100; pct += 5 {
		r.UpdateProgress(ProgressEvent{Percent: pct})
	}
	r.Complete(Summary{Results: 3, Letters: 100})

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestPlainRenderer_Complete(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.Complete(Summary{Results: 12, Letters: 304805, Truncated: true, Duration: 1500 * time.Millisecond})

	out := buf.String()
	assert.Contains(t, out, "12 results over 304805 letters")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "(truncated)")
}

func TestPlainRenderer_Fail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"aborted", errors.Aborted(nil), "Search cancelled."},
		{"failure", fmt.Errorf("disk gone"), "ERROR: disk gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			r := NewPlainRenderer(NewConfig(buf))

			r.Fail(tt.err)

			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
