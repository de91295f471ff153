// Package audit records administrative actions to a sequential log file and
// to the activities table. Recording never blocks or fails the caller.
package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one audit record.
type Entry struct {
	Actor     string
	Action    string
	Details   map[string]any
	Timestamp time.Time
}

// Recorder is the API components use to emit an audit entry.
type Recorder interface {
	Record(actor, action string, details map[string]any)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(actor, action string, details map[string]any)

// Record calls f.
func (f RecorderFunc) Record(actor, action string, details map[string]any) {
	f(actor, action, details)
}

// Nop discards every entry.
var Nop Recorder = RecorderFunc(func(string, string, map[string]any) {})

const lineTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatLine renders e as a single line of the sequential log:
//
//	2025-04-10T10:30:00.000Z | User: a@b.c | Action: Assigned room 101 | Details: {"room_number":"101"}
func FormatLine(e Entry) string {
	details := ""
	if len(e.Details) > 0 {
		if b, err := json.Marshal(e.Details); err == nil {
			details = string(b)
		} else {
			details = fmt.Sprintf("%v", e.Details)
		}
	}
	return fmt.Sprintf("%s | User: %s | Action: %s | Details: %s\n",
		e.Timestamp.UTC().Format(lineTimeFormat), e.Actor, e.Action, details)
}
