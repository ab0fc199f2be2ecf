// Package notify implements the webhook fan-out of spec §4.5: for every
// observable monitor transition the scheduler hands off an event and the
// active channel set, and this package dispatches one outbound request per
// channel, deduplicated by the (event_key, channel_id) unique index so a
// racing or retried dispatch can never double-deliver (I6).
//
// Grounded on the teacher's notifications.Service: a bounded queue plus a
// background worker, generalized from its single Slack notifier to the
// spec's generic signed-webhook channel.
package notify

// Payload is the wire schema of one outbound delivery body (spec §4.5).
type Payload struct {
	Event     string        `json:"event"`
	EventID   string        `json:"event_id"`
	Timestamp int64         `json:"timestamp"`
	Monitor   PayloadMonitor `json:"monitor"`
	State     PayloadState  `json:"state"`
}

type PayloadMonitor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Target string `json:"target"`
}

// PayloadState carries the observed check outcome. Location is always null
// in this implementation (spec §9 open question: retained column only).
type PayloadState struct {
	Status     string  `json:"status"`
	LatencyMs  *int64  `json:"latency_ms"`
	HTTPStatus *int    `json:"http_status"`
	Error      string  `json:"error,omitempty"`
	Location   *string `json:"location"`
}
