package db

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyResolved = errors.New("incident already resolved")
	ErrOutageExists     = errors.New("ongoing outage already exists")
)

// Monitor mirrors spec §3's Monitor entity. HTTP-only fields are left zero
// when Type is "tcp".
type Monitor struct {
	ID                       string
	Name                     string
	Type                     string // "http" | "tcp"
	Target                   string
	IntervalSec              int
	TimeoutMS                int
	IsActive                 bool
	CreatedAt                int64
	UpdatedAt                int64
	HTTPMethod               string
	HTTPHeaders              string // JSON object
	HTTPBody                 string
	ExpectedStatus           string // JSON array of ints
	ResponseKeyword          string
	ResponseForbiddenKeyword string
}

// MonitorState mirrors spec §3's MonitorState entity: exactly one row per
// monitor after its first check, mutated only by the scheduler.
type MonitorState struct {
	MonitorID            string
	Status               string
	LastCheckedAt        *int64
	LastChangedAt        *int64
	LastLatencyMs        *int64
	LastError            string
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
}

// CheckResult is one append-only probe record.
type CheckResult struct {
	ID         int64
	MonitorID  string
	CheckedAt  int64
	Status     string
	LatencyMs  *int64
	HTTPStatus *int
	Error      string
	Attempt    int
}

// Outage is a contiguous down interval; at most one ongoing per monitor.
type Outage struct {
	ID           int64
	MonitorID    string
	StartedAt    int64
	EndedAt      *int64
	InitialError string
	LastError    string
}

// Incident is an operator-authored narrative of a disruption.
type Incident struct {
	ID         string
	Title      string
	Status     string // investigating | identified | monitoring | resolved
	Impact     string // none | minor | major | critical
	Message    string
	StartedAt  int64
	ResolvedAt *int64
	MonitorIDs []string
}

// IncidentUpdate is an append-only narrative entry on an incident.
type IncidentUpdate struct {
	ID         int64
	IncidentID string
	Status     string
	Message    string
	CreatedAt  int64
}

// MaintenanceWindow suppresses alerts for its linked monitors during
// [StartsAt, EndsAt).
type MaintenanceWindow struct {
	ID         string
	Title      string
	Message    string
	StartsAt   int64
	EndsAt     int64
	CreatedAt  int64
	MonitorIDs []string
}

// NotificationChannel is a webhook destination for monitor events.
type NotificationChannel struct {
	ID         string
	Name       string
	Type       string // always "webhook" in this spec
	ConfigJSON string
	IsActive   bool
	CreatedAt  int64
}

// NotificationDelivery records (or dedups) one delivery attempt.
type NotificationDelivery struct {
	ID         int64
	EventKey   string
	ChannelID  string
	Status     string // pending (claimed, send in progress) | success | failed
	HTTPStatus *int
	Error      string
	CreatedAt  int64
}

// MonitorDailyRollup is the per-monitor, per-UTC-day summary row.
type MonitorDailyRollup struct {
	MonitorID            string
	DayStartAt           int64
	TotalSec             int64
	DowntimeSec          int64
	UnknownSec           int64
	UptimeSec            int64
	ChecksTotal          int
	ChecksUp             int
	ChecksDown           int
	ChecksUnknown        int
	ChecksMaintenance    int
	AvgLatencyMs         *int64
	P50                  *int64
	P95                  *int64
	LatencyHistogramJSON string
}

// Lock is a lease row used to serialize the scheduler tick and the daily
// rollup job across however many server processes are running (spec §5).
type Lock struct {
	Name      string
	HolderID  string
	ExpiresAt int64
}

// Snapshot is the cached public status-page payload (spec §4.8), keyed by a
// fixed name since this service publishes a single status page.
// GeneratedAt is the timestamp embedded in the payload itself (what freshness
// is judged against); UpdatedAt is when this row was last written, which can
// lag GeneratedAt slightly under concurrent writers.
type Snapshot struct {
	Key         string
	GeneratedAt int64
	PayloadJSON string
	UpdatedAt   int64
}
