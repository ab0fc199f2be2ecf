// Package statuspage composes the public status payload (C7): monitors
// joined with state and heartbeats, derived per-monitor display status,
// counts, an overall status, and a priority-ordered banner. It is the
// expensive path invoked by the snapshot store on a cache miss or
// background refresh.
package statuspage

import (
	"github.com/driftwatch/sentinel/internal/db"
)

const (
	heartbeatLimit          = 60
	heartbeatLookbackDays   = 7
	staleFactor             = 2
	majorOutageDownRatio    = 0.3
	unresolvedIncidentLimit = 5
	activeMaintenanceLimit  = 3
	upcomingMaintenanceLimit = 5
)

// Heartbeat is one chart point on a monitor's recent history strip.
type Heartbeat struct {
	CheckedAt int64  `json:"checked_at"`
	Status    string `json:"status"`
	LatencyMs *int64 `json:"latency_ms"`
}

// MonitorView is one monitor's public-facing projection.
type MonitorView struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Type          string      `json:"type"`
	DisplayStatus string      `json:"status"`
	LastLatencyMs *int64      `json:"last_latency_ms"`
	LastCheckedAt *int64      `json:"last_checked_at"`
	IsStale       bool        `json:"is_stale"`
	Heartbeats    []Heartbeat `json:"heartbeats"`
}

// Banner is the top-of-page summary derived by priority (spec §4.7 step 9).
type Banner struct {
	Source    string   `json:"source"`
	Status    string   `json:"status"`
	DownRatio *float64 `json:"down_ratio,omitempty"`
	Incident  *db.Incident `json:"incident,omitempty"`
}

// Response is the full public status payload.
type Response struct {
	GeneratedAt         int64                     `json:"generated_at"`
	OverallStatus       string                    `json:"overall_status"`
	Monitors            []MonitorView             `json:"monitors"`
	Counts              map[string]int            `json:"counts"`
	Banner              Banner                    `json:"banner"`
	Incidents           []IncidentView            `json:"incidents"`
	ActiveMaintenance   []db.MaintenanceWindow    `json:"active_maintenance"`
	UpcomingMaintenance []db.MaintenanceWindow    `json:"upcoming_maintenance"`
}

// IncidentView embeds an incident with its updates for the public feed.
type IncidentView struct {
	db.Incident
	Updates []db.IncidentUpdate `json:"updates"`
}

// Build composes the full response for logical time now.
func Build(store *db.Store, now int64) (Response, error) {
	rangeEnd := (now / 60) * 60
	lookbackStart := rangeEnd - heartbeatLookbackDays*86400

	monitors, err := store.ListActiveMonitors()
	if err != nil {
		return Response{}, err
	}
	maintained, err := store.ActiveMaintenanceMonitorSet(now)
	if err != nil {
		return Response{}, err
	}

	counts := map[string]int{"up": 0, "down": 0, "unknown": 0, "maintenance": 0, "paused": 0}
	views := make([]MonitorView, 0, len(monitors))
	for _, mon := range monitors {
		state, err := store.GetMonitorState(mon.ID)
		if err != nil && err != db.ErrNotFound {
			return Response{}, err
		}

		view := monitorView(mon, state, maintained[mon.ID], now)

		heartbeats, err := store.GetHeartbeats(mon.ID, lookbackStart, heartbeatLimit)
		if err != nil {
			return Response{}, err
		}
		view.Heartbeats = toHeartbeats(heartbeats)

		counts[view.DisplayStatus]++
		views = append(views, view)
	}

	overall := deriveOverall(counts)

	incidents, err := store.ListUnresolvedIncidents(unresolvedIncidentLimit)
	if err != nil {
		return Response{}, err
	}
	incidentViews := make([]IncidentView, 0, len(incidents))
	for _, inc := range incidents {
		updates, err := store.GetIncidentUpdates(inc.ID)
		if err != nil {
			return Response{}, err
		}
		incidentViews = append(incidentViews, IncidentView{Incident: inc, Updates: updates})
	}

	activeMaint, err := store.ListActiveMaintenanceWindows(now)
	if err != nil {
		return Response{}, err
	}
	if len(activeMaint) > activeMaintenanceLimit {
		activeMaint = activeMaint[:activeMaintenanceLimit]
	}
	upcomingMaint, err := store.ListUpcomingMaintenanceWindows(now, upcomingMaintenanceLimit)
	if err != nil {
		return Response{}, err
	}

	banner := deriveBanner(incidents, views, activeMaint)

	return Response{
		GeneratedAt:         now,
		OverallStatus:       overall,
		Monitors:            views,
		Counts:              counts,
		Banner:              banner,
		Incidents:           incidentViews,
		ActiveMaintenance:   activeMaint,
		UpcomingMaintenance: upcomingMaint,
	}, nil
}

func monitorView(mon db.Monitor, state db.MonitorState, inMaintenance bool, now int64) MonitorView {
	view := MonitorView{ID: mon.ID, Name: mon.Name, Type: mon.Type}

	if inMaintenance || state.Status == "paused" || state.Status == "maintenance" {
		view.IsStale = false
	} else {
		view.IsStale = state.LastCheckedAt == nil || now-*state.LastCheckedAt > int64(staleFactor)*int64(mon.IntervalSec)
	}

	switch {
	case inMaintenance:
		view.DisplayStatus = "maintenance"
	case view.IsStale:
		view.DisplayStatus = "unknown"
	case state.Status == "":
		view.DisplayStatus = "unknown"
	default:
		view.DisplayStatus = state.Status
	}

	view.LastCheckedAt = state.LastCheckedAt
	if !view.IsStale {
		view.LastLatencyMs = state.LastLatencyMs
	}
	return view
}

func toHeartbeats(checks []db.CheckResult) []Heartbeat {
	out := make([]Heartbeat, 0, len(checks))
	for _, c := range checks {
		out = append(out, Heartbeat{CheckedAt: c.CheckedAt, Status: c.Status, LatencyMs: c.LatencyMs})
	}
	return out
}

// deriveOverall implements spec §4.7 step 6's priority order.
func deriveOverall(counts map[string]int) string {
	switch {
	case counts["down"] > 0:
		return "down"
	case counts["unknown"] > 0:
		return "unknown"
	case counts["maintenance"] > 0:
		return "maintenance"
	case counts["up"] > 0:
		return "up"
	case counts["paused"] > 0:
		return "paused"
	default:
		return "unknown"
	}
}

var impactRank = map[string]int{"none": 0, "minor": 1, "major": 2, "critical": 3}

// deriveBanner implements spec §4.7 step 9.
func deriveBanner(incidents []db.Incident, views []MonitorView, activeMaint []db.MaintenanceWindow) Banner {
	if len(incidents) > 0 {
		top := incidents[0]
		for _, inc := range incidents[1:] {
			if inc.StartedAt > top.StartedAt {
				top = inc
			}
		}
		maxImpact := "none"
		for _, inc := range incidents {
			if impactRank[inc.Impact] > impactRank[maxImpact] {
				maxImpact = inc.Impact
			}
		}
		status := "operational"
		switch maxImpact {
		case "critical", "major":
			status = "major_outage"
		case "minor":
			status = "partial_outage"
		}
		incCopy := top
		return Banner{Source: "incident", Status: status, Incident: &incCopy}
	}

	total := len(views)
	downCount := 0
	unknownCount := 0
	for _, v := range views {
		switch v.DisplayStatus {
		case "down":
			downCount++
		case "unknown":
			unknownCount++
		}
	}
	if downCount > 0 && total > 0 {
		ratio := float64(downCount) / float64(total)
		status := "partial_outage"
		if ratio >= majorOutageDownRatio {
			status = "major_outage"
		}
		return Banner{Source: "monitors", Status: status, DownRatio: &ratio}
	}
	if unknownCount > 0 {
		return Banner{Source: "monitors", Status: "unknown"}
	}
	if len(activeMaint) > 0 {
		return Banner{Source: "maintenance", Status: "maintenance"}
	}
	return Banner{Source: "monitors", Status: "operational"}
}
