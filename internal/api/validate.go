package api

import (
	"encoding/json"
	"net"
	"net/url"
	"strings"

	"github.com/driftwatch/sentinel/internal/apperr"
	"github.com/driftwatch/sentinel/internal/probe"
)

var (
	monitorTypes    = map[string]bool{"http": true, "tcp": true}
	incidentStatus  = map[string]bool{"investigating": true, "identified": true, "monitoring": true, "resolved": true}
	incidentImpact  = map[string]bool{"none": true, "minor": true, "major": true, "critical": true}
	channelTypes    = map[string]bool{"webhook": true}
)

// monitorInput is the validated write-API input shape for monitor create
// and update (spec §4.10): every string-typed domain union is checked against its closed
// set, numeric floors are enforced, and targets are checked against the
// probe allow-list (§4.2) before any write reaches the store.
type monitorInput struct {
	Name                     string  `json:"name"`
	Type                     string  `json:"type"`
	Target                   string  `json:"target"`
	IntervalSec              int     `json:"interval_sec"`
	TimeoutMS                int     `json:"timeout_ms"`
	IsActive                 *bool   `json:"is_active"`
	HTTPMethod               string  `json:"http_method"`
	HTTPHeaders              any     `json:"http_headers"`
	HTTPBody                 string  `json:"http_body"`
	ExpectedStatus           []int   `json:"expected_status"`
	ResponseKeyword          string  `json:"response_keyword"`
	ResponseForbiddenKeyword string  `json:"response_forbidden_keyword"`
}

// validate enforces spec §3/§4.10/§4.2 on a monitor write. It returns the
// normalized JSON fragments (headers, expected_status) ready to persist.
func (in monitorInput) validate() (headersJSON, expectedStatusJSON string, err *apperr.Error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", "", apperr.Invalid("name is required")
	}
	if !monitorTypes[in.Type] {
		return "", "", apperr.Invalid("type must be one of http, tcp")
	}
	if in.IntervalSec < 60 {
		return "", "", apperr.Invalid("interval_sec must be >= 60")
	}
	if in.TimeoutMS < 1000 {
		return "", "", apperr.Invalid("timeout_ms must be >= 1000")
	}
	for _, s := range in.ExpectedStatus {
		if s < 100 || s > 599 {
			return "", "", apperr.Invalid("expected_status entries must be in [100,599]")
		}
	}
	if verr := validateTarget(in.Type, in.Target); verr != nil {
		return "", "", verr
	}
	if in.Type == "tcp" {
		if in.HTTPMethod != "" || in.HTTPHeaders != nil || in.HTTPBody != "" ||
			in.ResponseKeyword != "" || in.ResponseForbiddenKeyword != "" || len(in.ExpectedStatus) > 0 {
			return "", "", apperr.Invalid("http-only fields must be absent when type=tcp")
		}
	}

	if in.HTTPHeaders != nil {
		b, jerr := json.Marshal(in.HTTPHeaders)
		if jerr != nil {
			return "", "", apperr.Invalid("invalid http_headers")
		}
		headersJSON = string(b)
	}
	if len(in.ExpectedStatus) > 0 {
		b, _ := json.Marshal(in.ExpectedStatus)
		expectedStatusJSON = string(b)
	}
	return headersJSON, expectedStatusJSON, nil
}

// validateTarget applies spec §4.2's allow-list at write time so an
// operator cannot even save a monitor aimed at a blocked host/port; the
// probe layer repeats the same check at execution time. Both checks look
// only at the literal host; hostnames are not resolved.
func validateTarget(monType, target string) *apperr.Error {
	switch monType {
	case "http":
		u, err := url.Parse(target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
			return apperr.Invalid("target must be a valid http(s) URL")
		}
		if probe.IsBlockedHost(u.Hostname()) {
			return apperr.Invalid("target host is not allowed")
		}
		if port := u.Port(); port != "" && !probe.IsAllowedPort(port) {
			return apperr.Invalid("target port is not allowed")
		}
	case "tcp":
		host, port, err := net.SplitHostPort(target)
		if err != nil {
			return apperr.Invalid("target must be host:port")
		}
		if probe.IsBlockedHost(host) {
			return apperr.Invalid("target host is not allowed")
		}
		if !probe.IsAllowedPort(port) {
			return apperr.Invalid("target port is not allowed")
		}
	}
	return nil
}
