package notify

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/driftwatch/sentinel/internal/db"
)

// queueSize bounds the in-flight dispatch backlog; a full queue drops the
// incoming request rather than blocking the scheduler tick that produced
// it (spec §4.4.2: notification dispatch never blocks the tick).
const queueSize = 1000

// Request is one event fanned out to every currently-active channel.
type Request struct {
	EventKey string
	Channels []db.NotificationChannel
	Payload  Payload
}

// Service is the background webhook dispatcher (C5). Its queue and worker
// loop mirror the teacher's notifications.Service; unlike the teacher's
// single Slack notifier, every channel here is a generic signed webhook.
type Service struct {
	store   *db.Store
	logger  *log.Logger
	secrets SecretResolver
	queue   chan Request
	stopCh  chan struct{}
}

func NewService(store *db.Store, logger *log.Logger) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		secrets: EnvSecretResolver{},
		queue:   make(chan Request, queueSize),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the dispatch worker. Call once; Stop ends it.
func (s *Service) Start() {
	go s.worker()
}

func (s *Service) Stop() {
	close(s.stopCh)
}

// Enqueue hands an event off for asynchronous dispatch (spec §4.4 step 6e).
// Non-blocking: a full queue drops the event and logs, rather than stalling
// the caller (the scheduler tick).
func (s *Service) Enqueue(req Request) {
	select {
	case s.queue <- req:
	default:
		s.logger.Printf("dispatch queue full, dropping event %s", req.EventKey)
	}
}

func (s *Service) worker() {
	for {
		select {
		case <-s.stopCh:
			return
		case req := <-s.queue:
			s.dispatch(req)
		}
	}
}

func (s *Service) dispatch(req Request) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		s.logger.Printf("marshal payload for %s: %v", req.EventKey, err)
		return
	}

	for _, ch := range req.Channels {
		s.dispatchOne(req.EventKey, ch, body)
	}
}

// dispatchOne claims one channel's delivery before sending it, per spec
// §4.5 step 1: insert a "pending" placeholder guarded by the unique
// (event_key, channel_id) index first, and only the caller whose insert
// actually lands goes on to send the webhook. This makes the HTTP send
// itself at-most-once (I6) across horizontally-scaled notify.Service
// replicas — a check-then-act ordering (check for an existing row, then
// send, then record) only dedups within one process, since two replicas
// can both pass the check before either has written a row.
func (s *Service) dispatchOne(eventKey string, ch db.NotificationChannel, body []byte) {
	claimed, err := s.store.RecordDelivery(db.NotificationDelivery{
		EventKey:  eventKey,
		ChannelID: ch.ID,
		Status:    "pending",
		CreatedAt: time.Now().UTC().Unix(),
	})
	if err != nil {
		s.logger.Printf("claim delivery %s/%s: %v", eventKey, ch.ID, err)
		return
	}
	if !claimed {
		// Another dispatcher (this process or a replica) already claimed
		// this (event, channel) pair; its send is authoritative.
		return
	}

	cfg, err := ParseChannelConfig(ch.ConfigJSON)
	if err != nil {
		s.finishDelivery(eventKey, ch.ID, 0, fmt.Errorf("invalid channel config: %w", err))
		return
	}

	httpStatus, dispatchErr := s.send(cfg, body)
	s.finishDelivery(eventKey, ch.ID, httpStatus, dispatchErr)
}

// finishDelivery updates the claimed placeholder row to its final outcome
// once the send has actually completed.
func (s *Service) finishDelivery(eventKey, channelID string, httpStatus int, dispatchErr error) {
	status := "success"
	errMsg := ""
	if dispatchErr != nil {
		status = "failed"
		errMsg = dispatchErr.Error()
	}
	var hs *int
	if httpStatus > 0 {
		hs = &httpStatus
	}
	if err := s.store.UpdateDeliveryStatus(eventKey, channelID, status, hs, errMsg); err != nil {
		s.logger.Printf("update delivery %s/%s: %v", eventKey, channelID, err)
	}
	if dispatchErr != nil {
		s.logger.Printf("delivery %s -> channel %s failed: %v", eventKey, channelID, dispatchErr)
	}
}

// SendTest performs one synchronous dispatch outside the queue/dedup path,
// for the admin "test channel" endpoint: an operator wants to see the
// real signed request succeed or fail without it ever touching the
// delivery dedup index.
func (s *Service) SendTest(cfg ChannelConfig, body []byte) (httpStatus int, err error) {
	return s.send(cfg, body)
}

// send performs the actual HTTP dispatch under the channel's timeout,
// signing the body when configured (spec §4.5 step 2).
func (s *Service) send(cfg ChannelConfig, body []byte) (httpStatus int, err error) {
	req, err := http.NewRequest(cfg.Method, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	if cfg.Signing != nil && cfg.Signing.Enabled {
		secret, err := s.secrets.Resolve(cfg.Signing.SecretRef)
		if err != nil {
			return 0, fmt.Errorf("resolve signing secret: %w", err)
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		req.Header.Set("X-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	client := &http.Client{Timeout: timeout}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
