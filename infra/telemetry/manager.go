// Package telemetry keeps the roster's presence data fresh from collector
// state reports on MQTT. Collectors either push their state or answer
// periodic polls, depending on the configured mode.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/takaflow/dispatch/core/model"
	"github.com/takaflow/dispatch/infra/logger"
	infmqtt "github.com/takaflow/dispatch/infra/mqtt"
)

// Config controls presence collection.
type Config struct {
	Enabled bool `json:"enabled"`
	// Mode is push, pull or hybrid.
	Mode string `json:"mode"`
	// StatePrefix is the topic prefix collectors push state reports to.
	StatePrefix string `json:"state_prefix"`
	// RequestTopic is where poll requests are published in pull mode.
	RequestTopic string `json:"request_topic"`
	// ResponsePrefix is the topic prefix poll responses arrive on.
	ResponsePrefix  string `json:"response_prefix"`
	IntervalSeconds int    `json:"interval_seconds"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
}

// SetDefaults applies the production topic layout.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "push"
	}
	if c.StatePrefix == "" {
		c.StatePrefix = "collector/state"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "collector/presence/poll"
	}
	if c.ResponsePrefix == "" {
		c.ResponsePrefix = "collector/presence/response"
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 60
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
}

// Validate checks the collection mode.
func (c Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "", "push", "pull", "hybrid":
		return nil
	default:
		return fmt.Errorf("unknown telemetry mode %q", c.Mode)
	}
}

// PresenceStore is the slice of the roster the manager writes to.
type PresenceStore interface {
	UpdateLocation(ctx context.Context, id string, loc model.CollectorLocation) error
	SetOnline(ctx context.Context, id string, online bool) error
}

// rosterLister lets pull mode know which collectors to expect answers from.
type rosterLister interface {
	List(ctx context.Context) ([]model.Collector, error)
}

// Manager collects presence reports from collectors via push or polling.
type Manager struct {
	cfg   Config
	cli   paho.Client
	store PresenceStore
	log   logger.Logger

	respCh chan presenceMessage

	pollReq     prometheus.Counter
	pollResp    prometheus.Counter
	pollTimeout prometheus.Counter
	lastReport  prometheus.Gauge
}

type presenceMessage struct {
	CollectorID string
	Payload     []byte
	Arrived     time.Time
}

// NewManager connects to MQTT and prepares presence collection.
func NewManager(mqttCfg infmqtt.Config, cfg Config, store PresenceStore) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("telemetry: nil presence store")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := infmqtt.NewClientOptions(mqttCfg)
	if err != nil {
		return nil, err
	}
	id := mqttCfg.ClientID
	if id != "" {
		id += "-presence"
	} else {
		id = "presence-" + uuid.NewString()
	}
	opts.SetClientID(id)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	m := &Manager{
		cfg:         cfg,
		cli:         cli,
		store:       store,
		log:         logger.New("telemetry"),
		respCh:      make(chan presenceMessage, 100),
		pollReq:     prometheus.NewCounter(prometheus.CounterOpts{Name: "presence_poll_requests_total", Help: "Number of presence poll requests"}),
		pollResp:    prometheus.NewCounter(prometheus.CounterOpts{Name: "presence_poll_responses_total", Help: "Number of presence poll responses"}),
		pollTimeout: prometheus.NewCounter(prometheus.CounterOpts{Name: "presence_poll_timeout_total", Help: "Number of collectors that missed a poll"}),
		lastReport:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "presence_last_report_timestamp_seconds", Help: "Unix timestamp of the last presence report"}),
	}
	prometheus.MustRegister(m.pollReq, m.pollResp, m.pollTimeout, m.lastReport)
	return m, nil
}

// Start runs presence collection until context is done.
func (m *Manager) Start(ctx context.Context) {
	mode := strings.ToLower(m.cfg.Mode)
	if mode == "push" || mode == "hybrid" {
		topic := strings.TrimSuffix(m.cfg.StatePrefix, "/") + "/+"
		if token := m.cli.Subscribe(topic, 0, m.onPush); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe state: %v", token.Error())
		}
	}
	if mode == "pull" || mode == "hybrid" {
		topic := strings.TrimSuffix(m.cfg.ResponsePrefix, "/") + "/+"
		if token := m.cli.Subscribe(topic, 0, m.onResponse); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe response: %v", token.Error())
		}
		go m.pollLoop(ctx)
	}
	<-ctx.Done()
	if m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
}

func (m *Manager) onPush(_ paho.Client, msg paho.Message) {
	if err := m.process(context.Background(), msg.Payload(), msg.Topic()); err != nil {
		m.log.Errorf("push decode: %v", err)
	}
}

func (m *Manager) onResponse(_ paho.Client, msg paho.Message) {
	m.respCh <- presenceMessage{CollectorID: extractID(msg.Topic()), Payload: msg.Payload(), Arrived: time.Now()}
}

func extractID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return ""
}

func (m *Manager) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.cfg.IntervalSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.doPoll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) doPoll(ctx context.Context) {
	expected := map[string]struct{}{}
	if lister, ok := m.store.(rosterLister); ok {
		if collectors, err := lister.List(ctx); err == nil {
			for _, c := range collectors {
				expected[c.ID] = struct{}{}
			}
		}
	}
	m.pollReq.Inc()
	token := m.cli.Publish(m.cfg.RequestTopic, 0, false, []byte("poll"))
	token.Wait()
	timeout := time.NewTimer(time.Duration(m.cfg.TimeoutSeconds) * time.Second)
	defer timeout.Stop()
	for {
		select {
		case resp := <-m.respCh:
			if err := m.process(ctx, resp.Payload, ""); err != nil {
				m.log.Errorf("poll decode: %v", err)
				continue
			}
			m.pollResp.Inc()
			m.lastReport.SetToCurrentTime()
			delete(expected, resp.CollectorID)
		case <-timeout.C:
			for id := range expected {
				m.pollTimeout.Inc()
				// No answer within the window counts as offline.
				if err := m.store.SetOnline(ctx, id, false); err != nil {
					m.log.Debugf("mark %s offline: %v", id, err)
				}
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) process(ctx context.Context, payload []byte, topic string) error {
	var msg struct {
		CollectorID string   `json:"collector_id"`
		Lat         *float64 `json:"lat"`
		Lng         *float64 `json:"lng"`
		Online      *bool    `json:"online"`
		TS          *int64   `json:"ts"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	if msg.CollectorID == "" {
		msg.CollectorID = extractID(topic)
	}
	if msg.CollectorID == "" {
		return fmt.Errorf("presence report without collector id")
	}
	ts := time.Now()
	if msg.TS != nil {
		ts = time.Unix(*msg.TS, 0)
	}
	if msg.Lat != nil && msg.Lng != nil {
		if *msg.Lat < -90 || *msg.Lat > 90 || *msg.Lng < -180 || *msg.Lng > 180 {
			return fmt.Errorf("collector %s: coordinates out of range (%v, %v)", msg.CollectorID, *msg.Lat, *msg.Lng)
		}
		loc := model.CollectorLocation{
			Coordinates: model.Coordinates{Lat: *msg.Lat, Lng: *msg.Lng},
			LastUpdated: ts,
		}
		if err := m.store.UpdateLocation(ctx, msg.CollectorID, loc); err != nil {
			return fmt.Errorf("update location %s: %w", msg.CollectorID, err)
		}
	}
	if msg.Online != nil {
		if err := m.store.SetOnline(ctx, msg.CollectorID, *msg.Online); err != nil {
			return fmt.Errorf("set online %s: %w", msg.CollectorID, err)
		}
	}
	if m.lastReport != nil {
		m.lastReport.SetToCurrentTime()
	}
	return nil
}
