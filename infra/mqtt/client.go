package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/takaflow/dispatch/core/model"
	"github.com/takaflow/dispatch/infra/logger"
)

// ErrAcceptTimeout is returned when no acceptance is received before the timeout.
var ErrAcceptTimeout = errors.New("timeout waiting for acceptance")

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string          `json:"broker"`
	ClientID    string          `json:"client_id"`
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	AcceptTopic string          `json:"accept_topic"`
	UseTLS      bool            `json:"use_tls"`
	ClientCert  string          `json:"client_cert"`
	ClientKey   string          `json:"client_key"`
	CABundle    string          `json:"ca_bundle"`
	AuthMethod  string          `json:"auth_method"`
	QoS         map[string]byte `json:"qos"`
	LWTTopic    string          `json:"lwt_topic"`
	LWTPayload  string          `json:"lwt_payload"`
	LWTQoS      byte            `json:"lwt_qos"`
	LWTRetain   bool            `json:"lwt_retain"`
	MaxRetries  int             `json:"max_retries"`
	BackoffMS   int             `json:"backoff_ms"`
	// AcceptTTLSec bounds how long an unclaimed proposal keeps its
	// acceptance channel registered.
	AcceptTTLSec int         `json:"accept_ttl_sec"`
	TLSConfig    *tls.Config `json:"-"`
}

// SetDefaults applies the connection defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatch-engine"
	}
	if c.AcceptTopic == "" {
		c.AcceptTopic = "collector/+/accept"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.AcceptTTLSec <= 0 {
		c.AcceptTTLSec = 300
	}
}

// Validate checks the connection parameters.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.UseTLS && c.TLSConfig == nil {
		if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
			return fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
		}
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient carries match proposals to collectors and status updates to
// clients over MQTT. It implements both dispatch.Notifier and
// dispatch.StatusPublisher.
type PahoClient struct {
	cli         pahoClient
	acceptTopic string
	qos         map[string]byte

	mu          sync.Mutex
	acceptChans map[string]acceptWaiter
	logger      logger.Logger
	maxRetries  int
	backoff     time.Duration
	acceptTTL   time.Duration
	now         func() time.Time
}

// acceptWaiter pairs a proposal's acceptance channel with its expiry.
// Entries past the expiry are swept on the next notify so the map stays
// bounded even when nobody waits on the proposal.
type acceptWaiter struct {
	ch      chan string
	expires time.Time
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the
// acceptance topic.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		acceptTopic: cfg.AcceptTopic,
		acceptChans: make(map[string]acceptWaiter),
		logger:      log,
		qos:         cfg.QoS,
		maxRetries:  cfg.MaxRetries,
		backoff:     time.Duration(cfg.BackoffMS) * time.Millisecond,
		acceptTTL:   time.Duration(cfg.AcceptTTLSec) * time.Second,
		now:         time.Now,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		qos := byte(0)
		if q, ok := pc.qos["accept"]; ok {
			qos = q
		}
		if token := c.Subscribe(pc.acceptTopic, qos, pc.onAccept); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (p *PahoClient) onAccept(_ paho.Client, msg paho.Message) {
	var m struct {
		ProposalID  string `json:"proposal_id"`
		CollectorID string `json:"collector_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode acceptance: %v", err)
		return
	}
	p.mu.Lock()
	w, ok := p.acceptChans[m.ProposalID]
	if ok {
		select {
		case w.ch <- m.CollectorID:
		default:
		}
		p.logger.Infof("proposal %s accepted by %s", m.ProposalID, m.CollectorID)
	}
	p.mu.Unlock()
}

// proposalPayload is the wire form of a match proposal.
type proposalPayload struct {
	ProposalID string  `json:"proposal_id"`
	RequestID  string  `json:"request_id"`
	WasteType  string  `json:"waste_type"`
	QuantityKg float64 `json:"quantity_kg"`
	Address    string  `json:"address"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Urgency    string  `json:"urgency"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	Timestamp  int64   `json:"timestamp"`
}

// NotifyCollector publishes a match proposal on the collector's topic and
// registers an acceptance channel for it.
func (p *PahoClient) NotifyCollector(ctx context.Context, c model.Collector, req model.ServiceRequest) error {
	proposalID := uuid.NewString()
	payload, err := json.Marshal(proposalPayload{
		ProposalID: proposalID,
		RequestID:  req.ID,
		WasteType:  req.WasteType.String(),
		QuantityKg: req.QuantityKg,
		Address:    req.Location.Address,
		Lat:        req.Location.Coordinates.Lat,
		Lng:        req.Location.Coordinates.Lng,
		Urgency:    req.Urgency.String(),
		Price:      req.Price.FinalPrice,
		Currency:   req.Price.Currency,
		Timestamp:  time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("collector/%s/proposal", c.ID)
	if err := p.publishRetry(ctx, topic, "proposal", payload); err != nil {
		return err
	}
	p.logger.Infof("sent proposal %s to %s", proposalID, topic)

	p.mu.Lock()
	for id, w := range p.acceptChans {
		if p.now().After(w.expires) {
			delete(p.acceptChans, id)
		}
	}
	p.acceptChans[proposalID] = acceptWaiter{
		ch:      make(chan string, 1),
		expires: p.now().Add(p.acceptTTL),
	}
	p.mu.Unlock()
	return nil
}

// PublishStatus publishes the status update on the request's topic.
func (p *PahoClient) PublishStatus(ctx context.Context, update model.StatusUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("request/%s/status", update.RequestID)
	return p.publishRetry(ctx, topic, "status", payload)
}

func (p *PahoClient) publishRetry(ctx context.Context, topic, qosKey string, payload []byte) error {
	qos := byte(0)
	if q, ok := p.qos[qosKey]; ok {
		qos = q
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		token := p.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// WaitForAccept blocks until a collector accepts the proposal or the
// timeout expires, returning the accepting collector id.
func (p *PahoClient) WaitForAccept(proposalID string, timeout time.Duration) (string, error) {
	p.mu.Lock()
	w, ok := p.acceptChans[proposalID]
	p.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown proposal")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case id := <-w.ch:
		p.mu.Lock()
		delete(p.acceptChans, proposalID)
		p.mu.Unlock()
		return id, nil
	case <-timer.C:
		p.mu.Lock()
		delete(p.acceptChans, proposalID)
		p.mu.Unlock()
		return "", fmt.Errorf("%w", ErrAcceptTimeout)
	}
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
