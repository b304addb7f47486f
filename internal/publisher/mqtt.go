package publisher

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/pwrstat-scraper/internal/config"
	"github.com/sweeney/pwrstat-scraper/internal/metrics"
)

// OnlineState is the availability payload, also registered as the LWT.
type OnlineState struct {
	Online    bool   `json:"online"`
	Timestamp string `json:"timestamp"`
}

// StateTopic returns the topic each point is mirrored to.
func StateTopic(prefix, series string) string {
	return fmt.Sprintf("%s/%s/state", prefix, series)
}

// AvailabilityTopic returns the topic carrying the online/offline state.
func AvailabilityTopic(prefix, series string) string {
	return fmt.Sprintf("%s/%s/availability", prefix, series)
}

// FormatOnline returns the JSON payload for the online announcement.
func FormatOnline() string { return formatOnlineState(true) }

// FormatOffline returns the JSON payload for the offline announcement.
func FormatOffline() string { return formatOnlineState(false) }

func formatOnlineState(online bool) string {
	payload, _ := json.Marshal(OnlineState{
		Online:    online,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return string(payload)
}

// FormatPoint returns the JSON payload for p.
func FormatPoint(p metrics.Point) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshalling point: %w", err)
	}
	return string(payload), nil
}

// DefaultClientID returns a client ID unique to this process, so two
// scrapers on one broker do not kick each other off.
func DefaultClientID() string {
	return "pwrstat-scraper-" + uuid.NewString()[:8]
}

// MQTTPublisher mirrors points to an MQTT broker via paho.mqtt.golang.
type MQTTPublisher struct {
	client            mqtt.Client
	qos               byte
	retained          bool
	stateTopic        string
	availabilityTopic string
}

// NewMQTTPublisher creates a connected MQTT client for series. An offline
// LWT is registered on the availability topic and an online announcement is
// published once connected.
func NewMQTTPublisher(cfg config.MQTTConfig, series string) (*MQTTPublisher, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID()
	}
	availability := AvailabilityTopic(cfg.TopicPrefix, series)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetWill(availability, FormatOffline(), cfg.QOS, true)

	if cfg.TLSCACert != "" {
		tlsCfg, err := newTLSConfig(cfg.TLSCACert)
		if err != nil {
			return nil, fmt.Errorf("loading TLS CA cert %q: %w", cfg.TLSCACert, err)
		}
		opts.SetTLSConfig(tlsCfg)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %q: %w", cfg.Broker, token.Error())
	}

	p := &MQTTPublisher{
		client:            client,
		qos:               cfg.QOS,
		retained:          cfg.Retained,
		stateTopic:        StateTopic(cfg.TopicPrefix, series),
		availabilityTopic: availability,
	}
	if err := p.send(availability, FormatOnline(), true); err != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("publishing online announcement: %w", err)
	}
	return p, nil
}

// Publish sends p as JSON to the state topic and waits for the broker to
// acknowledge.
func (p *MQTTPublisher) Publish(pt metrics.Point) error {
	payload, err := FormatPoint(pt)
	if err != nil {
		return err
	}
	return p.send(p.stateTopic, payload, p.retained)
}

func (p *MQTTPublisher) send(topic, payload string, retained bool) error {
	token := p.client.Publish(topic, p.qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Close announces offline and disconnects from the broker gracefully.
func (p *MQTTPublisher) Close() error {
	err := p.send(p.availabilityTopic, FormatOffline(), true)
	p.client.Disconnect(250)
	if err != nil {
		return fmt.Errorf("publishing offline announcement: %w", err)
	}
	return nil
}

// newTLSConfig builds a *tls.Config that trusts caFile as an additional CA.
func newTLSConfig(caFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("reading CA cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA cert from %q", caFile)
	}
	return &tls.Config{RootCAs: pool}, nil
}
