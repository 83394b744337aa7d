package points

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Topic layout for the plant point store. Each point publishes its current
// value retained on its value topic; output writes go to the set topic.
const (
	valueTopicPattern = "plant/points/+/value"
	valueTopicPrefix  = "plant/points/"
	valueTopicSuffix  = "/value"
	setTopicFormat    = "plant/points/%s/set"
)

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

type reading struct {
	value float64
	at    time.Time
}

// MQTTStore implements Reader and Writer against an MQTT broker. It
// subscribes to every point's value topic and caches the latest reading;
// Read serves from the cache so a slow broker can never stall an evaluation
// tick. Readings older than the staleness window are unavailable.
type MQTTStore struct {
	client    paho.Client
	staleness time.Duration
	now       func() time.Time

	mu       sync.RWMutex
	readings map[string]reading
}

// NewMQTTStore connects to the broker and subscribes to point values.
// staleness bounds how old a cached reading may be before Read reports the
// point unavailable; zero disables the check.
func NewMQTTStore(broker, clientID string, staleness time.Duration) (*MQTTStore, error) {
	s := &MQTTStore{
		staleness: staleness,
		now:       time.Now,
		readings:  make(map[string]reading),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c paho.Client) {
			// Re-subscribe after every (re)connect so a broker restart
			// cannot silently drop the value stream.
			c.Subscribe(valueTopicPattern, 0, s.onValue)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}

	sub := client.Subscribe(valueTopicPattern, 0, s.onValue)
	if !sub.WaitTimeout(subscribeTimeout) {
		client.Disconnect(250)
		return nil, fmt.Errorf("subscribe %s: timeout", valueTopicPattern)
	}
	if err := sub.Error(); err != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("subscribe %s: %w", valueTopicPattern, err)
	}

	s.client = client
	return s, nil
}

func (s *MQTTStore) onValue(_ paho.Client, msg paho.Message) {
	pointID, ok := pointIDFromTopic(msg.Topic())
	if !ok {
		return
	}
	value, err := parseValue(msg.Payload())
	if err != nil {
		return
	}
	s.mu.Lock()
	s.readings[pointID] = reading{value: value, at: s.now()}
	s.mu.Unlock()
}

// Read returns the cached value for the point. ok is false when the point
// has never reported or its last report is older than the staleness window.
func (s *MQTTStore) Read(pointID string) (float64, bool) {
	s.mu.RLock()
	r, ok := s.readings[pointID]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if s.staleness > 0 && s.now().Sub(r.at) > s.staleness {
		return 0, false
	}
	return r.value, true
}

// Write publishes the output value retained to the point's set topic, with a
// bounded wait. A timeout is an error; the engine retries on its next tick.
func (s *MQTTStore) Write(pointID string, value bool) error {
	payload := "0"
	if value {
		payload = "1"
	}
	topic := fmt.Sprintf(setTopicFormat, pointID)
	token := s.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(writeTimeout) {
		return fmt.Errorf("write %s: timeout", pointID)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("write %s: %w", pointID, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (s *MQTTStore) IsConnected() bool {
	return s.client != nil && s.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (s *MQTTStore) Close() error {
	if s.client != nil {
		s.client.Disconnect(250)
	}
	return nil
}

func pointIDFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, valueTopicPrefix) || !strings.HasSuffix(topic, valueTopicSuffix) {
		return "", false
	}
	id := topic[len(valueTopicPrefix) : len(topic)-len(valueTopicSuffix)]
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// parseValue accepts the payload forms seen from plant publishers: a bare
// number, or true/false for digital points.
func parseValue(payload []byte) (float64, error) {
	s := strings.TrimSpace(string(payload))
	switch strings.ToLower(s) {
	case "true", "on":
		return 1, nil
	case "false", "off":
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable point value %q", s)
	}
	return v, nil
}
