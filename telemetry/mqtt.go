package telemetry

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"playerdebug/internal/ratelimit"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTFeed subscribes to a topic carrying player events (one JSON Event per
// message) and applies them to a Session.
//
// Paho delivers messages on its own goroutines; Session is safe for that.
type MQTTFeed struct {
	broker   string
	port     int
	topic    string
	clientID string
	session  *Session
	client   mqtt.Client

	received atomic.Uint64
	rejected *ratelimit.Counter
}

const rejectLogInterval = 10 * time.Second

// NewMQTTFeed prepares a feed; Connect starts it. The client ID is
// clientPrefix plus a random suffix so several overlays can share a broker.
func NewMQTTFeed(broker string, port int, topic, clientPrefix string, session *Session) *MQTTFeed {
	if clientPrefix == "" {
		clientPrefix = "playerdebug"
	}
	return &MQTTFeed{
		broker:   broker,
		port:     port,
		topic:    topic,
		clientID: clientPrefix + "-" + uuid.NewString(),
		session:  session,
		rejected: ratelimit.NewCounter(rejectLogInterval),
	}
}

// Connect establishes the broker connection. Subscriptions are re-issued on
// every reconnect.
func (f *MQTTFeed) Connect() error {
	opts := mqtt.NewClientOptions()
	brokerURL := fmt.Sprintf("tcp://%s:%d", f.broker, f.port)
	opts.AddBroker(brokerURL)
	opts.SetClientID(f.clientID)

	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)

	opts.SetOnConnectHandler(f.onConnect)
	opts.SetConnectionLostHandler(f.onConnectionLost)

	f.client = mqtt.NewClient(opts)

	log.Printf("MQTT: connecting to %s as %s", brokerURL, f.clientID)
	token := f.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to %s: %w", brokerURL, token.Error())
	}
	return nil
}

func (f *MQTTFeed) onConnect(client mqtt.Client) {
	log.Printf("MQTT: connected, subscribing to %s", f.topic)
	token := client.Subscribe(f.topic, 0, f.messageHandler)
	if token.Wait() && token.Error() != nil {
		log.Printf("MQTT: failed to subscribe: %v", token.Error())
	}
}

func (f *MQTTFeed) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT: connection lost: %v (will reconnect)", err)
}

func (f *MQTTFeed) messageHandler(client mqtt.Client, msg mqtt.Message) {
	f.handlePayload(msg.Payload())
}

func (f *MQTTFeed) handlePayload(payload []byte) {
	f.received.Add(1)
	ev, err := DecodeEvent(payload)
	if err == nil {
		err = f.session.Apply(ev)
	}
	if err != nil {
		if total, ok := f.rejected.Inc(); ok {
			log.Printf("MQTT: dropping message: %v (%d rejected so far)", err, total)
		}
	}
}

// Stats reports received and rejected message counts.
func (f *MQTTFeed) Stats() (received, rejected uint64) {
	return f.received.Load(), f.rejected.Total()
}

func (f *MQTTFeed) connected() bool {
	return f.client != nil && f.client.IsConnected()
}

// Stop unsubscribes and disconnects, waiting up to 250ms.
func (f *MQTTFeed) Stop() {
	if !f.connected() {
		return
	}
	f.client.Unsubscribe(f.topic)
	f.client.Disconnect(250)
	log.Printf("MQTT: disconnected from %s:%d", f.broker, f.port)
}
