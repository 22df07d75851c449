package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/alarm-clock/internal/logger"
)

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	BufferSize  int
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down wait in an outbox and are replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	events string
	system string
	log    *zap.SugaredLogger

	mu        sync.Mutex
	outbox    *outbox
	connected bool
	everUp    bool
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is established in the background so the clock keeps working without a broker.
func NewRealPublisher(ctx context.Context, o Options) *RealPublisher {
	if o.TopicPrefix == "" {
		o.TopicPrefix = DefaultTopicPrefix
	}
	p := &RealPublisher{
		events: EventsTopic(o.TopicPrefix),
		system: SystemTopic(o.TopicPrefix),
		log:    logger.FromContext(logger.WithName(ctx, "mqtt")),
		outbox: newOutbox(o.BufferSize),
	}

	// Last will: the broker announces an unclean disconnect for us.
	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(p.system, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.everUp
	p.connected = true
	p.everUp = true
	pending, dropped := p.outbox.drain()
	p.mu.Unlock()

	p.log.Infow("connected", "replaying", len(pending), "dropped", dropped, "reconnect", reconnect)

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		p.send(queuedMsg{topic: p.system, payload: payload, qos: 1})
	}
	for _, msg := range pending {
		p.send(msg)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.log.Warnw("connection lost", "error", err)
}

// send publishes msg, buffering it again if the broker does not confirm.
func (p *RealPublisher) send(msg queuedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.enqueue(msg)
		return fmt.Errorf("publish to %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		p.enqueue(msg)
		return fmt.Errorf("publish to %s: %w", msg.topic, err)
	}
	return nil
}

func (p *RealPublisher) enqueue(msg queuedMsg) {
	p.mu.Lock()
	first := p.outbox.push(msg)
	size := p.outbox.capacity
	p.mu.Unlock()
	if first {
		p.log.Warnw("outbox full, dropping oldest", "capacity", size)
	}
}

func (p *RealPublisher) publish(msg queuedMsg) error {
	if !p.IsConnected() {
		p.enqueue(msg)
		return nil
	}
	return p.send(msg)
}

// Publish sends an alarm clock event. QoS 0, not retained.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(queuedMsg{topic: p.events, payload: payload})
}

// PublishSystem sends a system lifecycle event with QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(queuedMsg{topic: p.system, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns how many messages wait for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
