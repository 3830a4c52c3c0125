// Package notify publishes build lifecycle events onto an MQTT broker,
// the optional event bus a long-running build server or CI dashboard
// subscribes to (spec §4.6 [DOMAIN]: "rule.begin"/"rule.succeeded"/
// "rule.failed"/"build.finished"). It satisfies engine.Notifier without
// engine importing this package, keeping the dependency one-directional.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/anvil-build/anvil/types"
)

// Publisher is the minimal publish contract MQTTPublisher and any test
// double implement.
type Publisher interface {
	Publish(event, rulePath string, payload any)
	Close()
}

// MQTTPublisher publishes one retained-false QoS-at-most-once message per
// event to "<TopicPrefix>/<event>", JSON-encoding a small envelope of
// (rule_path, payload, time). Construction connects eagerly; a broker
// that's unreachable at startup fails NewMQTTPublisher rather than
// silently dropping every event later.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
	logger      types.Logger
}

// MQTTOptions configures MQTTPublisher. Broker is a full URL
// ("tcp://host:1883"); TopicPrefix defaults to "anvil/build" if empty.
type MQTTOptions struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Logger      types.Logger
}

// NewMQTTPublisher connects to opts.Broker and returns a ready publisher.
func NewMQTTPublisher(opts MQTTOptions) (*MQTTPublisher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = types.NopLogger()
	}
	prefix := opts.TopicPrefix
	if prefix == "" {
		prefix = "anvil/build"
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, types.WrapError(types.ErrIO, "connecting to mqtt broker "+opts.Broker, token.Error())
	}

	return &MQTTPublisher{client: client, topicPrefix: prefix, logger: logger}, nil
}

type envelope struct {
	RulePath string `json:"rule_path,omitempty"`
	Payload  any    `json:"payload,omitempty"`
	Time     int64  `json:"time"`
}

// topicFor and encodeEnvelope are split out of Publish as pure functions
// so the message-shaping logic is testable without a live broker
// connection (paho's mqtt.Client is a large interface to fake just to
// exercise string formatting and JSON encoding).
func topicFor(prefix, event string) string {
	return fmt.Sprintf("%s/%s", prefix, event)
}

func encodeEnvelope(rulePath string, payload any, now time.Time) ([]byte, error) {
	return json.Marshal(envelope{RulePath: rulePath, Payload: payload, Time: now.UnixMilli()})
}

// Publish implements engine.Notifier. Encoding or delivery failures are
// logged, not returned: a build driver's event bus is best-effort and
// must never make a broker outage fail the build itself.
func (p *MQTTPublisher) Publish(event, rulePath string, payload any) {
	body, err := encodeEnvelope(rulePath, payload, time.Now())
	if err != nil {
		p.logger.Warnf("notify: encoding event %s: %v", event, err)
		return
	}
	topic := topicFor(p.topicPrefix, event)
	token := p.client.Publish(topic, 0, false, body)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.logger.Warnf("notify: publishing to %s: %v", topic, token.Error())
		}
	}()
}

// Close disconnects from the broker, waiting up to 250ms to flush.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
