package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/metrics"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/telemetry"
)

var ErrBadTopic = errors.New("unexpected topic")

// Handler is called with every accepted batch, after power factor derivation.
type Handler func(owner string, readings []domain.PowerReading)

type Subscriber struct {
	client   mqtt.Client
	topic    string
	buf      *Buffer
	handlers []Handler
}

// NewSubscriber builds a subscriber for topic on broker. topic must have the
// owner id as its second level, e.g. pm/+/readings.
func NewSubscriber(broker, clientID, topic string, buf *Buffer) *Subscriber {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30 * time.Second)
	s := &Subscriber{topic: topic, buf: buf}
	// Resubscribe after every reconnect; the session is not persisted.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if t := c.Subscribe(s.topic, 0, s.onMessage); t.Wait() && t.Error() != nil {
			log.Error().Err(t.Error()).Str("topic", s.topic).Msg("mqtt subscribe failed")
			return
		}
		log.Info().Str("topic", s.topic).Msg("subscribed to live feed")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})
	s.client = mqtt.NewClient(opts)
	return s
}

// OnReadings registers h for every accepted batch. Register before Run.
func (s *Subscriber) OnReadings(h Handler) {
	s.handlers = append(s.handlers, h)
}

// Run connects and blocks until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	if t := s.client.Connect(); t.Wait() && t.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", t.Error())
	}
	<-ctx.Done()
	s.client.Disconnect(250)
	return nil
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if err := s.Handle(msg.Topic(), msg.Payload()); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("live feed message dropped")
	}
}

// Handle decodes one message. The payload is a single reading or an array
// of them in the plant API's report shape.
func (s *Subscriber) Handle(topic string, payload []byte) error {
	owner, err := OwnerFromTopic(topic)
	if err != nil {
		metrics.LiveFeedMessages.WithLabelValues("bad_topic").Inc()
		return err
	}
	readings, err := decodeReadings(payload)
	if err != nil {
		metrics.LiveFeedMessages.WithLabelValues("decode_error").Inc()
		return err
	}
	readings = telemetry.DerivePowerFactor(readings)
	if s.buf != nil {
		s.buf.Add(owner, readings...)
	}
	for _, h := range s.handlers {
		h(owner, readings)
	}
	metrics.LiveFeedMessages.WithLabelValues("accepted").Inc()
	return nil
}

// OwnerFromTopic takes the owner id from the second topic level.
func OwnerFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w %q", ErrBadTopic, topic)
	}
	return parts[1], nil
}

func decodeReadings(payload []byte) ([]domain.PowerReading, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && payload[0] == '[' {
		var rs []domain.PowerReading
		if err := json.Unmarshal(payload, &rs); err != nil {
			return nil, fmt.Errorf("decode readings: %w", err)
		}
		return rs, nil
	}
	var r domain.PowerReading
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("decode reading: %w", err)
	}
	if r.Timestamp == "" {
		return nil, errors.New("decode reading: missing Current_Phase_A_TIMESTAMP")
	}
	return []domain.PowerReading{r}, nil
}
