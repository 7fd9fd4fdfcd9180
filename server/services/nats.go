package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JRI98/widgetbridge/internal/envelope"
	"github.com/JRI98/widgetbridge/internal/history"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const subjectPrefix = "WIDGET"

type NATSService struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewNATSService(ctx context.Context, natsURL string, streamName string) (*NATSService, error) {
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("could not connect to NATS JetStream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectPrefix + ".>"},
		Retention: jetstream.LimitsPolicy,
		MaxMsgs:   history.DefaultCapacity * 100,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("could not create stream: %w", err)
	}

	return &NATSService{
		nc: nc,
		js: js,
	}, nil
}

// Subject maps a message kind to its NATS subject. Unrecognized kinds share
// one subject since their names are arbitrary widget input.
func Subject(kind string) string {
	switch kind {
	case envelope.KindGotoPage, envelope.KindChatMessage, envelope.KindLog, envelope.KindError:
		return subjectPrefix + "." + kind
	default:
		return subjectPrefix + ".Unrecognized"
	}
}

func (s *NATSService) Publish(ctx context.Context, entry history.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("could not marshal entry: %w", err)
	}

	msg := nats.NewMsg(Subject(entry.Kind))
	msg.Header.Set("Process", entry.Kind)
	msg.Data = data

	_, err = s.js.PublishMsg(ctx, msg)
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

func (s *NATSService) Close() {
	s.nc.Close()
}
