package internal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

func init() {
	MQClients = append(MQClients, "jetstream")
}

type JetStreamMQClient struct {
	JetStreamClient jetstream.JetStream
	JetStreamStream jetstream.Stream

	consumeCtx jetstream.ConsumeContext

	clientName string
	channel    string
	isClosed   bool
}

func (jetstreamMQ *JetStreamMQClient) String() string {
	return "jetstream"
}

func (jetstreamMQ *JetStreamMQClient) Channel() string {
	return jetstreamMQ.channel
}

func (jetstreamMQ *JetStreamMQClient) Connect(ctx context.Context, clientName string, args map[string]interface{}) error {
	var ok bool

	var address string

	if address, ok = GetEntry(args, "Address").(string); !ok {
		return errors.New("jetstreamMQ connect: string type assertion failed for Address")
	}

	var channel string

	if channel, ok = GetEntry(args, "Channel").(string); !ok {
		return errors.New("jetstreamMQ connect: string type assertion failed for Channel")
	}

	jetstreamMQ.clientName = clientName
	jetstreamMQ.channel = channel

	nc, err := nats.Connect(address)
	if err != nil {
		return fmt.Errorf("jetstreamMQ connect nats: %w", err)
	}

	jetstreamMQ.JetStreamClient, err = jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstreamMQ new: %w", err)
	}

	jetstreamMQ.JetStreamStream, err = jetstreamMQ.JetStreamClient.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:              jetstreamMQ.channel,
		Subjects:          []string{jetstreamMQ.channel + ".*"},
		Retention:         jetstream.InterestPolicy,
		Discard:           jetstream.DiscardOld,
		MaxAge:            5 * time.Minute,
		Storage:           jetstream.MemoryStorage,
		MaxMsgsPerSubject: 1_000_000,
		MaxMsgSize:        math.MaxInt32,
	})
	if err != nil {
		return fmt.Errorf("jetstreamMQ create stream: %w", err)
	}

	jetstreamMQ.isClosed = false

	return nil
}

func (jetstreamMQ *JetStreamMQClient) Publish(ctx context.Context, channelName string, data []byte) error {
	_, err := jetstreamMQ.JetStreamClient.PublishAsync(
		jetstreamMQ.channel+"."+channelName,
		data,
	)

	return err
}

func (jetstreamMQ *JetStreamMQClient) Subscribe(ctx context.Context, channelName string) (<-chan []byte, error) {
	consumer, err := jetstreamMQ.JetStreamStream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       jetstreamMQ.clientName,
		FilterSubject: jetstreamMQ.channel + "." + channelName,
		AckPolicy:     jetstream.AckNonePolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("jetstreamMQ create consumer: %w", err)
	}

	messages := make(chan []byte)

	jetstreamMQ.consumeCtx, err = consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messages <- msg.Data():
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("jetstreamMQ consume: %w", err)
	}

	return messages, nil
}

func (jetstreamMQ *JetStreamMQClient) IsClosed() bool {
	return jetstreamMQ.isClosed
}

func (jetstreamMQ *JetStreamMQClient) Close() {
	if jetstreamMQ.consumeCtx != nil {
		jetstreamMQ.consumeCtx.Stop()
		jetstreamMQ.consumeCtx = nil
	}

	jetstreamMQ.isClosed = true
}
