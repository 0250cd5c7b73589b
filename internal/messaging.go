package internal

import (
	"context"
	"fmt"

	"github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"
	"github.com/StagehandTeam/Stagehand-Daemon/structs"
)

// MQClients lists the registered client types. Clients register
// themselves on init.
var MQClients []string

type MQClient interface {
	String() string
	Channel() string

	Connect(ctx context.Context, clientName string, args map[string]interface{}) error
	Publish(ctx context.Context, channelName string, data []byte) error
	Subscribe(ctx context.Context, channelName string) (<-chan []byte, error)

	IsClosed() bool
	Close()
}

func NewMQClient(mqType string) (MQClient, error) {
	switch mqType {
	case "redis":
		return &RedisMQClient{}, nil
	case "kafka":
		return &KafkaMQClient{}, nil
	case "jetstream":
		return &JetStreamMQClient{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMQClient, mqType)
	}
}

// PublishEvent stamps a payload with the daemon's metadata and publishes
// it on the producer channel.
func (sg *Stagehand) PublishEvent(ctx context.Context, packet *structs.StagehandPayload) error {
	sg.configurationMu.RLock()
	identifier := sg.Configuration.Producer.Identifier
	channelName := sg.Configuration.Producer.ChannelName
	application := sg.Configuration.Application
	sg.configurationMu.RUnlock()

	identifier = replaceIfEmpty(identifier, "stagehand")

	packet.Metadata = structs.StagehandMetadata{
		Version:     VERSION,
		Identifier:  identifier,
		Application: replaceIfEmpty(application, identifier),
	}

	payload, err := stagehandjson.Marshal(packet)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	err = sg.ProducerClient.Publish(ctx, channelName, payload)
	if err != nil {
		return fmt.Errorf("publishEvent publish: %w", err)
	}

	return nil
}
