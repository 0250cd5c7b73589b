package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/StagehandTeam/Stagehand-Daemon/discord"
	"github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"
	"github.com/StagehandTeam/Stagehand-Daemon/structs"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"go.uber.org/atomic"
	"gopkg.in/yaml.v3"
)

// VERSION follows semantic versioning.
const VERSION = "0.4.0"

const (
	PermissionsDefault = 0o744
	PermissionWrite    = 0o600

	prometheusGatherInterval = 10 * time.Second
)

// Stagehand tracks guild scheduled events: it consumes raw dispatch
// events from the consumer channel, keeps its state in sync, republishes
// normalized lifecycle events on the producer channel and serves a small
// status API.
type Stagehand struct {
	Logger zerolog.Logger `json:"-"`

	StartTime time.Time `json:"start_time" yaml:"start_time"`

	ctx    context.Context
	cancel func()

	Session *discord.Session `json:"-"`

	ProducerClient MQClient `json:"-"`
	ConsumerClient MQClient `json:"-"`

	EventsInflight *atomic.Int32 `json:"-"`

	State *StagehandState `json:"-"`

	RouterHandler fasthttp.RequestHandler `json:"-"`

	Options StagehandOptions `json:"options" yaml:"options"`

	Configuration StagehandConfiguration `json:"configuration" yaml:"configuration"`

	configurationMu sync.RWMutex
}

// StagehandConfiguration represents the configuration file.
type StagehandConfiguration struct {
	Identify struct {
		Token string `json:"token" yaml:"token"`
	} `json:"identify" yaml:"identify"`

	// Application is a free-form name stamped onto republished payloads.
	Application string `json:"application" yaml:"application"`

	Producer struct {
		Configuration map[string]interface{} `json:"configuration" yaml:"configuration"`
		Type          string                 `json:"type" yaml:"type"`
		Identifier    string                 `json:"identifier" yaml:"identifier"`
		ChannelName   string                 `json:"channel_name" yaml:"channel_name"`
	} `json:"producer" yaml:"producer"`

	Consumer struct {
		Configuration map[string]interface{} `json:"configuration" yaml:"configuration"`
		Type          string                 `json:"type" yaml:"type"`
		ChannelName   string                 `json:"channel_name" yaml:"channel_name"`
	} `json:"consumer" yaml:"consumer"`

	// Guilds to fetch scheduled events for on startup.
	Guilds []int64 `json:"guilds" yaml:"guilds"`
}

// StagehandOptions represents any options passable when creating the
// stagehand service.
type StagehandOptions struct {
	ConfigurationLocation string `json:"configuration_location" yaml:"configuration_location"`
	HTTPHost              string `json:"http_host" yaml:"http_host"`

	// RestProxyURL routes rest calls through a twilight http-proxy
	// instead of directly to discord.
	RestProxyURL string `json:"rest_proxy_url" yaml:"rest_proxy_url"`
}

// NewStagehand creates the stagehand service.
func NewStagehand(logger io.Writer, options StagehandOptions) (*Stagehand, error) {
	sg := &Stagehand{
		Logger: zerolog.New(logger).With().Timestamp().Logger(),

		EventsInflight: atomic.NewInt32(0),

		State: NewStagehandState(),

		Options: options,
	}

	sg.ctx, sg.cancel = context.WithCancel(context.Background())

	sg.Logger.Info().Msg("Loading configuration")

	configuration, err := sg.LoadConfiguration(options.ConfigurationLocation)
	if err != nil {
		return nil, err
	}

	sg.Configuration = *configuration

	if sg.Configuration.Identify.Token == "" {
		return nil, ErrMissingApplicationToken
	}

	if sg.Configuration.Producer.ChannelName == "" {
		return nil, ErrMissingProducerChannel
	}

	if sg.Configuration.Consumer.ChannelName == "" {
		return nil, ErrMissingConsumerChannel
	}

	var restInterface discord.RESTInterface

	if options.RestProxyURL != "" {
		proxyURL, err := url.Parse(options.RestProxyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rest proxy url: %w", err)
		}

		restInterface = discord.NewTwilightProxy(*proxyURL)
	} else {
		restInterface = discord.NewBaseInterface()
	}

	sg.Session = discord.NewSession(sg.ctx, "Bot "+sg.Configuration.Identify.Token, restInterface)

	sg.RouterHandler = sg.NewRestRouter().Handler

	return sg, nil
}

// LoadConfiguration reads and parses a configuration file.
func (sg *Stagehand) LoadConfiguration(path string) (*StagehandConfiguration, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadConfigurationFailure, err)
	}

	configuration := &StagehandConfiguration{}

	err = yaml.Unmarshal(file, configuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfigurationFailure, err)
	}

	return configuration, nil
}

// SaveConfiguration writes the configuration back to disk.
func (sg *Stagehand) SaveConfiguration(path string) error {
	sg.configurationMu.RLock()
	defer sg.configurationMu.RUnlock()

	data, err := yaml.Marshal(sg.Configuration)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	err = os.WriteFile(path, data, PermissionWrite)
	if err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	return nil
}

// Open starts the service: the HTTP API, both message queue clients, the
// consume loop and the initial guild sync.
func (sg *Stagehand) Open() error {
	sg.StartTime = time.Now().UTC()
	sg.Logger.Info().Str("version", VERSION).Msg("Starting stagehand")

	if sg.Options.HTTPHost != "" {
		go func() {
			sg.Logger.Info().Str("host", sg.Options.HTTPHost).Msg("Serving http")

			err := fasthttp.ListenAndServe(sg.Options.HTTPHost, sg.RouterHandler)
			if err != nil {
				sg.Logger.Error().Err(err).Msg("Failed to serve http")
			}
		}()
	}

	go sg.prometheusGatherer(sg.ctx)

	producerClient, err := NewMQClient(sg.Configuration.Producer.Type)
	if err != nil {
		return err
	}

	err = producerClient.Connect(sg.ctx, "stagehand-producer", sg.Configuration.Producer.Configuration)
	if err != nil {
		return fmt.Errorf("failed to connect producer: %w", err)
	}

	sg.ProducerClient = producerClient

	consumerClient, err := NewMQClient(sg.Configuration.Consumer.Type)
	if err != nil {
		return err
	}

	err = consumerClient.Connect(sg.ctx, "stagehand-consumer", sg.Configuration.Consumer.Configuration)
	if err != nil {
		return fmt.Errorf("failed to connect consumer: %w", err)
	}

	sg.ConsumerClient = consumerClient

	messages, err := consumerClient.Subscribe(sg.ctx, sg.Configuration.Consumer.ChannelName)
	if err != nil {
		return fmt.Errorf("failed to subscribe consumer: %w", err)
	}

	go sg.consumeEvents(messages)
	go sg.syncGuilds(sg.ctx)

	return nil
}

// consumeEvents drains the consumer channel, dispatching each payload.
func (sg *Stagehand) consumeEvents(messages <-chan []byte) {
	for data := range messages {
		payload := &structs.StagehandPayload{}

		err := stagehandjson.Unmarshal(data, payload)
		if err != nil {
			sg.Logger.Warn().Err(err).Msg("Failed to unmarshal consumed payload")

			continue
		}

		sg.EventsInflight.Inc()

		err = sg.OnDispatch(sg.ctx, payload)
		if err != nil && !errors.Is(err, ErrUnknownDispatchEvent) {
			sg.Logger.Error().Err(err).Str("type", payload.Type).Msg("Failed to dispatch event")
		}

		sg.EventsInflight.Dec()
	}
}

// syncGuilds primes the state with the scheduled events of every
// configured guild.
func (sg *Stagehand) syncGuilds(ctx context.Context) {
	sg.configurationMu.RLock()
	guilds := make([]int64, len(sg.Configuration.Guilds))
	copy(guilds, sg.Configuration.Guilds)
	sg.configurationMu.RUnlock()

	for _, guildID := range guilds {
		if ctx.Err() != nil {
			return
		}

		events, err := discord.FetchGuildScheduledEvents(sg.Session, sg.State, discord.GuildID(guildID), true)
		if err != nil {
			sg.Logger.Warn().Err(err).Int64("guild_id", guildID).Msg("Failed to sync guild scheduled events")

			continue
		}

		for _, ev := range events {
			sg.State.SetGuildEvent(ev)
		}

		sg.Logger.Info().Int64("guild_id", guildID).Int("events", len(events)).Msg("Synced guild scheduled events")
	}
}

// Close stops the service.
func (sg *Stagehand) Close() error {
	sg.Logger.Info().Msg("Closing stagehand")

	sg.cancel()

	if sg.ConsumerClient != nil && !sg.ConsumerClient.IsClosed() {
		sg.ConsumerClient.Close()
	}

	if sg.ProducerClient != nil && !sg.ProducerClient.IsClosed() {
		sg.ProducerClient.Close()
	}

	return nil
}
