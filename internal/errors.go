package internal

import "errors"

var (
	ErrUnknownMQClient = errors.New("unknown mq client")

	ErrReadConfigurationFailure = errors.New("failed to read configuration")
	ErrLoadConfigurationFailure = errors.New("failed to load configuration")
	ErrMissingApplicationToken  = errors.New("configuration is missing an application token")
	ErrMissingProducerChannel   = errors.New("configuration is missing a producer channel name")
	ErrMissingConsumerChannel   = errors.New("configuration is missing a consumer channel name")

	ErrUnknownDispatchEvent     = errors.New("no handler for dispatch event")
	ErrScheduledEventNotTracked = errors.New("scheduled event is not tracked")
	ErrMissingDispatchEventData = errors.New("dispatch event carries no data")
)
