package internal

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

func init() {
	MQClients = append(MQClients, "redis")
}

type RedisMQClient struct {
	redisClient *redis.Client
	pubsub      *redis.PubSub

	channel string
}

func (redisMQ *RedisMQClient) String() string {
	return "redis"
}

func (redisMQ *RedisMQClient) Channel() string {
	return redisMQ.channel
}

func (redisMQ *RedisMQClient) Connect(ctx context.Context, clientName string, args map[string]interface{}) error {
	var ok bool

	var address string

	if address, ok = GetEntry(args, "Address").(string); !ok {
		return errors.New("redisMQ connect: string type assertion failed for Address")
	}

	password, _ := GetEntry(args, "Password").(string)

	var db int
	var err error

	if dbStr, ok := GetEntry(args, "DB").(string); ok {
		db, err = strconv.Atoi(dbStr)
		if err != nil {
			return fmt.Errorf("redisMQ connect db atoi: %w", err)
		}
	}

	redisMQ.redisClient = redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	err = redisMQ.redisClient.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("redisMQ connect ping: %w", err)
	}

	return nil
}

func (redisMQ *RedisMQClient) Publish(ctx context.Context, channelName string, data []byte) error {
	return redisMQ.redisClient.Publish(
		ctx,
		channelName,
		data,
	).Err()
}

func (redisMQ *RedisMQClient) Subscribe(ctx context.Context, channelName string) (<-chan []byte, error) {
	redisMQ.pubsub = redisMQ.redisClient.Subscribe(ctx, channelName)
	redisMQ.channel = channelName

	messages := make(chan []byte)

	go func() {
		defer close(messages)

		for message := range redisMQ.pubsub.Channel() {
			select {
			case messages <- []byte(message.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	return messages, nil
}

func (redisMQ *RedisMQClient) IsClosed() bool {
	return redisMQ.redisClient == nil
}

func (redisMQ *RedisMQClient) Close() {
	if redisMQ.pubsub != nil {
		redisMQ.pubsub.Close()
		redisMQ.pubsub = nil
	}

	redisMQ.redisClient.Close()
	redisMQ.redisClient = nil
}
