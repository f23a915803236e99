package rabbit

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logging "interviewai/pkg/logger/pkg"
)

type Rabbit interface {
	Consume(ctx context.Context, consumeFunction func(ctx context.Context, msg amqp.Delivery) error) error
	Publish(ctx context.Context, body []byte) error
}

type Config struct {
	Enabled      bool
	Address      string
	Port         int32
	Username     string
	Password     string
	ConsumeQueue string
	PublicQueue  string
	MaxConsumer  int32
	ExpireTime   int32
}

type rabbit struct {
	connectionUrl string
	comsumeQueue  string
	publicQueue   string
	maxConsumer   int32
	expireTime    int32
}

func ReadConfig() *Config {
	return &Config{
		Enabled:      viper.GetBool("rabbitmq.enabled"),
		Address:      viper.GetString("rabbitmq.address"),
		Port:         viper.GetInt32("rabbitmq.port"),
		Username:     viper.GetString("rabbitmq.username"),
		Password:     viper.GetString("rabbitmq.password"),
		ConsumeQueue: viper.GetString("rabbitmq.consume_queue"),
		PublicQueue:  viper.GetString("rabbitmq.public_queue"),
		MaxConsumer:  viper.GetInt32("rabbitmq.max_consumer"),
		ExpireTime:   viper.GetInt32("rabbitmq.expire_time"),
	}
}

func New(rb *Config) Rabbit {
	if rb == nil || !rb.Enabled {
		return &Dummy{}
	}

	maxConsumer := rb.MaxConsumer
	if maxConsumer <= 0 {
		maxConsumer = 1
	}
	connectionUrl := fmt.Sprintf("amqp://%s:%s@%s:%d/", rb.Username, rb.Password, rb.Address, rb.Port)
	return &rabbit{
		connectionUrl: connectionUrl,
		comsumeQueue:  rb.ConsumeQueue,
		publicQueue:   rb.PublicQueue,
		maxConsumer:   maxConsumer,
		expireTime:    rb.ExpireTime,
	}
}

func (r *rabbit) processMessage(ctx context.Context, msg amqp.Delivery, sem chan struct{}, consumeFunction func(ctx context.Context, msg amqp.Delivery) error) {
	logger := logging.Logger(ctx).With(zap.Uint64("deliveryTag", msg.DeliveryTag))
	logger.Debug("Received message", zap.Int("bytes", len(msg.Body)))
	defer func() { <-sem }()

	if err := consumeFunction(ctx, msg); err != nil {
		logger.Error("Failed to process message", zap.Error(err))
		msg.Nack(false, !msg.Redelivered)
	} else {
		msg.Ack(false)
	}
}

// Consume blocks, dispatching deliveries to consumeFunction with at most
// maxConsumer handlers in flight, until ctx is done or the channel closes.
func (r *rabbit) Consume(ctx context.Context, consumeFunction func(ctx context.Context, msg amqp.Delivery) error) error {
	conn, err := amqp.Dial(r.connectionUrl)
	if err != nil {
		return err
	}
	defer conn.Close()

	logging.Logger(ctx).Info("Connected to RabbitMQ", zap.String("queue", r.comsumeQueue))

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(r.comsumeQueue, true, false, false, false, nil)
	if err != nil {
		return err
	}
	if err := ch.Qos(int(r.maxConsumer), 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, r.maxConsumer)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			sem <- struct{}{}
			go r.processMessage(ctx, msg, sem, consumeFunction)
		}
	}
}

func (r *rabbit) Publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(r.connectionUrl)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(r.publicQueue, true, false, false, false, nil)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", q.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Expiration:   fmt.Sprintf("%d", r.expireTime),
	})
	if err != nil {
		return err
	}

	logging.Logger(ctx).Debug("Published message", zap.String("queue", q.Name), zap.Int("bytes", len(body)))
	return nil
}
