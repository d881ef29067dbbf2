package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/quickcart/internal/aws"
	"github.com/imrishuroy/quickcart/internal/broker/kafka"
	"github.com/imrishuroy/quickcart/internal/broker/rabbitmq"
	"github.com/imrishuroy/quickcart/internal/config"
	"github.com/imrishuroy/quickcart/internal/idempotency"
	"github.com/imrishuroy/quickcart/internal/logging"
	"github.com/imrishuroy/quickcart/internal/metrics"
	"github.com/imrishuroy/quickcart/internal/orders"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		bootLogger := logging.New("info", false, os.Stderr)
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty, os.Stdout).With().Str("component", "worker").Logger()

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion, cfg.AWSEndpointOverride)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init aws clients")
	}

	p := NewProcessor(
		orders.NewStore(clients.DynamoDB, cfg.OrdersTable, cfg.OrdersUserIndex),
		idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		metrics.NewCloudWatch(clients.CloudWatch, cfg.MetricsNamespace),
		cfg.EventBus,
		logger,
	)

	if cfg.EventBus == config.BusSQS {
		logger.Info().Msg("starting sqs lambda handler")
		lambda.Start(p.HandleSQS)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consume(ctx, cfg, p, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped")
	}
	logger.Info().Msg("worker shut down")
}

// consume runs the broker consumer for the configured bus until ctx ends.
func consume(ctx context.Context, cfg *config.Config, p *Processor, logger zerolog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	switch cfg.EventBus {
	case config.BusKafka:
		c := kafka.NewConsumer(cfg.Brokers(), cfg.KafkaTopic, cfg.KafkaGroupID, logger)
		g.Go(func() error { return c.Consume(ctx, p.Process) })
		g.Go(func() error {
			<-ctx.Done()
			return c.Close()
		})
		logger.Info().Strs("brokers", cfg.Brokers()).Str("topic", cfg.KafkaTopic).Msg("consuming kafka")

	case config.BusRabbitMQ:
		mq, err := rabbitmq.Dial(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		if err := mq.Setup(rabbitmq.Topology{Exchange: cfg.RabbitMQExchange, Queue: cfg.RabbitMQQueue}); err != nil {
			_ = mq.Close()
			return err
		}
		c := rabbitmq.NewConsumer(mq.Channel, cfg.RabbitMQQueue, "quickcart-order-worker", logger)
		g.Go(func() error { return c.Consume(ctx, p.Process) })
		g.Go(func() error {
			<-ctx.Done()
			return mq.Close()
		})
		logger.Info().Str("queue", cfg.RabbitMQQueue).Msg("consuming rabbitmq")
	}

	return g.Wait()
}
