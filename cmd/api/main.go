package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/quickcart/internal/auth"
	"github.com/imrishuroy/quickcart/internal/aws"
	"github.com/imrishuroy/quickcart/internal/broker/kafka"
	"github.com/imrishuroy/quickcart/internal/broker/rabbitmq"
	"github.com/imrishuroy/quickcart/internal/checkout"
	"github.com/imrishuroy/quickcart/internal/config"
	"github.com/imrishuroy/quickcart/internal/contact"
	qcevents "github.com/imrishuroy/quickcart/internal/events"
	"github.com/imrishuroy/quickcart/internal/handlers"
	"github.com/imrishuroy/quickcart/internal/logging"
	"github.com/imrishuroy/quickcart/internal/metrics"
	"github.com/imrishuroy/quickcart/internal/orders"
	"github.com/imrishuroy/quickcart/internal/products"
	"github.com/imrishuroy/quickcart/internal/users"
)

func setupRouter(cfg handlers.HandlerConfig, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(logger), metrics.PrometheusMiddleware())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(r, cfg)

	return r
}

// newPublisher returns the event publisher for the configured bus and a
// function releasing its connections.
func newPublisher(cfg *config.Config, clients *aws.AWSClients) (qcevents.Publisher, func() error, error) {
	switch cfg.EventBus {
	case config.BusKafka:
		p := kafka.NewProducer(cfg.Brokers(), cfg.KafkaTopic)
		return p, p.Close, nil
	case config.BusRabbitMQ:
		mq, err := rabbitmq.Dial(cfg.RabbitMQURL)
		if err != nil {
			return nil, nil, err
		}
		if err := mq.Setup(rabbitmq.Topology{Exchange: cfg.RabbitMQExchange, Queue: cfg.RabbitMQQueue}); err != nil {
			_ = mq.Close()
			return nil, nil, err
		}
		return rabbitmq.NewPublisher(mq.Channel, cfg.RabbitMQExchange), mq.Close, nil
	default:
		return aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL), func() error { return nil }, nil
	}
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err == nil {
		err = cfg.ValidateAPI()
	}
	if err != nil {
		bootLogger := logging.New("info", false, os.Stderr)
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty, os.Stdout).With().Str("component", "api").Logger()

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion, cfg.AWSEndpointOverride)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init aws clients")
	}

	pub, closePub, err := newPublisher(cfg, clients)
	if err != nil {
		logger.Fatal().Err(err).Str("bus", cfg.EventBus).Msg("failed to init event publisher")
	}
	defer func() {
		if err := closePub(); err != nil {
			logger.Warn().Err(err).Msg("closing publisher")
		}
	}()

	shop := checkout.NewService(
		users.NewStore(clients.DynamoDB, cfg.UsersTable),
		products.NewStore(clients.DynamoDB, cfg.ProductsTable),
		orders.NewStore(clients.DynamoDB, cfg.OrdersTable, cfg.OrdersUserIndex),
		qcevents.NewEmitter(pub),
	)

	r := setupRouter(handlers.HandlerConfig{
		Storefront: shop,
		Contacts:   contact.NewStore(clients.DynamoDB, cfg.ContactsTable),
		Verifier:   auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
	}, logger)

	// if RUN_LOCAL is set, run a local HTTP server for development.
	if cfg.RunLocal {
		if err := serve(r, cfg.HTTPAddr, logger); err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

// serve runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests.
func serve(h http.Handler, addr string, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("running local server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
