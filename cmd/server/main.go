package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vogiaan1904/ticketbottle-concert/config"
	grpcSvc "github.com/vogiaan1904/ticketbottle-concert/internal/delivery/grpc"
	httpSvc "github.com/vogiaan1904/ticketbottle-concert/internal/delivery/http"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-concert/internal/domain"
	"github.com/vogiaan1904/ticketbottle-concert/internal/infra/redis"
	"github.com/vogiaan1904/ticketbottle-concert/internal/lock"
	"github.com/vogiaan1904/ticketbottle-concert/internal/queue"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository/memory"
	repo "github.com/vogiaan1904/ticketbottle-concert/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-concert/internal/service"
	pkgGrpc "github.com/vogiaan1904/ticketbottle-concert/pkg/grpc"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/jwt"
	pkgKafka "github.com/vogiaan1904/ticketbottle-concert/pkg/kafka"
	pkgLog "github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/metrics"
)

type stores struct {
	tokens   repository.TokenRepository
	bookings repository.BookingRepository
	locker   lock.Locker
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
		Service:  "concert-service",
	})

	// Stores
	var st stores
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		redisCli, err := redis.Connect(ctx, cfg.Redis, l)
		if err != nil {
			l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
		}
		defer redis.Disconnect(context.Background(), redisCli, l)
		st = redisStores(redisCli, cfg, l)
	default:
		l.Warn(ctx, "Using in-process store: state is lost on restart and not shared between instances")
		st = memoryStores(cfg)
	}

	m := metrics.New()
	locker := lock.WithObserver(st.locker, m)

	jwtSvc, err := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize JWT service: %v", err)
	}

	// Kafka
	var (
		prod        producer.Producer = producer.NewNopProducer()
		kafkaConsGr sarama.ConsumerGroup
	)
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kafkaSyncProd, l)
		l.Infof(ctx, "Kafka producer connected to brokers: %v", cfg.Kafka.Brokers)

		kafkaConsGr, err = pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroupID,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
		l.Infof(ctx, "Kafka consumer connected: brokers=%v group=%s", cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroupID)
	}
	defer func() {
		if err := prod.Close(); err != nil {
			l.Warnf(context.Background(), "Failed to close Kafka producer: %v", err)
		}
	}()

	// Services
	dom := domain.NewTokenDomainService(cfg.Queue.MaxActiveTokens)
	qm := queue.NewManager(st.tokens, dom, l)
	lc := service.NewTokenLifecycle(st.tokens, qm, l)
	tokenSvc := service.NewTokenService(lc, qm, dom, locker, cfg.Lock, jwtSvc, prod, m, l)
	bookingSvc := service.NewBookingService(st.bookings, tokenSvc, locker, cfg.Lock, prod, l)
	scheduler := service.NewQueueScheduler(lc, qm, prod, m, l, cfg.Queue)

	// gRPC server
	gRpcSrv, healthSrv := pkgGrpc.NewServer(l)
	grpcSvc.RegisterTokenServiceServer(gRpcSrv, grpcSvc.NewGrpcService(tokenSvc, l))
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}

	// HTTP server
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpSvc.NewHTTPHandler(tokenSvc, bookingSvc, scheduler, m, l).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(gctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return gRpcSrv.Serve(lnr)
	})

	g.Go(func() error {
		l.Infof(gctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := scheduler.Start(gctx); err != nil {
		l.Fatalf(ctx, "Failed to start queue scheduler: %v", err)
	}

	var cons *consumer.Consumer
	if kafkaConsGr != nil {
		cons = consumer.NewConsumer(kafkaConsGr, tokenSvc, l)
		if err := cons.Start(gctx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		l.Info(context.Background(), "Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ShutdownTimeout)
		defer cancel()

		healthSrv.Shutdown()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			l.Warnf(shutdownCtx, "HTTP server shutdown: %v", err)
		}
		gracefulStop(gRpcSrv, cfg.Queue.ShutdownTimeout)

		// The scheduler may already have stopped with the signal context.
		if err := scheduler.Stop(); err != nil && !errors.Is(err, service.ErrSchedulerNotRunning) {
			l.Warnf(shutdownCtx, "Queue scheduler stop: %v", err)
		}
		if cons != nil {
			if err := cons.Close(); err != nil {
				l.Warnf(shutdownCtx, "Kafka consumer close: %v", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Errorf(context.Background(), "Server exited with error: %v", err)
		return
	}

	l.Info(context.Background(), "Server exited")
}

func redisStores(cli *goredis.Client, cfg *config.Config, l pkgLog.Logger) stores {
	return stores{
		tokens: repo.NewRedisTokenRepository(cli, l, repo.Options{
			KeyPrefix:       cfg.Store.KeyPrefix,
			MaxActiveTokens: cfg.Queue.MaxActiveTokens,
			TokenTTL:        cfg.Queue.TokenTTL,
			RecordRetention: cfg.Queue.RecordRetention,
		}),
		bookings: repo.NewRedisBookingRepository(cli, l, cfg.Store.KeyPrefix),
		locker: lock.NewRedisLocker(cli, l, lock.RedisOptions{
			KeyPrefix:     cfg.Store.KeyPrefix + ":lock",
			RetryInterval: cfg.Lock.RetryInterval,
		}),
	}
}

func memoryStores(cfg *config.Config) stores {
	return stores{
		tokens: memory.NewTokenRepository(memory.Options{
			MaxActiveTokens: cfg.Queue.MaxActiveTokens,
			TokenTTL:        cfg.Queue.TokenTTL,
		}),
		bookings: memory.NewBookingRepository(),
		locker:   lock.NewLocalLocker(cfg.Lock.RetryInterval),
	}
}

type stopper interface {
	GracefulStop()
	Stop()
}

// gracefulStop waits for in-flight RPCs up to timeout, then forces the stop.
func gracefulStop(srv stopper, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		srv.Stop()
	}
}
