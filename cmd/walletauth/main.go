package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/adapters/events"
	"github.com/layer-3/walletauth/adapters/signature"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/config"
	"github.com/layer-3/walletauth/internal/logging"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
	transporthttp "github.com/layer-3/walletauth/transport/http"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "walletauth: %v\n", err)
		os.Exit(1)
	}
}

// stores groups the persistence backends chosen by configuration
type stores struct {
	identities ports.IdentityStore
	addresses  ports.AddressStore
	redis      *redis.Client
	closers    []io.Closer
}

func (s *stores) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	publisher, err := newPublisher(st.redis, log)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	tk, err := tokenizer.NewJWTTokenizer(cfg.Tokenizer())
	if err != nil {
		return fmt.Errorf("failed to create tokenizer: %w", err)
	}

	authService := service.NewAuthService(
		st.identities,
		tk,
		map[core.Provider]ports.SignatureVerifier{
			core.ProviderMetamask: signature.NewEthVerifier(),
		},
		events.NewWatermillPublisher(publisher, cfg.EventsTopic),
		log,
	)
	addressService := service.NewAddressService(st.addresses, log)

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: transporthttp.SetupRouter(authService, addressService, log),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr), zap.String("store", cfg.Store))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("server.ListenAndServe: %w", err)
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func openStores(cfg config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.Store {
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		rs := store.NewRedisStore(client)
		return &stores{
			identities: rs,
			addresses:  rs,
			redis:      client,
			closers:    []io.Closer{client},
		}, nil

	case config.StoreSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite store opened", zap.String("path", cfg.SQLitePath))
		return &stores{identities: db, addresses: db, closers: []io.Closer{db}}, nil

	default:
		mem := store.NewMemoryStore()
		return &stores{identities: mem, addresses: mem}, nil
	}
}

// newPublisher publishes login events to a redis stream when redis is configured,
// otherwise to an in-process channel
func newPublisher(client *redis.Client, log *zap.Logger) (message.Publisher, error) {
	logger := logging.NewWatermillAdapter(log.Named("events"))

	if client == nil {
		return gochannel.NewGoChannel(gochannel.Config{}, logger), nil
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}
	return publisher, nil
}
