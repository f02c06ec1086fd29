package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/plantcare/internal/config"
	"github.com/LeonardoBeccarini/plantcare/internal/datasource"
	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/services/advisor"
	"github.com/LeonardoBeccarini/plantcare/pkg/dedup"
	"github.com/LeonardoBeccarini/plantcare/pkg/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log := logging.Logger()
		log.Fatal().Err(err).Msg("advisor stopped")
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
		Output: os.Stderr,
	})
	log := logging.With("advisor")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := datasource.Open(cfg)
	if err != nil {
		return fmt.Errorf("open data source: %w", err)
	}
	defer closeSrc()
	log.Info().Str("source", src.Name()).Msg("data source ready")

	svc := advisor.NewService(src)
	g, gctx := errgroup.WithContext(ctx)

	// --- HTTP ---
	httpSrv := &http.Server{
		Addr: ":" + strconv.Itoa(cfg.Server.HTTPPort),
		Handler: advisor.NewHTTPHandler(svc, advisor.HTTPOptions{
			RequestTimeout: cfg.Server.RequestTimeout,
			RateLimit:      cfg.Server.RateLimit,
		}),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		log.Info().Str("addr", httpSrv.Addr).Msg("HTTP listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shCtx)
	})

	// --- gRPC ---
	if cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Server.GRPCPort))
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv := advisor.NewGRPCServer(svc)
		g.Go(func() error {
			log.Info().Str("addr", lis.Addr().String()).Msg("gRPC listening")
			return grpcSrv.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			grpcSrv.GracefulStop()
			return nil
		})
	}

	// --- MQTT ---
	if cfg.MQTT.Enabled {
		client, err := rabbitmq.NewRabbitMQConn(gctx, &rabbitmq.RabbitMQConfig{
			Host:     cfg.MQTT.Host,
			Port:     cfg.MQTT.Port,
			User:     cfg.MQTT.User,
			Password: cfg.MQTT.Password,
			ClientID: cfg.MQTT.ClientID,
		})
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		consumer := rabbitmq.NewConsumer(client, cfg.MQTT.RequestTopic, cfg.MQTT.QoS, nil)
		publisher := rabbitmq.NewPublisher(client, cfg.MQTT.QoS, false)
		responder := advisor.NewResponder(svc, consumer, publisher, cfg.MQTT.ResultTopic, dedup.New(0, 0))
		g.Go(func() error { return responder.Start(gctx) })
	}

	err = g.Wait()
	log.Info().Msg("shutdown complete")
	return err
}
