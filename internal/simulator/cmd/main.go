package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/plantcare/internal/calculator"
	"github.com/LeonardoBeccarini/plantcare/internal/config"
	"github.com/LeonardoBeccarini/plantcare/internal/datasource"
	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
	"github.com/LeonardoBeccarini/plantcare/internal/simulator"
	"github.com/LeonardoBeccarini/plantcare/pkg/rabbitmq"
)

func main() {
	var (
		clientID string
		dataDir  string
		interval time.Duration
		count    int
		seed     int64
	)
	cmd := &cobra.Command{
		Use:          "request-sim",
		Short:        "Send random calculation requests to the advisor over MQTT",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})

			constants, err := datasource.NewFileSource(dataDir).Constants(cmd.Context())
			if err != nil {
				return err
			}
			choices := simulator.Choices{
				PotTypes:   calculator.Names(constants, entities.DatatypePot),
				PlantTypes: calculator.Names(constants, entities.DatatypeSpecies),
				Seasons:    calculator.Names(constants, entities.DatatypeSeason),
			}

			client, err := rabbitmq.NewRabbitMQConn(cmd.Context(), &rabbitmq.RabbitMQConfig{
				Host:     cfg.MQTT.Host,
				Port:     cfg.MQTT.Port,
				User:     cfg.MQTT.User,
				Password: cfg.MQTT.Password,
				ClientID: clientID,
			})
			if err != nil {
				return err
			}

			resultFilter := rabbitmq.FormatTopic(cfg.MQTT.ResultTopic, "+")
			requestTopic := strings.TrimSuffix(cfg.MQTT.RequestTopic, "+") + rabbitmq.RequestIDPlaceholder
			sim := simulator.NewSimulator(
				rabbitmq.NewConsumer(client, resultFilter, cfg.MQTT.QoS, nil),
				rabbitmq.NewPublisher(client, cfg.MQTT.QoS, false),
				simulator.NewRequestGenerator(seed, choices, simulator.DefaultDimensions),
				requestTopic,
			)
			if err := sim.Start(cmd.Context(), interval, count); err != nil {
				return err
			}

			// give the last results a moment to arrive
			if count > 0 {
				select {
				case <-cmd.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}
			st := sim.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "sent=%d answered=%d failed=%d pending=%d\n", st.Sent, st.Answered, st.Failed, st.Pending)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&clientID, "client-id", "plantcare-request-sim", "MQTT client ID")
	f.StringVar(&dataDir, "data", "data", "directory holding constants.json")
	f.DurationVar(&interval, "interval", time.Second, "publish interval")
	f.IntVar(&count, "count", 0, "number of requests to send; 0 runs until interrupted")
	f.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
