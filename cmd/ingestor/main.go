package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/cloud"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/config"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/feed"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/logging"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/service"
)

// logNotifier stands in for SNS when cloud services are off.
type logNotifier struct{}

func (logNotifier) SendAlert(_ context.Context, subject, message string) error {
	log.Warn().Str("subject", subject).Str("message", message).Msg("alert")
	return nil
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Init(config.LogLevel(), config.LogFormat())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier service.Notifier = logNotifier{}
	if config.UseCloudServices() && config.SNSTopicArn() != "" {
		awsCfg, err := cloud.LoadConfig(ctx, config.AWSRegion())
		if err != nil {
			log.Fatal().Err(err).Msg("aws config")
		}
		notifier = cloud.NewSNSClient(awsCfg, config.SNSTopicArn())
	}
	alerter := service.NewPowerFactorAlerter(notifier, config.PowerFactorAlertThreshold())

	sub := feed.NewSubscriber(config.MQTTBroker(), fmt.Sprintf("hub-ingestor-%d", os.Getpid()), config.MQTTTopic(), nil)
	sub.OnReadings(func(owner string, readings []domain.PowerReading) {
		if _, err := alerter.Check(ctx, owner, readings); err != nil {
			log.Error().Err(err).Str("owner", owner).Msg("power factor check failed")
		}
	})

	log.Info().Str("broker", config.MQTTBroker()).Str("topic", config.MQTTTopic()).Float64("threshold", config.PowerFactorAlertThreshold()).Msg("ingestor running; Ctrl+C to stop")
	if err := sub.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("ingestor exit")
	}
}
