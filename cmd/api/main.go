package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/cloud"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/config"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/database"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/feed"
	httpHandlers "github.com/ANIKETSHETTY47/central-monitoring-hub/internal/http"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/logging"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/repository"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/service"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/upstream"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Init(config.LogLevel(), config.LogFormat())

	loc, err := config.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := upstream.New(config.UpstreamURL(), config.UpstreamTimeout(), upstream.WithReportPath(config.PowerReportPath()))

	var (
		alerts   service.Notifier
		exporter service.Exporter
		archive  service.Archive
	)
	if config.UseCloudServices() {
		awsCfg, err := cloud.LoadConfig(ctx, config.AWSRegion())
		if err != nil {
			log.Fatal().Err(err).Msg("aws config")
		}
		if arn := config.SNSTopicArn(); arn != "" {
			alerts = cloud.NewSNSClient(awsCfg, arn)
		}
		exporter = cloud.NewS3Client(awsCfg, config.S3Bucket())
		if config.ArchiveEnabled() {
			archive = cloud.NewDynamoDBClient(awsCfg, config.DynamoDBTable())
		}
		log.Info().Str("region", config.AWSRegion()).Str("bucket", config.S3Bucket()).Msg("cloud services enabled")
	} else if config.ArchiveEnabled() {
		db, err := database.Connect(config.DatabaseDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("db connect failed")
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("db migrate failed")
		}
		archive = repository.New(db)
	}

	svcs := service.New(client, alerts, loc)
	svcs.Power.WithTariff(config.TariffPerKWh())
	if exporter != nil {
		svcs.Power.WithExporter(exporter)
	}
	if archive != nil {
		svcs.Power.WithArchive(archive)
	}

	g, gctx := errgroup.WithContext(ctx)

	if config.MQTTEnabled() {
		buf := feed.NewBuffer(config.LiveBufferSize())
		sub := feed.NewSubscriber(config.MQTTBroker(), fmt.Sprintf("hub-api-%d", os.Getpid()), config.MQTTTopic(), buf)
		svcs.Power.WithLive(buf)
		g.Go(func() error { return sub.Run(gctx) })
	}

	app := httpHandlers.NewApp(svcs)
	g.Go(func() error {
		log.Info().Str("addr", config.APIAddr()).Msg("api listening")
		return app.Listen(config.APIAddr())
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
	log.Info().Msg("api stopped")
}
