// Command archive-alerts is a Lambda function on the PowerBuckets table's
// DynamoDB stream. It raises one SNS alert per owner listing each newly
// archived bucket whose power factor is below the threshold.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/cloud"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/config"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/logging"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/service"
)

type handler struct {
	alerter *service.PowerFactorAlerter
}

func (h *handler) Handle(ctx context.Context, event events.DynamoDBEvent) error {
	byOwner := cloud.StreamBuckets(event)
	log.Info().Int("records", len(event.Records)).Int("owners", len(byOwner)).Msg("processing stream batch")
	for owner, rows := range byOwner {
		if _, err := h.alerter.CheckBuckets(ctx, owner, rows); err != nil {
			// Returning the error makes Lambda retry the whole batch.
			return err
		}
	}
	return nil
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Init(config.LogLevel(), "json")

	awsCfg, err := cloud.LoadConfig(context.Background(), config.AWSRegion())
	if err != nil {
		log.Fatal().Err(err).Msg("aws config")
	}
	if config.SNSTopicArn() == "" {
		log.Fatal().Msg("AWS_SNS_TOPIC_ARN is required")
	}
	h := &handler{
		alerter: service.NewPowerFactorAlerter(cloud.NewSNSClient(awsCfg, config.SNSTopicArn()), config.PowerFactorAlertThreshold()),
	}
	lambda.Start(h.Handle)
}
