package cloud

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
)

// BucketFromImage reads an archived bucket back out of a DynamoDB stream
// image. Missing optional metrics stay nil.
func BucketFromImage(image map[string]events.DynamoDBAttributeValue) (BucketItem, error) {
	var it BucketItem
	for name, dst := range map[string]*string{
		"series":     &it.Series,
		"bucketDate": &it.BucketDate,
		"ownerId":    &it.OwnerID,
		"bucketKey":  &it.Timestamp,
	} {
		if v, ok := image[name]; ok && v.DataType() == events.DataTypeString {
			*dst = v.String()
		}
	}
	if it.OwnerID == "" || it.Timestamp == "" {
		return it, errors.New("stream image without ownerId or bucketKey")
	}

	number := func(name string) (*float64, error) {
		v, ok := image[name]
		if !ok || v.DataType() != events.DataTypeNumber {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v.Number(), 64)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		return &f, nil
	}
	for name, dst := range map[string]*float64{
		"currentA":       &it.CurrentA,
		"currentB":       &it.CurrentB,
		"currentC":       &it.CurrentC,
		"realPowerTotal": &it.RealPowerTotal,
	} {
		f, err := number(name)
		if err != nil {
			return it, err
		}
		if f != nil {
			*dst = *f
		}
	}
	for name, dst := range map[string]**float64{
		"voltageAB":   &it.VoltageAB,
		"voltageBC":   &it.VoltageBC,
		"voltageCA":   &it.VoltageCA,
		"powerFactor": &it.PowerFactor,
	} {
		f, err := number(name)
		if err != nil {
			return it, err
		}
		*dst = f
	}
	return it, nil
}

// StreamBuckets collects inserted and modified buckets per owner, in record
// order. Records that do not decode are logged and skipped.
func StreamBuckets(event events.DynamoDBEvent) map[string][]domain.ChartRow {
	out := make(map[string][]domain.ChartRow)
	for _, rec := range event.Records {
		if rec.EventName != string(events.DynamoDBOperationTypeInsert) && rec.EventName != string(events.DynamoDBOperationTypeModify) {
			continue
		}
		it, err := BucketFromImage(rec.Change.NewImage)
		if err != nil {
			log.Warn().Err(err).Str("event_id", rec.EventID).Msg("skipping stream record")
			continue
		}
		out[it.OwnerID] = append(out[it.OwnerID], it.ChartRow)
	}
	return out
}
