package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/config"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/logging"
)

const timestampLayout = "02/01/2006 15:04:05"

// simulate draws one three-phase reading around a 400 V, 50 A load.
func simulate(at time.Time) domain.PowerReading {
	v := func() *float64 { return domain.Float(math.Round((400+rand.Float64()*20)*10) / 10) }
	r := domain.PowerReading{
		Timestamp: at.Format(timestampLayout),
		CurrentA:  40 + rand.Float64()*20,
		CurrentB:  40 + rand.Float64()*20,
		CurrentC:  40 + rand.Float64()*20,
		VoltageAB: v(),
		VoltageBC: v(),
		VoltageCA: v(),
	}
	pf := 0.75 + rand.Float64()*0.23
	vAvg := (*r.VoltageAB + *r.VoltageBC + *r.VoltageCA) / 3
	iAvg := (r.CurrentA + r.CurrentB + r.CurrentC) / 3
	r.RealPowerTotal = math.Round(math.Sqrt(3)*vAvg*iAvg*pf/10) / 100
	return r
}

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

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID(fmt.Sprintf("hub-simulator-%d", os.Getpid()))
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	owners := config.SimulatorOwners()
	ticker := time.NewTicker(config.SimulatorInterval())
	defer ticker.Stop()
	log.Info().Strs("owners", owners).Dur("interval", config.SimulatorInterval()).Msg("simulator running; Ctrl+C to stop")

	for {
		now := time.Now().In(loc)
		for _, owner := range owners {
			payload, err := json.Marshal([]domain.PowerReading{simulate(now)})
			if err != nil {
				log.Error().Err(err).Msg("marshal reading")
				continue
			}
			topic := strings.Replace(config.MQTTTopic(), "+", owner, 1)
			if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
				log.Error().Err(token.Error()).Str("topic", topic).Msg("publish failed")
			}
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("simulation done")
			return
		case <-ticker.C:
		}
	}
}
