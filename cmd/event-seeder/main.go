// Command event-seeder emits synthetic sensor webhook traffic against a
// running bridge. Used for local development and load testing.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/gridpoint-systems/sensor-bridge/internal/handlers"
	"github.com/gridpoint-systems/sensor-bridge/internal/models"
)

var (
	receiverURL = flag.String("url", "http://localhost:8087/receiver", "bridge receiver URL")
	secret      = flag.String("secret", "", "payload signature secret (empty to send unsigned)")
	count       = flag.Int("count", 100, "number of envelopes to send")
	sensors     = flag.Int("sensors", 10, "number of distinct sensors to simulate")
	interval    = flag.Duration("interval", 100*time.Millisecond, "interval between envelopes")
	timeSpread  = flag.Duration("time-spread", 24*time.Hour, "spread event timestamps over this period (0 for real-time)")
	badRatio    = flag.Float64("bad-ratio", 0, "fraction of envelopes sent as unparseable garbage")
)

type sensor struct {
	externalID string
	name       string
	project    string
	isOpen     bool
}

func main() {
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	log.Printf("Starting event seeder:")
	log.Printf("  Receiver URL: %s", *receiverURL)
	log.Printf("  Envelope count: %d", *count)
	log.Printf("  Sensors: %d", *sensors)
	log.Printf("  Interval: %v", *interval)
	log.Printf("  Time spread: %v", *timeSpread)

	fleet := make([]*sensor, *sensors)
	for i := range fleet {
		fleet[i] = &sensor{
			externalID: gofakeit.LetterN(20),
			name:       gofakeit.Company() + " " + gofakeit.Word(),
			project:    gofakeit.Word(),
		}
	}

	verifier := handlers.NewSignatureVerifier(*secret)
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	successCount := 0
	failCount := 0

	for i := 0; i < *count; i++ {
		var payload []byte
		if *badRatio > 0 && rand.Float64() < *badRatio {
			payload = []byte(gofakeit.Sentence(6))
		} else {
			payload = generateEnvelope(fleet[rand.Intn(len(fleet))])
		}

		if err := send(client, verifier, payload); err != nil {
			log.Printf("Failed to send envelope: %v", err)
			failCount++
		} else {
			successCount++
			if successCount%50 == 0 {
				log.Printf("Progress: %d/%d envelopes sent", successCount, *count)
			}
		}

		if *interval > 0 && i < *count-1 {
			time.Sleep(*interval)
		}
	}

	log.Printf("Seeding complete:")
	log.Printf("  Success: %d envelopes", successCount)
	log.Printf("  Failed: %d envelopes", failCount)
}

func generateEnvelope(s *sensor) []byte {
	now := time.Now().UTC()
	eventTime := now
	if *timeSpread > 0 {
		eventTime = now.Add(-time.Duration(rand.Int63n(int64(*timeSpread))))
	}

	data := models.Data{}
	eventType := "networkStatus"
	switch rand.Intn(4) {
	case 0:
		data.NetworkStatus = &models.NetworkStatus{
			SignalStrength: rand.Intn(101),
		}
	case 1:
		eventType = "temperature"
		data.Temperature = &models.Temperature{
			Value: gofakeit.Float64Range(-25, 40),
		}
	case 2:
		eventType = "objectPresent"
		s.isOpen = !s.isOpen
		state := "PRESENT"
		if s.isOpen {
			state = "NOT_PRESENT"
		}
		data.ObjectPresent = &models.ObjectPresent{State: state}
	case 3:
		eventType = "batteryStatus"
		data.BatteryStatus = &models.BatteryStatus{
			Percentage: gofakeit.Float64Range(1, 100),
		}
	}

	env := models.Envelope{
		Event: &models.EventBody{
			TargetName: fmt.Sprintf("projects/%s/devices/%s", s.project, s.externalID),
			Timestamp:  eventTime,
			EventType:  eventType,
			Data:       data,
		},
		Labels: &models.Labels{Name: s.name},
	}

	payload, err := json.Marshal(env)
	if err != nil {
		log.Fatalf("Failed to marshal envelope: %v", err)
	}
	return payload
}

func send(client *http.Client, verifier *handlers.SignatureVerifier, payload []byte) error {
	req, err := http.NewRequest(http.MethodPost, *receiverURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if verifier.Enabled() {
		token, err := verifier.Sign(payload)
		if err != nil {
			return fmt.Errorf("sign payload: %w", err)
		}
		req.Header.Set(handlers.SignatureHeader, token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("receiver returned status %d", resp.StatusCode)
	}
	return nil
}
