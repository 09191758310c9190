package faker

import (
	"fmt"
	"log"
	"math/rand" // Using weak random for test data generation only
	"time"

	"github.com/kafbridge/kafbridge/pkg/identity"
	"github.com/kafbridge/kafbridge/pkg/kafka"
)

const (
	maxMerchants       = 5     // Number of simulated merchants
	maxProducts        = 20    // Product id space for offers
	maxPrice           = 50.0  // Upper bound for generated prices
	maxQuality         = 4     // Quality levels 1..4
	maxOffersPerSnap   = 8     // Offers per market situation snapshot
	httpOKStatus       = 200   // HTTP OK status code
	httpNotFoundStatus = 404   // Failure code sprinkled into the stream
	failureRate        = 0.1   // Fraction of records with a non-OK http_code
	maxProfit          = 100.0 // Upper bound for profit samples
)

var merchantIDs []string

func init() { //nolint:gochecknoinits // Required for test data initialization
	for i := 1; i <= maxMerchants; i++ {
		merchantIDs = append(merchantIDs, identity.PrincipalID(fmt.Sprintf("merchant-token-%d", i)))
	}
}

func randomMerchantID() string {
	return merchantIDs[rand.Intn(len(merchantIDs))] //nolint:gosec // Using weak random for test data generation only
}

func randomHTTPCode() int {
	if rand.Float64() < failureRate { //nolint:gosec // Test data only
		return httpNotFoundStatus
	}
	return httpOKStatus
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// PublishAddOffer emits a merchant listing a new offer.
func PublishAddOffer(p *kafka.Producer) {
	publish(p, "addOffer", map[string]any{
		"merchant_id": randomMerchantID(),
		"offer_id":    rand.Intn(maxProducts * maxMerchants),
		"product_id":  rand.Intn(maxProducts),
		"price":       rand.Float64() * maxPrice,
		"quality":     1 + rand.Intn(maxQuality),
		"amount":      1 + rand.Intn(10),
		"timestamp":   nowMillis(),
		"http_code":   randomHTTPCode(),
	})
}

// PublishBuyOffer emits a consumer purchase.
func PublishBuyOffer(p *kafka.Producer) {
	publish(p, "buyOffer", map[string]any{
		"merchant_id": randomMerchantID(),
		"offer_id":    rand.Intn(maxProducts * maxMerchants),
		"amount":      1,
		"price":       rand.Float64() * maxPrice,
		"timestamp":   nowMillis(),
		"http_code":   randomHTTPCode(),
	})
}

// PublishProfit emits a per-merchant profit sample.
func PublishProfit(p *kafka.Producer) {
	publish(p, "profit", map[string]any{
		"merchant_id": randomMerchantID(),
		"profit":      rand.Float64() * maxProfit,
		"timestamp":   nowMillis(),
	})
}

// PublishMarketSituation emits a snapshot of current offers, optionally
// attributed to the merchant whose action triggered it.
func PublishMarketSituation(p *kafka.Producer) {
	offers := make([]map[string]any, 0, maxOffersPerSnap)
	for i := 0; i < 1+rand.Intn(maxOffersPerSnap); i++ {
		offers = append(offers, map[string]any{
			"offer_id":               rand.Intn(maxProducts * maxMerchants),
			"merchant_id":            randomMerchantID(),
			"product_id":             rand.Intn(maxProducts),
			"price":                  rand.Float64() * maxPrice,
			"quality":                1 + rand.Intn(maxQuality),
			"amount":                 1 + rand.Intn(10),
			"prime":                  rand.Intn(2) == 0,
			"shipping_time_standard": 1 + rand.Intn(5),
		})
	}

	situation := map[string]any{
		"timestamp": nowMillis(),
		"offers":    offers,
	}
	if rand.Intn(2) == 0 { //nolint:gosec // Test data only
		situation["merchant_id"] = randomMerchantID()
	}
	publish(p, "marketSituation", situation)
}

func publish(p *kafka.Producer, topic string, value map[string]any) {
	if err := p.Publish(topic, value); err != nil {
		log.Printf("[Faker] publish to %s failed: %v", topic, err)
	}
}
