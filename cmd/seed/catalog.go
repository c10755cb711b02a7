package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/sentiment"
	"github.com/utafrali/storefront/internal/service"
)

const (
	seedCurrency     = "USD"
	imageBaseURL     = "https://picsum.photos/seed"
	maxOrderProducts = 4
)

// shopperNamespace keeps generated shopper ids stable across runs.
var shopperNamespace = uuid.MustParse("6f1c9f7e-3b1a-4c7e-9a52-1d2f0e8b7c44")

type categoryDef struct {
	name     string
	brands   []string
	items    []string
	minPrice int64 // cents
	maxPrice int64 // cents
}

var categories = []categoryDef{
	{
		name:     "Electronics",
		brands:   []string{"Voltline", "Northwave", "Pixelcraft"},
		items:    []string{"Wireless Earbuds", "Bluetooth Speaker", "USB-C Hub", "Mechanical Keyboard", "Smart Desk Lamp"},
		minPrice: 1999,
		maxPrice: 24999,
	},
	{
		name:     "Home",
		brands:   []string{"Hearth & Co", "Linenfield"},
		items:    []string{"Cast Iron Skillet", "Linen Duvet Cover", "Ceramic Pour-Over Set", "Oak Cutting Board"},
		minPrice: 1499,
		maxPrice: 12999,
	},
	{
		name:     "Apparel",
		brands:   []string{"Trailmark", "Cotton Grove"},
		items:    []string{"Rain Shell Jacket", "Merino Crew Sweater", "Canvas Tote Bag", "Trail Running Shoes"},
		minPrice: 2499,
		maxPrice: 18999,
	},
	{
		name:     "Outdoors",
		brands:   []string{"Ridgeback", "Summit Supply"},
		items:    []string{"Insulated Water Bottle", "Two-Person Tent", "Trekking Poles", "Camp Stove"},
		minPrice: 1299,
		maxPrice: 29999,
	},
}

type reviewTemplate struct {
	label     sentiment.Label
	minRating int
	maxRating int
	text      string
}

var reviewTemplates = []reviewTemplate{
	{sentiment.Positive, 4, 5, "Excellent build quality and really easy to set up. Would recommend."},
	{sentiment.Positive, 4, 5, "Great value, sturdy and reliable after a month of daily use."},
	{sentiment.Positive, 5, 5, "Love it. Beautiful finish and very comfortable."},
	{sentiment.Positive, 4, 5, "Arrived fast, works perfect and the support team was helpful."},
	{sentiment.Neutral, 3, 3, "Arrived on Tuesday. It does what the listing says."},
	{sentiment.Neutral, 3, 4, "Good size but the strap feels a bit cheap."},
	{sentiment.Neutral, 3, 3, "Average product for the price, nothing special."},
	{sentiment.Neutral, 2, 3, "Nice color, though assembly was difficult."},
	{sentiment.Negative, 1, 1, "Broken on arrival and the replacement was defective too. Asked for a refund."},
	{sentiment.Negative, 1, 2, "Terrible finish, the handle cracked within a week."},
	{sentiment.Negative, 1, 2, "Flimsy and overpriced. Total waste of money."},
	{sentiment.Negative, 2, 2, "Disappointed. Stopped working after two days, poor support."},
}

var shopperNames = []string{
	"Ayla", "Bruno", "Chen", "Dana", "Emre", "Farah", "Gus", "Hana",
	"Ivo", "Jules", "Kemal", "Lena", "Mika", "Nora", "Omar", "Priya",
}

type shopper struct {
	id   string
	name string
}

// shoppers returns n shoppers with deterministic ids.
func shoppers(n int) []shopper {
	out := make([]shopper, n)
	for i := range out {
		out[i] = shopper{
			id:   uuid.NewSHA1(shopperNamespace, fmt.Appendf(nil, "shopper-%d", i)).String(),
			name: fmt.Sprintf("%s %c.", shopperNames[i%len(shopperNames)], 'A'+rune(i/len(shopperNames))%26),
		}
	}
	return out
}

// buildProducts generates perCategory products for every category.
func buildProducts(rng *rand.Rand, perCategory int) []service.CreateProductInput {
	out := make([]service.CreateProductInput, 0, perCategory*len(categories))
	for _, c := range categories {
		for i := range perCategory {
			item := c.items[i%len(c.items)]
			brand := c.brands[rng.IntN(len(c.brands))]
			name := fmt.Sprintf("%s %s", brand, item)
			if i >= len(c.items) {
				name = fmt.Sprintf("%s %s Mk %d", brand, item, i/len(c.items)+1)
			}
			price := c.minPrice + rng.Int64N(c.maxPrice-c.minPrice+1)
			// Whole dollars minus one cent read like real shelf prices.
			price = price/100*100 + 99

			out = append(out, service.CreateProductInput{
				Name:        name,
				Description: fmt.Sprintf("%s from %s, part of our %s range.", item, brand, c.name),
				Category:    c.name,
				Brand:       brand,
				Price:       price,
				Currency:    seedCurrency,
				Stock:       rng.IntN(120),
				Images:      []string{fmt.Sprintf("%s/%s-%d/600/600", imageBaseURL, strings.ToLower(c.name), i)},
			})
		}
	}
	return out
}

// pickReview draws a review template and a rating inside its range. About
// half of all reviews are positive.
func pickReview(rng *rand.Rand) (reviewTemplate, int) {
	var pool []reviewTemplate
	switch r := rng.IntN(10); {
	case r < 5:
		pool = templatesFor(sentiment.Positive)
	case r < 8:
		pool = templatesFor(sentiment.Neutral)
	default:
		pool = templatesFor(sentiment.Negative)
	}
	t := pool[rng.IntN(len(pool))]
	return t, t.minRating + rng.IntN(t.maxRating-t.minRating+1)
}

func templatesFor(label sentiment.Label) []reviewTemplate {
	var out []reviewTemplate
	for _, t := range reviewTemplates {
		if t.label == label {
			out = append(out, t)
		}
	}
	return out
}

// orderItems picks up to maxOrderProducts distinct products for one order.
func orderItems(rng *rand.Rand, productIDs []string) []service.OrderItemInput {
	n := 1 + rng.IntN(min(maxOrderProducts, len(productIDs)))
	items := make([]service.OrderItemInput, 0, n)
	for _, i := range rng.Perm(len(productIDs))[:n] {
		items = append(items, service.OrderItemInput{ProductID: productIDs[i], Quantity: 1 + rng.IntN(3)})
	}
	return items
}
