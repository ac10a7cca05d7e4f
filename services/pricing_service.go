package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/voxmarket/voxmarket-api/config"
	"github.com/voxmarket/voxmarket-api/models"
)

// PriceQuote is the result of the direct voice-over pricing rule. When the
// computed amount falls below the minimum fee, the minimum is charged instead
// and Message explains the substitution to the client.
type PriceQuote struct {
	WordCount      int                `json:"word_count"`
	UsageRights    models.UsageRights `json:"usage_rights"`
	Rush           bool               `json:"rush"`
	Subtotal       float64            `json:"subtotal"`
	Total          float64            `json:"total"`
	MinimumApplied bool               `json:"minimum_applied"`
	Message        string             `json:"message,omitempty"`
}

// PricingService computes direct voice-over order prices. All arithmetic is
// done in decimal and only rounded once, at the end.
type PricingService struct {
	baseRate      decimal.Decimal
	broadcastMult decimal.Decimal
	rushFee       decimal.Decimal
	minimumFee    decimal.Decimal
}

var pricingServiceInstance *PricingService

// NewPricingService builds a pricing service from the configured rates.
func NewPricingService(cfg *config.Config) *PricingService {
	return &PricingService{
		baseRate:      decimal.NewFromFloat(cfg.BaseRatePerWord),
		broadcastMult: decimal.NewFromFloat(cfg.BroadcastMultiplier),
		rushFee:       decimal.NewFromFloat(cfg.RushFee),
		minimumFee:    decimal.NewFromFloat(cfg.MinimumFee),
	}
}

// InitPricingService initializes the pricing service from configuration.
func InitPricingService(cfg *config.Config) *PricingService {
	pricingServiceInstance = NewPricingService(cfg)
	return pricingServiceInstance
}

// GetPricingService returns the initialized pricing service instance
func GetPricingService() *PricingService {
	return pricingServiceInstance
}

// QuoteVoiceOver applies the pricing rule:
// word_count x base_rate x usage_multiplier, plus the rush fee if requested,
// floored at the minimum fee.
func (p *PricingService) QuoteVoiceOver(wordCount int, usage models.UsageRights, rush bool) (*PriceQuote, error) {
	if wordCount <= 0 {
		return nil, fmt.Errorf("word count must be positive")
	}
	if !usage.IsValid() {
		return nil, fmt.Errorf("invalid usage rights %q", usage)
	}

	multiplier := decimal.NewFromInt(1)
	if usage == models.UsageBroadcast {
		multiplier = p.broadcastMult
	}

	subtotal := decimal.NewFromInt(int64(wordCount)).Mul(p.baseRate).Mul(multiplier)
	total := subtotal
	if rush {
		total = total.Add(p.rushFee)
	}

	quote := &PriceQuote{
		WordCount:   wordCount,
		UsageRights: usage,
		Rush:        rush,
		Subtotal:    subtotal.Round(2).InexactFloat64(),
	}

	if total.IsPositive() && total.LessThan(p.minimumFee) {
		quote.MinimumApplied = true
		quote.Message = fmt.Sprintf(
			"The computed price of $%s is below our minimum order fee, so the minimum of $%s applies.",
			total.Round(2).StringFixed(2), p.minimumFee.StringFixed(2),
		)
		total = p.minimumFee
	}

	quote.Total = total.Round(2).InexactFloat64()
	return quote, nil
}

// AmountCents converts a quoted total into the gateway's minor units.
func AmountCents(total float64) int64 {
	return decimal.NewFromFloat(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
