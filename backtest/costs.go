package backtest

import (
	"fmt"
	"math"
)

// CostConfig is the transaction cost model: proportional commission with a
// per-trade floor, a sell-side tax, and symmetric slippage. All rates must
// sit in [0, 1).
type CostConfig struct {
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	MinCommission  float64 `json:"min_commission" yaml:"min_commission"`
	TaxRate        float64 `json:"tax_rate" yaml:"tax_rate"`
	Slippage       float64 `json:"slippage" yaml:"slippage"`
}

// DefaultCosts mirrors a typical A-share retail fee schedule.
func DefaultCosts() CostConfig {
	return CostConfig{
		CommissionRate: 0.00015,
		MinCommission:  5.0,
		TaxRate:        0.0005,
		Slippage:       0.0002,
	}
}

// Validate checks the parameters are usable.
func (c CostConfig) Validate() error {
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("costs: commission_rate must be in [0,1), got %v", c.CommissionRate)
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("costs: tax_rate must be in [0,1), got %v", c.TaxRate)
	}
	if c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("costs: slippage must be in [0,1), got %v", c.Slippage)
	}
	if c.MinCommission < 0 {
		return fmt.Errorf("costs: min_commission must be >= 0, got %v", c.MinCommission)
	}
	return nil
}

// BuyPrice is the slippage-adjusted execution price for a buy.
func (c CostConfig) BuyPrice(price float64) float64 {
	return price * (1 + c.Slippage)
}

// SellPrice is the slippage-adjusted execution price for a sell.
func (c CostConfig) SellPrice(price float64) float64 {
	return price * (1 - c.Slippage)
}

// BuyFees is the commission on a buy of the given gross amount.
func (c CostConfig) BuyFees(gross float64) float64 {
	return math.Max(gross*c.CommissionRate, c.MinCommission)
}

// SellFees is commission plus sell-side tax on the given gross amount.
func (c CostConfig) SellFees(gross float64) float64 {
	return math.Max(gross*c.CommissionRate, c.MinCommission) + gross*c.TaxRate
}
