package backtest

import (
	"fmt"

	"github.com/newthinker/twquant/internal/core"
)

// Rules is the immutable rule set a simulation runs under. Rates and
// thresholds are fractions (0.15 = 15%).
type Rules struct {
	// Costs and sizing
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	TaxRate        float64 `json:"tax_rate" yaml:"tax_rate"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	PositionSize   float64 `json:"position_size" yaml:"position_size"`
	LotSize        int64   `json:"lot_size" yaml:"lot_size"`

	// Entry
	RSIPeriod   int     `json:"rsi_period" yaml:"rsi_period"`
	RSIOversold float64 `json:"rsi_oversold" yaml:"rsi_oversold"`
	MAPeriod    int     `json:"ma_period" yaml:"ma_period"`

	// Exit, checked in this order
	TakeProfit    float64 `json:"take_profit" yaml:"take_profit"`
	StopLoss      float64 `json:"stop_loss" yaml:"stop_loss"`
	RSIOverbought float64 `json:"rsi_overbought" yaml:"rsi_overbought"`
	TrailingStop  float64 `json:"trailing_stop" yaml:"trailing_stop"`
}

// DefaultRules mirrors a Taiwan board-lot account: 0.1425% brokerage each
// way, 0.3% transaction tax on sells, 1000-share lots.
func DefaultRules() Rules {
	return Rules{
		CommissionRate: 0.001425,
		TaxRate:        0.003,
		InitialCapital: 1_000_000,
		PositionSize:   0.20,
		LotSize:        1000,

		RSIPeriod:   14,
		RSIOversold: 35,
		MAPeriod:    60,

		TakeProfit:    0.15,
		StopLoss:      -0.08,
		RSIOverbought: 75,
		TrailingStop:  0.10,
	}
}

// Warmup is the index of the first simulated bar. The trend filter needs
// MAPeriod closes and the crossing check needs the previous bar's RSI.
func (r Rules) Warmup() int {
	return max(r.MAPeriod, r.RSIPeriod+1)
}

// Validate rejects rule sets the simulator cannot run.
func (r Rules) Validate() error {
	switch {
	case r.CommissionRate < 0 || r.TaxRate < 0:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cost rates cannot be negative (commission %v, tax %v)", r.CommissionRate, r.TaxRate))
	case r.InitialCapital <= 0:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %v", r.InitialCapital))
	case r.PositionSize <= 0 || r.PositionSize > 1:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("position_size must be in (0, 1], got %v", r.PositionSize))
	case r.LotSize <= 0:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("lot_size must be positive, got %d", r.LotSize))
	case r.RSIPeriod <= 0 || r.MAPeriod <= 0:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("indicator periods must be positive (rsi %d, ma %d)", r.RSIPeriod, r.MAPeriod))
	case r.TrailingStop < 0:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("trailing_stop is a drawdown magnitude and cannot be negative, got %v", r.TrailingStop))
	}
	return nil
}
