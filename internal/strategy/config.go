package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/broker/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type StrategyType string

const (
	StrategyTypeCrossover         StrategyType = "crossover"
	StrategyTypeFilteredCrossover StrategyType = "filtered_crossover"
	StrategyTypeBuyAndHold        StrategyType = "buy_and_hold"
)

type SizingMode string

const (
	SizingModeFraction SizingMode = "fraction"
	SizingModeRisk     SizingMode = "risk"
)

type MovingAverageConfig struct {
	Type   types.IndicatorType `yaml:"type" json:"type" validate:"omitempty,oneof=sma ema" jsonschema:"title=Type,enum=sma,enum=ema,default=ema"`
	Period int                 `yaml:"period" json:"period" validate:"gte=0" jsonschema:"title=Period,minimum=1"`
}

type SizingConfig struct {
	Mode SizingMode `yaml:"mode" json:"mode" validate:"omitempty,oneof=fraction risk" jsonschema:"title=Mode,enum=fraction,enum=risk,default=fraction"`
	// Fraction of cash spent per entry in fraction mode.
	Fraction *float64 `yaml:"fraction,omitempty" json:"fraction,omitempty" validate:"omitempty,gt=0,lte=1" jsonschema:"title=Fraction,minimum=0,maximum=1,default=0.95"`
	// CommissionAware shrinks fraction-mode entries so cost plus commission fits in cash.
	CommissionAware bool    `yaml:"commission_aware" json:"commission_aware" jsonschema:"title=Commission Aware"`
	RiskRatio       float64 `yaml:"risk_ratio" json:"risk_ratio" validate:"gte=0,lt=1" jsonschema:"title=Risk Ratio,minimum=0,maximum=1,default=0.02"`
	MaxFraction     float64 `yaml:"max_fraction" json:"max_fraction" validate:"gte=0,lte=1" jsonschema:"title=Max Fraction,minimum=0,maximum=1,default=0.5"`
	MinSize         float64 `yaml:"min_size" json:"min_size" validate:"gte=0" jsonschema:"title=Min Size,minimum=0,default=0.001"`
	// DecimalPrecision floors sizes to this many decimals when set.
	DecimalPrecision *int `yaml:"decimal_precision,omitempty" json:"decimal_precision,omitempty" validate:"omitempty,gte=0" jsonschema:"title=Decimal Precision,minimum=0"`
}

// Config selects and parameterises a strategy.
type Config struct {
	Name             StrategyType        `yaml:"name" json:"name" validate:"required,oneof=crossover filtered_crossover buy_and_hold" jsonschema:"title=Name,enum=crossover,enum=filtered_crossover,enum=buy_and_hold"`
	Fast             MovingAverageConfig `yaml:"fast" json:"fast" jsonschema:"title=Fast Line"`
	Slow             MovingAverageConfig `yaml:"slow" json:"slow" jsonschema:"title=Slow Line"`
	RSIPeriod        int                 `yaml:"rsi_period" json:"rsi_period" validate:"gte=0" jsonschema:"title=RSI Period,minimum=1,default=14"`
	RSIThreshold     *float64            `yaml:"rsi_threshold,omitempty" json:"rsi_threshold,omitempty" validate:"omitempty,gte=0,lte=100" jsonschema:"title=RSI Threshold,minimum=0,maximum=100,default=50"`
	VolumePeriod     int                 `yaml:"volume_period" json:"volume_period" validate:"gte=0" jsonschema:"title=Volume Period,minimum=1,default=20"`
	ATRPeriod        int                 `yaml:"atr_period" json:"atr_period" validate:"gte=0" jsonschema:"title=ATR Period,minimum=1,default=14"`
	StopMultiplier   float64             `yaml:"stop_multiplier" json:"stop_multiplier" validate:"gte=0" jsonschema:"title=Stop Multiplier,minimum=0,default=2"`
	PositionFraction *float64            `yaml:"position_fraction,omitempty" json:"position_fraction,omitempty" validate:"omitempty,gt=0,lte=1" jsonschema:"title=Position Fraction,minimum=0,maximum=1,default=0.95"`
	Sizing           SizingConfig        `yaml:"sizing" json:"sizing" jsonschema:"title=Sizing"`
}

// WithDefaults fills unset parameters with the EMA 12/26, RSI 14 at 50,
// volume 20, ATR 14 at 2x and 2% risk setup.
func (c Config) WithDefaults() Config {
	if c.Fast.Type == "" {
		c.Fast.Type = types.IndicatorTypeEMA
	}

	if c.Fast.Period == 0 {
		c.Fast.Period = 12
	}

	if c.Slow.Type == "" {
		c.Slow.Type = types.IndicatorTypeEMA
	}

	if c.Slow.Period == 0 {
		c.Slow.Period = 26
	}

	if c.RSIPeriod == 0 {
		c.RSIPeriod = 14
	}

	if c.RSIThreshold == nil {
		c.RSIThreshold = ptr(50.0)
	}

	if c.VolumePeriod == 0 {
		c.VolumePeriod = 20
	}

	if c.ATRPeriod == 0 {
		c.ATRPeriod = 14
	}

	if c.StopMultiplier == 0 {
		c.StopMultiplier = 2
	}

	if c.PositionFraction == nil {
		c.PositionFraction = ptr(DefaultPositionFraction)
	}

	if c.Sizing.Mode == "" {
		c.Sizing.Mode = SizingModeFraction
	}

	if c.Sizing.Fraction == nil {
		c.Sizing.Fraction = ptr(DefaultPositionFraction)
	}

	if c.Sizing.RiskRatio == 0 {
		c.Sizing.RiskRatio = 0.02
	}

	if c.Sizing.MaxFraction == 0 {
		c.Sizing.MaxFraction = 0.5
	}

	if c.Sizing.MinSize == 0 {
		c.Sizing.MinSize = 0.001
	}

	return c
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	return nil
}

// New builds the strategy named by cfg. fee is only used by commission-aware sizing.
func New(cfg Config, fee commission_fee.CommissionFee) (Strategy, error) {
	if cfg.Name == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "strategy name is required")
	}

	switch cfg.Name {
	case StrategyTypeCrossover, StrategyTypeFilteredCrossover, StrategyTypeBuyAndHold:
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q", cfg.Name)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Name == StrategyTypeBuyAndHold {
		return NewBuyAndHoldStrategy(*cfg.PositionFraction)
	}

	fast, err := indicator.NewMovingAverage(cfg.Fast.Type, cfg.Fast.Period)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid fast line", err)
	}

	slow, err := indicator.NewMovingAverage(cfg.Slow.Type, cfg.Slow.Period)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid slow line", err)
	}

	if cfg.Name == StrategyTypeFilteredCrossover {
		filtered, err := NewFilteredCrossoverStrategy(FilteredCrossoverParams{
			Fast:           fast,
			Slow:           slow,
			RSIPeriod:      cfg.RSIPeriod,
			RSIThreshold:   *cfg.RSIThreshold,
			VolumePeriod:   cfg.VolumePeriod,
			ATRPeriod:      cfg.ATRPeriod,
			StopMultiplier: cfg.StopMultiplier,
			Sizer:          FixedFractionSizer{},
		})
		if err != nil {
			return nil, err
		}

		filtered.sizer = newSizer(cfg, fee, filtered.ATRKey())

		return filtered, nil
	}

	var extra []indicator.Indicator

	atrKey := ""
	if cfg.Sizing.Mode == SizingModeRisk {
		atr, err := indicator.NewATR(cfg.ATRPeriod)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid atr period", err)
		}

		extra = append(extra, atr)
		atrKey = atr.Key()
	}

	return NewCrossoverStrategy(fast, slow, newSizer(cfg, fee, atrKey), extra...)
}

func newSizer(cfg Config, fee commission_fee.CommissionFee, atrKey string) Sizer {
	precision := optional.None[int]()
	if cfg.Sizing.DecimalPrecision != nil {
		precision = optional.Some(*cfg.Sizing.DecimalPrecision)
	}

	if cfg.Sizing.Mode == SizingModeRisk {
		return RiskSizer{
			RiskRatio:      cfg.Sizing.RiskRatio,
			StopMultiplier: cfg.StopMultiplier,
			MaxFraction:    cfg.Sizing.MaxFraction,
			MinSize:        cfg.Sizing.MinSize,
			ATRKey:         atrKey,
			Precision:      precision,
		}
	}

	sizer := FixedFractionSizer{Fraction: *cfg.Sizing.Fraction, Precision: precision}
	if cfg.Sizing.CommissionAware && fee != nil {
		sizer.Fee = fee
	}

	return sizer
}

func ptr[T any](v T) *T {
	return &v
}
