package broker

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// FillPolicy decides which price an accepted order fills at.
type FillPolicy string

const (
	// FillPolicySameBarClose fills at the close of the bar that produced the signal.
	FillPolicySameBarClose FillPolicy = "same_bar_close"
	// FillPolicyNextBarOpen holds the order and fills it at the open of the following bar.
	FillPolicyNextBarOpen FillPolicy = "next_bar_open"
)

// OutstandingPolicy decides what happens to an intent while another order is still pending.
type OutstandingPolicy string

const (
	OutstandingPolicyIgnore  OutstandingPolicy = "ignore"
	OutstandingPolicyReplace OutstandingPolicy = "replace"
)

// SellPolicy decides what happens to a sell larger than the open position.
type SellPolicy string

const (
	SellPolicyStrict SellPolicy = "strict"
	SellPolicyClamp  SellPolicy = "clamp"
)

type Config struct {
	InitialCash       float64           `yaml:"initial_cash" json:"initial_cash" validate:"gt=0"`
	FillPolicy        FillPolicy        `yaml:"fill_policy" json:"fill_policy" validate:"omitempty,oneof=same_bar_close next_bar_open"`
	OutstandingPolicy OutstandingPolicy `yaml:"outstanding_order_policy" json:"outstanding_order_policy" validate:"omitempty,oneof=ignore replace"`
	SellPolicy        SellPolicy        `yaml:"sell_policy" json:"sell_policy" validate:"omitempty,oneof=strict clamp"`
}

// WithDefaults fills empty policies with same-bar-close, ignore and strict.
func (c Config) WithDefaults() Config {
	if c.FillPolicy == "" {
		c.FillPolicy = FillPolicySameBarClose
	}

	if c.OutstandingPolicy == "" {
		c.OutstandingPolicy = OutstandingPolicyIgnore
	}

	if c.SellPolicy == "" {
		c.SellPolicy = SellPolicyStrict
	}

	return c
}

// Validate checks the config with validator tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid broker config", err)
	}

	return nil
}
