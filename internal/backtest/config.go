package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/analysis"
	"github.com/rxtech-lab/argo-backtest/internal/broker"
	"github.com/rxtech-lab/argo-backtest/internal/broker/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

type BaselineConfig struct {
	PositionFraction *float64 `yaml:"position_fraction,omitempty" json:"position_fraction,omitempty" validate:"omitempty,gt=0,lte=1" jsonschema:"title=Position Fraction,description=Share of cash the Buy&Hold baseline invests on the first bar,minimum=0,maximum=1,default=0.95"`
}

type Config struct {
	EngineVersion     string                     `yaml:"engine_version" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Engine version the config was written for; major and minor must match"`
	InitialCash       float64                    `yaml:"initial_cash" json:"initial_cash" validate:"gt=0" jsonschema:"title=Initial Cash,description=Starting cash of every run,minimum=0"`
	CommissionRate    float64                    `yaml:"commission_rate" json:"commission_rate" validate:"gte=0,lt=1" jsonschema:"title=Commission Rate,description=Share of traded notional charged per fill by the percentage broker,minimum=0,maximum=1"`
	Broker            commission_fee.Broker      `yaml:"broker" json:"broker" validate:"omitempty,oneof=percentage interactive_broker zero_commission" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
	FillPolicy        broker.FillPolicy          `yaml:"fill_policy" json:"fill_policy" validate:"omitempty,oneof=same_bar_close next_bar_open" jsonschema:"title=Fill Policy,enum=same_bar_close,enum=next_bar_open,default=same_bar_close"`
	OutstandingPolicy broker.OutstandingPolicy   `yaml:"outstanding_order_policy" json:"outstanding_order_policy" validate:"omitempty,oneof=ignore replace" jsonschema:"title=Outstanding Order Policy,enum=ignore,enum=replace,default=ignore"`
	SellPolicy        broker.SellPolicy          `yaml:"sell_policy" json:"sell_policy" validate:"omitempty,oneof=strict clamp" jsonschema:"title=Sell Policy,enum=strict,enum=clamp,default=strict"`
	BarsPerYear       int                        `yaml:"bars_per_year" json:"bars_per_year" validate:"gte=0" jsonschema:"title=Bars Per Year,minimum=1,default=252"`
	RiskFreeRate      float64                    `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annual risk-free rate used by the Sharpe ratio"`
	HistorySize       int                        `yaml:"history_size" json:"history_size" validate:"gte=0" jsonschema:"title=History Size,description=Indicator values kept per output for lookback,minimum=2,default=64"`
	StartTime         optional.Option[time.Time] `yaml:"-" json:"start_time" validate:"-" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime           optional.Option[time.Time] `yaml:"-" json:"end_time" validate:"-" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Strategy          strategy.Config            `yaml:"strategy" json:"strategy" validate:"-" jsonschema:"title=Strategy"`
	Baseline          BaselineConfig             `yaml:"baseline" json:"baseline" jsonschema:"title=Baseline"`
}

// UnmarshalYAML reads start_time and end_time into optionals.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain Config

	var raw struct {
		plain     `yaml:",inline"`
		StartTime *time.Time `yaml:"start_time"`
		EndTime   *time.Time `yaml:"end_time"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = Config(raw.plain)
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// WithDefaults fills unset fields. Policies are left to the broker's own defaults.
func (c Config) WithDefaults() Config {
	if c.Broker == "" {
		c.Broker = commission_fee.BrokerPercentage
	}

	if c.BarsPerYear == 0 {
		c.BarsPerYear = analysis.DefaultBarsPerYear
	}

	if c.HistorySize == 0 {
		c.HistorySize = indicator.DefaultHistorySize
	}

	if c.Baseline.PositionFraction == nil {
		fraction := strategy.DefaultPositionFraction
		c.Baseline.PositionFraction = &fraction
	}

	return c
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if c.EngineVersion != "" {
		if err := version.CheckCompatibility(version.GetVersion(), c.EngineVersion); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "incompatible engine version", err)
		}
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time is before start_time")
	}

	return nil
}

// BrokerConfig is the simulator configuration of one run.
func (c Config) BrokerConfig() broker.Config {
	return broker.Config{
		InitialCash:       c.InitialCash,
		FillPolicy:        c.FillPolicy,
		OutstandingPolicy: c.OutstandingPolicy,
		SellPolicy:        c.SellPolicy,
	}
}

// CommissionFee is the fee model selected by Broker and CommissionRate.
func (c Config) CommissionFee() commission_fee.CommissionFee {
	return commission_fee.GetCommissionFeeHandler(c.Broker, c.CommissionRate)
}

// ParseConfig decodes, defaults and validates a YAML config.
func ParseConfig(data []byte) (Config, error) {
	config := EmptyConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseConfig(data)
}

// GenerateSchema generates a JSON schema for Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for a backtest run and its Buy&Hold baseline"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a Config with no cash and no time window.
func EmptyConfig() Config {
	return Config{
		Broker:    commission_fee.BrokerPercentage,
		StartTime: optional.None[time.Time](),
		EndTime:   optional.None[time.Time](),
	}
}

// TestConfig returns a commission-free config with 10000 in cash.
func TestConfig() Config {
	return Config{
		InitialCash: 10000,
		Broker:      commission_fee.BrokerZero,
		StartTime:   optional.None[time.Time](),
		EndTime:     optional.None[time.Time](),
	}.WithDefaults()
}

// SampleConfig is a ready-to-run crossover config with a 0.1% commission.
func SampleConfig() Config {
	config := EmptyConfig()
	config.InitialCash = 10000
	config.CommissionRate = 0.001
	config.Strategy = strategy.Config{Name: strategy.StrategyTypeCrossover}.WithDefaults()

	return config.WithDefaults()
}
