package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/trainlog/trainlog/pkg/errors"
)

// Rule is a pattern/value pair in a defaults file. Rules are a list, not a
// map, so that declaration order survives decoding: later rules override
// earlier ones exactly as in-code mapping layers do.
type Rule struct {
	Pattern string      `mapstructure:"pattern"`
	Value   interface{} `mapstructure:"value"`
}

// FileConfig captures logger defaults loadable from a file or environment.
// Every field can still be overridden by constructor options and log-call
// overrides; the file only occupies the default layer.
type FileConfig struct {
	NEpochs      int      `mapstructure:"n_epochs"`
	NBatches     int      `mapstructure:"n_batches"`
	LogInterval  int      `mapstructure:"log_interval"`
	Name         string   `mapstructure:"name"`
	NameStyle    string   `mapstructure:"name_style"`
	Style        string   `mapstructure:"style"`
	Styles       []Rule   `mapstructure:"styles"`
	Size         int      `mapstructure:"size"`
	Sizes        []Rule   `mapstructure:"sizes"`
	Average      []string `mapstructure:"average"`
	AverageScope string   `mapstructure:"average_scope"`
	BoldKeys     bool     `mapstructure:"bold_keys"`
	ShowTime     bool     `mapstructure:"show_time"`
	ShowBar      bool     `mapstructure:"show_bar"`
	Silent       bool     `mapstructure:"silent"`
}

// Load builds a FileConfig from disk and environment. Environment variables
// use the TRAINLOG_ prefix (e.g. TRAINLOG_LOG_INTERVAL). An empty path skips
// the file and loads defaults plus environment only.
func Load(path string) (FileConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("TRAINLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return FileConfig{}, errors.Wrap(err, "read config")
		}
	}

	var cfg FileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return FileConfig{}, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_interval", 1)
	v.SetDefault("show_time", true)
	v.SetDefault("show_bar", true)
	v.SetDefault("average_scope", "epoch")
}

// Validate checks field ranges. Zero values mean "not set" for the counters
// and are left for the constructor to fill.
func (c FileConfig) Validate() error {
	if c.NEpochs < 0 {
		return errors.NewValidationError("n_epochs", "must be positive", c.NEpochs)
	}
	if c.NBatches < 0 {
		return errors.NewValidationError("n_batches", "must be positive or omitted", c.NBatches)
	}
	if c.LogInterval < 1 {
		return errors.NewValidationError("log_interval", "must be at least 1", c.LogInterval)
	}
	switch c.AverageScope {
	case "epoch", "training":
	default:
		return errors.NewValidationError("average_scope", "must be 'epoch' or 'training'", c.AverageScope)
	}
	return nil
}

// StyleLayer converts the file's style settings to a layer: a scalar when
// `style` is set, a mapping when `styles` rules exist, absent otherwise.
func (c FileConfig) StyleLayer() Layer {
	if c.Style != "" {
		return Scalar(c.Style)
	}
	if len(c.Styles) > 0 {
		return rulesToMapping(c.Styles)
	}
	return Absent()
}

// SizeLayer converts the file's width settings to a layer.
func (c FileConfig) SizeLayer() Layer {
	if c.Size > 0 {
		return Scalar(c.Size)
	}
	if len(c.Sizes) > 0 {
		return rulesToMapping(c.Sizes)
	}
	return Absent()
}

// AverageLayer converts the file's averaged-key list to a membership layer.
func (c FileConfig) AverageLayer() Layer {
	if len(c.Average) == 0 {
		return Absent()
	}
	return Keys(c.Average...)
}

func rulesToMapping(rules []Rule) Layer {
	entries := make([]Entry, len(rules))
	for i, r := range rules {
		entries[i] = Entry{Pattern: r.Pattern, Value: r.Value}
	}
	return Mapping(entries...)
}
