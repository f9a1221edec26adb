// Package config loads the pipeline configuration.
//
// Values are resolved in order: built-in defaults, an optional YAML file,
// then HOUSING_* environment variables. The result is validated before use.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "HOUSING"

const opConfig = "load_config"

// Config holds every setting of one pipeline run.
type Config struct {
	DataPath         string   `yaml:"data_path" envconfig:"DATA_PATH" validate:"required"`
	Target           string   `yaml:"target" envconfig:"TARGET" validate:"required"`
	ClusterFeatures  []string `yaml:"cluster_features" envconfig:"CLUSTER_FEATURES" validate:"required,min=1,dive,required"`
	BaselineFeatures []string `yaml:"baseline_features" envconfig:"BASELINE_FEATURES" validate:"required,min=1,dive,required"`
	Clusters         int      `yaml:"clusters" envconfig:"CLUSTERS" validate:"min=2"`
	RandomState      int64    `yaml:"random_state" envconfig:"RANDOM_STATE"`
	// StandardizeClusters scales cluster features to unit variance first.
	StandardizeClusters bool    `yaml:"standardize_clusters" envconfig:"STANDARDIZE_CLUSTERS"`
	TestSize            float64 `yaml:"test_size" envconfig:"TEST_SIZE" validate:"gt=0,lt=1"`
	// ReportDir is where plots are written. Empty disables plotting.
	ReportDir string `yaml:"report_dir" envconfig:"REPORT_DIR"`
	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT" validate:"oneof=json console"`
}

// Default returns the configuration used when nothing overrides it.
// DataPath has no default.
func Default() *Config {
	return &Config{
		Target:           "SalePrice",
		ClusterFeatures:  []string{"GrLivArea", "BathsTotal", "GarageCars", "TotalBsmtSF"},
		BaselineFeatures: []string{"GrLivArea", "BathsTotal", "GarageCars"},
		Clusters:         4,
		RandomState:      42,
		TestSize:         0.2,
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Override adjusts a configuration after the file and the environment have
// been applied, before validation.
type Override func(*Config)

// Load resolves the configuration. file may be empty, in which case only
// defaults and the environment are used. Overrides are applied last.
func Load(file string, overrides ...Override) (*Config, error) {
	cfg := Default()

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NewNotFoundError(opConfig, file)
			}
			return nil, errors.NewOperationError(opConfig, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewInvalidParameterError(opConfig, "file",
				fmt.Sprintf("malformed YAML: %v", err), file)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.NewInvalidParameterError(opConfig, "environment", err.Error(), EnvPrefix)
	}
	for _, o := range overrides {
		o(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate reports the first invalid field as an InvalidParameterError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewInvalidParameterError(opConfig, fieldName(fe), reason(fe), fe.Value())
	}
	return errors.NewInvalidParameterError(opConfig, "config", err.Error(), nil)
}

// fieldName strips the struct name from the namespace, keeping slice indexes.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must list at least " + fe.Param() + " entries"
		}
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "oneof":
		return "must be one of [" + strings.ReplaceAll(fe.Param(), " ", ", ") + "]"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
