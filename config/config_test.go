package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "housing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOUSING_DATA_PATH", "data/train.csv")

	cfg, err := Load("")
	require.NoError(t, err)

	want := Default()
	want.DataPath = "data/train.csv"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := writeConfig(t, `
data_path: homes.xlsx
clusters: 6
cluster_features: [GrLivArea, GarageCars]
test_size: 0.25
report_dir: out
log_format: console
`)
	t.Setenv("HOUSING_CLUSTERS", "3")
	t.Setenv("HOUSING_BASELINE_FEATURES", "GrLivArea,TotalBsmtSF")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "homes.xlsx", cfg.DataPath)
	assert.Equal(t, 3, cfg.Clusters, "environment overrides the file")
	assert.Equal(t, []string{"GrLivArea", "GarageCars"}, cfg.ClusterFeatures)
	assert.Equal(t, []string{"GrLivArea", "TotalBsmtSF"}, cfg.BaselineFeatures)
	assert.Equal(t, 0.25, cfg.TestSize)
	assert.Equal(t, "out", cfg.ReportDir)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "SalePrice", cfg.Target, "unset values keep their default")
	assert.Equal(t, int64(42), cfg.RandomState)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		env       map[string]string
		wantCode  string
		wantParam string
	}{
		{
			name:      "missing data path",
			wantCode:  errors.CodeInvalidParameter,
			wantParam: "data_path",
		},
		{
			name:      "too few clusters",
			env:       map[string]string{"HOUSING_DATA_PATH": "a.csv", "HOUSING_CLUSTERS": "1"},
			wantCode:  errors.CodeInvalidParameter,
			wantParam: "clusters",
		},
		{
			name:      "test size out of range",
			env:       map[string]string{"HOUSING_DATA_PATH": "a.csv", "HOUSING_TEST_SIZE": "1.5"},
			wantCode:  errors.CodeInvalidParameter,
			wantParam: "test_size",
		},
		{
			name:      "unknown log level",
			env:       map[string]string{"HOUSING_DATA_PATH": "a.csv", "HOUSING_LOG_LEVEL": "trace"},
			wantCode:  errors.CodeInvalidParameter,
			wantParam: "log_level",
		},
		{
			name:      "unparseable number",
			env:       map[string]string{"HOUSING_DATA_PATH": "a.csv", "HOUSING_CLUSTERS": "four"},
			wantCode:  errors.CodeInvalidParameter,
			wantParam: "environment",
		},
		{
			name:     "missing file",
			file:     filepath.Join(os.TempDir(), "does-not-exist", "housing.yaml"),
			wantCode: errors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(tt.file)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.Code(err), "err: %v", err)
			if tt.wantParam != "" {
				var pe *errors.InvalidParameterError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, tt.wantParam, pe.ParamName)
			}
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "clusters: [unterminated\n")
	_, err := Load(path)
	var pe *errors.InvalidParameterError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "file", pe.ParamName)
}

func TestValidateEmptyFeatureName(t *testing.T) {
	cfg := Default()
	cfg.DataPath = "a.csv"
	cfg.ClusterFeatures = []string{"GrLivArea", ""}

	err := cfg.Validate()
	var pe *errors.InvalidParameterError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "cluster_features[1]", pe.ParamName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HOUSING_CLUSTERS", "3")

	cfg, err := Load("", func(c *Config) {
		c.DataPath = "from-flag.csv"
		c.Clusters = 5
	})
	require.NoError(t, err)
	assert.Equal(t, "from-flag.csv", cfg.DataPath)
	assert.Equal(t, 5, cfg.Clusters, "overrides win over the environment")

	_, err = Load("", func(c *Config) {
		c.DataPath = "a.csv"
		c.TestSize = 0
	})
	var pe *errors.InvalidParameterError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "test_size", pe.ParamName)
}
