package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housingeda/baseline"
	"github.com/YuminosukeSato/housingeda/config"
	"github.com/YuminosukeSato/housingeda/dataset"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
)

// writeHomes writes n distinct sale records to a CSV file.
func writeHomes(t *testing.T, n int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(3))
	var b strings.Builder
	b.WriteString("Id,GrLivArea,GarageCars,TotalBsmtSF,FullBath,HalfBath,YearBuilt,YrSold,MoSold,Alley,SalePrice\n")
	for i := 0; i < n; i++ {
		area := 900 + i*17
		garage := rng.Intn(4)
		full := 1 + rng.Intn(3)
		half := rng.Intn(2)
		bsmt := "NA"
		if i%10 != 0 {
			bsmt = fmt.Sprint(400 + rng.Intn(1200))
		}
		alley := "NA"
		if i%7 == 0 {
			alley = "Grvl"
		}
		price := 70*area + 9000*garage + 12000*full + rng.Intn(20000)
		fmt.Fprintf(&b, "%d,%d,%d,%s,%d,%d,%d,%d,%d,%s,%d\n",
			i+1, area, garage, bsmt, full, half, 1950+i%50, 2006+i%5, 1+i%12, alley, price)
	}
	path := filepath.Join(t.TempDir(), "homes.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func testConfig(dataPath string) *config.Config {
	cfg := config.Default()
	cfg.DataPath = dataPath
	return cfg
}

func TestRun(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	cfg := testConfig(writeHomes(t, 100))

	out, err := Run(context.Background(), cfg, WithProvider(provider), WithRunID("run-1"))
	require.NoError(t, err)

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, 100, out.Table.Len())
	assert.True(t, out.Table.Has("Cluster"))
	assert.ElementsMatch(t, []string{"PricePerSF", "AgeAtSale", "BathsTotal"}, out.Derived)
	assert.Equal(t, 0, out.Cleaning.DuplicatesRemoved)

	assert.Equal(t, 4, out.Clusters.K)
	assert.Len(t, out.Clusters.Sizes, 4)

	assert.Equal(t, 80, out.Baseline.TrainingSamples)
	assert.Equal(t, 20, out.Baseline.TestSamples)
	assert.Len(t, out.Baseline.Coefficients, 3)
	assert.LessOrEqual(t, out.Baseline.R2Test, 1.0)
	assert.Empty(t, out.Artifacts, "no report directory configured")

	logger := provider.Logger()
	assert.True(t, logger.ContainsMessage("Pipeline complete"))
	assert.True(t, logger.ContainsField(log.RunIDKey, "run-1"))
	assert.True(t, logger.ContainsField(log.StageKey, log.StageBaseline))
}

func TestRunWithReports(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelInfo)
	cfg := testConfig(writeHomes(t, 60))
	cfg.ReportDir = filepath.Join(t.TempDir(), "plots")

	out, err := Run(context.Background(), cfg, WithProvider(provider))
	require.NoError(t, err)

	assert.NotEmpty(t, out.RunID)
	require.Len(t, out.Artifacts, 6)
	for _, p := range out.Artifacts {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
	assert.Equal(t, "SalePrice_by_Cluster.png", filepath.Base(out.Artifacts[5]))
}

func TestRunStopsAtFailingStage(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.csv"))

	out, err := Run(context.Background(), cfg, WithProvider(provider))
	assert.Nil(t, out)
	var nf *errors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, errors.CodeNotFound, errors.Code(err))
	assert.True(t, provider.Logger().ContainsMessage("Pipeline failed"))
}

func TestRunUnknownFeaturesAreWarned(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	cfg := testConfig(writeHomes(t, 40))
	cfg.BaselineFeatures = []string{"GrLivArea", "Nonexistent"}

	out, err := Run(context.Background(), cfg, WithProvider(provider))
	require.NoError(t, err)
	assert.Equal(t, []string{"Nonexistent"}, out.Baseline.FeaturesIgnored)
	assert.True(t, provider.Logger().ContainsField(log.WarningTypeKey, "IgnoredFeaturesWarning"))
}

func TestStageWarningsStayWithStageLoggerAfterRun(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	path := writeHomes(t, 40)
	_, err := Run(context.Background(), testConfig(path), WithProvider(provider), WithRunID("run-A"))
	require.NoError(t, err)
	provider.Logger().Clear()

	in, err := dataset.Load(path)
	require.NoError(t, err)
	own, _ := log.NewTestLogger(log.LevelDebug)
	res, err := baseline.NewTrainer(baseline.WithLogger(own)).
		TrainBaseline(in, []string{"GrLivArea", "Nonexistent"}, "SalePrice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nonexistent"}, res.FeaturesIgnored)

	assert.True(t, own.ContainsField(log.WarningTypeKey, "IgnoredFeaturesWarning"))
	assert.False(t, own.ContainsField(log.RunIDKey, "run-A"))
	assert.False(t, provider.Logger().ContainsMessage("Nonexistent"),
		"a finished run must not receive later warnings")
}

func TestRunCanceled(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testConfig(writeHomes(t, 20)), WithProvider(provider))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunInvalidConfig(t *testing.T) {
	_, err := Run(context.Background(), nil)
	assert.Equal(t, errors.CodeInvalidInput, errors.Code(err))

	cfg := testConfig("homes.csv")
	cfg.Clusters = 1
	_, err = Run(context.Background(), cfg)
	var pe *errors.InvalidParameterError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "clusters", pe.ParamName)
}
