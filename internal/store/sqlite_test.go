package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuramaint/pumpml/internal/ml"
	"github.com/neuramaint/pumpml/internal/sensor"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func trainedModel(t *testing.T) *ml.TrainedModel {
	t.Helper()
	corpus := ml.NewSyntheticGenerator().Generate(1000, 0.05)
	result, err := ml.Train(corpus, 0.05)
	require.NoError(t, err)
	return result.Model
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	model := trainedModel(t)

	require.NoError(t, s.SaveModel(ctx, model))

	loaded, err := s.LoadModel(ctx)
	require.NoError(t, err)

	assert.Equal(t, model.Meta.ModelVersion, loaded.Meta.ModelVersion)
	assert.Equal(t, model.Meta.SampleCount, loaded.Meta.SampleCount)
	assert.Equal(t, model.Meta.Contamination, loaded.Meta.Contamination)
	assert.Equal(t, model.Scaler.Mean, loaded.Scaler.Mean)
	assert.Equal(t, model.Scaler.Std, loaded.Scaler.Std)
	assert.Equal(t, model.Forest.NumTrees, loaded.Forest.NumTrees)
	assert.Equal(t, model.Forest.Offset, loaded.Forest.Offset)
	assert.Len(t, loaded.Forest.Trees, model.Forest.NumTrees)

	// The restored model scores identically to the original.
	vec := ml.Vectorize(sensor.Reading{SensorID: 1, Kind: sensor.KindTemperature, Value: 88})
	want, err := model.Score(vec)
	require.NoError(t, err)
	got, err := loaded.Score(vec)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := trainedModel(t)
	require.NoError(t, s.SaveModel(ctx, first))

	second, err := ml.Train(ml.NewSyntheticGenerator().Generate(1200, 0.1), 0.1)
	require.NoError(t, err)
	require.NoError(t, s.SaveModel(ctx, second.Model))

	loaded, err := s.LoadModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1200, loaded.Meta.SampleCount)
	assert.Equal(t, 0.1, loaded.Meta.Contamination)
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadModel(context.Background())
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestSQLiteStore_MissingMetadataTolerated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveModel(ctx, trainedModel(t)))
	_, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE name = ?`, artifactMetadata)
	require.NoError(t, err)

	loaded, err := s.LoadModel(ctx)
	require.NoError(t, err)
	assert.NotNil(t, loaded.Forest)
	assert.NotNil(t, loaded.Scaler)
	assert.Empty(t, loaded.Meta.ModelVersion)
}

func TestSQLiteStore_MissingScalerFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveModel(ctx, trainedModel(t)))
	_, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE name = ?`, artifactScaler)
	require.NoError(t, err)

	_, err = s.LoadModel(ctx)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestSQLiteStore_ReopenKeepsArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifacts.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveModel(ctx, trainedModel(t)))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, ml.ModelVersion, loaded.Meta.ModelVersion)
}
