package cleaner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/connector"
	"github.com/David-Botos/trial-ingress/pkg/model"
	"github.com/David-Botos/trial-ingress/pkg/registry"
)

func newTestCleaner(t *testing.T) *DataCleaner {
	t.Helper()
	ctx := context.Background()

	conn, err := connector.NewMemorySQLiteConnector(ctx, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c, err := NewDataCleaner(ctx, conn, zap.NewNop())
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func collidingStudy() registry.Study {
	return registry.Study{"protocolSection": map[string]interface{}{
		"identificationModule": map[string]interface{}{
			"nctId":      " NCT01234567 ",
			"briefTitle": "Chemo | Radiation Study",
		},
		"conditionsModule": map[string]interface{}{
			"conditions": []interface{}{"Breast Cancer", "HER2+ | HR+ Disease"},
		},
		"armsInterventionsModule": map[string]interface{}{
			"armGroups": []interface{}{
				map[string]interface{}{"interventionNames": []interface{}{"Drug: A|B combo"}},
				map[string]interface{}{},
			},
		},
	}}
}

func TestNewDataCleaner_RejectsNilArguments(t *testing.T) {
	_, err := NewDataCleaner(context.Background(), nil, zap.NewNop())
	assert.Error(t, err)

	conn, err := connector.NewMemorySQLiteConnector(context.Background(), zap.NewNop())
	require.NoError(t, err)
	defer conn.Close()

	_, err = NewDataCleaner(context.Background(), conn, nil)
	assert.Error(t, err)
}

func TestCleanStudy_ReplacesDelimiterAndTrims(t *testing.T) {
	c := newTestCleaner(t)

	rec, ops := c.CleanStudy("run-1", collidingStudy())

	assert.Equal(t, "NCT01234567", rec.NCTID)
	assert.Equal(t, "Chemo | Radiation Study", rec.BriefTitle, "scalar fields are not list encoded")
	assert.Equal(t, []string{"Breast Cancer", "HER2+ / HR+ Disease"}, rec.ConditionList())
	assert.Equal(t, []string{"Drug: A/B combo", ""}, rec.InterventionList())

	require.Len(t, ops, 3)
	kinds := map[string]string{}
	for _, op := range ops {
		assert.Equal(t, "run-1", op.RunID)
		assert.Equal(t, model.RawTable, op.TableName)
		assert.Equal(t, "NCT01234567", op.RowIdentifier)
		kinds[op.ColumnName] = op.CleaningOperation
	}
	assert.Equal(t, map[string]string{
		"nctId":         OperationWhitespaceTrim,
		"conditions":    OperationDelimiterReplacement,
		"interventions": OperationDelimiterReplacement,
	}, kinds)
}

func TestCleanStudy_CleanInputMatchesExtractor(t *testing.T) {
	c := newTestCleaner(t)
	study := registry.Study{"protocolSection": map[string]interface{}{
		"identificationModule": map[string]interface{}{"nctId": "NCT1"},
		"conditionsModule":     map[string]interface{}{"conditions": []interface{}{"Lung Cancer"}},
		"designModule":         map[string]interface{}{"phases": []interface{}{"PHASE3"}},
	}}

	rec, ops := c.CleanStudy("run-1", study)
	assert.Empty(t, ops)
	assert.Equal(t, registry.ExtractStudy(study), rec)
}

func TestRecordCleaningOperations_PersistsPerRun(t *testing.T) {
	c := newTestCleaner(t)
	ctx := context.Background()

	extract, collector := c.Extractor("run-1")
	extract(collidingStudy())
	extract(collidingStudy())

	ops := collector.Operations()
	require.Len(t, ops, 6)
	require.NoError(t, c.RecordCleaningOperations(ctx, ops))

	count, err := c.CountOperations(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	count, err = c.CountOperations(ctx, "run-2")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecordCleaningOperations_BatchesAndAppends(t *testing.T) {
	c := newTestCleaner(t)
	c.batchSize = 2
	ctx := context.Background()

	_, ops := c.CleanStudy("run-1", collidingStudy())
	require.NoError(t, c.RecordCleaningOperations(ctx, ops))
	require.NoError(t, c.RecordCleaningOperations(ctx, ops))

	count, err := c.CountOperations(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 6, count, "the audit table is appended to, never replaced")
}

func TestRecordCleaningOperations_Empty(t *testing.T) {
	c := newTestCleaner(t)
	assert.NoError(t, c.RecordCleaningOperations(context.Background(), nil))
}
