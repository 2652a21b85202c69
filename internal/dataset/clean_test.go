package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propsignal/incentive-recommender/pkg/types"
)

func TestCleanMissingRequiredColumns(t *testing.T) {
	f := New([]string{"incentive_program"})
	require.NoError(t, f.Append([]string{"rebate"}))

	_, err := Clean(f, []string{"incentive_program", "incentive_amount"}, "incentive catalog")
	require.Error(t, err)

	var schemaErr *types.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "incentive catalog", schemaErr.Table)
	assert.Equal(t, []string{"incentive_amount"}, schemaErr.Missing)
}

func TestCleanDropsExactDuplicatesKeepingFirst(t *testing.T) {
	f := New([]string{"owner_id", "city"})
	require.NoError(t, f.Append([]string{"o1", "dallas"}))
	require.NoError(t, f.Append([]string{"o2", "austin"}))
	require.NoError(t, f.Append([]string{"o1", "dallas"}))
	require.NoError(t, f.Append([]string{"o3", "dallas"}))

	out, err := Clean(f, []string{"owner_id"}, "property table")
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	// Order of remaining rows is preserved.
	v, _ := out.Value(0, "owner_id")
	assert.Equal(t, "o1", v)
	v, _ = out.Value(1, "owner_id")
	assert.Equal(t, "o2", v)
	v, _ = out.Value(2, "owner_id")
	assert.Equal(t, "o3", v)
}

func TestCleanNormalizesStrings(t *testing.T) {
	f := New([]string{"owner_id", "city"})
	require.NoError(t, f.Append([]string{"o1", " Dallas"}))
	require.NoError(t, f.Append([]string{"o2", "dallas "}))
	require.NoError(t, f.Append([]string{"o3", "AUSTIN"}))

	out, err := Clean(f, []string{"owner_id"}, "property table")
	require.NoError(t, err)

	assert.Equal(t, []string{"dallas", "dallas", "austin"}, out.Column("city"))
}

func TestCleanImputesNumericMedian(t *testing.T) {
	f := New([]string{"owner_id", "score"})
	require.NoError(t, f.Append([]string{"o1", "1"}))
	require.NoError(t, f.Append([]string{"o2", "3"}))
	require.NoError(t, f.Append([]string{"o3", "5"}))
	require.NoError(t, f.Append([]string{"o4", ""}))

	out, err := Clean(f, []string{"owner_id"}, "behavior table")
	require.NoError(t, err)

	v, _ := out.Value(3, "score")
	assert.Equal(t, "3", v, "missing numeric value should take the column median")
}

func TestCleanImputesCategoricalMode(t *testing.T) {
	f := New([]string{"owner_id", "city"})
	require.NoError(t, f.Append([]string{"o1", "dallas"}))
	require.NoError(t, f.Append([]string{"o2", "dallas"}))
	require.NoError(t, f.Append([]string{"o3", "austin"}))
	require.NoError(t, f.Append([]string{"o4", "NA"}))

	out, err := Clean(f, []string{"owner_id"}, "property table")
	require.NoError(t, err)

	v, _ := out.Value(3, "city")
	assert.Equal(t, "dallas", v, "missing categorical value should take the column mode")
}

func TestCleanKeepsAllColumns(t *testing.T) {
	f := New([]string{"owner_id", "city", "score"})
	require.NoError(t, f.Append([]string{"o1", "dallas", "0.5"}))

	out, err := Clean(f, []string{"owner_id"}, "behavior table")
	require.NoError(t, err)
	assert.Equal(t, f.Columns(), out.Columns())
}

func TestCleanDoesNotModifyInput(t *testing.T) {
	f := New([]string{"city"})
	require.NoError(t, f.Append([]string{" Dallas"}))

	_, err := Clean(f, nil, "property table")
	require.NoError(t, err)

	v, _ := f.Value(0, "city")
	assert.Equal(t, " Dallas", v)
}
