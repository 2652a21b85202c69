package features

import (
	"fmt"

	"github.com/propsignal/incentive-recommender/internal/dataset"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

// SchemaVersion is bumped when the meaning of a frozen schema changes.
const SchemaVersion = 1

// ExcludedFeatureColumns is the explicit leakage exclusion list checked when
// selecting feature columns. The label must never become a feature; this is
// enforced here, not left to convention.
var ExcludedFeatureColumns = []string{types.ColTarget}

// FreezeSchema selects and orders the feature columns of the joined table
// and classifies each as numeric or categorical by inferred dtype. The
// resulting schema is the immutable contract shared by the trainer's
// preprocessing and the serving reconstructor. Column order follows the
// joined table's column order, so repeated invocations on the same table
// produce identical schemas.
func FreezeSchema(joined *dataset.Frame, target string) (types.FeatureSchema, error) {
	if !joined.HasColumn(target) {
		return types.FeatureSchema{}, fmt.Errorf("joined table has no target column %q", target)
	}

	excluded := make(map[string]struct{}, len(ExcludedFeatureColumns)+1)
	for _, c := range ExcludedFeatureColumns {
		excluded[c] = struct{}{}
	}
	excluded[target] = struct{}{}

	schema := types.FeatureSchema{Version: SchemaVersion, Target: target}
	for _, col := range joined.Columns() {
		if _, skip := excluded[col]; skip {
			continue
		}
		kind := types.FeatureCategorical
		if joined.IsNumericColumn(col) {
			kind = types.FeatureNumeric
		}
		schema.Features = append(schema.Features, types.FeatureSpec{Name: col, Kind: kind})
	}

	if len(schema.Features) == 0 {
		return types.FeatureSchema{}, types.ErrEmptySchema
	}
	return schema, nil
}
