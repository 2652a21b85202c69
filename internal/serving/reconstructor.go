package serving

import (
	"fmt"
	"strconv"

	"github.com/propsignal/incentive-recommender/internal/artifact"
	"github.com/propsignal/incentive-recommender/internal/features"
	"github.com/propsignal/incentive-recommender/internal/model"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

// Reconstruct builds a complete row in the frozen schema's column order
// from a partial payload. Derivable fields are filled by the same functions
// the trainer used; payload fields outside the schema are ignored; columns
// neither supplied nor derivable stay unset for the preprocessing
// transform's missing-value behavior to handle.
func Reconstruct(b *artifact.Bundle, payload map[string]any, landscape *features.LandscapeStats) (map[string]string, error) {
	row := make(map[string]string, len(b.Schema.Features))

	for name, v := range payload {
		if !b.Schema.Has(name) && name != types.ColOwnerID && name != types.ColPropertyID {
			continue
		}
		s, err := stringify(v)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", name, err)
		}
		if b.Schema.Has(name) {
			row[name] = s
		}
	}

	// Interaction key: derived through the shared trainer function, never
	// reimplemented here.
	if b.Schema.Has(types.ColOwnerPropertyIntern) {
		if _, ok := row[types.ColOwnerPropertyIntern]; !ok {
			owner, haveOwner := payload[types.ColOwnerID]
			prop, haveProp := payload[types.ColPropertyID]
			if haveOwner && haveProp {
				ownerStr, err := stringify(owner)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", types.ColOwnerID, err)
				}
				propStr, err := stringify(prop)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", types.ColPropertyID, err)
				}
				row[types.ColOwnerPropertyIntern] = features.InteractionKey(ownerStr, propStr)
			}
		}
	}

	if landscape != nil {
		backfill(row, b.Schema, types.ColGlobalAvgIncentive, strconv.FormatFloat(landscape.AvgAmount, 'f', -1, 64))
		backfill(row, b.Schema, types.ColGlobalMaxIncentive, strconv.FormatFloat(landscape.MaxAmount, 'f', -1, 64))
		backfill(row, b.Schema, types.ColGlobalMinIncentive, strconv.FormatFloat(landscape.MinAmount, 'f', -1, 64))
		backfill(row, b.Schema, types.ColProgramCount, strconv.Itoa(landscape.ProgramCount))
	}

	return row, nil
}

// Predict reconstructs the row, encodes it with the fitted transform, and
// invokes the classifier. Class probabilities are included only when the
// classifier supports them.
func Predict(b *artifact.Bundle, payload map[string]any, landscape *features.LandscapeStats) (types.RecommendResponse, error) {
	row, err := Reconstruct(b, payload, landscape)
	if err != nil {
		return types.RecommendResponse{}, err
	}
	vec, err := b.Preprocessor.TransformRow(row)
	if err != nil {
		return types.RecommendResponse{}, err
	}

	resp := types.RecommendResponse{
		RecommendedIncentiveProgram: b.Classes[b.Classifier.Predict(vec)],
	}
	if pc, ok := b.Classifier.(model.ProbabilityClassifier); ok {
		probs := pc.PredictProba(vec)
		resp.ClassProbabilities = make(map[string]float64, len(probs))
		for i, p := range probs {
			resp.ClassProbabilities[b.Classes[i]] = p
		}
	}
	return resp, nil
}

func backfill(row map[string]string, schema types.FeatureSchema, col, val string) {
	if !schema.Has(col) {
		return
	}
	if _, ok := row[col]; !ok {
		row[col] = val
	}
}

// stringify converts a payload value to the cell representation the
// preprocessing transform expects.
func stringify(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
