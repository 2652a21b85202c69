package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propsignal/incentive-recommender/pkg/types"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	m, shutdown, err := Setup(ctx, types.TelemetryConfig{})
	require.NoError(t, err)
	require.NotNil(t, m)
	defer func() { assert.NoError(t, shutdown(ctx)) }()

	require.NotNil(t, m.Requests)
	require.NotNil(t, m.Predictions)
	require.NotNil(t, m.Errors)

	// Counters must be safe to use with no reader attached.
	m.Requests.Add(ctx, 1)
	m.Predictions.Add(ctx, 1)
	m.Errors.Add(ctx, 1)
}
