package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvVarProvider_ResolvesPresentKeysOnly(t *testing.T) {
	t.Setenv("HRPULSE_TEST_MONGO_URI", "mongodb://localhost:27017")

	p := NewEnvVarProvider()
	got, err := p.GetParametersBatch(context.Background(), []string{"HRPULSE_TEST_MONGO_URI", "HRPULSE_TEST_MISSING"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"HRPULSE_TEST_MONGO_URI": "mongodb://localhost:27017"}, got)
}

func TestEnvVarProvider_EmptyKeys(t *testing.T) {
	got, err := NewEnvVarProvider().GetParametersBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
