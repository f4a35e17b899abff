package traces

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/stellarbeat-mcp/internal/logging"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "", "test", logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpan_NoopProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "mcp.tool", Tool("check_node_health"), PublicKey("GABC"))
	defer span.End()

	assert.NotNil(t, ctx)
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, "tool.name", string(Tool("x").Key))
	assert.Equal(t, "http.endpoint", string(Endpoint("/v1").Key))
	assert.Equal(t, int64(404), StatusCode(404).Value.AsInt64())
	assert.Equal(t, "organization.id", string(OrganizationID("org").Key))
}
