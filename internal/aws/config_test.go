package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, cfg.Region)
}

func TestLoadAWSConfig_ExplicitRegion(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

func TestNewAWSClients_WithEndpointOverride(t *testing.T) {
	clients, err := NewAWSClients(context.Background(), "us-east-1", "http://localhost:4566")
	require.NoError(t, err)
	assert.NotNil(t, clients.DynamoDB)
	assert.NotNil(t, clients.SQS)
	assert.NotNil(t, clients.CloudWatch)
}
