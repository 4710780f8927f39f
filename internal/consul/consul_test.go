package consul

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentRegistration(t *testing.T) {
	reg := agentRegistration(Registration{ID: "storefront-1", Name: "storefront", Host: "10.0.0.4", Port: 8080, Healthz: "/ping"})

	assert.Equal(t, "storefront-1", reg.ID)
	assert.Equal(t, "storefront", reg.Name)
	assert.Equal(t, 8080, reg.Port)
	require.NotNil(t, reg.Check)
	assert.Equal(t, "http://10.0.0.4:8080/ping", reg.Check.HTTP)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("127.0.0.1:8500")
	require.NoError(t, err)
	assert.NotNil(t, client)
}
