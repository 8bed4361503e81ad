package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct{ cfg FactoryConfig }

func (s *stubClient) ChatCompletion(context.Context, []Message, Options) (Completion, error) {
	return Completion{Text: "ok"}, nil
}

func (s *stubClient) ExecuteTask(context.Context, string, string, Options) (Completion, error) {
	return Completion{Text: "ok"}, nil
}

func TestNewClientUsesRegisteredFactory(t *testing.T) {
	RegisterProvider("Stub-Test", func(cfg FactoryConfig) (Client, error) {
		return &stubClient{cfg: cfg}, nil
	}, "stub-alias")

	client, err := NewClient(FactoryConfig{Provider: "stub-test", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "k", client.(*stubClient).cfg.APIKey)

	_, err = NewClient(FactoryConfig{Provider: "STUB-ALIAS", APIKey: "k"})
	require.NoError(t, err)
}

func TestNewClientErrors(t *testing.T) {
	_, err := NewClient(FactoryConfig{Provider: "missing", APIKey: "k"})
	assert.ErrorContains(t, err, "not registered")

	RegisterProvider("stub-nokey", func(cfg FactoryConfig) (Client, error) {
		return &stubClient{cfg: cfg}, nil
	})
	_, err = NewClient(FactoryConfig{Provider: "stub-nokey"})
	assert.ErrorContains(t, err, "API key not configured")
}

func TestCompletionDegraded(t *testing.T) {
	assert.False(t, Completion{Text: "x"}.Degraded())
	assert.True(t, Completion{Text: "x", Failure: "boom"}.Degraded())
}
