package config

import "context"

// SecretProvider resolves secret values by key. SSMProvider serves cloud
// environments and EnvVarProvider serves local development.
type SecretProvider interface {
	// GetParametersBatch returns a key -> plaintext map for every key it
	// could resolve.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
