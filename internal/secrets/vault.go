// Package secrets encapsulates all access to the external key-value secret
// store, a Vault KV v2 mount named "kv" (§4.10).
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"

	"github.com/stackdiac/stackd/internal/model"
)

const mountPath = "kv"

// Facade lists, reads and writes versioned secrets, attaching schema
// metadata drawn from stack-level schemas.
type Facade struct {
	client *vault.Client
}

// New constructs a Facade against address, authenticating with token.
// Configure() at the orchestrator level requires TF_VAR_vault_token to be
// set before calling this, raising SecretStoreUnavailable otherwise (§4.10).
func New(address, token string) (*Facade, error) {
	cfg := vault.DefaultConfig()
	cfg.Address = address
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)
	return &Facade{client: client}, nil
}

// List returns the secret names stored at moduleSecretPath, or an empty
// slice if the path does not exist (mirrors hvac's InvalidPath handling).
func (f *Facade) List(ctx context.Context, moduleSecretPath string) ([]string, error) {
	secret, err := f.client.KVv2(mountPath).List(ctx, moduleSecretPath)
	if err != nil {
		if isInvalidPath(err) {
			return nil, nil
		}
		return nil, err
	}
	if secret == nil {
		return nil, nil
	}
	keysRaw, _ := secret.Data["keys"].([]any)
	names := make([]string, 0, len(keysRaw))
	for _, k := range keysRaw {
		if s, ok := k.(string); ok {
			names = append(names, strings.TrimSuffix(s, "/"))
		}
	}
	return names, nil
}

// Read returns the full versioned record for name at moduleSecretPath,
// attaching secret_type from custom_metadata.schema and secret_schema from
// the owning stack's schema document.
func (f *Facade) Read(ctx context.Context, moduleSecretPath, name string, stack model.Stack) (model.Secret, error) {
	path := moduleSecretPath + "/" + name
	kv, err := f.client.KVv2(mountPath).Get(ctx, path)
	if err != nil {
		return model.Secret{}, err
	}

	result := model.Secret{
		Name: name,
		Data: kv.Data,
	}
	if kv.CustomMetadata != nil {
		if schema, ok := kv.CustomMetadata["schema"].(string); ok {
			result.SecretType = schema
			result.SecretSchema = stack.SchemaFor(schema)
		}
		result.Metadata = kv.CustomMetadata
	}
	return result, nil
}

// Write creates or updates name at moduleSecretPath with body, then stamps a
// "schema" custom-metadata key with secretType if the stored record doesn't
// already carry one. Returns the normalized record.
func (f *Facade) Write(ctx context.Context, moduleSecretPath, name, secretType string, body map[string]any, stack model.Stack) (model.Secret, error) {
	path := moduleSecretPath + "/" + name
	kvc := f.client.KVv2(mountPath)

	if _, err := kvc.Put(ctx, path, body); err != nil {
		return model.Secret{}, err
	}

	kv, err := kvc.Get(ctx, path)
	if err != nil {
		return model.Secret{}, err
	}

	if _, ok := kv.CustomMetadata["schema"]; !ok {
		if err := kvc.PutMetadata(ctx, path, vault.KVMetadataPutInput{
			CustomMetadata: map[string]interface{}{"schema": secretType},
		}); err != nil {
			return model.Secret{}, err
		}
		kv, err = kvc.Get(ctx, path)
		if err != nil {
			return model.Secret{}, err
		}
	}

	result := model.Secret{
		Name:         name,
		Data:         kv.Data,
		SecretType:   secretType,
		SecretSchema: stack.SchemaFor(secretType),
		Metadata:     kv.CustomMetadata,
	}
	return result, nil
}

// Status determines a ModuleSecret's existence against listed, the result
// of List for the owning module's secret path (§4.10, §8 "secret status
// correctness").
func Status(name string, listed []string) model.SecretStatus {
	for _, n := range listed {
		if n == name {
			return model.SecretExists
		}
	}
	return model.SecretNotExists
}

func isInvalidPath(err error) bool {
	var respErr *vault.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == 404
	}
	return false
}

// ConfigureMount sets up the kv-v2 engine with max_versions=20 (§4.10).
func (f *Facade) ConfigureMount(ctx context.Context) error {
	err := f.client.Sys().TuneMountContext(ctx, mountPath, vault.MountConfigInput{
		Options: map[string]string{"version": "2"},
	})
	if err != nil && !isAlreadyConfigured(err) {
		return fmt.Errorf("configuring kv mount: %w", err)
	}

	if _, err := f.client.Logical().WriteWithContext(ctx, mountPath+"/config", map[string]interface{}{
		"max_versions": 20,
	}); err != nil {
		return fmt.Errorf("configuring kv max_versions: %w", err)
	}
	return nil
}

func isAlreadyConfigured(err error) bool {
	return strings.Contains(err.Error(), "already")
}
