package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	vault "github.com/hashicorp/vault/api"

	"github.com/stackdiac/stackd/internal/model"
)

func TestStatusExists(t *testing.T) {
	got := Status("db-password", []string{"db-password", "api-key"})
	if got != model.SecretExists {
		t.Errorf("Status = %v, want SecretExists", got)
	}
}

func TestStatusNotExists(t *testing.T) {
	got := Status("missing", []string{"db-password"})
	if got != model.SecretNotExists {
		t.Errorf("Status = %v, want SecretNotExists", got)
	}
}

func TestIsInvalidPath404(t *testing.T) {
	err := &vault.ResponseError{StatusCode: 404}
	if !isInvalidPath(err) {
		t.Error("isInvalidPath(404) = false, want true")
	}
}

func TestIsInvalidPathOtherStatus(t *testing.T) {
	err := &vault.ResponseError{StatusCode: 500}
	if isInvalidPath(err) {
		t.Error("isInvalidPath(500) = true, want false")
	}
}

func TestIsInvalidPathNonResponseError(t *testing.T) {
	if isInvalidPath(errors.New("boom")) {
		t.Error("isInvalidPath(generic error) = true, want false")
	}
}

func TestIsAlreadyConfigured(t *testing.T) {
	if !isAlreadyConfigured(errors.New("path is already in use at kv")) {
		t.Error("expected already-in-use error to be recognized")
	}
	if isAlreadyConfigured(errors.New("permission denied")) {
		t.Error("unrelated error incorrectly recognized as already-configured")
	}
}

func TestConfigureMountSetsMaxVersions(t *testing.T) {
	var sawConfigBody map[string]any
	var sawTune, sawConfig bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/sys/mounts/kv/tune":
			sawTune = true
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/kv/config":
			sawConfig = true
			_ = json.NewDecoder(r.Body).Decode(&sawConfigBody)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f, err := New(srv.URL, "test-token")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := f.ConfigureMount(context.Background()); err != nil {
		t.Fatalf("ConfigureMount: %v", err)
	}
	if !sawTune {
		t.Error("expected a tune request against sys/mounts/kv/tune")
	}
	if !sawConfig {
		t.Fatal("expected a kv/config request")
	}
	maxVersions, _ := sawConfigBody["max_versions"].(float64)
	if maxVersions != 20 {
		t.Errorf("max_versions = %v, want 20", sawConfigBody["max_versions"])
	}
}
