package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	yaml "go.yaml.in/yaml/v4"

	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/internal/orchestrator"
)

// handlers holds only the project root; every method builds and configures
// a fresh *orchestrator.Stackd so concurrent requests never share state
// (§4.11, §5).
type handlers struct {
	root string
}

func (h *handlers) configured(c *gin.Context) (*orchestrator.Stackd, bool) {
	s := orchestrator.New(h.root)
	if err := s.Configure(c.Request.Context()); err != nil {
		writeError(c, err)
		return nil, false
	}
	return s, true
}

// writeError maps model.NotFound to 404 and anything else to 500, both as
// {"error": "..."} bodies (§4.11, §7).
func writeError(c *gin.Context, err error) {
	var nf *model.NotFound
	status := http.StatusInternalServerError
	if errors.As(err, &nf) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *handlers) redirectToUI(c *gin.Context) {
	c.Redirect(http.StatusFound, "/ui/index.html")
}

func (h *handlers) getConfig(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Config)
}

func (h *handlers) listClusters(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Clusters)
}

func (h *handlers) getCluster(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}
	cluster, ok := s.Clusters[c.Param("cluster")]
	if !ok {
		writeError(c, &model.NotFound{Kind: "cluster", Name: c.Param("cluster")})
		return
	}
	c.JSON(http.StatusOK, cluster)
}

func (h *handlers) getStack(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}
	stack, err := s.BuildClusterStack(c.Request.Context(), c.Param("cluster"), c.Param("stack"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (h *handlers) getModule(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}
	stack, err := s.BuildClusterStack(c.Request.Context(), c.Param("cluster"), c.Param("stack"))
	if err != nil {
		writeError(c, err)
		return
	}
	mod, ok := stack.Modules[c.Param("module")]
	if !ok {
		writeError(c, &model.NotFound{Kind: "module", Name: c.Param("module")})
		return
	}
	c.JSON(http.StatusOK, mod)
}

// writeModuleVars persists body as {root}/vars/{cluster}/{stack}/{module}/vars.yaml
// then rebuilds the cluster-stack so the response reflects the new
// built_vars (§6 "POST /vars/{c}/{s}/{m}").
func (h *handlers) writeModuleVars(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}

	var vars map[string]any
	if err := c.ShouldBindJSON(&vars); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path := filepath.Join(h.root, "vars", c.Param("cluster"), c.Param("stack"), c.Param("module"), "vars.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		writeError(c, err)
		return
	}
	data, err := yaml.Marshal(vars)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		writeError(c, err)
		return
	}

	stack, err := s.BuildClusterStack(c.Request.Context(), c.Param("cluster"), c.Param("stack"))
	if err != nil {
		writeError(c, err)
		return
	}
	mod, ok := stack.Modules[c.Param("module")]
	if !ok {
		writeError(c, &model.NotFound{Kind: "module", Name: c.Param("module")})
		return
	}
	c.JSON(http.StatusOK, mod)
}

func (h *handlers) listModuleSecrets(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}
	if s.Secrets == nil {
		c.JSON(http.StatusOK, []string{})
		return
	}
	stack, err := s.BuildClusterStack(c.Request.Context(), c.Param("cluster"), c.Param("stack"))
	if err != nil {
		writeError(c, err)
		return
	}
	mod, ok := stack.Modules[c.Param("module")]
	if !ok {
		writeError(c, &model.NotFound{Kind: "module", Name: c.Param("module")})
		return
	}
	secretPath, _ := mod.BuiltVars["module_secret_path"].(string)
	names, err := s.Secrets.List(c.Request.Context(), secretPath)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

func (h *handlers) getModuleSecret(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}
	if s.Secrets == nil {
		writeError(c, &model.SecretStoreUnavailable{Reason: "no vault address configured"})
		return
	}
	stack, err := s.BuildClusterStack(c.Request.Context(), c.Param("cluster"), c.Param("stack"))
	if err != nil {
		writeError(c, err)
		return
	}
	mod, ok := stack.Modules[c.Param("module")]
	if !ok {
		writeError(c, &model.NotFound{Kind: "module", Name: c.Param("module")})
		return
	}
	secretPath, _ := mod.BuiltVars["module_secret_path"].(string)
	secret, err := s.Secrets.Read(c.Request.Context(), secretPath, c.Param("name"), stack)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, secret)
}

// writeModuleSecretBody is the request shape for POST /secret/{c}/{s}/{m}/{name}.
type writeModuleSecretBody struct {
	SecretType string         `json:"secret_type"`
	Secret     map[string]any `json:"secret"`
}

func (h *handlers) writeModuleSecret(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}
	if s.Secrets == nil {
		writeError(c, &model.SecretStoreUnavailable{Reason: "no vault address configured"})
		return
	}

	var body writeModuleSecretBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stack, err := s.BuildClusterStack(c.Request.Context(), c.Param("cluster"), c.Param("stack"))
	if err != nil {
		writeError(c, err)
		return
	}
	mod, ok := stack.Modules[c.Param("module")]
	if !ok {
		writeError(c, &model.NotFound{Kind: "module", Name: c.Param("module")})
		return
	}
	secretPath, _ := mod.BuiltVars["module_secret_path"].(string)
	secret, err := s.Secrets.Write(c.Request.Context(), secretPath, c.Param("name"), body.SecretType, body.Secret, stack)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, secret)
}

func (h *handlers) buildCluster(c *gin.Context) {
	s, ok := h.configured(c)
	if !ok {
		return
	}
	if err := s.BuildCluster(c.Request.Context(), c.Param("cluster")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Clusters[c.Param("cluster")])
}
