// Package orchestrator is the top-level entry point tying the Resolver,
// Repo Manager, Spec Loader, Merge Engine, Module Builder, Secret Facade
// and Operation Runner into Configure/Build/RunOperation (§9 "process-wide
// singleton" redesign: no package-level mutable state, every traversal
// function receives this type or its fields explicitly).
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stackdiac/stackd/internal/binaryfetcher"
	"github.com/stackdiac/stackd/internal/builder"
	"github.com/stackdiac/stackd/internal/merge"
	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/internal/repomanager"
	"github.com/stackdiac/stackd/internal/resolver"
	"github.com/stackdiac/stackd/internal/runner"
	"github.com/stackdiac/stackd/internal/secrets"
	"github.com/stackdiac/stackd/internal/specloader"
	"github.com/stackdiac/stackd/internal/template"
	"github.com/stackdiac/stackd/pkg/log"
)

// Stackd is the orchestrator instance: one per CLI invocation, or one per
// HTTP request for the API facade (§4.11, §9 "per-request construction").
type Stackd struct {
	Root string

	Config   model.Config
	Clusters map[string]model.Cluster
	Counters model.Counters

	Resolver    *resolver.Resolver
	RepoManager *repomanager.Manager
	Env         *template.Environment
	Secrets     *secrets.Facade // nil when the project sets no vault_address
	Runner      *runner.Runner
}

// New constructs an unconfigured orchestrator rooted at root.
func New(root string) *Stackd {
	return &Stackd{Root: root, Runner: runner.New(root)}
}

// Configure loads stackd.yaml over DefaultConfig(), builds the Resolver and
// Template Environment, enumerates and loads every cluster file, and
// initializes the Secret Facade when the project sets a vault_address. It
// returns SecretStoreUnavailable when TF_VAR_vault_token is unset (§4.4,
// §6 "STACKD_ROOT"/"TF_VAR_vault_token").
func (s *Stackd) Configure(ctx context.Context) error {
	cfg := model.DefaultConfig()

	configPath := filepath.Join(s.Root, "stackd.yaml")
	if _, err := os.Stat(configPath); err != nil {
		return &model.ConfigError{Reason: "missing stackd.yaml at " + configPath}
	}

	res := resolver.New(s.Root, cfg.Repos)
	env := template.New(res, "root")

	spec := specloader.New(configPath, env, res)
	loaded, err := specloader.ParseObjAs[model.Config](spec, nil)
	if err != nil {
		return fmt.Errorf("loading stackd.yaml: %w", err)
	}
	cfg = mergeConfig(cfg, loaded)
	s.Config = *cfg

	s.Resolver = resolver.New(s.Root, cfg.Repos)
	s.Env = template.New(s.Resolver, "root")
	s.RepoManager = repomanager.New(s.Root)

	token := os.Getenv("TF_VAR_vault_token")
	if token == "" {
		return &model.SecretStoreUnavailable{Reason: "TF_VAR_vault_token is not set"}
	}
	if cfg.Project.VaultAddress != "" {
		facade, err := secrets.New(cfg.Project.VaultAddress, token)
		if err != nil {
			return fmt.Errorf("initializing secret facade: %w", err)
		}
		s.Secrets = facade
	}

	clusters, err := s.loadClusters()
	if err != nil {
		return err
	}
	s.Clusters = clusters

	return nil
}

// mergeConfig overlays the loaded document's non-zero fields onto defaults.
func mergeConfig(defaults, loaded *model.Config) *model.Config {
	out := *defaults
	if loaded.Kind != "" {
		out.Kind = loaded.Kind
	}
	out.Project = loaded.Project
	if loaded.Vars != nil {
		out.Vars = loaded.Vars
	}
	if loaded.ClustersDir != "" {
		out.ClustersDir = loaded.ClustersDir
	}
	for name, repo := range loaded.Repos {
		if repo.Name == "" {
			repo.Name = name
		}
		out.Repos[name] = repo
	}
	if loaded.Binaries != nil {
		out.Binaries = loaded.Binaries
	}
	if loaded.Backend != nil {
		out.Backend = loaded.Backend
	}
	if loaded.Providers != nil {
		out.Providers = loaded.Providers
	}
	out.Spec = loaded.Spec
	return &out
}

// loadClusters enumerates {root}/{clusters_dir}/*.yaml, skipping files
// whose stem begins with "_", and parses each into a Cluster named from its
// file stem (§3 invariant, §6 "file-skip policy").
func (s *Stackd) loadClusters() (map[string]model.Cluster, error) {
	dir := filepath.Join(s.Root, s.Config.ClustersDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]model.Cluster{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("enumerating clusters dir: %w", err)
	}

	clusters := make(map[string]model.Cluster, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".yaml")
		if strings.HasPrefix(stem, "_") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		spec := specloader.New(path, s.Env, s.Resolver)
		cluster, err := specloader.ParseObjAs[model.Cluster](spec, map[string]any{"vars": s.Config.Vars})
		if err != nil {
			return nil, fmt.Errorf("loading cluster %s: %w", stem, err)
		}
		cluster.Name = stem
		clusters[stem] = *cluster
	}
	return clusters, nil
}

// loadStack resolves and parses a cluster-stack's source document.
func (s *Stackd) loadStack(cluster model.Cluster, clusterStackKey string) (model.ClusterStack, model.Stack, error) {
	cs, ok := cluster.Stacks[clusterStackKey]
	if !ok {
		return model.ClusterStack{}, model.Stack{}, &model.NotFound{Kind: "stack", Name: clusterStackKey}
	}

	path, _, err := s.Resolver.ResolveStackPath(cs.StackSource(clusterStackKey))
	if err != nil {
		return cs, model.Stack{}, fmt.Errorf("resolving stack source: %w", err)
	}

	spec := specloader.New(path, s.Env, s.Resolver)
	stack, err := specloader.ParseObjAs[model.Stack](spec, map[string]any{"vars": cluster.Vars})
	if err != nil {
		return cs, model.Stack{}, fmt.Errorf("loading stack %s: %w", clusterStackKey, err)
	}
	if stack.Name == "" {
		stack.Name = clusterStackKey
	}

	if cs.Override != nil {
		for name, mod := range stack.Modules {
			if override, ok := cs.Override[name].(map[string]any); ok {
				merged, err := mergeModule(mod, override)
				if err != nil {
					return cs, model.Stack{}, err
				}
				stack.Modules[name] = merged
			}
		}
	}

	return cs, *stack, nil
}

// Build performs the depth-first cluster → cluster-stack → module
// traversal of §5, materializing every build directory via the Module
// Builder. Counters are reset at the start and stopped on completion.
func (s *Stackd) Build(ctx context.Context) error {
	s.Counters.Reset()
	defer s.Counters.Stop()

	names := make([]string, 0, len(s.Clusters))
	for name := range s.Clusters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.BuildCluster(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// BuildCluster builds every cluster-stack in the named cluster.
func (s *Stackd) BuildCluster(ctx context.Context, clusterName string) error {
	cluster, ok := s.Clusters[clusterName]
	if !ok {
		return &model.NotFound{Kind: "cluster", Name: clusterName}
	}
	s.Counters.Clusters++

	keys := make([]string, 0, len(cluster.Stacks))
	for key := range cluster.Stacks {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := s.BuildClusterStack(ctx, clusterName, key); err != nil {
			return err
		}
	}
	return nil
}

// BuildClusterStack builds every module of one cluster-stack binding and
// returns the fully-built Stack (with Modules populated from BuiltVars).
func (s *Stackd) BuildClusterStack(ctx context.Context, clusterName, clusterStackKey string) (model.Stack, error) {
	cluster, ok := s.Clusters[clusterName]
	if !ok {
		return model.Stack{}, &model.NotFound{Kind: "cluster", Name: clusterName}
	}

	cs, stack, err := s.loadStack(cluster, clusterStackKey)
	if err != nil {
		return model.Stack{}, err
	}
	s.Counters.Stacks++

	b := builder.New(builder.Context{
		Resolver:     s.Resolver,
		Env:          s.Env,
		Secrets:      s.Secrets,
		Root:         s.Root,
		BuildDir:     filepath.Join(s.Root, "build"),
		Domain:       s.Config.Project.Domain,
		ClusterName:  clusterName,
		StackName:    clusterStackKey,
		Config:       s.Config,
		Cluster:      cluster,
		ClusterStack: cs,
		Stack:        stack,
		Providers:    s.Config.Providers,
	})

	names := make([]string, 0, len(stack.Modules))
	for name := range stack.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		built, err := b.Build(ctx, name)
		if err != nil {
			return model.Stack{}, fmt.Errorf("building module %s/%s/%s: %w", clusterName, clusterStackKey, name, err)
		}
		stack.Modules[name] = built
		s.Counters.Modules++
	}

	return stack, nil
}

// RunOperation rebuilds the full tree, re-builds the target cluster-stack
// for freshness, and dispatches the named operation against its modules
// (§4.9).
func (s *Stackd) RunOperation(ctx context.Context, clusterName, clusterStackKey, operationName string) error {
	if err := s.Build(ctx); err != nil {
		return err
	}

	stack, err := s.BuildClusterStack(ctx, clusterName, clusterStackKey)
	if err != nil {
		return err
	}

	operation, ok := stack.Operations[operationName]
	if !ok {
		return &model.NotFound{Kind: "operation", Name: operationName}
	}

	log.WithField("cluster", clusterName).
		WithField("stack", clusterStackKey).
		WithField("operation", operationName).
		Info("running operation")

	return s.Runner.Run(ctx, operation, stack.Modules)
}

// Update checks out/refreshes every configured repo, installs their
// manifests, and fetches pinned binaries (§4.2, §4.3).
func (s *Stackd) Update(ctx context.Context) error {
	for _, repo := range s.Config.Repos {
		if err := s.RepoManager.Checkout(ctx, repo); err != nil {
			return fmt.Errorf("checking out repo %s: %w", repo.Name, err)
		}
		if err := s.RepoManager.Install(repo); err != nil {
			return fmt.Errorf("installing repo %s: %w", repo.Name, err)
		}
	}

	fetcher := binaryfetcher.New(s.Root)
	return fetcher.FetchAll(ctx, s.Config.Binaries)
}

// mergeModule applies a cluster-stack's override map onto a single module
// definition (ClusterStack.Override, §3). Only the "vars" key is merged, into
// Module.Vars; other keys of the override map are ignored.
func mergeModule(mod model.Module, override map[string]any) (model.Module, error) {
	if vars, ok := override["vars"].(map[string]any); ok {
		merged, err := merge.Merge(mod.Vars, vars)
		if err != nil {
			return mod, err
		}
		mod.Vars = merged
	}
	return mod, nil
}
