// Package backend composes remote-state backend configuration across five
// scopes (§4.8).
package backend

import (
	"github.com/stackdiac/stackd/internal/merge"
	"github.com/stackdiac/stackd/internal/model"
)

// Compose builds the effective backend for a module: an initial
// {config: {key: "{cluster}/{stack}-{module}"}}, overlaid in order by
// project, cluster, cluster-stack, stack and module backends when present.
func Compose(cluster, stack, module string, scopes ...*model.Backend) (model.Backend, error) {
	effective := model.Backend{
		Config: map[string]any{
			"key": cluster + "/" + stack + "-" + module,
		},
	}

	for _, scope := range scopes {
		if scope == nil {
			continue
		}
		if scope.Name != "" {
			effective.Name = scope.Name
		}
		if len(scope.Config) > 0 {
			merged, err := merge.Merge(effective.Config, scope.Config)
			if err != nil {
				return model.Backend{}, err
			}
			effective.Config = merged
		}
	}

	return effective, nil
}
