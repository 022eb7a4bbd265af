// Package schema generates JSON Schema documents for stackd's data model
// (§4.13).
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/stackdiac/stackd/internal/model"
)

// document is a synthetic root whose fields pull Cluster, Stack and Module
// into the reflector's $defs alongside Config, so a single schema document
// describes the whole data model (§3).
type document struct {
	Config  model.Config  `json:"config"`
	Cluster model.Cluster `json:"cluster"`
	Stack   model.Stack   `json:"stack"`
	Module  model.Module  `json:"module"`
}

// Generate returns the combined JSON Schema for Config, Cluster, Stack and
// Module, reflected via invopop/jsonschema.
func Generate() (string, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:             true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}

	schema := r.Reflect(&document{})
	schema.ID = "https://github.com/stackdiac/stackd/raw/main/stackd.schema.json"
	schema.Title = "stackd data model"
	schema.Description = "Schema for stackd's Config, Cluster, Stack and Module documents"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
