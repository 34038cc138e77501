package doctor

import (
	"context"
	"fmt"
)

// SchemaFunc reports the applied and newest known schema versions.
type SchemaFunc func(ctx context.Context) (current, latest int, err error)

// SchemaCheck verifies the device database is migrated.
type SchemaCheck struct {
	path   string
	schema SchemaFunc
}

func NewSchemaCheck(path string, schema SchemaFunc) *SchemaCheck {
	return &SchemaCheck{path: path, schema: schema}
}

func (c *SchemaCheck) Name() string { return "Database" }

func (c *SchemaCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	current, latest, err := c.schema(ctx)
	switch {
	case err != nil:
		result.add(c.path, StatusFail, err.Error())
	case current < latest:
		result.add(c.path, StatusWarn, fmt.Sprintf("schema v%d, v%d available; restart to migrate", current, latest))
	default:
		result.add(c.path, StatusPass, fmt.Sprintf("schema v%d", current))
	}

	return result
}
