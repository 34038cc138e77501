package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCheck(t *testing.T) {
	tests := []struct {
		name   string
		schema SchemaFunc
		want   Status
		detail string
	}{
		{
			name:   "current",
			schema: func(context.Context) (int, int, error) { return 2, 2, nil },
			want:   StatusPass,
			detail: "schema v2",
		},
		{
			name:   "behind",
			schema: func(context.Context) (int, int, error) { return 1, 2, nil },
			want:   StatusWarn,
			detail: "schema v1, v2 available",
		},
		{
			name:   "unreadable",
			schema: func(context.Context) (int, int, error) { return 0, 0, errors.New("file is not a database") },
			want:   StatusFail,
			detail: "file is not a database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewSchemaCheck("/data/ordernotify.db", tt.schema).Run(context.Background())

			assert.Equal(t, "Database", result.Name)
			require.Len(t, result.Items, 1)
			assert.Equal(t, "/data/ordernotify.db", result.Items[0].Label)
			assert.Equal(t, tt.want, result.Items[0].Status)
			assert.Contains(t, result.Items[0].Detail, tt.detail)
		})
	}
}
