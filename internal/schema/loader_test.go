package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashquery/internal/domain"
)

func TestLoadDirectory(t *testing.T) {
	schemas, err := LoadDirectory("testdata")
	require.NoError(t, err)
	require.Len(t, schemas, 2)

	assert.Equal(t, "a010_warehouse", schemas[0].ID)
	stock := schemas[1]
	assert.Equal(t, "stock_balance", stock.TableName())

	ref, ok := stock.Field("warehouse_ref")
	require.True(t, ok)
	assert.Equal(t, domain.Ref("a010_warehouse"), ref.ValueType)
	assert.True(t, ref.CanGroup)
	assert.Equal(t, "id", ref.JoinOnColumn)

	reg, err := NewRegistry(append(Builtin(), schemas...)...)
	require.NoError(t, err)
	assert.Equal(t, 5, reg.Len())
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown key",
			content: "apiVersion: dashquery/v1\nkind: DataSource\nspec:\n  id: x\n  colour: red\n",
			wantErr: "colour",
		},
		{
			name:    "wrong kind",
			content: "apiVersion: dashquery/v1\nkind: Dashboard\nspec:\n  id: x\n",
			wantErr: "unexpected kind",
		},
		{
			name:    "wrong api version",
			content: "apiVersion: v2\nkind: DataSource\nspec:\n  id: x\n",
			wantErr: "unsupported apiVersion",
		},
		{
			name:    "bad value type",
			content: "apiVersion: dashquery/v1\nkind: DataSource\nspec:\n  id: x\n  fields:\n    - id: a\n      db_column: a\n      value_type: money\n",
			wantErr: "money",
		},
		{
			name:    "invalid schema",
			content: "apiVersion: dashquery/v1\nkind: DataSource\nspec:\n  id: x\n  fields:\n    - id: a\n      db_column: a\n      value_type: text\n      can_aggregate: true\n",
			wantErr: "only integer and numeric",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "schema.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadDirectory_NotADirectory(t *testing.T) {
	_, err := LoadDirectory(filepath.Join("testdata", "warehouse.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
