package statement_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pg-sharding/shardplan/pkg/models/sharding"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/stretchr/testify/assert"
)

func TestExprKind(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(statement.ExprLiteral, statement.Lit(1).Kind())
	assert.Equal(statement.ExprLiteral, statement.Lit(nil).Kind())
	assert.Equal(statement.ExprParam, statement.Param(0).Kind())
	assert.Equal(statement.ExprColumn, statement.Col("o", "user_id").Kind())
	assert.Equal(statement.ExprOpaque, statement.Opaque("now()").Kind())
}

func TestKindClassification(t *testing.T) {
	assert := assert.New(t)

	assert.True(statement.Select.IsDML())
	assert.True(statement.Cursor.IsDML())
	assert.True(statement.Cursor.IsRead())
	assert.False(statement.Update.IsRead())
	assert.False(statement.DDL.IsDML())
}

func TestTableNamesDeduplicates(t *testing.T) {
	stmt := &statement.Statement{Tables: []statement.TableRef{
		{Name: "t_order", Alias: "o"},
		{Name: "T_ORDER", Alias: "o2"},
		{Name: "t_order_item"},
	}}
	assert.Equal(t, []string{"t_order", "t_order_item"}, stmt.TableNames(false))
	assert.Equal(t, []string{"t_order", "T_ORDER", "t_order_item"}, stmt.TableNames(true))
}

func TestLoadStatement(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "stmt.yaml")
	body := `
kind: SELECT
tables:
  - name: t_order
    alias: o
where:
  - - column: {owner: o, name: user_id}
      operator: in
      values:
        - literal: 1
        - param: 0
    - column: {name: status}
      operator: "="
      values:
        - opaque: lower('x')
order_by:
  - name: order_id
    direction: desc
parameters: [10]
`
	assert.NoError(os.WriteFile(path, []byte(body), 0600))

	stmt, err := statement.LoadStatement(path)
	assert.NoError(err)
	assert.Equal(statement.Select, stmt.Kind)
	assert.Equal("o", stmt.Tables[0].Alias)
	assert.Len(stmt.Where, 1)
	assert.Len(stmt.Where[0], 2)
	assert.Equal(sharding.OperatorIn, stmt.Where[0][0].Operator)
	assert.Equal(statement.ExprParam, stmt.Where[0][0].Values[1].Kind())
	assert.Equal(statement.ExprOpaque, stmt.Where[0][1].Values[0].Kind())
	assert.True(stmt.OrderBy[0].IsDesc())
	assert.Equal([]any{10}, stmt.Parameters)
}
