package domain

import (
	"fmt"
	"strings"
)

// BaseAlias is the table alias of the data source's own table in generated SQL.
const BaseAlias = "src"

// QuoteIdent quotes a SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedColumn renders alias.column with both parts quoted.
func QualifiedColumn(alias, column string) string {
	return QuoteIdent(alias) + "." + QuoteIdent(column)
}

// JoinClause is one LEFT JOIN against a dictionary table. Two clauses are the
// same join exactly when they compare equal.
type JoinClause struct {
	Table       string `json:"table"`
	Alias       string `json:"alias"`
	OnColumn    string `json:"on_column"`
	LocalColumn string `json:"local_column"`
}

// NewJoin builds the join of table on table.onColumn = base.localColumn. The
// alias depends only on table and local column; the table length prefix keeps
// distinct pairs such as (a_b, c) and (a, b_c) apart.
func NewJoin(table, onColumn, localColumn string) JoinClause {
	return JoinClause{
		Table:       table,
		Alias:       fmt.Sprintf("j%d_%s_%s", len(table), table, localColumn),
		OnColumn:    onColumn,
		LocalColumn: localColumn,
	}
}

// SQL renders the LEFT JOIN clause.
func (j JoinClause) SQL() string {
	return fmt.Sprintf("LEFT JOIN %s AS %s ON %s = %s",
		QuoteIdent(j.Table), QuoteIdent(j.Alias),
		QualifiedColumn(j.Alias, j.OnColumn), QualifiedColumn(BaseAlias, j.LocalColumn))
}

// SQLFragment is a parameterized boolean expression plus the joins it needs.
type SQLFragment struct {
	SQL    string        `json:"sql"`
	Params []interface{} `json:"params"`
	Joins  []JoinClause  `json:"joins,omitempty"`
}

// JoinSet accumulates joins in first-seen order without duplicates.
type JoinSet struct {
	joins []JoinClause
}

// Add appends j unless an identical join is already present.
func (s *JoinSet) Add(joins ...JoinClause) {
	for _, j := range joins {
		dup := false
		for _, existing := range s.joins {
			if existing == j {
				dup = true
				break
			}
		}
		if !dup {
			s.joins = append(s.joins, j)
		}
	}
}

// Joins returns the accumulated joins.
func (s *JoinSet) Joins() []JoinClause { return s.joins }
