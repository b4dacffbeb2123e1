package catalog

import (
	"strings"

	"github.com/pg-sharding/shardplan/pkg/models/statement"
)

type Resolution int

const (
	Resolved = Resolution(iota)
	Ambiguous
	Unknown
)

// Scope is one level of the lexical scope chain of a statement. Inner scopes
// (subqueries) see outer ones through Parent; outer scopes never see inner.
type Scope struct {
	Parent  *Scope
	Tables  []statement.TableRef
	Catalog *ColumnCatalog

	caseSensitive bool
}

func NewScope(parent *Scope, tables []statement.TableRef, md TableMetadata, caseSensitive bool) *Scope {
	return &Scope{
		Parent:        parent,
		Tables:        tables,
		Catalog:       NewColumnCatalog(tables, md, caseSensitive),
		caseSensitive: caseSensitive,
	}
}

func (s *Scope) same(a, b string) bool {
	if s.caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

// ResolveOwner maps an alias or table name to a table of the scope chain.
// Aliases shadow table names, and inner scopes shadow outer ones.
func (s *Scope) ResolveOwner(owner string) (string, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		for _, t := range sc.Tables {
			if t.Alias != "" && sc.same(t.Alias, owner) {
				return t.Name, true
			}
		}
		for _, t := range sc.Tables {
			if t.Alias == "" && sc.same(t.Name, owner) {
				return t.Name, true
			}
		}
	}
	return "", false
}

// ResolveColumn finds the table owning ref. A bare name binds in the innermost
// scope that knows it, and only when exactly one table there has it.
func (s *Scope) ResolveColumn(ref statement.ColumnRef) (string, Resolution) {
	if ref.Owner != "" {
		table, ok := s.ResolveOwner(ref.Owner)
		if !ok {
			return "", Unknown
		}
		return table, Resolved
	}
	for sc := s; sc != nil; sc = sc.Parent {
		owner, count := sc.Catalog.Lookup(ref.Name)
		switch {
		case count == 1:
			return owner, Resolved
		case count > 1:
			return "", Ambiguous
		}
	}
	return "", Unknown
}
