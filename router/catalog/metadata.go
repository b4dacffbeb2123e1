package catalog

import "strings"

//go:generate mockgen -source=metadata.go -destination=../mock/catalog/mock_metadata.go -package=mock

// TableMetadata answers which columns a logic table has.
type TableMetadata interface {
	Columns(table string) ([]string, bool)
}

// StaticMetadata is a TableMetadata backed by a fixed table -> columns map,
// typically the metadata section of the configuration.
type StaticMetadata struct {
	tables map[string][]string
}

var _ TableMetadata = &StaticMetadata{}

func NewStaticMetadata(tables map[string][]string) *StaticMetadata {
	m := &StaticMetadata{tables: make(map[string][]string, len(tables))}
	for name, cols := range tables {
		m.tables[strings.ToLower(name)] = cols
	}
	return m
}

func (m *StaticMetadata) Columns(table string) ([]string, bool) {
	cols, ok := m.tables[strings.ToLower(table)]
	return cols, ok
}
