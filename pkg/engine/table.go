package engine

import (
	"time"
)

// ColumnType is the declared type of a table column.
type ColumnType string

const (
	// ColInt - integer column
	ColInt ColumnType = "int"

	// ColFloat - floating point column
	ColFloat ColumnType = "float"

	// ColString - text column
	ColString ColumnType = "string"

	// ColBool - boolean column
	ColBool ColumnType = "bool"
)

// Column is a single column declaration.
type Column struct {
	Name string     `json:"name" yaml:"name"`
	Type ColumnType `json:"type" yaml:"type"`
}

// Table describes one relational table. The column order is the declaration order.
type Table struct {
	Name      string    `json:"name"`
	Columns   []Column  `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// hasColumn reports whether the table declares the given column.
func (t *Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Row is a record as observed by a transaction.
type Row struct {
	RecordID uint64                 `json:"record_id"`
	Values   map[string]interface{} `json:"values"`
}
