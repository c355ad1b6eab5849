package test

import (
	"github.com/icehousedb/icehouse/pkg/engine"
)

var (
	// TestTable - default table name used across tests
	TestTable = "users"

	// TestColumns - default column set used across tests
	TestColumns = []engine.Column{
		{Name: "name", Type: engine.ColString},
		{Name: "age", Type: engine.ColInt},
		{Name: "active", Type: engine.ColBool},
	}

	// TestRows - test data
	TestRows = []map[string]interface{}{
		{"name": "Alice", "age": 34, "active": true},
		{"name": "Bob", "age": 27, "active": false},
		{"name": "Carol", "age": 41, "active": true},
		{"name": "Dave", "age": 19, "active": true},
		{"name": "Eve", "age": 52, "active": false},
	}
)

// NewTestEngine creates an engine with the default test table already in the catalog.
func NewTestEngine() *engine.Engine {
	e := engine.New()
	if err := e.CreateTable(TestTable, TestColumns); err != nil {
		panic(err)
	}
	return e
}
