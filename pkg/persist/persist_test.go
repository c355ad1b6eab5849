package persist

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/icehousedb/icehouse/pkg/engine"
	"github.com/icehousedb/icehouse/test"
	"github.com/stretchr/testify/assert"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "icehousetesting")
	assert.Nil(t, err, "Unexpected error while creating temp dir")
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "state.json")

	e := test.NewTestEngine()
	txn, err := e.Begin("READ_COMMITTED")
	assert.Nil(t, err, "Unexpected error while beginning a txn")
	for _, row := range test.TestRows {
		_, err := e.Insert(txn, test.TestTable, row)
		assert.Nil(t, err, "Unexpected error while inserting")
	}
	assert.Nil(t, e.Commit(txn), "Unexpected error while committing")

	assert.False(t, Exists(path), "state file must not exist before save")
	assert.Nil(t, Save(path, e), "Unexpected error while saving")
	assert.True(t, Exists(path), "state file must exist after save")

	restored := engine.New()
	assert.Nil(t, Load(path, restored), "Unexpected error while loading")

	reader, err := restored.Begin("READ_COMMITTED")
	assert.Nil(t, err, "Unexpected error while beginning on restored engine")
	rows, err := restored.Read(reader, test.TestTable, nil)
	assert.Nil(t, err, "Unexpected error while reading restored table")
	assert.Len(t, rows, len(test.TestRows), "every committed row must survive the roundtrip")
	assert.Equal(t, "Alice", rows[0].Values["name"], "unexpected restored row")
}

func TestLoadMissingFile(t *testing.T) {
	e := engine.New()
	err := Load("/nonexistent/state.json", e)
	assert.NotNil(t, err, "expected error loading a missing file")
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "icehousetesting")
	assert.Nil(t, err, "Unexpected error while creating temp dir")
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "state.json")

	assert.Nil(t, Save(path, engine.New()), "Unexpected error while saving")

	entries, err := ioutil.ReadDir(dir)
	assert.Nil(t, err, "Unexpected error while listing dir")
	assert.Len(t, entries, 1, "only the state file itself should remain")
}
