/**
 * Copyright 2023 The Icehouse Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/icehousedb/icehouse/internal/common"
	"github.com/icehousedb/icehouse/pkg/mvcc"
	log "github.com/sirupsen/logrus"
)

// Engine is the explicit context object owning the transaction registry, the
// table catalog and every version store partition. There is no hidden global
// state: independent engines are fully isolated, which is what tests rely on.
//
// Callers issue structured operations; readers go through the visibility
// resolver, writers through the mutation applier, and commit through the
// registry's conflict validation.
type Engine struct {
	reg      *mvcc.Registry
	resolver *mvcc.Resolver
	applier  *mvcc.Applier

	mu     sync.RWMutex
	tables map[string]*tableState
}

type tableState struct {
	def   Table
	store *mvcc.Store
}

// New creates an empty engine.
func New() *Engine {
	reg := mvcc.NewRegistry()
	return &Engine{
		reg:      reg,
		resolver: mvcc.NewResolver(reg),
		applier:  mvcc.NewApplier(reg),
		tables:   make(map[string]*tableState),
	}
}

// Begin starts a transaction under the named isolation level and returns its id.
func (e *Engine) Begin(isolation string) (uint64, error) {
	level, err := mvcc.ParseIsolationLevel(isolation)
	if err != nil {
		return 0, err
	}
	txn, err := e.reg.Begin(level)
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"txnID": txn.ID(), "isolation": level.String()}).Info("engine::engine::Begin; transaction started")
	return txn.ID(), nil
}

// Commit commits the transaction. A SerializationConflictError means the
// transaction lost a write-write race and is now aborted.
func (e *Engine) Commit(txnID uint64) error {
	err := e.reg.Commit(txnID)
	if err != nil {
		log.WithFields(log.Fields{"txnID": txnID, "err": err}).Error("engine::engine::Commit; commit failed")
		return err
	}
	log.WithFields(log.Fields{"txnID": txnID}).Info("engine::engine::Commit; committed")
	return nil
}

// Rollback aborts the transaction immediately. Every version it created
// becomes permanently invisible.
func (e *Engine) Rollback(txnID uint64) error {
	err := e.reg.Rollback(txnID)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"txnID": txnID}).Info("engine::engine::Rollback; rolled back")
	return nil
}

// RegistryView returns the live transaction-state feed for monitoring.
func (e *Engine) RegistryView() mvcc.RegistryView {
	return e.reg.View()
}

// CreateTable adds a table to the catalog.
func (e *Engine) CreateTable(name string, columns []Column) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.tables[name]; ok {
		return common.NewTableExistsError(fmt.Sprintf("table %s already exists", name))
	}
	e.tables[name] = &tableState{
		def: Table{
			Name:      name,
			Columns:   columns,
			CreatedAt: time.Now(),
		},
		store: mvcc.NewStore(name),
	}
	log.WithFields(log.Fields{"table": name, "columns": len(columns)}).Info("engine::engine::CreateTable; created")
	return nil
}

// DropTable removes a table and its version chains from the catalog.
func (e *Engine) DropTable(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.tables[name]; !ok {
		return common.NewTableNotFoundError(fmt.Sprintf("table %s does not exist", name))
	}
	delete(e.tables, name)
	log.WithFields(log.Fields{"table": name}).Info("engine::engine::DropTable; dropped")
	return nil
}

// Tables lists the catalog sorted by table name.
func (e *Engine) Tables() []Table {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Table, 0, len(e.tables))
	for _, ts := range e.tables {
		out = append(out, ts.def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Insert creates a record with an auto-allocated record id and returns the id.
func (e *Engine) Insert(txnID uint64, table string, values map[string]interface{}) (uint64, error) {
	ts, err := e.tableState(table)
	if err != nil {
		return 0, err
	}
	if err := e.validateColumns(ts, values); err != nil {
		return 0, err
	}
	txn, err := e.transaction(txnID)
	if err != nil {
		return 0, err
	}

	recordID := ts.store.NextRecordID()
	if err := e.applier.Insert(txn, ts.store, recordID, values); err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"txnID": txnID, "table": table, "recordID": recordID}).Info("engine::engine::Insert; inserted")
	return recordID, nil
}

// InsertWithID creates a record under a caller-chosen record id.
func (e *Engine) InsertWithID(txnID uint64, table string, recordID uint64, values map[string]interface{}) error {
	ts, err := e.tableState(table)
	if err != nil {
		return err
	}
	if err := e.validateColumns(ts, values); err != nil {
		return err
	}
	txn, err := e.transaction(txnID)
	if err != nil {
		return err
	}

	if err := e.applier.Insert(txn, ts.store, recordID, values); err != nil {
		return err
	}
	ts.store.SetNextRecordID(recordID)
	log.WithFields(log.Fields{"txnID": txnID, "table": table, "recordID": recordID}).Info("engine::engine::InsertWithID; inserted")
	return nil
}

// Read returns every row visible to the transaction that matches the
// predicate, in record-id order.
func (e *Engine) Read(txnID uint64, table string, pred *Predicate) ([]Row, error) {
	ts, err := e.tableState(table)
	if err != nil {
		return nil, err
	}
	txn, err := e.transaction(txnID)
	if err != nil {
		return nil, err
	}

	rows := []Row{}
	for _, recordID := range ts.store.RecordIDs() {
		v, ok := e.resolver.VisibleVersion(txn, ts.store, recordID)
		if !ok {
			continue
		}
		if !pred.Matches(v.Values) {
			continue
		}
		values := make(map[string]interface{}, len(v.Values))
		for k, val := range v.Values {
			values[k] = val
		}
		rows = append(rows, Row{RecordID: recordID, Values: values})
	}
	return rows, nil
}

// Update rewrites the matching visible rows with the given column values and
// returns the affected count. Targets are selected under the transaction's
// own isolation level; each individual write still acts on the latest
// committed state via the applier.
func (e *Engine) Update(txnID uint64, table string, set map[string]interface{}, pred *Predicate) (int, error) {
	ts, err := e.tableState(table)
	if err != nil {
		return 0, err
	}
	if err := e.validateColumns(ts, set); err != nil {
		return 0, err
	}
	txn, err := e.transaction(txnID)
	if err != nil {
		return 0, err
	}

	affected := 0
	for _, recordID := range ts.store.RecordIDs() {
		v, ok := e.resolver.VisibleVersion(txn, ts.store, recordID)
		if !ok || !pred.Matches(v.Values) {
			continue
		}

		merged := make(map[string]interface{}, len(v.Values)+len(set))
		for k, val := range v.Values {
			merged[k] = val
		}
		for k, val := range set {
			merged[k] = val
		}

		if err := e.applier.Update(txn, ts.store, recordID, merged); err != nil {
			return affected, err
		}
		affected++
	}
	log.WithFields(log.Fields{"txnID": txnID, "table": table, "affected": affected}).Info("engine::engine::Update; done")
	return affected, nil
}

// Delete marks the matching visible rows deleted and returns the affected count.
func (e *Engine) Delete(txnID uint64, table string, pred *Predicate) (int, error) {
	ts, err := e.tableState(table)
	if err != nil {
		return 0, err
	}
	txn, err := e.transaction(txnID)
	if err != nil {
		return 0, err
	}

	affected := 0
	for _, recordID := range ts.store.RecordIDs() {
		v, ok := e.resolver.VisibleVersion(txn, ts.store, recordID)
		if !ok || !pred.Matches(v.Values) {
			continue
		}
		if err := e.applier.Delete(txn, ts.store, recordID); err != nil {
			return affected, err
		}
		affected++
	}
	log.WithFields(log.Fields{"txnID": txnID, "table": table, "affected": affected}).Info("engine::engine::Delete; done")
	return affected, nil
}

func (e *Engine) tableState(name string) (*tableState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ts, ok := e.tables[name]
	if !ok {
		return nil, common.NewTableNotFoundError(fmt.Sprintf("table %s does not exist", name))
	}
	return ts, nil
}

func (e *Engine) transaction(txnID uint64) (*mvcc.Transaction, error) {
	txn, ok := e.reg.Get(txnID)
	if !ok {
		return nil, common.NewInvalidTransactionError(fmt.Sprintf("unknown transaction %d", txnID))
	}
	if txn.Status() != mvcc.TxnActive {
		return nil, common.NewInvalidTransactionError(fmt.Sprintf("operation on %s transaction %d", txn.Status(), txnID))
	}
	return txn, nil
}

func (e *Engine) validateColumns(ts *tableState, values map[string]interface{}) error {
	for col := range values {
		if !ts.def.hasColumn(col) {
			return common.NewUnknownColumnError(fmt.Sprintf("table %s has no column %s", ts.def.Name, col))
		}
	}
	return nil
}
