package engine

import (
	"sort"
	"time"

	"github.com/icehousedb/icehouse/pkg/mvcc"
	log "github.com/sirupsen/logrus"
)

// State is the serializable form of a whole engine: the table catalog with
// every version chain, plus the transaction registry. It is what a
// persistence layer saves and restores; the engine itself defines no on-disk
// format.
type State struct {
	SavedAt  time.Time     `json:"saved_at"`
	Registry RegistryState `json:"registry"`
	Tables   []TableState  `json:"tables"`
}

// RegistryState captures the id allocator and every transaction record.
type RegistryState struct {
	NextTxnID    uint64           `json:"next_txn_id"`
	Transactions []mvcc.TxnRecord `json:"transactions"`
}

// TableState captures one table's definition and version chains.
type TableState struct {
	Table  Table        `json:"table"`
	Chains []ChainState `json:"chains"`
}

// ChainState captures the version history of one record in creation order.
type ChainState struct {
	RecordID uint64         `json:"record_id"`
	Versions []mvcc.Version `json:"versions"`
}

// StateSnapshot returns a point-in-time copy of the engine state.
func (e *Engine) StateSnapshot() *State {
	nextID, txns := e.reg.Export()

	e.mu.RLock()
	defer e.mu.RUnlock()

	state := &State{
		SavedAt: time.Now(),
		Registry: RegistryState{
			NextTxnID:    nextID,
			Transactions: txns,
		},
	}
	for _, table := range e.tableNamesLocked() {
		ts := e.tables[table]
		tstate := TableState{Table: ts.def}
		for _, recordID := range ts.store.RecordIDs() {
			tstate.Chains = append(tstate.Chains, ChainState{
				RecordID: recordID,
				Versions: ts.store.ChainOf(recordID),
			})
		}
		state.Tables = append(state.Tables, tstate)
	}

	log.WithFields(log.Fields{"tables": len(state.Tables), "transactions": len(txns)}).Info("engine::state::StateSnapshot; captured")
	return state
}

// RestoreState replaces the engine's contents with a previously captured
// state. Transactions that were active at capture time come back aborted;
// their versions stay chain-resident but invisible. Must not run concurrently
// with other engine operations.
func (e *Engine) RestoreState(state *State) error {
	reg, err := mvcc.RestoreRegistry(state.Registry.NextTxnID, state.Registry.Transactions)
	if err != nil {
		return err
	}

	tables := make(map[string]*tableState, len(state.Tables))
	for _, tstate := range state.Tables {
		store := mvcc.NewStore(tstate.Table.Name)
		var maxID uint64
		for _, cs := range tstate.Chains {
			for _, v := range cs.Versions {
				store.Append(cs.RecordID, v)
			}
			if cs.RecordID > maxID {
				maxID = cs.RecordID
			}
		}
		store.SetNextRecordID(maxID)
		tables[tstate.Table.Name] = &tableState{def: tstate.Table, store: store}
	}

	e.mu.Lock()
	e.tables = tables
	e.mu.Unlock()

	e.reg = reg
	e.resolver = mvcc.NewResolver(reg)
	e.applier = mvcc.NewApplier(reg)

	log.WithFields(log.Fields{"tables": len(tables), "transactions": len(state.Registry.Transactions)}).Info("engine::state::RestoreState; restored")
	return nil
}

// tableNamesLocked returns the catalog names sorted. Callers hold e.mu.
func (e *Engine) tableNamesLocked() []string {
	names := make([]string, 0, len(e.tables))
	for name := range e.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
