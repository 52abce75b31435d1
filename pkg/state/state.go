package state

import (
	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/log"
	"github.com/cuemby/leech/pkg/storage"
	"github.com/cuemby/leech/pkg/table"
	"github.com/cuemby/leech/pkg/wire"
)

// State is a snapshot of every configured table at a point in time.
type State struct {
	Tables map[string]*table.Table
}

// Compute reads every configured data source into a fresh snapshot.
func Compute(cfg *config.Config) (*State, error) {
	st := &State{Tables: make(map[string]*table.Table, len(cfg.Tables))}
	for name, tc := range cfg.Tables {
		t, err := table.Read(name, tc, cfg.WorkDir)
		if err != nil {
			return nil, err
		}
		st.Tables[name] = t
	}
	return st, nil
}

// Load decodes the persisted snapshot, if one exists.
func Load(s storage.Store) (*State, bool, error) {
	data, found, err := s.Load(storage.StateName)
	if err != nil || !found {
		return nil, false, err
	}
	w, err := wire.DecodeState(data)
	if err != nil {
		return nil, false, &storage.CorruptError{Name: storage.StateName, Err: err}
	}
	st := FromWire(w)
	log.Logger.Debug().Int("tables", len(st.Tables)).Msg("Loaded previous state")
	return st, true, nil
}

// Store persists the snapshot under the fixed STATE name, replacing any
// previous snapshot.
func (st *State) Store(s storage.Store) error {
	if err := s.Store(storage.StateName, wire.EncodeState(st.Wire())); err != nil {
		return err
	}
	log.Logger.Info().Msg("Stored current state")
	return nil
}

// Wire converts the snapshot to its wire message.
func (st *State) Wire() *wire.State {
	w := &wire.State{Tables: make([]wire.Table, 0, len(st.Tables))}
	for name, t := range st.Tables {
		wt := wire.Table{
			Name:       name,
			Fields:     t.Fields,
			NumPrimary: uint32(t.NumPrimary),
			Rows:       make([]wire.Entry, 0, len(t.Records)),
		}
		for key, value := range t.Records {
			wt.Rows = append(wt.Rows, wire.Entry{Key: table.KeyParts(key), Value: value})
		}
		w.Tables = append(w.Tables, wt)
	}
	return w
}

// FromWire rebuilds a snapshot from its wire message.
func FromWire(w *wire.State) *State {
	st := &State{Tables: make(map[string]*table.Table, len(w.Tables))}
	for i := range w.Tables {
		wt := &w.Tables[i]
		t := &table.Table{
			Fields:     wt.Fields,
			NumPrimary: int(wt.NumPrimary),
			Records:    make(map[string][]string, len(wt.Rows)),
		}
		for j := range wt.Rows {
			t.Records[table.KeyOf(wt.Rows[j].Key)] = wt.Rows[j].Value
		}
		st.Tables[wt.Name] = t
	}
	return st
}
