package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"oracle-node/modules"

	dbm "github.com/tendermint/tm-db"
)

var ErrNotFound = errors.New("not found")

var (
	stateKey      = []byte("state")
	metaKey       = []byte("meta")
	queryPrefix   = []byte("query/")
	accountPrefix = []byte("account/")
)

// Meta describes the last committed block.
type Meta struct {
	Height  int64
	AppHash []byte
}

// Store persists committed oracle state. The whole state is kept under a
// single key for restarts, and every query and account is also kept as its
// own record so readers can address them directly.
type Store struct {
	db dbm.DB
	// synced is set while the records on disk match the last saved state.
	synced bool
}

func New(db dbm.DB) *Store {
	return &Store{db: db}
}

func queryKey(id string) []byte {
	return append(append([]byte{}, queryPrefix...), id...)
}

func accountKey(address string) []byte {
	return append(append([]byte{}, accountPrefix...), address...)
}

// prefixEnd returns the first key after every key starting with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	end[len(end)-1]++
	return end
}

// Save writes the state committed at height. previous is the state of the
// preceding commit, used to skip unchanged queries and drop emptied accounts;
// it may be nil. It is only trusted after a successful Save, otherwise every
// record is rewritten.
func (store *Store) Save(meta Meta, previous, current *modules.Oracle) error {
	if !store.synced {
		previous = nil
	}
	store.synced = false
	batch := store.db.NewBatch()
	defer batch.Close()

	state, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	batch.Set(stateKey, state)

	for id, query := range current.Queries {
		record, err := json.Marshal(query)
		if err != nil {
			return fmt.Errorf("encode query %s: %w", id, err)
		}
		if previous != nil {
			if old, ok := previous.Queries[id]; ok {
				oldRecord, err := json.Marshal(old)
				if err == nil && bytes.Equal(oldRecord, record) {
					continue
				}
			}
		}
		batch.Set(queryKey(id), record)
	}

	for address, account := range current.Bank.Accounts {
		record, err := json.Marshal(account)
		if err != nil {
			return fmt.Errorf("encode account %s: %w", address, err)
		}
		batch.Set(accountKey(address), record)
	}
	stale, err := store.staleAccounts(previous, current)
	if err != nil {
		return err
	}
	for _, address := range stale {
		batch.Delete(accountKey(address))
	}

	metaRecord, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	batch.Set(metaKey, metaRecord)
	if err := batch.WriteSync(); err != nil {
		return err
	}
	store.synced = true
	return nil
}

// staleAccounts lists the stored accounts that current no longer holds. The
// stored records are scanned when there is no trusted previous state.
func (store *Store) staleAccounts(previous, current *modules.Oracle) ([]string, error) {
	var stale []string
	if previous != nil {
		for address := range previous.Bank.Accounts {
			if _, ok := current.Bank.Accounts[address]; !ok {
				stale = append(stale, address)
			}
		}
		return stale, nil
	}
	iterator, err := store.db.Iterator(accountPrefix, prefixEnd(accountPrefix))
	if err != nil {
		return nil, err
	}
	defer iterator.Close()
	for ; iterator.Valid(); iterator.Next() {
		address := string(iterator.Key()[len(accountPrefix):])
		if _, ok := current.Bank.Accounts[address]; !ok {
			stale = append(stale, address)
		}
	}
	return stale, iterator.Error()
}

func (store *Store) get(key []byte, value interface{}) error {
	record, err := store.db.Get(key)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrNotFound
	}
	return json.Unmarshal(record, value)
}

// Load returns the last committed state, or ErrNotFound on a fresh database.
// The returned oracle has no registry attached.
func (store *Store) Load() (Meta, *modules.Oracle, error) {
	var meta Meta
	if err := store.get(metaKey, &meta); err != nil {
		return Meta{}, nil, err
	}
	oracle := &modules.Oracle{}
	if err := store.get(stateKey, oracle); err != nil {
		return Meta{}, nil, err
	}
	return meta, oracle, nil
}

func (store *Store) Meta() (Meta, error) {
	var meta Meta
	err := store.get(metaKey, &meta)
	return meta, err
}

func (store *Store) Query(id string) (*modules.Query, error) {
	query := &modules.Query{}
	if err := store.get(queryKey(id), query); err != nil {
		return nil, err
	}
	return query, nil
}

// Queries returns every stored query ordered by id.
func (store *Store) Queries() ([]*modules.Query, error) {
	iterator, err := store.db.Iterator(queryPrefix, prefixEnd(queryPrefix))
	if err != nil {
		return nil, err
	}
	defer iterator.Close()
	var queries []*modules.Query
	for ; iterator.Valid(); iterator.Next() {
		query := &modules.Query{}
		if err := json.Unmarshal(iterator.Value(), query); err != nil {
			return nil, fmt.Errorf("decode query %s: %w", iterator.Key(), err)
		}
		queries = append(queries, query)
	}
	return queries, iterator.Error()
}

func (store *Store) Account(address string) (map[string]int64, error) {
	account := make(map[string]int64)
	if err := store.get(accountKey(address), &account); err != nil {
		return nil, err
	}
	return account, nil
}
