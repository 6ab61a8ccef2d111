package modules

import (
	"crypto/sha256"
	"encoding/json"
	"sort"
)

// Context carries what the host knows about the caller of a unit of work:
// who signed it and the clock reading it executes at, in milliseconds.
type Context struct {
	Sender string
	Now    int64
}

// Oracle is the whole oracle state: queries, custodied value, accounts and
// resolvers. It is only mutated through Execute.
type Oracle struct {
	Queries    map[string]*Query
	Ledger     *Ledger
	Bank       *Bank
	Resolvers  map[AuthType]*Resolver
	Sequence   uint64
	Governance AuthType

	registry Registry
}

func NewOracle(registry Registry, governance AuthType) *Oracle {
	return &Oracle{
		Queries:    make(map[string]*Query),
		Ledger:     NewLedger(nil),
		Bank:       NewBank(nil),
		Resolvers:  make(map[AuthType]*Resolver),
		Governance: governance,
		registry:   registry,
	}
}

// Copy returns a deep copy sharing nothing mutable with oracle.
func (oracle *Oracle) Copy() *Oracle {
	copied := &Oracle{
		Queries:    make(map[string]*Query, len(oracle.Queries)),
		Ledger:     NewLedger(oracle.Ledger),
		Bank:       NewBank(oracle.Bank),
		Resolvers:  make(map[AuthType]*Resolver, len(oracle.Resolvers)),
		Sequence:   oracle.Sequence,
		Governance: oracle.Governance,
		registry:   oracle.registry,
	}
	for id, query := range oracle.Queries {
		copied.Queries[id] = query.Copy()
	}
	for identity, resolver := range oracle.Resolvers {
		copied.Resolvers[identity] = resolver.Copy()
	}
	return copied
}

// SetRegistry attaches the registry to a state restored from storage.
func (oracle *Oracle) SetRegistry(registry Registry) {
	oracle.registry = registry
}

func (oracle *Oracle) Hash() []byte {
	if oracle == nil {
		return nil
	}
	bytes, err := json.Marshal(oracle)
	if err != nil {
		return nil
	}
	hash := sha256.Sum256(bytes)
	return hash[:]
}

// Query returns a copy of the query with the given id.
func (oracle *Oracle) Query(id string) (*Query, error) {
	query, ok := oracle.Queries[id]
	if !ok {
		return nil, ErrQueryNotFound
	}
	return query.Copy(), nil
}

// QueryList returns copies of every query, oldest first.
func (oracle *Oracle) QueryList() []*Query {
	list := make([]*Query, 0, len(oracle.Queries))
	for _, query := range oracle.Queries {
		list = append(list, query.Copy())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Sequence < list[j].Sequence
	})
	return list
}

func (oracle *Oracle) Resolver(identity AuthType) (*Resolver, error) {
	resolver, ok := oracle.Resolvers[identity]
	if !ok {
		return nil, ErrResolverNotFound
	}
	return resolver.Copy(), nil
}

// Execute runs fn as one atomic unit of work. fn operates on a private copy
// of the state which replaces the oracle only if fn succeeds and every
// Challenge and Resolution issued during fn was consumed. Otherwise nothing
// fn did is kept.
func (oracle *Oracle) Execute(ctx Context, fn func(tx *Tx) error) error {
	tx := &Tx{ctx: ctx, state: oracle.Copy()}
	// a Tx kept past Execute must not reach the committed maps
	defer func() { tx.state = nil }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.finish(); err != nil {
		return err
	}
	*oracle = *tx.state
	return nil
}

// ---- //
// TX

// Tx is the handle every oracle operation is invoked on. It only exists for
// the duration of an Execute call; using it afterwards panics.
type Tx struct {
	ctx         Context
	state       *Oracle
	challenges  []*Challenge
	resolutions []*Resolution
}

func (tx *Tx) Sender() string { return tx.ctx.Sender }
func (tx *Tx) Now() int64     { return tx.ctx.Now }

// Query returns a copy of a query as seen inside the transaction.
func (tx *Tx) Query(id string) (*Query, error) {
	return tx.state.Query(id)
}

func (tx *Tx) Balance(address, asset string) int64 {
	return tx.state.Bank.Balance(address, asset)
}

// Transfer moves coin from the sender to receiver.
func (tx *Tx) Transfer(receiver string, coin Coin) error {
	return tx.state.Bank.Transfer(tx.ctx.Sender, receiver, coin)
}

// Mint credits coin to address. It is meant for genesis allocation.
func (tx *Tx) Mint(address string, coin Coin) error {
	return tx.state.Bank.Credit(address, coin)
}

func (tx *Tx) query(id string) (*Query, error) {
	query, ok := tx.state.Queries[id]
	if !ok {
		return nil, ErrQueryNotFound
	}
	return query, nil
}

func (tx *Tx) finish() error {
	for _, challenge := range tx.challenges {
		if !challenge.consumed {
			return ErrChallengeNotConsumed
		}
	}
	for _, resolution := range tx.resolutions {
		if !resolution.consumed {
			return ErrResolutionNotConsumed
		}
	}
	return nil
}

func (tx *Tx) issuedChallenge(challenge *Challenge) bool {
	for _, issued := range tx.challenges {
		if issued == challenge {
			return true
		}
	}
	return false
}

func (tx *Tx) issuedResolution(resolution *Resolution) bool {
	for _, issued := range tx.resolutions {
		if issued == resolution {
			return true
		}
	}
	return false
}
