package modules

// ------------------------------------------------------------------------------------------------------------------- //
// CHALLENGE

// Challenge is the dispute request returned by ChallengeClaim. It carries the
// resolution fee and must be consumed by AcceptChallenge in the transaction
// that produced it, or the whole transaction is rolled back.
type Challenge struct {
	queryID          string
	fee              Coin
	challenger       string
	challengedAt     int64
	resolverIdentity AuthType
	consumed         bool
}

func (challenge *Challenge) QueryID() string            { return challenge.queryID }
func (challenge *Challenge) Fee() Coin                  { return challenge.fee }
func (challenge *Challenge) Challenger() string         { return challenge.challenger }
func (challenge *Challenge) ChallengedAt() int64        { return challenge.challengedAt }
func (challenge *Challenge) ResolverIdentity() AuthType { return challenge.resolverIdentity }

// ------------------------------------------------------------------------------------------------------------------- //
// RESOLUTION

// Resolution is the final answer of a resolver for one disputed query. It is
// applied by SettleQuery in the transaction that produced it.
type Resolution struct {
	queryID          string
	claim            []byte
	resolverIdentity AuthType
	resolvedAt       int64
	consumed         bool
}

func (resolution *Resolution) QueryID() string            { return resolution.queryID }
func (resolution *Resolution) Claim() []byte              { return copyBytes(resolution.claim) }
func (resolution *Resolution) ResolverIdentity() AuthType { return resolution.resolverIdentity }
func (resolution *Resolution) ResolvedAt() int64          { return resolution.resolvedAt }

// ------------------------------------------------------------------------------------------------------------------- //
// RESOLVER

type Dispute struct {
	QueryID      string
	Challenger   string
	ChallengedAt int64
	Fee          Coin
}

// Resolver is bound at creation to the AuthType of the token that created it.
// Only holders of that token type can accept challenges and make resolutions
// on its behalf, and only while governance keeps it enabled.
type Resolver struct {
	Identity AuthType
	Enabled  bool
	Disputes map[string]*Dispute
}

func (resolver *Resolver) Copy() *Resolver {
	copied := &Resolver{
		Identity: resolver.Identity,
		Enabled:  resolver.Enabled,
		Disputes: make(map[string]*Dispute, len(resolver.Disputes)),
	}
	for id, dispute := range resolver.Disputes {
		disputeCopy := *dispute
		copied.Disputes[id] = &disputeCopy
	}
	return copied
}

// FeeKey is the ledger cell collecting the fees paid to the resolver.
func (resolver *Resolver) FeeKey(asset string) string {
	return LedgerKey(string(resolver.Identity), PurposeFee, asset)
}

// Resolver returns a copy of the resolver bound to identity.
func (tx *Tx) Resolver(identity AuthType) (*Resolver, error) {
	return tx.state.Resolver(identity)
}

// CreateResolver registers a disabled resolver bound to the type of token.
func (tx *Tx) CreateResolver(token interface{}) (*Resolver, error) {
	identity := AuthTypeOf(token)
	if identity == "" {
		return nil, ErrMissingAuth
	}
	if _, exists := tx.state.Resolvers[identity]; exists {
		return nil, ErrResolverExists
	}
	resolver := &Resolver{Identity: identity, Disputes: make(map[string]*Dispute)}
	tx.state.Resolvers[identity] = resolver
	return resolver.Copy(), nil
}

func (tx *Tx) EnableResolver(governance interface{}, identity AuthType) error {
	return tx.setResolverEnabled(governance, identity, true)
}

// DisableResolver stops the resolver from accepting challenges and making new
// resolutions. Resolutions it already made stay valid.
func (tx *Tx) DisableResolver(governance interface{}, identity AuthType) error {
	return tx.setResolverEnabled(governance, identity, false)
}

func (tx *Tx) setResolverEnabled(governance interface{}, identity AuthType, enabled bool) error {
	if tx.state.Governance == "" || AuthTypeOf(governance) != tx.state.Governance {
		return ErrNotGovernance
	}
	resolver, ok := tx.state.Resolvers[identity]
	if !ok {
		return ErrResolverNotFound
	}
	resolver.Enabled = enabled
	return nil
}

// authorizedResolver returns the enabled resolver bound to the type of token.
func (tx *Tx) authorizedResolver(token interface{}) (*Resolver, error) {
	identity := AuthTypeOf(token)
	if identity == "" {
		return nil, ErrWrongAuthType
	}
	resolver, ok := tx.state.Resolvers[identity]
	if !ok {
		return nil, ErrResolverNotFound
	}
	if !resolver.Enabled {
		return nil, ErrResolverDisabled
	}
	return resolver, nil
}

// AcceptChallenge consumes challenge, credits its fee to the resolver and
// opens a dispute that the resolver must later answer with MakeResolution.
func (tx *Tx) AcceptChallenge(token interface{}, challenge *Challenge) error {
	if challenge == nil || !tx.issuedChallenge(challenge) {
		return ErrUnknownValue
	}
	if challenge.consumed {
		return ErrAlreadyConsumed
	}
	if AuthTypeOf(token) != challenge.resolverIdentity {
		return ErrWrongAuthType
	}
	resolver, err := tx.authorizedResolver(token)
	if err != nil {
		return err
	}
	if _, open := resolver.Disputes[challenge.queryID]; open {
		return ErrDisputeExists
	}
	if challenge.fee.Amount > 0 {
		if err := tx.state.Ledger.Deposit(resolver.FeeKey(challenge.fee.Asset), challenge.fee.Amount); err != nil {
			return err
		}
	}
	resolver.Disputes[challenge.queryID] = &Dispute{
		QueryID:      challenge.queryID,
		Challenger:   challenge.challenger,
		ChallengedAt: challenge.challengedAt,
		Fee:          challenge.fee,
	}
	challenge.consumed = true
	return nil
}

// MakeResolution answers the open dispute on query id with claim and closes
// it, so every dispute yields at most one resolution.
func (tx *Tx) MakeResolution(token interface{}, id string, claim []byte) (*Resolution, error) {
	resolver, err := tx.authorizedResolver(token)
	if err != nil {
		return nil, err
	}
	if len(claim) == 0 {
		return nil, ErrEmptyClaim
	}
	if _, open := resolver.Disputes[id]; !open {
		return nil, ErrNoOpenDispute
	}
	delete(resolver.Disputes, id)
	resolution := &Resolution{
		queryID:          id,
		claim:            copyBytes(claim),
		resolverIdentity: resolver.Identity,
		resolvedAt:       tx.ctx.Now,
	}
	tx.resolutions = append(tx.resolutions, resolution)
	return resolution, nil
}

// ClaimFees pays every fee of asset collected by the resolver to the sender.
func (tx *Tx) ClaimFees(token interface{}, asset string) (Coin, error) {
	identity := AuthTypeOf(token)
	resolver, ok := tx.state.Resolvers[identity]
	if identity == "" || !ok {
		return Coin{}, ErrResolverNotFound
	}
	fees := Coin{Asset: asset, Amount: tx.state.Ledger.WithdrawAll(resolver.FeeKey(asset))}
	if fees.Amount == 0 {
		return Coin{}, ErrNoFees
	}
	if err := tx.state.Bank.Credit(tx.ctx.Sender, fees); err != nil {
		return Coin{}, err
	}
	return fees, nil
}
