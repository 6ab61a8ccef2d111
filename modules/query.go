package modules

/*
A Query is one request for real-world data.

Its status is never stored: it is derived from the lifecycle fields and the
clock reading of the caller. A submitter answers with a bonded claim, anyone
else may dispute it within the liveness window with an equal bond, and the
dispute is handed to the resolver named at creation.
*/

import (
	"oracle-node/crypto"
	"strconv"
)

const (
	MaxTopicLength    = 64
	MaxMetadataLength = 4096
)

// ------------------------------------------------------------------------------------------------------------------- //
// STATUS

type Status int

const (
	StatusCreated Status = iota
	StatusSubmitted
	StatusExpired
	StatusChallenged
	StatusResolved
	StatusSettled
)

func (status Status) String() string {
	switch status {
	case StatusCreated:
		return "Created"
	case StatusSubmitted:
		return "Submitted"
	case StatusExpired:
		return "Expired"
	case StatusChallenged:
		return "Challenged"
	case StatusResolved:
		return "Resolved"
	case StatusSettled:
		return "Settled"
	}
	return "Unknown"
}

// Rank places a status in the lifecycle order. Expired and Challenged share a
// rank since a query reaches at most one of them.
func (status Status) Rank() int {
	switch status {
	case StatusCreated:
		return 0
	case StatusSubmitted:
		return 1
	case StatusExpired, StatusChallenged:
		return 2
	case StatusResolved:
		return 3
	}
	return 4
}

// ------------------------------------------------------------------------------------------------------------------- //
// QUERY

type Query struct {
	ID          string
	Creator     string
	CreatorAuth AuthType
	CreatedAt   int64
	Sequence    uint64

	Topic     string
	Metadata  string
	Timestamp *int64 `json:",omitempty"`

	BondAsset        string
	BondAmount       int64
	Liveness         int64
	Expiration       int64
	RefundAddress    string `json:",omitempty"`
	RewardAsset      string `json:",omitempty"`
	ResolverIdentity AuthType

	Submitter      string `json:",omitempty"`
	SubmittedClaim []byte `json:",omitempty"`
	SubmittedAt    *int64 `json:",omitempty"`
	Challenger     string `json:",omitempty"`
	ChallengedAt   *int64 `json:",omitempty"`
	ResolvedClaim  []byte `json:",omitempty"`
	ResolvedAt     *int64 `json:",omitempty"`
	Settled        bool
	SettledAt      *int64 `json:",omitempty"`
}

// Status derives the lifecycle status at now. Around the end of the liveness
// window two reads with different clocks can see Submitted and Expired; both
// are correct for their clock.
func (query *Query) Status(now int64) Status {
	if query.Submitter == "" {
		return StatusCreated
	}
	if query.Settled {
		return StatusSettled
	}
	if query.Challenger == "" {
		if now-*query.SubmittedAt < query.Liveness {
			return StatusSubmitted
		}
		return StatusExpired
	}
	if query.ResolvedClaim != nil {
		return StatusResolved
	}
	return StatusChallenged
}

func (query *Query) Copy() *Query {
	copied := *query
	copied.Timestamp = copyInstant(query.Timestamp)
	copied.SubmittedClaim = copyBytes(query.SubmittedClaim)
	copied.SubmittedAt = copyInstant(query.SubmittedAt)
	copied.ChallengedAt = copyInstant(query.ChallengedAt)
	copied.ResolvedClaim = copyBytes(query.ResolvedClaim)
	copied.ResolvedAt = copyInstant(query.ResolvedAt)
	copied.SettledAt = copyInstant(query.SettledAt)
	return &copied
}

func (query *Query) bondKey() string {
	return LedgerKey(query.ID, PurposeBond, query.BondAsset)
}

func (query *Query) rewardKey() string {
	return LedgerKey(query.ID, PurposeReward, query.RewardAsset)
}

func instant(value int64) *int64 {
	return &value
}

func copyInstant(value *int64) *int64 {
	if value == nil {
		return nil
	}
	return instant(*value)
}

func copyBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	return append([]byte{}, value...)
}

// ------------------------------------------------------------------------------------------------------------------- //
// OPERATIONS

type CreateQueryRequest struct {
	Topic            string
	Metadata         string
	Timestamp        *int64
	Bond             Coin
	Liveness         int64
	Expiration       int64
	RefundAddress    string
	ResolverIdentity AuthType
	CreatorAuth      interface{}
}

func (request *CreateQueryRequest) check(registry Registry, now int64) error {
	switch {
	case request.Topic == "":
		return ErrEmptyTopic
	case len(request.Topic) > MaxTopicLength:
		return ErrTopicTooLong
	case request.Metadata == "":
		return ErrEmptyMetadata
	case len(request.Metadata) > MaxMetadataLength:
		return ErrMetadataTooLong
	case !registry.IsTopicAllowed(request.Topic):
		return ErrTopicNotAllowed
	case !registry.IsAssetAllowed(request.Bond.Asset):
		return ErrAssetNotAllowed
	case request.Liveness <= 0:
		return ErrInvalidLiveness
	case request.Expiration <= now, request.Liveness >= request.Expiration-now:
		return ErrInvalidExpiration
	case request.Bond.Amount <= 0, request.Bond.Amount < registry.MinimumBond(request.Bond.Asset):
		return ErrBondTooLow
	case request.Timestamp != nil && *request.Timestamp > now:
		return ErrFutureTimestamp
	case request.ResolverIdentity == "":
		return ErrMissingResolver
	case AuthTypeOf(request.CreatorAuth) == "":
		return ErrMissingAuth
	}
	return nil
}

func (tx *Tx) CreateQuery(request CreateQueryRequest) (*Query, error) {
	now := tx.ctx.Now
	if err := request.check(tx.state.registry, now); err != nil {
		return nil, err
	}
	sequence := tx.state.Sequence
	seed := append([]byte(tx.ctx.Sender), strconv.FormatUint(sequence, 10)...)
	seed = append(seed, request.Topic...)
	seed = append(seed, request.Metadata...)
	id, err := crypto.ContentID(seed)
	if err != nil {
		return nil, ErrInternal
	}
	query := &Query{
		ID:               id,
		Creator:          tx.ctx.Sender,
		CreatorAuth:      AuthTypeOf(request.CreatorAuth),
		CreatedAt:        now,
		Sequence:         sequence,
		Topic:            request.Topic,
		Metadata:         request.Metadata,
		Timestamp:        copyInstant(request.Timestamp),
		BondAsset:        request.Bond.Asset,
		BondAmount:       request.Bond.Amount,
		Liveness:         request.Liveness,
		Expiration:       request.Expiration,
		RefundAddress:    request.RefundAddress,
		ResolverIdentity: request.ResolverIdentity,
	}
	tx.state.Queries[id] = query
	tx.state.Sequence++
	return query.Copy(), nil
}

// creatorQuery loads a query the holder of token may edit before submission.
func (tx *Tx) creatorQuery(token interface{}, id string) (*Query, error) {
	query, err := tx.query(id)
	if err != nil {
		return nil, err
	}
	if AuthTypeOf(token) != query.CreatorAuth {
		return nil, ErrNotCreator
	}
	if query.Status(tx.ctx.Now) != StatusCreated {
		return nil, ErrWrongStatus
	}
	return query, nil
}

// AddReward moves reward from the sender into the query's reward pool. Every
// reward of a query uses the asset of the first one.
func (tx *Tx) AddReward(token interface{}, id string, reward Coin) error {
	query, err := tx.creatorQuery(token, id)
	if err != nil {
		return err
	}
	if reward.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !tx.state.registry.IsAssetAllowed(reward.Asset) {
		return ErrAssetNotAllowed
	}
	if query.RewardAsset != "" && query.RewardAsset != reward.Asset {
		return ErrAssetMismatch
	}
	if err := tx.state.Bank.Debit(tx.ctx.Sender, reward); err != nil {
		return err
	}
	query.RewardAsset = reward.Asset
	return tx.state.Ledger.Deposit(query.rewardKey(), reward.Amount)
}

func (tx *Tx) SetRefundAddress(token interface{}, id, address string) error {
	query, err := tx.creatorQuery(token, id)
	if err != nil {
		return err
	}
	if address == "" {
		return ErrInvalidAddress
	}
	query.RefundAddress = address
	return nil
}

// SubmitClaim answers the query with claim, bonding exactly the configured
// amount from the sender.
func (tx *Tx) SubmitClaim(id string, claim []byte, bond Coin) error {
	query, err := tx.query(id)
	if err != nil {
		return err
	}
	now := tx.ctx.Now
	switch {
	case query.Status(now) != StatusCreated:
		return ErrWrongStatus
	case now >= query.Expiration:
		return ErrQueryExpired
	case len(claim) == 0:
		return ErrEmptyClaim
	case bond.Asset != query.BondAsset:
		return ErrAssetMismatch
	case bond.Amount != query.BondAmount:
		return ErrBondMismatch
	}
	if err := tx.state.Bank.Debit(tx.ctx.Sender, bond); err != nil {
		return err
	}
	if err := tx.state.Ledger.Deposit(query.bondKey(), bond.Amount); err != nil {
		return err
	}
	query.Submitter = tx.ctx.Sender
	query.SubmittedClaim = copyBytes(claim)
	query.SubmittedAt = instant(now)
	return nil
}

// ChallengeClaim disputes the submitted claim with an equal bond. The
// resolution fee is split out of the bond pool into the returned Challenge,
// which must be handed to AcceptChallenge before the transaction ends.
func (tx *Tx) ChallengeClaim(id string, bond Coin) (*Challenge, error) {
	query, err := tx.query(id)
	if err != nil {
		return nil, err
	}
	now := tx.ctx.Now
	status := query.Status(now)
	switch {
	case status == StatusExpired:
		return nil, ErrLivenessExpired
	case status != StatusSubmitted:
		return nil, ErrWrongStatus
	case tx.ctx.Sender == query.Submitter:
		return nil, ErrSelfChallenge
	case now >= query.Expiration:
		return nil, ErrQueryExpired
	case now-*query.SubmittedAt >= query.Liveness:
		return nil, ErrLivenessExpired
	case bond.Asset != query.BondAsset:
		return nil, ErrAssetMismatch
	case bond.Amount != query.BondAmount:
		return nil, ErrBondMismatch
	}
	if err := tx.state.Bank.Debit(tx.ctx.Sender, bond); err != nil {
		return nil, err
	}
	if err := tx.state.Ledger.Deposit(query.bondKey(), bond.Amount); err != nil {
		return nil, err
	}
	query.Challenger = tx.ctx.Sender
	query.ChallengedAt = instant(now)

	if query.RefundAddress != "" && query.RewardAsset != "" {
		refund := Coin{Asset: query.RewardAsset, Amount: tx.state.Ledger.WithdrawAll(query.rewardKey())}
		if err := tx.state.Bank.Credit(query.RefundAddress, refund); err != nil {
			return nil, err
		}
	}

	fee := Coin{Asset: query.BondAsset, Amount: MulBps(query.BondAmount, tx.state.registry.ResolutionFeeBps())}
	if fee.Amount > 0 {
		if err := tx.state.Ledger.Split(query.bondKey(), fee.Amount); err != nil {
			return nil, err
		}
	}
	challenge := &Challenge{
		queryID:          query.ID,
		fee:              fee,
		challenger:       tx.ctx.Sender,
		challengedAt:     now,
		resolverIdentity: query.ResolverIdentity,
	}
	tx.challenges = append(tx.challenges, challenge)
	return challenge, nil
}
