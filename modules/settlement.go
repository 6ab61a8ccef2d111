package modules

import "bytes"

// Settlement records what a settled query paid out.
type Settlement struct {
	QueryID string
	Winner  string
	Bond    Coin
	Reward  Coin
}

// Winner returns the address entitled to the pools of query. The submitter
// wins when nobody challenged or when the resolved claim equals the submitted
// one, the challenger wins otherwise.
func Winner(query *Query) string {
	if query.Challenger == "" || bytes.Equal(query.ResolvedClaim, query.SubmittedClaim) {
		return query.Submitter
	}
	return query.Challenger
}

func (tx *Tx) applyResolution(query *Query, resolution *Resolution) error {
	if !tx.issuedResolution(resolution) {
		return ErrUnknownValue
	}
	if resolution.consumed {
		return ErrAlreadyConsumed
	}
	switch {
	case resolution.queryID != query.ID:
		return ErrResolutionQueryMismatch
	case resolution.resolvedAt <= *query.ChallengedAt:
		return ErrStaleResolution
	case resolution.resolverIdentity != query.ResolverIdentity:
		return ErrResolverMismatch
	}
	query.ResolvedClaim = copyBytes(resolution.claim)
	query.ResolvedAt = instant(resolution.resolvedAt)
	resolution.consumed = true
	return nil
}

// SettleQuery pays the whole bond pool and whatever is left of the reward
// pool to the winner and marks the query settled. A challenged query needs a
// resolution, an expired one must be settled without.
func (tx *Tx) SettleQuery(id string, resolution *Resolution) (*Settlement, error) {
	query, err := tx.query(id)
	if err != nil {
		return nil, err
	}
	now := tx.ctx.Now
	status := query.Status(now)
	if resolution != nil {
		if status != StatusChallenged {
			return nil, ErrWrongStatus
		}
		if err := tx.applyResolution(query, resolution); err != nil {
			return nil, err
		}
	} else if status != StatusExpired && status != StatusResolved {
		return nil, ErrWrongStatus
	}

	settlement := &Settlement{QueryID: query.ID, Winner: Winner(query)}
	settlement.Bond = Coin{Asset: query.BondAsset, Amount: tx.state.Ledger.WithdrawAll(query.bondKey())}
	if err := tx.state.Bank.Credit(settlement.Winner, settlement.Bond); err != nil {
		return nil, err
	}
	if query.RewardAsset != "" {
		settlement.Reward = Coin{Asset: query.RewardAsset, Amount: tx.state.Ledger.WithdrawAll(query.rewardKey())}
		if err := tx.state.Bank.Credit(settlement.Winner, settlement.Reward); err != nil {
			return nil, err
		}
	}
	query.Settled = true
	query.SettledAt = instant(now)
	return settlement, nil
}
