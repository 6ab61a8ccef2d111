package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bondHeld is every unit of the bond asset in existence: spendable balances
// plus everything custodied by the ledger, fees included.
func bondHeld(oracle *Oracle) int64 {
	return oracle.Bank.Total(bondAsset) + oracle.Ledger.Total(bondAsset)
}

func TestUndisputedSettlement(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)
	require.NoError(t, submit(oracle, id, "100", start+10))

	settlement, err := settle(oracle, id, start+3700000)
	require.NoError(t, err)
	assert.Equal(t, submitter, settlement.Winner)
	assert.Equal(t, Coin{Asset: bondAsset, Amount: bondAmount}, settlement.Bond)
	assert.Equal(t, funds, oracle.Bank.Balance(submitter, bondAsset))

	query, _ := oracle.Query(id)
	assert.True(t, query.Settled)
	assert.Equal(t, start+3700000, *query.SettledAt)
	assert.Equal(t, StatusSettled, query.Status(start+3700000))
	assert.Empty(t, oracle.Ledger.Entries)
}

func TestDisputedSettlementChallengerWins(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)
	require.NoError(t, submit(oracle, id, "100", start+10))
	require.NoError(t, challenge(oracle, challenger, id, start+20))

	settlement, err := resolveAndSettle(oracle, id, "200", start+30)
	require.NoError(t, err)

	fee := MulBps(bondAmount, feeBps)
	assert.Equal(t, int64(50000), fee)
	assert.Equal(t, challenger, settlement.Winner)
	assert.Equal(t, 2*bondAmount-fee, settlement.Bond.Amount)
	assert.Equal(t, funds-bondAmount+2*bondAmount-fee, oracle.Bank.Balance(challenger, bondAsset))
	assert.Equal(t, funds-bondAmount, oracle.Bank.Balance(submitter, bondAsset))

	query, _ := oracle.Query(id)
	assert.Equal(t, []byte("200"), query.ResolvedClaim)
	assert.Equal(t, start+30, *query.ResolvedAt)
	assert.Equal(t, StatusSettled, query.Status(start+30))
}

func TestDisputedSettlementSubmitterWins(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)
	require.NoError(t, submit(oracle, id, "100", start+10))
	require.NoError(t, challenge(oracle, challenger, id, start+20))

	settlement, err := resolveAndSettle(oracle, id, "100", start+30)
	require.NoError(t, err)
	assert.Equal(t, submitter, settlement.Winner)
	assert.Equal(t, funds+bondAmount-MulBps(bondAmount, feeBps), oracle.Bank.Balance(submitter, bondAsset))
}

func TestSelfChallenge(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)
	require.NoError(t, submit(oracle, id, "100", start+10))
	hash := oracle.Hash()

	err := challenge(oracle, submitter, id, start+20)
	assert.Equal(t, ErrSelfChallenge, err)
	assert.Equal(t, hash, oracle.Hash())
	query, _ := oracle.Query(id)
	assert.Equal(t, StatusSubmitted, query.Status(start+20))
	assert.Equal(t, "", query.Challenger)
}

func TestLateChallenge(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)
	require.NoError(t, submit(oracle, id, "100", start+10))

	err := challenge(oracle, challenger, id, start+3700001)
	assert.Equal(t, ErrLivenessExpired, err)
	assert.Equal(t, funds, oracle.Bank.Balance(challenger, bondAsset))
}

func TestDoubleSettle(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)
	require.NoError(t, submit(oracle, id, "100", start+10))
	_, err := settle(oracle, id, start+3700000)
	require.NoError(t, err)

	_, err = settle(oracle, id, start+3700001)
	assert.Equal(t, ErrWrongStatus, err)
	assert.Equal(t, funds, oracle.Bank.Balance(submitter, bondAsset))
}

func TestSettleWrongStatus(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)

	_, err := settle(oracle, id, start)
	assert.Equal(t, ErrWrongStatus, err)

	require.NoError(t, submit(oracle, id, "100", start+10))
	_, err = settle(oracle, id, start+20)
	assert.Equal(t, ErrWrongStatus, err)

	require.NoError(t, challenge(oracle, challenger, id, start+20))
	_, err = settle(oracle, id, start+30)
	assert.Equal(t, ErrWrongStatus, err)
}

func TestExpiredQueryRejectsResolution(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)
	require.NoError(t, submit(oracle, id, "100", start+10))

	err := oracle.Execute(Context{Sender: operator, Now: start + liveness + 10}, func(tx *Tx) error {
		resolution := &Resolution{queryID: id, claim: []byte("200"), resolverIdentity: AuthTypeOf(arbiterToken{}), resolvedAt: tx.Now()}
		tx.resolutions = append(tx.resolutions, resolution)
		_, err := tx.SettleQuery(id, resolution)
		return err
	})
	assert.Equal(t, ErrWrongStatus, err)
}

func TestBondConservation(t *testing.T) {
	oracle := newTestOracle(t)
	total := bondHeld(oracle)
	id := createQuery(t, oracle)
	require.NoError(t, submit(oracle, id, "100", start+10))
	assert.Equal(t, total, bondHeld(oracle))
	require.NoError(t, challenge(oracle, challenger, id, start+20))
	assert.Equal(t, total, bondHeld(oracle))

	settlement, err := resolveAndSettle(oracle, id, "200", start+30)
	require.NoError(t, err)
	assert.Equal(t, total, bondHeld(oracle))

	fee := oracle.Ledger.Balance(LedgerKey(string(AuthTypeOf(arbiterToken{})), PurposeFee, bondAsset))
	assert.Equal(t, 2*bondAmount, settlement.Bond.Amount+fee)
}

func TestFeeRoundsDown(t *testing.T) {
	assert.Equal(t, int64(50000), MulBps(1000001, 500))
	assert.Equal(t, int64(0), MulBps(19, 500))
	assert.Equal(t, int64(1), MulBps(20, 500))
	assert.Equal(t, int64(9223372036854775), MulBps(9223372036854775807, 10))
}

func TestWinnerMatchesPayout(t *testing.T) {
	for _, resolved := range []string{"100", "200"} {
		oracle := newTestOracle(t)
		id := createQuery(t, oracle)
		require.NoError(t, submit(oracle, id, "100", start+10))
		require.NoError(t, challenge(oracle, challenger, id, start+20))
		settlement, err := resolveAndSettle(oracle, id, resolved, start+30)
		require.NoError(t, err)

		query, _ := oracle.Query(id)
		assert.Equal(t, settlement.Winner, Winner(query))
		assert.Equal(t, Winner(query), Winner(query.Copy()))
	}
}

func TestNotifications(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)

	var submitted, challenged, settled *Notification
	err := oracle.Execute(Context{Sender: submitter, Now: start + 10}, func(tx *Tx) error {
		var err error
		submitted, err = tx.SubmitClaimNotify(id, []byte("100"), Coin{Asset: bondAsset, Amount: bondAmount})
		return err
	})
	require.NoError(t, err)
	err = oracle.Execute(Context{Sender: challenger, Now: start + 20}, func(tx *Tx) error {
		issued, notification, err := tx.ChallengeClaimNotify(id, Coin{Asset: bondAsset, Amount: bondAmount})
		if err != nil {
			return err
		}
		challenged = notification
		return tx.AcceptChallenge(arbiterToken{}, issued)
	})
	require.NoError(t, err)
	err = oracle.Execute(Context{Sender: operator, Now: start + 30}, func(tx *Tx) error {
		resolution, err := tx.MakeResolution(arbiterToken{}, id, []byte("200"))
		if err != nil {
			return err
		}
		_, settled, err = tx.SettleQueryNotify(id, resolution)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, NotifySubmit, submitted.Kind)
	assert.Equal(t, NotifyChallenge, challenged.Kind)
	assert.Equal(t, NotifySettle, settled.Kind)

	_, err = settled.Consume(rogueToken{})
	assert.Equal(t, ErrWrongAuthType, err)
	attributes, err := settled.Consume(creatorToken{})
	require.NoError(t, err)
	assert.Equal(t, Attribute{Key: "winner", Value: challenger}, attributes[0])
	assert.Equal(t, Attribute{Key: "bond", Value: "1950000OUSD"}, attributes[1])
	_, err = settled.Consume(creatorToken{})
	assert.Equal(t, ErrAlreadyConsumed, err)

	attributes, err = challenged.Consume(&creatorToken{})
	require.NoError(t, err)
	assert.Equal(t, Attribute{Key: "fee", Value: "50000OUSD"}, attributes[1])
}

func TestFailedNotifyLeavesNoState(t *testing.T) {
	oracle := newTestOracle(t)
	id := createQuery(t, oracle)
	err := oracle.Execute(Context{Sender: submitter, Now: start + 10}, func(tx *Tx) error {
		_, err := tx.SubmitClaimNotify(id, []byte("100"), Coin{Asset: bondAsset, Amount: 1})
		return err
	})
	assert.Equal(t, ErrBondMismatch, err)
	query, _ := oracle.Query(id)
	assert.Equal(t, StatusCreated, query.Status(start+10))
}
