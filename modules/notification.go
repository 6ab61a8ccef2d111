package modules

import (
	"encoding/hex"
	"strconv"
)

type NotificationKind string

const (
	NotifySubmit    NotificationKind = "submit"
	NotifyChallenge NotificationKind = "challenge"
	NotifySettle    NotificationKind = "settle"
)

type Attribute struct {
	Key   string
	Value string
}

// Notification reports one lifecycle step of a query to its creator. It can
// be consumed once, by a holder of the creator's token type.
type Notification struct {
	Kind       NotificationKind
	QueryID    string
	Attributes []Attribute

	creatorAuth AuthType
	consumed    bool
}

// Consume verifies token against the query creator and hands out the
// notification attributes.
func (notification *Notification) Consume(token interface{}) ([]Attribute, error) {
	if notification.consumed {
		return nil, ErrAlreadyConsumed
	}
	if AuthTypeOf(token) != notification.creatorAuth {
		return nil, ErrWrongAuthType
	}
	notification.consumed = true
	return append([]Attribute{}, notification.Attributes...), nil
}

func (tx *Tx) notify(kind NotificationKind, id string, attributes ...Attribute) (*Notification, error) {
	query, err := tx.query(id)
	if err != nil {
		return nil, err
	}
	return &Notification{
		Kind:        kind,
		QueryID:     id,
		Attributes:  attributes,
		creatorAuth: query.CreatorAuth,
	}, nil
}

func (tx *Tx) SubmitClaimNotify(id string, claim []byte, bond Coin) (*Notification, error) {
	if err := tx.SubmitClaim(id, claim, bond); err != nil {
		return nil, err
	}
	return tx.notify(NotifySubmit, id,
		Attribute{Key: "submitter", Value: tx.ctx.Sender},
		Attribute{Key: "claim", Value: hex.EncodeToString(claim)},
	)
}

func (tx *Tx) ChallengeClaimNotify(id string, bond Coin) (*Challenge, *Notification, error) {
	challenge, err := tx.ChallengeClaim(id, bond)
	if err != nil {
		return nil, nil, err
	}
	notification, err := tx.notify(NotifyChallenge, id,
		Attribute{Key: "challenger", Value: challenge.challenger},
		Attribute{Key: "fee", Value: formatCoin(challenge.fee)},
	)
	if err != nil {
		return nil, nil, err
	}
	return challenge, notification, nil
}

func (tx *Tx) SettleQueryNotify(id string, resolution *Resolution) (*Settlement, *Notification, error) {
	settlement, err := tx.SettleQuery(id, resolution)
	if err != nil {
		return nil, nil, err
	}
	notification, err := tx.notify(NotifySettle, id,
		Attribute{Key: "winner", Value: settlement.Winner},
		Attribute{Key: "bond", Value: formatCoin(settlement.Bond)},
		Attribute{Key: "reward", Value: formatCoin(settlement.Reward)},
	)
	if err != nil {
		return nil, nil, err
	}
	return settlement, notification, nil
}

func formatCoin(coin Coin) string {
	return strconv.FormatInt(coin.Amount, 10) + coin.Asset
}
