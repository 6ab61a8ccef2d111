package app

import (
	"errors"

	"oracle-node/messages"
	"oracle-node/modules"
)

const (
	// CodespaceApp marks rejections decided by the node before the oracle runs.
	CodespaceApp = "app"
	// CodespaceOracle marks rejections returned by the oracle, with the
	// modules error code.
	CodespaceOracle = "oracle"
)

var (
	ErrBadNonce        = errors.New("unexpected nonce")
	ErrUnknownTx       = errors.New("unknown transaction type")
	ErrUnknownQuery    = errors.New("unknown query type")
	ErrUnauthorized    = errors.New("sender is not allowed to send this transaction")
	ErrMissingField    = errors.New("transaction is missing a required field")
	ErrUnknownResolver = errors.New("query names a resolver this node cannot hand disputes to")
	ErrNoState         = errors.New("no state at requested height")
)

var appCodes = []struct {
	err  error
	code uint32
}{
	{messages.ErrMalformed, 2},
	{messages.ErrBadSignature, 3},
	{ErrBadNonce, 4},
	{ErrUnknownTx, 5},
	{ErrUnknownQuery, 6},
	{ErrUnauthorized, 7},
	{ErrMissingField, 8},
	{ErrUnknownResolver, 9},
	{ErrNoState, 10},
}

// resultCode maps err to the code and codespace reported in an ABCI response.
func resultCode(err error) (uint32, string) {
	if err == nil {
		return 0, ""
	}
	for _, entry := range appCodes {
		if errors.Is(err, entry.err) {
			return entry.code, CodespaceApp
		}
	}
	return modules.CodeOf(err), CodespaceOracle
}
