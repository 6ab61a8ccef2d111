package cmd

import (
	"time"

	"github.com/tendermint/tendermint/privval"
	"github.com/tendermint/tendermint/types"
)

// validatorPower is the voting power of the node's own validator in a fresh
// single validator network.
const validatorPower = 10

func genesisDoc(chainID string, privVal *privval.FilePV) types.GenesisDoc {
	pubKey := privVal.Key.PubKey
	return types.GenesisDoc{
		ChainID:         chainID,
		GenesisTime:     time.Now(),
		ConsensusParams: types.DefaultConsensusParams(),
		Validators: []types.GenesisValidator{{
			Address: pubKey.Address(),
			PubKey:  pubKey,
			Power:   validatorPower,
			Name:    "oracle",
		}},
	}
}
