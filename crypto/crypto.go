package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/ioutil"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

var ErrInvalidKey = errors.New("invalid key")

// GenerateKey returns a new secp256k1 key pair, the public key compressed.
func GenerateKey() (privKey []byte, pubKey []byte, err error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, nil, err
	}
	return key.Serialize(), key.PubKey().SerializeCompressed(), nil
}

func PubKey(privKey []byte) []byte {
	_, pub := btcec.PrivKeyFromBytes(btcec.S256(), privKey)
	return pub.SerializeCompressed()
}

// Address is the account name of a public key: the hex of its compressed
// form, so both encodings of one key name the same account. Bytes that are
// not a key are hex encoded as they are.
func Address(pubKey []byte) string {
	key, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return hex.EncodeToString(pubKey)
	}
	return hex.EncodeToString(key.SerializeCompressed())
}

func Sign(privKey, message []byte) (signature []byte, err error) {
	hash := sha256.Sum256(message)
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), privKey)
	sign, err := key.Sign(hash[:])
	if err != nil {
		return nil, err
	}
	return sign.Serialize(), nil
}

func Verify(pubKey, message []byte, signature []byte) (signed bool) {
	hash := sha256.Sum256(message)
	key, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return false
	}
	sign, err := btcec.ParseSignature(signature, btcec.S256())
	if err != nil {
		return false
	}
	return sign.Verify(hash[:], key)
}

func CheckPubKey(pubKey []byte) error {
	_, err := btcec.ParsePubKey(pubKey, btcec.S256())
	return err
}

// ContentID returns the CIDv1 of data, raw codec and sha2-256 multihash.
func ContentID(data []byte) (string, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

// SaveKey writes privKey hex encoded to file.
func SaveKey(file string, privKey []byte) error {
	return ioutil.WriteFile(file, []byte(hex.EncodeToString(privKey)+"\n"), 0600)
}

func LoadKey(file string) (privKey []byte, pubKey []byte, err error) {
	content, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}
	privKey, err = hex.DecodeString(strings.TrimSpace(string(content)))
	if err != nil || len(privKey) != btcec.PrivKeyBytesLen {
		return nil, nil, ErrInvalidKey
	}
	return privKey, PubKey(privKey), nil
}
