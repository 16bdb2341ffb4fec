package ledger

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// StudentAccount is a freshly generated ledger account for a newly registered student.
type StudentAccount struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// NewStudentAccount generates a new secp256k1 account.
func NewStudentAccount() (*StudentAccount, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("could not generate account key: %w", err)
	}

	return &StudentAccount{
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, nil
}

// PrivateKeyHex returns the 0x-prefixed hex encoding of the account key.
func (a *StudentAccount) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(a.PrivateKey))
}

// ParsePrivateKey parses a hex secp256k1 key with or without the 0x prefix.
func ParsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
