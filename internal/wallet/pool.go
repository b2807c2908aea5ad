// Package wallet holds the pre-provisioned pool of simulation wallets that
// are handed out to users who ask the bot to generate one.
package wallet

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/vexorbot/internal/domain"
)

// ParsePairs parses a comma separated list of "address:secret" pairs.
// Malformed entries are skipped; a repeated address keeps its last secret.
// EVM addresses are normalised to their checksum form. It returns
// domain.ErrEmptyPool when no valid pair remains.
func ParsePairs(raw string) ([]domain.WalletCredential, error) {
	index := make(map[string]int)
	var out []domain.WalletCredential

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		address, secret, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		address = NormalizeAddress(address)
		secret = strings.TrimSpace(secret)
		if address == "" || secret == "" {
			continue
		}

		cred := domain.WalletCredential{Address: address, Secret: secret}
		if i, seen := index[address]; seen {
			out[i] = cred
			continue
		}
		index[address] = len(out)
		out = append(out, cred)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("wallet: parse pairs: %w", domain.ErrEmptyPool)
	}
	return out, nil
}

// NormalizeAddress trims s and, when it is a hex EVM address, returns its
// EIP-55 checksum form. Other strings are returned trimmed.
func NormalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if IsEVMAddress(s) {
		return common.HexToAddress(s).Hex()
	}
	return s
}

// IsEVMAddress reports whether s looks like a 20-byte hex address.
func IsEVMAddress(s string) bool {
	return common.IsHexAddress(strings.TrimSpace(s))
}

// Pool is a read-only set of credentials. Draw never removes entries, so the
// same credential can be handed to several users. Safe for concurrent use.
type Pool struct {
	creds []domain.WalletCredential

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewPool creates a Pool over creds. A nil rng uses a randomly seeded source.
func NewPool(creds []domain.WalletCredential, rng *rand.Rand) (*Pool, error) {
	if len(creds) == 0 {
		return nil, fmt.Errorf("wallet: new pool: %w", domain.ErrEmptyPool)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	cp := make([]domain.WalletCredential, len(creds))
	copy(cp, creds)
	return &Pool{creds: cp, rng: rng}, nil
}

// Draw returns a uniformly random credential from the pool.
func (p *Pool) Draw() domain.WalletCredential {
	p.mu.Lock()
	i := p.rng.IntN(len(p.creds))
	p.mu.Unlock()
	return p.creds[i]
}

// Len returns the number of credentials in the pool.
func (p *Pool) Len() int {
	return len(p.creds)
}
