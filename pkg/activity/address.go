package activity

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// base58 as used by Solana addresses and signatures (no 0, O, I, l).
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Set = func() [256]bool {
	var s [256]bool
	for i := 0; i < len(base58Alphabet); i++ {
		s[base58Alphabet[i]] = true
	}
	return s
}()

const (
	minAddressLen = 32
	maxAddressLen = 44

	minSignatureLen = 64
	maxSignatureLen = 88
)

// ValidateAddress rejects strings that cannot be a Solana account or mint.
func ValidateAddress(addr string) error {
	if len(addr) < minAddressLen || len(addr) > maxAddressLen {
		return newError(CodeInvalidAddress, "address %q has invalid length %d", addr, len(addr))
	}
	for i := 0; i < len(addr); i++ {
		if !base58Set[addr[i]] {
			return newError(CodeInvalidAddress, "address %q contains non-base58 character %q", addr, addr[i])
		}
	}
	return nil
}

// ValidSignature reports whether sig is shaped like a verifiable transaction
// signature.
func ValidSignature(sig string) bool {
	if len(sig) < minSignatureLen || len(sig) > maxSignatureLen {
		return false
	}
	for i := 0; i < len(sig); i++ {
		if !base58Set[sig[i]] {
			return false
		}
	}
	return true
}

// KindLookup is the authoritative account-type query, typically backed by the
// chain RPC.
type KindLookup interface {
	AccountKind(ctx context.Context, address string) (Kind, error)
}

// Classifier decides whether an address denotes a wallet or a token. It
// prefers the authoritative lookup and only falls back to the documented
// low-confidence default when the lookup is unavailable.
type Classifier struct {
	logger *zap.Logger
	lookup KindLookup
	cache  *xsync.Map[string, Classification]
}

func NewClassifier(logger *zap.Logger, lookup KindLookup) *Classifier {
	return &Classifier{
		logger: logger,
		lookup: lookup,
		cache:  xsync.NewMap[string, Classification](),
	}
}

// Classify validates and classifies addr. The result is cached per process;
// an address's kind never changes once assigned on chain.
func (c *Classifier) Classify(ctx context.Context, addr string) (Classification, error) {
	if err := ValidateAddress(addr); err != nil {
		return Classification{}, err
	}

	if class, ok := c.cache.Load(addr); ok {
		return class, nil
	}

	class := Classification{Address: addr}
	if c.lookup != nil {
		kind, err := c.lookup.AccountKind(ctx, addr)
		if err == nil {
			class.Kind = kind
			class.Confidence = 1.0
			class.Source = "lookup"
			c.cache.Store(addr, class)
			return class, nil
		}
		if ctx.Err() != nil {
			return Classification{}, wrapError(CodeDataSourceTimeout, err, "account lookup for %s", addr)
		}
		c.logger.Warn("Account kind lookup failed, falling back to heuristic",
			zap.String("address", addr),
			zap.Error(err))
	}

	// Ambiguous without an authoritative answer: default to wallet and flag
	// low confidence. Heuristic results are not cached so the next request
	// can try the lookup again.
	class.Kind = KindWallet
	class.Confidence = 0.5
	class.Source = "heuristic"
	return class, nil
}
