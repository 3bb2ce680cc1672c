package paillier

import (
	"fmt"
	"math/big"

	"github.com/streamcrypt/enginecore/cryptocore"
	"github.com/streamcrypt/enginecore/log"
)

const (
	// seedHKDFInfo domain-separates the Paillier seed derivation from every
	// other HKDF invocation in this module.
	seedHKDFInfo = "PaillierPrimeGen"
	seedLength   = 64

	// DefaultBits is the default Paillier modulus size.
	DefaultBits = 3072
	// DefaultMaxAttempts is the default prime-candidate attempt budget.
	DefaultMaxAttempts = 10000
	// DefaultMillerRabinRounds is the default witness-round count.
	DefaultMillerRabinRounds = 256
	// MinMillerRabinRounds is the minimum witness-round count accepted.
	MinMillerRabinRounds = 64
	// MinBits is the minimum accepted modulus size.
	MinBits = 2048
)

// Params configures Paillier key generation. Zero values select the
// defaults above.
type Params struct {
	Bits              int
	MaxAttempts       int
	MillerRabinRounds int
}

func (p Params) withDefaults() Params {
	if p.Bits == 0 {
		p.Bits = DefaultBits
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.MillerRabinRounds == 0 {
		p.MillerRabinRounds = DefaultMillerRabinRounds
	}
	return p
}

func (p Params) validate() error {
	if p.Bits < MinBits || p.Bits%2 != 0 {
		return InvalidBitLength
	}
	if p.MillerRabinRounds < MinMillerRabinRounds {
		return InvalidMillerRabinRounds
	}
	return nil
}

// PublicKey is a Paillier public key (n, g).
type PublicKey struct {
	N *big.Int
	G *big.Int
}

// PrivateKey is a Paillier private key (lambda, mu), carrying its public
// key alongside since every operation needs both.
type PrivateKey struct {
	PublicKey
	Lambda *big.Int
	Mu     *big.Int
}

// DeriveKeyPair runs the full ECDH→Paillier bridge pipeline: it computes
// the secp256k1 shared secret between ecdhPriv and ecdhPub, derives a
// 64-byte DRBG seed via HKDF-SHA-512, draws two bits/2-bit primes through
// an HMAC-DRBG-driven candidate search, assembles the Paillier key pair,
// and self-tests it before returning.
func DeriveKeyPair(core cryptocore.CryptoCore, ecdhPriv, ecdhPub []byte, params Params) (*PrivateKey, error) {
	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(ecdhPriv) != 32 {
		return nil, InvalidPrivateKeyLength
	}
	if err := validatePublicKeyShape(ecdhPub); err != nil {
		return nil, err
	}

	shared, err := core.Secp256k1SharedSecret(ecdhPriv, ecdhPub)
	if err != nil {
		return nil, fmt.Errorf("unable to compute shared secret: %w", err)
	}

	seed, err := core.HKDF(cryptocore.SHA512Hash, shared, nil, []byte(seedHKDFInfo), seedLength)
	if err != nil {
		return nil, fmt.Errorf("unable to derive paillier seed: %w", err)
	}

	return deriveFromSeed(seed, params)
}

// deriveFromSeed runs the DRBG-driven pipeline directly from a caller
// supplied seed, bypassing ECDH. This is the path exercised by determinism
// tests and by any caller that already has a 64-byte seed.
func deriveFromSeed(seed []byte, params Params) (*PrivateKey, error) {
	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(seed) < 32 {
		return nil, InvalidSeedLength
	}

	drbg := newHMACDRBG(seed)
	primeBits := params.Bits / 2

	p, err := generatePrime(drbg, primeBits, params.MaxAttempts, params.MillerRabinRounds)
	if err != nil {
		log.Component("paillier").Error(err).Message("first prime generation exhausted attempt budget")
		return nil, err
	}
	q, err := generatePrime(drbg, primeBits, params.MaxAttempts, params.MillerRabinRounds)
	if err != nil {
		log.Component("paillier").Error(err).Message("second prime generation exhausted attempt budget")
		return nil, err
	}

	key, err := assembleKeyPair(p, q)
	if err != nil {
		return nil, err
	}

	if err := key.selfTest(); err != nil {
		return nil, err
	}
	return key, nil
}

// assembleKeyPair computes n = p*q, g = n+1, lambda = lcm(p-1, q-1), and
// mu = (L(g^lambda mod n^2))^-1 mod n.
func assembleKeyPair(p, q *big.Int) (*PrivateKey, error) {
	n := new(big.Int).Mul(p, q)
	nSquared := new(big.Int).Mul(n, n)
	g := new(big.Int).Add(n, big.NewInt(1))

	pMinus1 := new(big.Int).Sub(p, big.NewInt(1))
	qMinus1 := new(big.Int).Sub(q, big.NewInt(1))
	lambda := lcm(pMinus1, qMinus1)

	gLambda := new(big.Int).Exp(g, lambda, nSquared)
	l := lFunction(gLambda, n)

	mu := new(big.Int).ModInverse(l, n)
	if mu == nil {
		return nil, fmt.Errorf("%w: mu has no modular inverse", KeyPairValidationFailed)
	}

	return &PrivateKey{
		PublicKey: PublicKey{N: n, G: g},
		Lambda:    lambda,
		Mu:        mu,
	}, nil
}

// lFunction computes L(x) = (x-1)/n, the Paillier decryption helper.
func lFunction(x, n *big.Int) *big.Int {
	num := new(big.Int).Sub(x, big.NewInt(1))
	return num.Div(num, n)
}

func lcm(a, b *big.Int) *big.Int {
	gcd := new(big.Int).GCD(nil, nil, a, b)
	out := new(big.Int).Mul(a, b)
	return out.Div(out, gcd)
}

// Encrypt encrypts plaintext m (0 <= m < n) under pub using fresh
// randomness r drawn from core.
func Encrypt(core cryptocore.CryptoCore, pub PublicKey, m *big.Int) (*big.Int, error) {
	nSquared := new(big.Int).Mul(pub.N, pub.N)

	r, err := randomCoprime(core, pub.N)
	if err != nil {
		return nil, err
	}

	gm := new(big.Int).Exp(pub.G, m, nSquared)
	rn := new(big.Int).Exp(r, pub.N, nSquared)
	c := new(big.Int).Mul(gm, rn)
	c.Mod(c, nSquared)
	return c, nil
}

// Decrypt recovers the plaintext m from ciphertext c under priv.
func Decrypt(priv *PrivateKey, c *big.Int) *big.Int {
	nSquared := new(big.Int).Mul(priv.N, priv.N)
	cLambda := new(big.Int).Exp(c, priv.Lambda, nSquared)
	l := lFunction(cLambda, priv.N)
	m := new(big.Int).Mul(l, priv.Mu)
	m.Mod(m, priv.N)
	return m
}

// AddEncrypted homomorphically adds two ciphertexts: decrypt(c1*c2 mod n^2)
// == a+b mod n.
func AddEncrypted(pub PublicKey, c1, c2 *big.Int) *big.Int {
	nSquared := new(big.Int).Mul(pub.N, pub.N)
	out := new(big.Int).Mul(c1, c2)
	return out.Mod(out, nSquared)
}

// ScalarMultiplyEncrypted homomorphically multiplies a ciphertext by a
// plaintext scalar: decrypt(c^k mod n^2) == k*a mod n.
func ScalarMultiplyEncrypted(pub PublicKey, c, k *big.Int) *big.Int {
	nSquared := new(big.Int).Mul(pub.N, pub.N)
	return new(big.Int).Exp(c, k, nSquared)
}

func randomCoprime(core cryptocore.CryptoCore, n *big.Int) (*big.Int, error) {
	byteLen := (n.BitLen() + 7) / 8
	for {
		buf, err := core.RandomBytes(byteLen)
		if err != nil {
			return nil, fmt.Errorf("unable to draw encryption randomness: %w", err)
		}
		r := new(big.Int).SetBytes(buf)
		r.Mod(r, n)
		if r.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, r, n).Cmp(big.NewInt(1)) == 0 {
			return r, nil
		}
	}
}

// selfTest encrypts and decrypts the value 42 and requires equality,
// rejecting a malformed key pair before it is ever handed to a caller.
func (k *PrivateKey) selfTest() error {
	plaintext := big.NewInt(42)
	c, err := encryptDeterministicForSelfTest(k.PublicKey, plaintext)
	if err != nil {
		return fmt.Errorf("%w: %v", KeyPairValidationFailed, err)
	}
	got := Decrypt(k, c)
	if got.Cmp(plaintext) != 0 {
		return KeyPairValidationFailed
	}
	return nil
}

// encryptDeterministicForSelfTest encrypts with r=1, which is valid for
// Paillier (r must only be coprime to n, and 1 always is) and lets the
// self-test avoid depending on a CryptoCore randomness source.
func encryptDeterministicForSelfTest(pub PublicKey, m *big.Int) (*big.Int, error) {
	nSquared := new(big.Int).Mul(pub.N, pub.N)
	gm := new(big.Int).Exp(pub.G, m, nSquared)
	return gm, nil
}

func validatePublicKeyShape(pub []byte) error {
	switch len(pub) {
	case 33:
		return nil
	case 65:
		if pub[0] != 0x04 {
			return InvalidPublicKeyLength
		}
		return nil
	default:
		return InvalidPublicKeyLength
	}
}
