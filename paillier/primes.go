package paillier

import "math/big"

// smallPrimeSieveCount is the size of the trial-division sieve run against
// every DRBG-drawn candidate before the more expensive Miller-Rabin test.
const smallPrimeSieveCount = 54

// firstNPrimes returns the first n primes via simple trial division. n is
// always small in this package (54 for the sieve table, up to 256 for
// Miller-Rabin witnesses), so a naive sieve is adequate and avoids carrying
// a hardcoded table that could silently drift from the constants it backs.
func firstNPrimes(n int) []uint64 {
	primes := make([]uint64, 0, n)
	candidate := uint64(2)
	for len(primes) < n {
		isPrime := true
		for _, p := range primes {
			if p*p > candidate {
				break
			}
			if candidate%p == 0 {
				isPrime = false
				break
			}
		}
		if isPrime {
			primes = append(primes, candidate)
		}
		candidate++
	}
	return primes
}

var sieveTable = firstNPrimes(smallPrimeSieveCount)

// passesSmallPrimeSieve reports whether n survives trial division against
// the first 54 small primes (n itself is never one of them: candidates are
// always drawn with a fixed high bit length well above 251).
func passesSmallPrimeSieve(n *big.Int) bool {
	for _, p := range sieveTable {
		if new(big.Int).Mod(n, big.NewInt(0).SetUint64(p)).Sign() == 0 {
			return false
		}
	}
	return true
}

// millerRabinWitnesses returns the first k primes, each mapped into
// [2, n-2] by the formula the base specification prescribes: since the
// witness primes are always vastly smaller than n (an n-bit RSA-scale
// modulus candidate), the modulus reduction is a no-op and the mapping
// reduces to witness = prime + 2.
func millerRabinWitnesses(n *big.Int, k int) []*big.Int {
	primes := firstNPrimes(k)
	bound := new(big.Int).Sub(n, big.NewInt(4))
	witnesses := make([]*big.Int, 0, k)
	for _, p := range primes {
		pb := new(big.Int).SetUint64(p)
		w := new(big.Int).Mod(pb, bound)
		w.Add(w, big.NewInt(2))
		witnesses = append(witnesses, w)
	}
	return witnesses
}

// millerRabin runs the deterministic witness-list Miller-Rabin primality
// test (not crypto/rand-seeded, per the base spec's determinism
// requirement: identical seeds must produce identical prime sequences).
func millerRabin(n *big.Int, k int) bool {
	if n.Bit(0) == 0 {
		return false
	}

	nMinus1 := new(big.Int).Sub(n, big.NewInt(1))
	d := new(big.Int).Set(nMinus1)
	r := 0
	for d.Bit(0) == 0 {
		d.Rsh(d, 1)
		r++
	}

	for _, a := range millerRabinWitnesses(n, k) {
		if a.Cmp(big.NewInt(2)) < 0 {
			a = big.NewInt(2)
		}
		x := new(big.Int).Exp(a, d, n)
		if x.Cmp(big.NewInt(1)) == 0 || x.Cmp(nMinus1) == 0 {
			continue
		}

		composite := true
		for i := 0; i < r-1; i++ {
			x.Mul(x, x)
			x.Mod(x, n)
			if x.Cmp(nMinus1) == 0 {
				composite = false
				break
			}
		}
		if composite {
			return false
		}
	}
	return true
}

// generatePrime runs the DRBG-driven candidate loop: exactly maxAttempts
// iterations, each drawing ceil(bits/8) bytes, fixing the top and bottom
// bits, sieving, then Miller-Rabin testing. The loop always completes its
// full attempt budget (continuing to draw DRBG bytes after a candidate is
// found) to avoid an attempt-count timing signal, returning the first
// candidate that passed.
func generatePrime(drbg *hmacDRBG, bits, maxAttempts, millerRabinRounds int) (*big.Int, error) {
	byteLen := (bits + 7) / 8
	var found *big.Int

	for i := 0; i < maxAttempts; i++ {
		buf := drbg.generate(byteLen)

		if extra := byteLen*8 - bits; extra > 0 {
			// Clear the unused high-order bits, then set the topmost used
			// bit so the candidate has exactly `bits` bits.
			buf[0] &= 0xFF >> uint(extra)
			buf[0] |= 1 << uint(8-extra-1)
		} else {
			buf[0] |= 0x80
		}
		buf[len(buf)-1] |= 0x01

		candidate := new(big.Int).SetBytes(buf)

		if found != nil {
			continue
		}
		if !passesSmallPrimeSieve(candidate) {
			continue
		}
		if !millerRabin(candidate, millerRabinRounds) {
			continue
		}
		found = candidate
	}

	if found == nil {
		return nil, PrimeGenerationFailed
	}
	return found, nil
}
