// Package enginecore provides a streaming hybrid-encryption engine built on
// ECIES over secp256k1 with AES-256-GCM payload protection.
//
// A byte stream is encrypted as an ordered sequence of self-describing,
// independently-authenticatable chunks (package chunkcodec), optionally
// fanned out to many recipients through a shared symmetric key wrapped once
// per recipient (package multirecipient). The streaming engine (package
// stream) segments an arbitrarily large byte source into chunks and the
// reverse, the resumable manager (package resume) wraps the engine with
// integrity-protected checkpoint state so a long-running encryption can
// survive a restart. A separate subsystem (package paillier) deterministically
// derives a Paillier homomorphic key pair from an ECDH shared secret.
//
// The elliptic-curve primitives (key generation, ECDH, HKDF, AES-GCM) are
// provided through the cryptocore package's CryptoCore capability; nothing
// in this module reaches for crypto/elliptic or net directly outside of it.
package enginecore
