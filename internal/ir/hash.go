package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRule    = "datalogq/rule/v" + IRVersion
	DomainProgram = "datalogq/program/v" + IRVersion
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleHash computes the content-addressed ID of a rule from its rendering
// with NFC-normalized names. Rules that render identically share a hash.
func RuleHash(r Rule) string {
	return hashWithDomain(DomainRule, []byte(CanonicalName(r.String())))
}

// ProgramHash computes the content-addressed ID of a program. Rule order is
// part of the identity.
func ProgramHash(p Program) string {
	return hashWithDomain(DomainProgram, []byte(CanonicalName(p.String())))
}
