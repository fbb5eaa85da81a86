package config

import (
	"encoding/hex"
	"fmt"

	"github.com/giftring/giftring-core/util"
)

const (
	// Verifying key artifacts for the sender determination circuit
	SenderVerificationKeyURL  = "https://media.githubusercontent.com/media/giftring/giftring-circuits-artifacts/main/sender/sender.vk"
	SenderVerificationKeyHash = "9c1cd7b14e2e6aab7bbd147a5eaf0d027d6a5a487b03b3bf0cfe5f7b9a5d4c1e"
	// Verifying key artifacts for the receiver disclosure circuit
	ReceiverVerificationKeyURL  = "https://media.githubusercontent.com/media/giftring/giftring-circuits-artifacts/main/receiver/receiver.vk"
	ReceiverVerificationKeyHash = "f3d0a14f6c7f2f0899ec0dd2a85a2a1f7a74a0a86a41bfe71f9d3a913f2b6c58"
)

// DefaultVerifyingKeys returns the verifying key bundle pointing at the
// default remote artifacts.
func DefaultVerifyingKeys() *VerifyingKeys {
	return NewVerifyingKeys(
		&Artifact{
			Name:      "sender-vk",
			RemoteURL: SenderVerificationKeyURL,
			Hash:      mustHexHash(SenderVerificationKeyHash),
		},
		&Artifact{
			Name:      "receiver-vk",
			RemoteURL: ReceiverVerificationKeyURL,
			Hash:      mustHexHash(ReceiverVerificationKeyHash),
		},
	)
}

// mustHexHash decodes a compile time hash literal, with or without the 0x
// prefix.
func mustHexHash(s string) []byte {
	hb, err := hex.DecodeString(util.TrimHex(s))
	if err != nil {
		panic(fmt.Sprintf("invalid hash literal %q: %v", s, err))
	}
	return hb
}
