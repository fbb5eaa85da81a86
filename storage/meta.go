package storage

import "errors"

var factoryNonceKey = []byte("factory-nonce")

// SetFactoryNonce persists the round factory's next nonce so event ids stay
// unique across restarts.
func (s *Storage) SetFactoryNonce(nonce uint64) error {
	return s.setArtifact(metaPrefix, factoryNonceKey, nonce)
}

// FactoryNonce returns the persisted factory nonce, zero when none was
// stored yet.
func (s *Storage) FactoryNonce() (uint64, error) {
	var nonce uint64
	err := s.getArtifact(metaPrefix, factoryNonceKey, &nonce)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	return nonce, err
}
