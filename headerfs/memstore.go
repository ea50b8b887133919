package headerfs

import (
	"sync"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// memStore is a map-backed BlockStore with no persistence, used for
// regtest and unit tests where surviving a process restart isn't
// required.
type memStore struct {
	mu     sync.RWMutex
	blocks map[chainhash.Hash]*StoredBlock
	tip    *chainhash.Hash
}

// NewMemStore returns a BlockStore that keeps every header in memory
// only.
func NewMemStore() BlockStore {
	return &memStore{blocks: make(map[chainhash.Hash]*StoredBlock)}
}

func (m *memStore) Put(sb *StoredBlock) er.R {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash := sb.Hash()
	if existing, ok := m.blocks[hash]; ok {
		if existing.Height != sb.Height || existing.ChainWork.Cmp(sb.ChainWork) != 0 ||
			existing.Header.BlockHash() != sb.Header.BlockHash() {
			return ErrConflict.Default()
		}
		return nil
	}
	m.blocks[hash] = sb
	return nil
}

func (m *memStore) Get(hash *chainhash.Hash) (*StoredBlock, er.R) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sb, ok := m.blocks[*hash]
	if !ok {
		return nil, ErrHeaderNotFound.Default()
	}
	return sb, nil
}

func (m *memStore) Has(hash *chainhash.Hash) (bool, er.R) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[*hash]
	return ok, nil
}

func (m *memStore) SetChainTip(hash *chainhash.Hash) er.R {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blocks[*hash]; !ok {
		return ErrHeaderNotFound.Default()
	}
	h := *hash
	m.tip = &h
	return nil
}

func (m *memStore) ChainTip() (*StoredBlock, er.R) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tip == nil {
		return nil, ErrNoChainTip.Default()
	}
	return m.blocks[*m.tip], nil
}

func (m *memStore) Close() er.R { return nil }
