package headerfs

import (
	"bytes"
	"errors"

	"go.etcd.io/bbolt"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// boltStore is a BlockStore backed by a single bbolt database file. Every
// validated header is kept, keyed by its hash, in the blocksBucket; the
// chain tip hash is kept as a single key in metaBucket so it survives a
// restart alongside the headers it references.
//
// The teacher's pktwallet/walletdb "bdb" driver wraps bbolt behind a
// generic bucket-transaction interface; that driver's implementation
// didn't survive into this tree (only its test file did), so this store
// talks to bbolt directly instead of through that abstraction.
type boltStore struct {
	db *bbolt.DB
}

var (
	blocksBucket = []byte("blocks")
	metaBucket   = []byte("meta")
	tipKey       = []byte("tip")
)

// NewBoltStore opens (creating if necessary) a bbolt-backed BlockStore at
// path.
func NewBoltStore(path string) (BlockStore, er.R) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, er.E(err)
	}

	dbErr := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blocksBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if dbErr != nil {
		db.Close()
		return nil, er.E(dbErr)
	}

	return &boltStore{db: db}, nil
}

var errRecordConflict = errors.New("headerfs: conflicting record")

func (b *boltStore) Put(sb *StoredBlock) er.R {
	enc, err := sb.serialize()
	if err != nil {
		return err
	}
	hash := sb.Hash()

	dbErr := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(blocksBucket)
		if existing := bucket.Get(hash[:]); existing != nil {
			if !bytes.Equal(existing, enc) {
				return errRecordConflict
			}
			return nil
		}
		return bucket.Put(hash[:], enc)
	})
	if dbErr == errRecordConflict {
		return ErrConflict.Default()
	}
	return er.E(dbErr)
}

func (b *boltStore) Get(hash *chainhash.Hash) (*StoredBlock, er.R) {
	var enc []byte
	dbErr := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(blocksBucket).Get(hash[:])
		if v == nil {
			return nil
		}
		enc = make([]byte, len(v))
		copy(enc, v)
		return nil
	})
	if dbErr != nil {
		return nil, er.E(dbErr)
	}
	if enc == nil {
		return nil, ErrHeaderNotFound.Default()
	}
	return deserializeStoredBlock(enc)
}

func (b *boltStore) Has(hash *chainhash.Hash) (bool, er.R) {
	var found bool
	dbErr := b.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(blocksBucket).Get(hash[:]) != nil
		return nil
	})
	return found, er.E(dbErr)
}

var errTipNotStored = errors.New("headerfs: chain tip hash not stored")

func (b *boltStore) SetChainTip(hash *chainhash.Hash) er.R {
	dbErr := b.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(blocksBucket).Get(hash[:]) == nil {
			return errTipNotStored
		}
		return tx.Bucket(metaBucket).Put(tipKey, hash[:])
	})
	if dbErr == errTipNotStored {
		return ErrHeaderNotFound.Default()
	}
	return er.E(dbErr)
}

func (b *boltStore) ChainTip() (*StoredBlock, er.R) {
	var tipHash chainhash.Hash
	var found bool
	dbErr := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(metaBucket).Get(tipKey)
		if v == nil {
			return nil
		}
		found = true
		copy(tipHash[:], v)
		return nil
	})
	if dbErr != nil {
		return nil, er.E(dbErr)
	}
	if !found {
		return nil, ErrNoChainTip.Default()
	}
	return b.Get(&tipHash)
}

func (b *boltStore) Close() er.R {
	return er.E(b.db.Close())
}
