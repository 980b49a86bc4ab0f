package trie

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"rotexchain/storage"
)

// nodeJournalPrefix namespaces persisted trie nodes inside the flat store so
// they can coexist with ledger metadata records.
var nodeJournalPrefix = []byte("trienode/")

// Trie wraps go-ethereum's trie implementation to expose a simplified API for
// the rest of the codebase. Committed nodes are journalled into the backing
// storage so a trie can be reopened at a known root after a restart.
//
// The keys passed into Get/Update are expected to be fully hashed (keccak256)
// before insertion.
//
// Trie is not safe for concurrent use.
type Trie struct {
	store   storage.Database
	backend *memorydb.Database
	trieDB  *triedb.Database
	trie    *gethtrie.Trie
	root    common.Hash
}

// NewTrie creates a trie backed by the provided storage and optional root. A
// nil or empty root denotes the empty trie; a non-empty root is resolved from
// the node journal persisted by earlier commits.
func NewTrie(store storage.Database, root []byte) (*Trie, error) {
	backend := memorydb.New()
	if store != nil {
		err := store.Iterate(nodeJournalPrefix, func(key, value []byte) bool {
			hash := key[len(nodeJournalPrefix):]
			_ = backend.Put(append([]byte(nil), hash...), value)
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	trieDB := triedb.NewDatabase(rawdb.NewDatabase(backend), triedb.HashDefaults)
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(rootHash), trieDB)
	if err != nil {
		return nil, err
	}
	return &Trie{
		store:   store,
		backend: backend,
		trieDB:  trieDB,
		trie:    underlying,
		root:    rootHash,
	}, nil
}

// Get retrieves a value from the trie for the provided key.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(key)
}

// Update inserts or updates a value in the trie for the provided key.
func (t *Trie) Update(key, value []byte) error {
	return t.trie.Update(key, value)
}

// Hash returns the root hash of the trie reflecting all in-memory mutations.
func (t *Trie) Hash() common.Hash {
	return t.trie.Hash()
}

// Root returns the last committed root hash.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Reset discards any in-memory changes and reloads the trie at the provided
// root. It is primarily used to roll back speculative state transitions.
func (t *Trie) Reset(root common.Hash) error {
	underlying, err := gethtrie.New(gethtrie.TrieID(root), t.trieDB)
	if err != nil {
		return err
	}
	t.trie = underlying
	t.root = root
	return nil
}

// Copy creates a shallow copy of the trie wrapper using go-ethereum's trie
// cloning facilities. The returned trie shares the same underlying database but
// can be mutated independently.
func (t *Trie) Copy() (*Trie, error) {
	copied := t.trie.Copy()
	return &Trie{
		store:   t.store,
		backend: t.backend,
		trieDB:  t.trieDB,
		trie:    copied,
		root:    t.root,
	}, nil
}

// Commit persists the trie changes to the node database, journals the freshly
// written nodes into the flat store and returns the new root hash. After
// committing the wrapper recreates the underlying trie so it can be reused for
// subsequent transitions.
func (t *Trie) Commit(parent common.Hash, sequence uint64) (common.Hash, error) {
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Update(newRoot, parent, sequence, merged, nil); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Commit(newRoot, false); err != nil {
			return common.Hash{}, err
		}
		if t.store != nil {
			var journalErr error
			nodes.ForEachWithOrder(func(path string, n *trienode.Node) {
				if journalErr != nil || len(n.Blob) == 0 {
					return
				}
				key := make([]byte, 0, len(nodeJournalPrefix)+common.HashLength)
				key = append(key, nodeJournalPrefix...)
				key = append(key, n.Hash.Bytes()...)
				journalErr = t.store.Put(key, n.Blob)
			})
			if journalErr != nil {
				return common.Hash{}, journalErr
			}
		}
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(newRoot), t.trieDB)
	if err != nil {
		return common.Hash{}, err
	}
	t.trie = underlying
	t.root = newRoot
	return newRoot, nil
}

// Store exposes the backing storage in case callers need to access it directly.
func (t *Trie) Store() storage.Database {
	return t.store
}
