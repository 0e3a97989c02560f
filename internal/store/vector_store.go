package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
)

// VectorStore is the sibling on-disk embedding index for a workspace
// a separate SQLite file next to the relational store,
// built on sqlite-vec's vec0 virtual table. vec0 addresses rows by
// integer rowid, so nodeRowID bridges that to Supertag's opaque
// string node ids.
type VectorStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	dim  int
}

// VectorMatch is one result of a nearest-neighbor search.
type VectorMatch struct {
	NodeID   string
	Distance float64
}

// openVectorStore opens (creating if necessary) the embeddings database
// under dir. The vec0 table itself is created lazily on the first
// EnsureDimensions call, since sqlite-vec fixes the vector width at
// table-creation time and the configured embedding engine determines it.
func openVectorStore(dir string) (*VectorStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, superr.Wrap(superr.InternalError, err, "creating vector store directory "+dir)
	}
	path := filepath.Join(dir, "embeddings.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "opening vector store "+path)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(p); err != nil {
			logging.Get(logging.CategoryEmbedding).Warn("vector store pragma failed %q: %v", p, err)
		}
	}

	vs := &VectorStore{db: db, path: path}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS node_vectors (
			node_id TEXT PRIMARY KEY,
			vec_rowid INTEGER UNIQUE NOT NULL,
			content_hash TEXT NOT NULL,
			updated INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "creating node_vectors mapping table")
	}

	if dim, err := vs.existingDimensions(); err == nil && dim > 0 {
		vs.dim = dim
	}

	return vs, nil
}

func (vs *VectorStore) existingDimensions() (int, error) {
	var ddl string
	err := vs.db.QueryRow("SELECT sql FROM sqlite_master WHERE name = 'vec_embeddings'").Scan(&ddl)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var dim int
	if _, serr := fmt.Sscanf(ddl, "CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d])", &dim); serr != nil {
		return 0, nil
	}
	return dim, nil
}

// Close closes the vector store database.
func (vs *VectorStore) Close() error {
	return vs.db.Close()
}

// EnsureDimensions creates the vec0 table sized for dim if it does not
// already exist. A workspace may only embed with one vector width at a
// time; changing embedding providers requires re-embedding from scratch
// out of scope here.
func (vs *VectorStore) EnsureDimensions(dim int) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.dim != 0 {
		if vs.dim != dim {
			return superr.Newf(superr.InvalidParameter,
				"vector store already sized for %d dimensions, got %d", vs.dim, dim)
		}
		return nil
	}

	stmt := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d])", dim)
	if _, err := vs.db.Exec(stmt); err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "creating vec_embeddings table")
	}
	vs.dim = dim
	return nil
}

// Upsert stores or replaces the embedding for nodeID along with the
// content hash it was computed from, so the embedding package can skip
// unchanged nodes on the next pass.
func (vs *VectorStore) Upsert(nodeID string, embedding []float32, contentHash string, updated int64) error {
	if err := vs.EnsureDimensions(len(embedding)); err != nil {
		return err
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()

	var rowID int64
	err := vs.db.QueryRow("SELECT vec_rowid FROM node_vectors WHERE node_id = ?", nodeID).Scan(&rowID)
	switch {
	case err == sql.ErrNoRows:
		res, err := vs.db.Exec(
			"INSERT INTO vec_embeddings(embedding) VALUES (?)",
			encodeFloat32(embedding),
		)
		if err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "inserting embedding for "+nodeID)
		}
		rowID, err = res.LastInsertId()
		if err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "reading embedding rowid for "+nodeID)
		}
		if _, err := vs.db.Exec(
			"INSERT INTO node_vectors(node_id, vec_rowid, content_hash, updated) VALUES (?, ?, ?, ?)",
			nodeID, rowID, contentHash, updated,
		); err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "mapping node "+nodeID+" to vector row")
		}
	case err != nil:
		return superr.Wrap(superr.DatabaseCorrupt, err, "looking up vector rowid for "+nodeID)
	default:
		if _, err := vs.db.Exec(
			"UPDATE vec_embeddings SET embedding = ? WHERE rowid = ?", encodeFloat32(embedding), rowID,
		); err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "updating embedding for "+nodeID)
		}
		if _, err := vs.db.Exec(
			"UPDATE node_vectors SET content_hash = ?, updated = ? WHERE node_id = ?", contentHash, updated, nodeID,
		); err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "updating vector mapping for "+nodeID)
		}
	}
	return nil
}

// Delete removes nodeID's embedding, called when the indexer determines
// a node was deleted from the snapshot.
func (vs *VectorStore) Delete(nodeID string) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	var rowID int64
	err := vs.db.QueryRow("SELECT vec_rowid FROM node_vectors WHERE node_id = ?", nodeID).Scan(&rowID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "looking up vector rowid for "+nodeID)
	}
	if _, err := vs.db.Exec("DELETE FROM vec_embeddings WHERE rowid = ?", rowID); err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "deleting embedding for "+nodeID)
	}
	if _, err := vs.db.Exec("DELETE FROM node_vectors WHERE node_id = ?", nodeID); err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "deleting vector mapping for "+nodeID)
	}
	return nil
}

// ContentHash returns the hash embedding was last generated from for
// nodeID, used to skip re-embedding unchanged content.
func (vs *VectorStore) ContentHash(nodeID string) (string, bool, error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	var hash string
	err := vs.db.QueryRow("SELECT content_hash FROM node_vectors WHERE node_id = ?", nodeID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, superr.Wrap(superr.DatabaseCorrupt, err, "reading content hash for "+nodeID)
	}
	return hash, true, nil
}

// Stats reports how many nodes have vectors and at what dimensionality.
func (vs *VectorStore) Stats() (count int, dimensions int, err error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	if qerr := vs.db.QueryRow("SELECT COUNT(*) FROM node_vectors").Scan(&count); qerr != nil {
		return 0, 0, superr.Wrap(superr.DatabaseCorrupt, qerr, "counting embedded nodes")
	}
	return count, vs.dim, nil
}

// Search returns the k nearest neighbors of query by the vec0 table's
// default (L2) distance.
func (vs *VectorStore) Search(query []float32, k int) ([]VectorMatch, error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	if vs.dim == 0 {
		return nil, nil
	}
	if len(query) != vs.dim {
		return nil, superr.Newf(superr.InvalidParameter,
			"query vector has %d dimensions, store is sized for %d", len(query), vs.dim)
	}

	rows, err := vs.db.Query(`
		SELECT nv.node_id, ve.distance
		FROM vec_embeddings ve
		JOIN node_vectors nv ON nv.vec_rowid = ve.rowid
		WHERE ve.embedding MATCH ? AND k = ?
		ORDER BY ve.distance
	`, encodeFloat32(query), k)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "searching vec_embeddings")
	}
	defer rows.Close()

	var out []VectorMatch
	for rows.Next() {
		var m VectorMatch
		if err := rows.Scan(&m.NodeID, &m.Distance); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning vector match")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// encodeFloat32 packs a float32 slice as a little-endian byte blob, the
// format sqlite-vec's vec0 module expects for its embedding column.
func encodeFloat32(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
