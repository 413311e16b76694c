// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package corpus persists extracted documents in BadgerDB so a corpus can
// be built incrementally and exported as one JSON array.
package corpus

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/apisketch/services/sketch/extract"
	"github.com/AleutianAI/apisketch/services/sketch/ir"
	badgerstore "github.com/AleutianAI/apisketch/services/sketch/storage/badger"
)

// BadgerDB key prefixes for the corpus.
const (
	keyPrefixDoc    = "sketch:doc:"
	keyPrefixSrc    = "sketch:src:"
	keyPrefixSrcDoc = "sketch:srcdoc:"
	keySuffixData   = ":data"
	keySuffixMeta   = ":meta"
)

var _ extract.Store = (*Store)(nil)

// ErrIntegrity is returned when a stored payload does not match its hash.
var ErrIntegrity = errors.New("corpus integrity check failed")

// DocumentMeta describes one stored document.
type DocumentMeta struct {
	// DocHash identifies the document: SHA256 over source file, IR key and
	// documentation, truncated to 32 hex characters.
	DocHash string `json:"doc_hash"`

	SourceFile string `json:"source_file"`

	// SequenceCount is the number of sequences in the document.
	SequenceCount int `json:"sequence_count"`

	CreatedAtMilli int64 `json:"created_at_milli"`

	// CompressedSize is the size of the gzip payload in bytes.
	CompressedSize int64 `json:"compressed_size"`

	// ContentHash is the SHA256 of the gzip payload.
	ContentHash string `json:"content_hash"`
}

// Stats summarizes the stored corpus.
type Stats struct {
	Documents       int   `json:"documents"`
	Sources         int   `json:"sources"`
	CompressedBytes int64 `json:"compressed_bytes"`
}

// Store is a BadgerDB-backed document corpus.
//
// Description:
//
//	Documents are stored as gzip-compressed JSON with a metadata record
//	carrying an integrity hash. Each source path records the content hash
//	it was last extracted with, so unchanged files can be skipped, and an
//	index of the documents it produced, so a changed file replaces its
//	documents.
//
// Key Schema:
//
//	sketch:doc:{docHash}:data          → gzip(JSON(Document))
//	sketch:doc:{docHash}:meta          → JSON(DocumentMeta)
//	sketch:src:{pathHash}              → content hash of the source
//	sketch:srcdoc:{pathHash}:{docHash} → empty
//
// Thread Safety:
//
//	Safe for concurrent use. BadgerDB handles its own concurrency control.
type Store struct {
	db     *badgerstore.DB
	logger *slog.Logger
}

// NewStore creates a Store over an opened database.
//
// Inputs:
//
//	db     - An opened database. Must not be nil. The caller closes it.
//	logger - Logger for diagnostic output. Must not be nil.
func NewStore(db *badgerstore.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	return &Store{db: db, logger: logger}, nil
}

// DocumentHash returns the identity hash of a document.
func DocumentHash(doc extract.Document) string {
	h := sha256.New()
	writeField(h, doc.SourceFile)
	writeField(h, doc.IR.Nodes.Key())
	if doc.Documentation != nil {
		writeField(h, "1")
		writeField(h, *doc.Documentation)
	} else {
		writeField(h, "0")
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func writeField(w io.Writer, s string) {
	fmt.Fprintf(w, "%d:%s;", len(s), s)
}

// Put stores a document, replacing any document with the same identity.
func (s *Store) Put(ctx context.Context, doc extract.Document) error {
	jsonData, err := ir.EncodeJSON(doc)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	var compressed bytes.Buffer
	gw, err := gzip.NewWriterLevel(&compressed, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gw.Write(jsonData); err != nil {
		return fmt.Errorf("compressing document: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}
	data := compressed.Bytes()

	docHash := DocumentHash(doc)
	meta := DocumentMeta{
		DocHash:        docHash,
		SourceFile:     doc.SourceFile,
		SequenceCount:  len(doc.Sequences),
		CreatedAtMilli: time.Now().UnixMilli(),
		CompressedSize: int64(len(data)),
		ContentHash:    hashBytes(data),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	srcDocKey := keyPrefixSrcDoc + pathHash(doc.SourceFile) + ":" + docHash
	err = s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		if err := txn.Set([]byte(keyPrefixDoc+docHash+keySuffixData), data); err != nil {
			return fmt.Errorf("storing data: %w", err)
		}
		if err := txn.Set([]byte(keyPrefixDoc+docHash+keySuffixMeta), metaJSON); err != nil {
			return fmt.Errorf("storing metadata: %w", err)
		}
		if err := txn.Set([]byte(srcDocKey), nil); err != nil {
			return fmt.Errorf("storing source index: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing document %s: %w", docHash, err)
	}
	return nil
}

// SourceUnchanged reports whether path was last extracted with contentHash.
func (s *Store) SourceUnchanged(ctx context.Context, path, contentHash string) (bool, error) {
	var stored string
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get([]byte(keyPrefixSrc + pathHash(path)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			stored = string(val)
			return nil
		})
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading source %s: %w", path, err)
	}
	return stored == contentHash, nil
}

// MarkSource records the content hash path was extracted with.
func (s *Store) MarkSource(ctx context.Context, path, contentHash string) error {
	return s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Set([]byte(keyPrefixSrc+pathHash(path)), []byte(contentHash))
	})
}

// ForgetSource deletes the documents path produced and its content hash.
func (s *Store) ForgetSource(ctx context.Context, path string) error {
	prefix := keyPrefixSrcDoc + pathHash(path) + ":"

	var indexKeys [][]byte
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			indexKeys = append(indexKeys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("listing documents of %s: %w", path, err)
	}

	err = s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		for _, k := range indexKeys {
			docHash := strings.TrimPrefix(string(k), prefix)
			for _, key := range []string{keyPrefixDoc + docHash + keySuffixData, keyPrefixDoc + docHash + keySuffixMeta} {
				if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, dgbadger.ErrKeyNotFound) {
					return fmt.Errorf("deleting %s: %w", key, err)
				}
			}
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("deleting source index: %w", err)
			}
		}
		if err := txn.Delete([]byte(keyPrefixSrc + pathHash(path))); err != nil && !errors.Is(err, dgbadger.ErrKeyNotFound) {
			return fmt.Errorf("deleting source hash: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("forgetting %s: %w", path, err)
	}

	if len(indexKeys) > 0 {
		s.logger.Debug("corpus source forgotten",
			slog.String("path", path),
			slog.Int("documents", len(indexKeys)),
		)
	}
	return nil
}

// SourceDocuments passes the stored documents of path to fn in
// document-hash order.
//
// Description:
//
//	Every document is loaded and integrity-checked once before the first
//	call to fn, so a corrupt record fails the call without fn having seen
//	part of the set. Documents are then decoded again one at a time.
//
// Outputs:
//
//	int   - Number of documents passed to fn.
//	error - A read or integrity failure, or the first error from fn.
func (s *Store) SourceDocuments(ctx context.Context, path string, fn func(extract.Document) error) (int, error) {
	prefix := keyPrefixSrcDoc + pathHash(path) + ":"

	var hashes []string
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			hashes = append(hashes, strings.TrimPrefix(string(it.Item().Key()), prefix))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("listing documents of %s: %w", path, err)
	}

	for _, h := range hashes {
		if _, err := s.Get(ctx, h); err != nil {
			return 0, fmt.Errorf("loading documents of %s: %w", path, err)
		}
	}

	for i, h := range hashes {
		doc, err := s.Get(ctx, h)
		if err != nil {
			return i, fmt.Errorf("loading documents of %s: %w", path, err)
		}
		if err := fn(doc); err != nil {
			return i, err
		}
	}
	return len(hashes), nil
}

// Get loads one document by hash, verifying its integrity.
func (s *Store) Get(ctx context.Context, docHash string) (extract.Document, error) {
	var data, metaJSON []byte
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get([]byte(keyPrefixDoc + docHash + keySuffixData))
		if err != nil {
			return fmt.Errorf("reading data for %s: %w", docHash, err)
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get([]byte(keyPrefixDoc + docHash + keySuffixMeta))
		if err != nil {
			return fmt.Errorf("reading metadata for %s: %w", docHash, err)
		}
		metaJSON, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return extract.Document{}, err
	}
	return decodeDocument(docHash, data, metaJSON)
}

// Export streams every stored document to em in document-hash order.
//
// Description:
//
//	Documents that fail their integrity check are logged and skipped.
//	The emitter is not closed.
//
// Outputs:
//
//	int   - Number of documents exported.
//	error - Non-nil on a read or emit failure.
func (s *Store) Export(ctx context.Context, em *extract.Emitter) (int, error) {
	if em == nil {
		return 0, fmt.Errorf("emitter must not be nil")
	}

	prefix := []byte(keyPrefixDoc)
	exported := 0
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(it.Item().Key())
			if !strings.HasSuffix(key, keySuffixData) {
				continue
			}
			docHash := strings.TrimSuffix(strings.TrimPrefix(key, keyPrefixDoc), keySuffixData)

			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("copying data for %s: %w", docHash, err)
			}
			metaItem, err := txn.Get([]byte(keyPrefixDoc + docHash + keySuffixMeta))
			if err != nil {
				s.logger.Warn("skipping document without metadata", slog.String("doc_hash", docHash))
				continue
			}
			metaJSON, err := metaItem.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("copying metadata for %s: %w", docHash, err)
			}

			doc, err := decodeDocument(docHash, data, metaJSON)
			if err != nil {
				s.logger.Warn("skipping corrupt document", slog.String("doc_hash", docHash), slog.Any("error", err))
				continue
			}
			if err := em.Emit(doc); err != nil {
				return err
			}
			exported++
		}
		return nil
	})
	if err != nil {
		return exported, fmt.Errorf("exporting corpus: %w", err)
	}

	s.logger.Info("corpus exported", slog.Int("documents", exported))
	return exported, nil
}

// Stats counts stored documents and sources.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.Prefix = []byte("sketch:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())
			switch {
			case strings.HasPrefix(key, keyPrefixDoc) && strings.HasSuffix(key, keySuffixData):
				st.Documents++
				st.CompressedBytes += item.ValueSize()
			case strings.HasPrefix(key, keyPrefixSrc):
				st.Sources++
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("reading corpus stats: %w", err)
	}
	return st, nil
}

func decodeDocument(docHash string, data, metaJSON []byte) (extract.Document, error) {
	var meta DocumentMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return extract.Document{}, fmt.Errorf("unmarshaling metadata for %s: %w", docHash, err)
	}
	if actual := hashBytes(data); meta.ContentHash != "" && meta.ContentHash != actual {
		return extract.Document{}, fmt.Errorf("%w: %s: expected hash %s, got %s", ErrIntegrity, docHash, meta.ContentHash, actual)
	}

	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return extract.Document{}, fmt.Errorf("decompressing %s: %w", docHash, err)
	}
	defer gr.Close()

	jsonData, err := io.ReadAll(gr)
	if err != nil {
		return extract.Document{}, fmt.Errorf("reading decompressed data for %s: %w", docHash, err)
	}

	var doc extract.Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return extract.Document{}, fmt.Errorf("unmarshaling document %s: %w", docHash, err)
	}
	return doc, nil
}

func pathHash(path string) string {
	return hashBytes([]byte(path))[:16]
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
