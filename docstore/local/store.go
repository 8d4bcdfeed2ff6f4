// Package local implements an embedded, badger-backed document store that
// evaluates the driver's query subset. It exists for development and tests:
// code written against the client can run unchanged against a Store, the
// same way a throwaway server would behave.
package local

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/wbrown/janus-docstore/docstore"
	"github.com/wbrown/janus-docstore/docstore/wire"
)

// ErrNotFound is returned when a get, update, or delete names a document
// that does not exist.
var ErrNotFound = errors.New("instance not found")

// Store is an embedded document store. Documents live under doc/<class>/<id>
// keys; every top-level scalar field of a document is also written to a term
// index under idx/<class>/<field>/<term>/<id>, which is what Match queries
// scan.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens (or creates) a store at the given path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger is chatty by default

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte("seq/documents"), 64)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open id sequence: %w", err)
	}

	return &Store{db: db, seq: seq}, nil
}

// Close releases the store. Unused ids from the allocation band are lost,
// which only makes ids non-contiguous.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// Query evaluates a query expression against the store. It accepts the
// expressions built by the query package: get, create, update, delete,
// match, and paginate. The signature matches client.Query so callers can
// target either.
func (s *Store) Query(ctx context.Context, expr docstore.Value) (docstore.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.eval(expr)
}

func (s *Store) eval(expr docstore.Value) (docstore.Value, error) {
	obj, ok := expr.(docstore.ObjectV)
	if !ok {
		// Non-object expressions evaluate to themselves
		return expr, nil
	}

	switch {
	case obj["get"] != nil:
		return s.evalGet(obj)
	case obj["create"] != nil:
		return s.evalCreate(obj)
	case obj["update"] != nil:
		return s.evalUpdate(obj)
	case obj["delete"] != nil:
		return s.evalDelete(obj)
	case obj["paginate"] != nil:
		return s.evalPaginate(obj)
	case obj["match"] != nil:
		return s.evalMatch(obj)
	default:
		// An object without an operation key is a literal
		return obj, nil
	}
}

func (s *Store) evalRef(expr docstore.Value) (docstore.RefV, error) {
	v, err := s.eval(expr)
	if err != nil {
		return docstore.RefV{}, err
	}
	return docstore.Ref(v).Get()
}

func (s *Store) evalGet(obj docstore.ObjectV) (docstore.Value, error) {
	ref, err := s.evalRef(obj["get"])
	if err != nil {
		return nil, err
	}

	class, id, err := splitDocRef(ref)
	if err != nil {
		return nil, err
	}
	return s.getInstance(class, id)
}

func (s *Store) evalCreate(obj docstore.ObjectV) (docstore.Value, error) {
	classRef, err := s.evalRef(obj["create"])
	if err != nil {
		return nil, err
	}
	class := classRef.ID

	data, err := paramsData(obj["params"])
	if err != nil {
		return nil, err
	}

	n, err := s.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("allocating document id: %w", err)
	}
	id := strconv.FormatUint(n+1, 10)

	instance := docstore.ObjectV{
		"ref":  docRef(class, id),
		"ts":   docstore.LongV(time.Now().UnixMicro()),
		"data": data,
	}

	if err := s.writeInstance(class, id, instance, data, nil); err != nil {
		return nil, err
	}
	return instance, nil
}

func (s *Store) evalUpdate(obj docstore.ObjectV) (docstore.Value, error) {
	ref, err := s.evalRef(obj["update"])
	if err != nil {
		return nil, err
	}
	class, id, err := splitDocRef(ref)
	if err != nil {
		return nil, err
	}

	patch, err := paramsData(obj["params"])
	if err != nil {
		return nil, err
	}

	existing, err := s.getInstance(class, id)
	if err != nil {
		return nil, err
	}
	oldData, _ := docstore.Object.At(existing, "data").Get()

	merged := make(docstore.ObjectV, len(oldData)+len(patch))
	for k, v := range oldData {
		merged[k] = v
	}
	for k, v := range patch {
		// Updating a field to Null removes it
		if _, isNull := v.(docstore.NullV); isNull {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	instance := docstore.ObjectV{
		"ref":  docRef(class, id),
		"ts":   docstore.LongV(time.Now().UnixMicro()),
		"data": merged,
	}

	if err := s.writeInstance(class, id, instance, merged, docstore.ObjectV(oldData)); err != nil {
		return nil, err
	}
	return instance, nil
}

func (s *Store) evalDelete(obj docstore.ObjectV) (docstore.Value, error) {
	ref, err := s.evalRef(obj["delete"])
	if err != nil {
		return nil, err
	}
	class, id, err := splitDocRef(ref)
	if err != nil {
		return nil, err
	}

	existing, err := s.getInstance(class, id)
	if err != nil {
		return nil, err
	}
	oldData, _ := docstore.Object.At(existing, "data").Get()

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(docKey(class, id)); err != nil {
			return err
		}
		return deleteIndexEntries(txn, class, id, docstore.ObjectV(oldData))
	})
	if err != nil {
		return nil, fmt.Errorf("deleting %s/%s: %w", class, id, err)
	}
	return existing, nil
}

func (s *Store) evalMatch(obj docstore.ObjectV) (docstore.Value, error) {
	index, err := s.evalRef(obj["index"])
	if err != nil {
		return nil, fmt.Errorf("match needs an index ref: %w", err)
	}
	term, err := s.eval(obj["match"])
	if err != nil {
		return nil, err
	}

	// Match is deferred: it evaluates to a set descriptor, and Paginate
	// does the actual scan
	return docstore.SetRefV{Parameters: docstore.ObjectV{
		"match": term,
		"index": index,
	}}, nil
}

func (s *Store) evalPaginate(obj docstore.ObjectV) (docstore.Value, error) {
	set, err := s.eval(obj["paginate"])
	if err != nil {
		return nil, err
	}
	setRef, err := docstore.SetRef(set).Get()
	if err != nil {
		return nil, fmt.Errorf("paginate needs a set: %w", err)
	}

	size := int64(64)
	if obj["size"] != nil {
		if size, err = docstore.Long(obj["size"]).Get(); err != nil {
			return nil, fmt.Errorf("paginate size: %w", err)
		}
	}

	index, err := docstore.Ref.At(setRef.Parameters, "index").Get()
	if err != nil {
		return nil, fmt.Errorf("malformed set: %w", err)
	}
	term, err := docstore.At(setRef.Parameters, "match").Get()
	if err != nil {
		return nil, fmt.Errorf("malformed set: %w", err)
	}

	class, field, err := splitIndexName(index.ID)
	if err != nil {
		return nil, err
	}

	termKey, err := encodeTerm(term)
	if err != nil {
		return nil, fmt.Errorf("match term: %w", err)
	}

	refs, err := s.scanIndex(class, field, termKey, size)
	if err != nil {
		return nil, err
	}
	return docstore.ObjectV{"data": refs}, nil
}

func (s *Store) scanIndex(class, field, termKey string, size int64) (docstore.ArrayV, error) {
	prefix := idxPrefix(class, field, termKey)
	refs := docstore.ArrayV{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && int64(len(refs)) < size; it.Next() {
			id := string(it.Item().Key()[len(prefix):])
			refs = append(refs, docRef(class, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning index %s.%s: %w", class, field, err)
	}
	return refs, nil
}

func (s *Store) getInstance(class, id string) (docstore.Value, error) {
	var raw []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(class, id))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, class, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", class, id, err)
	}

	return wire.Decode(raw)
}

// writeInstance stores the document and refreshes its term index entries.
// oldData is the previous document body, nil on create.
func (s *Store) writeInstance(class, id string, instance, data, oldData docstore.ObjectV) error {
	encoded, err := wire.Encode(instance)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", class, id, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(docKey(class, id), encoded); err != nil {
			return err
		}
		if oldData != nil {
			if err := deleteIndexEntries(txn, class, id, oldData); err != nil {
				return err
			}
		}
		return writeIndexEntries(txn, class, id, data)
	})
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", class, id, err)
	}
	return nil
}

func writeIndexEntries(txn *badger.Txn, class, id string, data docstore.ObjectV) error {
	for field, v := range data {
		termKey, ok := indexableTerm(v)
		if !ok {
			continue
		}
		if err := txn.Set(idxKey(class, field, termKey, id), nil); err != nil {
			return err
		}
	}
	return nil
}

func deleteIndexEntries(txn *badger.Txn, class, id string, data docstore.ObjectV) error {
	for field, v := range data {
		termKey, ok := indexableTerm(v)
		if !ok {
			continue
		}
		if err := txn.Delete(idxKey(class, field, termKey, id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
	}
	return nil
}

// indexableTerm encodes a field value for use in an index key. Containers
// and Null are not indexed.
func indexableTerm(v docstore.Value) (string, bool) {
	switch v.(type) {
	case docstore.NullV, docstore.ArrayV, docstore.ObjectV, docstore.SetRefV:
		return "", false
	}
	termKey, err := encodeTerm(v)
	if err != nil {
		return "", false
	}
	return termKey, true
}

// encodeTerm hex-encodes the wire form of a term so it is safe inside a
// "/"-separated key.
func encodeTerm(v docstore.Value) (string, error) {
	encoded, err := wire.Encode(v)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(encoded), nil
}

// paramsData pulls the document body out of a params expression. A missing
// params or data field is an empty body.
func paramsData(params docstore.Value) (docstore.ObjectV, error) {
	if params == nil {
		return docstore.ObjectV{}, nil
	}
	obj, ok := params.(docstore.ObjectV)
	if !ok {
		return nil, fmt.Errorf("params must be an object, got %s", params.Variant())
	}

	raw, present := obj["data"]
	if !present {
		return docstore.ObjectV{}, nil
	}
	data, ok := raw.(docstore.ObjectV)
	if !ok {
		return nil, fmt.Errorf("params.data must be an object, got %s", raw.Variant())
	}
	return data, nil
}

func docRef(class, id string) docstore.RefV {
	classes := docstore.RefV{ID: "classes"}
	classRef := docstore.RefV{ID: class, Parent: &classes}
	return docstore.RefV{ID: id, Parent: &classRef}
}

// splitDocRef extracts the class name and document id from a document ref
// of the shape classes/<class>/<id>.
func splitDocRef(ref docstore.RefV) (class, id string, err error) {
	if ref.Parent == nil {
		return "", "", fmt.Errorf("%s is not a document ref", ref)
	}
	return ref.Parent.ID, ref.ID, nil
}

// Index names follow the <class>.<field> convention; the store indexes
// every top-level scalar field, so no index creation step exists.
func splitIndexName(name string) (class, field string, err error) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			if i == 0 || i == len(name)-1 {
				break
			}
			return name[:i], name[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("index %q does not follow the class.field convention", name)
}

func docKey(class, id string) []byte {
	return []byte("doc/" + class + "/" + id)
}

func idxKey(class, field, termKey, id string) []byte {
	return []byte("idx/" + class + "/" + field + "/" + termKey + "/" + id)
}

func idxPrefix(class, field, termKey string) []byte {
	return []byte("idx/" + class + "/" + field + "/" + termKey + "/")
}
