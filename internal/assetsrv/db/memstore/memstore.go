// Package memstore is an in-process DocStore used by tests and single node
// development setups. Documents are kept in their JSON form so filters compare
// the same representation a real document database would.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/db"
	"github.com/tansive/assetvault/internal/assetsrv/db/dberror"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type document map[string]any

type collection struct {
	ids  []string
	docs map[string]document
}

type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
	sequences   map[string]int64
}

var _ db.DocStore = (*Store)(nil)

func New() *Store {
	return &Store{
		collections: make(map[string]*collection),
		sequences:   make(map[string]int64),
	}
}

func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]document)}
		s.collections[name] = c
	}
	return c
}

func normalize(v any) (document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var d document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func decode(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (d document) matches(f document) bool {
	for k, want := range f {
		got, ok := d[k]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// first returns the id of the first document matching f, in insertion order.
func (c *collection) first(f document) (string, bool) {
	for _, id := range c.ids {
		if c.docs[id].matches(f) {
			return id, true
		}
	}
	return "", false
}

func (s *Store) InsertOne(ctx context.Context, collection, id string, doc any) apperrors.Error {
	d, err := normalize(doc)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	if _, exists := c.docs[id]; exists {
		log.Ctx(ctx).Info().Str("collection", collection).Str("id", id).Msg("document already exists")
		return dberror.ErrAlreadyExists.Msg(fmt.Sprintf("%s %s already exists", collection, id))
	}
	c.ids = append(c.ids, id)
	c.docs[id] = d
	return nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter db.Filter, out any) apperrors.Error {
	f, err := normalize(filter)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	id, ok := c.first(f)
	if !ok {
		return dberror.ErrNotFound
	}
	if err := decode(c.docs[id], out); err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, filter db.Filter, opts db.FindOptions, out any) apperrors.Error {
	f, err := normalize(filter)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	s.mu.Lock()
	c := s.coll(collection)
	var matched []document
	for _, id := range c.ids {
		if c.docs[id].matches(f) {
			matched = append(matched, c.docs[id])
		}
	}
	s.mu.Unlock()

	if opts.SortBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i][opts.SortBy], matched[j][opts.SortBy]
			if opts.Descending {
				return lessValue(b, a)
			}
			return lessValue(a, b)
		})
	}
	if opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	if matched == nil {
		matched = []document{}
	}
	if err := decode(matched, out); err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, _ := b.(float64)
		return av < bv
	case string:
		bv, _ := b.(string)
		return av < bv
	case bool:
		bv, _ := b.(bool)
		return !av && bv
	case nil:
		return b != nil
	}
	return false
}

func (s *Store) update(collection string, filter db.Filter, patch db.Patch) (document, bool, apperrors.Error) {
	f, err := normalize(filter)
	if err != nil {
		return nil, false, dberror.ErrInvalidInput.Err(err)
	}
	p, err := normalize(patch)
	if err != nil {
		return nil, false, dberror.ErrInvalidInput.Err(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	id, ok := c.first(f)
	if !ok {
		return nil, false, nil
	}
	updated := make(document, len(c.docs[id])+len(p))
	for k, v := range c.docs[id] {
		updated[k] = v
	}
	for k, v := range p {
		updated[k] = v
	}
	c.docs[id] = updated
	return updated, true, nil
}

func (s *Store) UpdateOne(ctx context.Context, collection string, filter db.Filter, patch db.Patch) (bool, apperrors.Error) {
	_, matched, err := s.update(collection, filter, patch)
	return matched, err
}

func (s *Store) FindOneAndUpdate(ctx context.Context, collection string, filter db.Filter, patch db.Patch, out any) apperrors.Error {
	d, matched, err := s.update(collection, filter, patch)
	if err != nil {
		return err
	}
	if !matched {
		return dberror.ErrNotFound
	}
	if err := decode(d, out); err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (s *Store) DeleteOne(ctx context.Context, collection string, filter db.Filter) (bool, apperrors.Error) {
	f, err := normalize(filter)
	if err != nil {
		return false, dberror.ErrInvalidInput.Err(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	id, ok := c.first(f)
	if !ok {
		return false, nil
	}
	delete(c.docs, id)
	for i, v := range c.ids {
		if v == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *Store) NextSequence(ctx context.Context, name string) (int64, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[name]++
	return s.sequences[name], nil
}

func (s *Store) EnsureIndex(ctx context.Context, collection, field string) apperrors.Error {
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.coll(collection).ids)
}
