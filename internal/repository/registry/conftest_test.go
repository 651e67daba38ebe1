package registry

import "context"

// fakeStore is an in-memory stand-in for the database.
type fakeStore struct {
	hashes   map[string]map[string]string
	counters map[string]int64
	sets     map[string]map[string]struct{}

	err error // when set, every call fails with it
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes:   make(map[string]map[string]string),
		counters: make(map[string]int64),
		sets:     make(map[string]map[string]struct{}),
	}
}

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if f.err != nil {
		return f.err
	}
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.hashes[key]
	return ok, nil
}

func (f *fakeStore) Incr(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeStore) SAdd(_ context.Context, key string, members ...string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	s, ok := f.sets[key]
	if !ok {
		s = make(map[string]struct{})
		f.sets[key] = s
	}
	var added int64
	for _, m := range members {
		if _, ok := s[m]; !ok {
			s[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

func (f *fakeStore) SMembers(_ context.Context, key string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return out, nil
}
