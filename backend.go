package maglev

import (
	"strings"

	"github.com/gobwas/avl"
)

// backend is a backend name placed into the tree of backends.
// Trees of backends are ordered canonically, that is byte-wise.
type backend string

func (b backend) Compare(x avl.Item) int {
	return strings.Compare(string(b), string(x.(backend)))
}

// backendSet is an immutable set of backend names.
// Its zero value is an empty set ready to use.
type backendSet struct {
	tree avl.Tree // tree<backend>
}

func makeBackendSet(names []string) (s backendSet, err error) {
	for _, name := range names {
		if s, err = s.insert(name); err != nil {
			return backendSet{}, err
		}
	}
	return s, nil
}

func (s backendSet) size() int {
	return s.tree.Size()
}

func (s backendSet) has(name string) bool {
	return s.tree.Search(backend(name)) != nil
}

// insert returns a copy of s with name added.
func (s backendSet) insert(name string) (backendSet, error) {
	if s.has(name) {
		return s, errorf(ErrDuplicateBackend, name)
	}
	tree, existing := s.tree.Insert(backend(name))
	if existing != nil {
		panic("maglev: internal error: backend insertion failed")
	}
	return backendSet{tree}, nil
}

// delete returns a copy of s with name removed.
func (s backendSet) delete(name string) (backendSet, error) {
	tree, existed := s.tree.Delete(backend(name))
	if existed == nil {
		return s, errorf(ErrNotFound, name)
	}
	return backendSet{tree}, nil
}

// names returns backend names in canonical order.
func (s backendSet) names() []string {
	ret := make([]string, 0, s.size())
	s.tree.InOrder(func(x avl.Item) bool {
		ret = append(ret, string(x.(backend)))
		return true
	})
	return ret
}
