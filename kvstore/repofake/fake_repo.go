package repofake

import (
	"sync"

	"github.com/jrsteele09/go-seller-session/kvstore"
)

var _ kvstore.Repo = (*FakeRepo)(nil)

// FakeRepo is an in-memory kvstore.Repo whose operations can be made to fail
// per key, for exercising storage failure paths.
type FakeRepo struct {
	*kvstore.InMemoryRepo

	lock       sync.RWMutex
	getErrs    map[string]error
	setErrs    map[string]error
	removeErrs map[string]error
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		InMemoryRepo: kvstore.NewInMemoryRepo(),
		getErrs:      make(map[string]error),
		setErrs:      make(map[string]error),
		removeErrs:   make(map[string]error),
	}
}

// FailGet makes GetItem(key) return err. A nil err clears the failure.
func (fr *FakeRepo) FailGet(key string, err error) {
	fr.setFailure(fr.getErrs, key, err)
}

// FailSet makes SetItem(key, ...) return err. A nil err clears the failure.
func (fr *FakeRepo) FailSet(key string, err error) {
	fr.setFailure(fr.setErrs, key, err)
}

// FailRemove makes RemoveItem(key) return err. A nil err clears the failure.
func (fr *FakeRepo) FailRemove(key string, err error) {
	fr.setFailure(fr.removeErrs, key, err)
}

func (fr *FakeRepo) GetItem(key string) (string, error) {
	if err := fr.failure(fr.getErrs, key); err != nil {
		return "", err
	}
	return fr.InMemoryRepo.GetItem(key)
}

func (fr *FakeRepo) SetItem(key, value string) error {
	if err := fr.failure(fr.setErrs, key); err != nil {
		return err
	}
	return fr.InMemoryRepo.SetItem(key, value)
}

func (fr *FakeRepo) RemoveItem(key string) error {
	if err := fr.failure(fr.removeErrs, key); err != nil {
		return err
	}
	return fr.InMemoryRepo.RemoveItem(key)
}

func (fr *FakeRepo) setFailure(failures map[string]error, key string, err error) {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if err == nil {
		delete(failures, key)
		return
	}
	failures[key] = err
}

func (fr *FakeRepo) failure(failures map[string]error, key string) error {
	fr.lock.RLock()
	defer fr.lock.RUnlock()
	return failures[key]
}
