package kvstore

// Prefixed scopes every key of an underlying Repo under a namespace, giving
// each client its own set of keys inside a shared backend.
type Prefixed struct {
	repo   Repo
	prefix string
}

var _ Repo = Prefixed{}

// NewPrefixed returns a Repo whose keys are stored as "<namespace>:<key>" in repo
func NewPrefixed(repo Repo, namespace string) Prefixed {
	return Prefixed{repo: repo, prefix: namespace + ":"}
}

func (p Prefixed) GetItem(key string) (string, error) {
	return p.repo.GetItem(p.prefix + key)
}

func (p Prefixed) SetItem(key, value string) error {
	return p.repo.SetItem(p.prefix+key, value)
}

func (p Prefixed) RemoveItem(key string) error {
	return p.repo.RemoveItem(p.prefix + key)
}
