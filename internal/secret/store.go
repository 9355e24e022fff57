package secret

// Store reads and writes named secrets. Implementations must treat a
// missing secret as ("", nil) on Get and as success on Delete, so callers
// can distinguish "no stored credential" from an actual store failure.
type Store interface {
	Get(account string) (string, error)
	Set(account, value string) error
	Delete(account string) error
}

// Noop is a Store that holds nothing and never fails.
type Noop struct{}

func (Noop) Get(string) (string, error) { return "", nil }
func (Noop) Set(string, string) error   { return nil }
func (Noop) Delete(string) error        { return nil }
