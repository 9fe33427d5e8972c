// Package memaccounts provides an in-memory, LRU-bounded AccountCache
// implementation: a reference usable by tests, standing in for the full
// node's persistent account state cache.
package memaccounts

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/catapult-chain/priceengine/internal/priceengine/mathutil"
)

// AccountType distinguishes a harvesting-only remote key from the main
// account it forwards earnings to.
type AccountType int

const (
	Unlinked AccountType = iota
	Main
	Remote
)

type account struct {
	Address       string
	Type          AccountType
	LinkedAddress string
	Balance       uint64
}

// ErrUnknownAccount is returned when an address cannot be resolved to any
// known account. The reward distributor treats this as fatal.
var ErrUnknownAccount = errors.New("memaccounts: unknown account")

// ErrDanglingLink is returned when a Remote account's link points to an
// address that isn't itself a known Main account.
var ErrDanglingLink = errors.New("memaccounts: remote account's linked main account not found")

// Cache is a bounded in-memory AccountCache.
type Cache struct {
	accounts *lru.Cache[string, *account]
}

// New returns a Cache holding up to capacity accounts.
func New(capacity int) *Cache {
	c, err := lru.New[string, *account](capacity)
	if err != nil {
		// capacity <= 0 is a programmer error, not a runtime condition.
		panic(err)
	}
	return &Cache{accounts: c}
}

// Put registers or replaces an account's type and link, preserving its
// existing balance if it was already known.
func (c *Cache) Put(address string, accType AccountType, linkedAddress string) {
	var balance uint64
	if existing, ok := c.accounts.Get(address); ok {
		balance = existing.Balance
	}
	c.accounts.Add(address, &account{Address: address, Type: accType, LinkedAddress: linkedAddress, Balance: balance})
}

// Balance returns an account's current balance.
func (c *Cache) Balance(address string) (uint64, bool) {
	a, ok := c.accounts.Get(address)
	if !ok {
		return 0, false
	}
	return a.Balance, true
}

// resolve follows a Remote account's link to its Main account, the Go
// analogue of ProcessForwardedAccountState: a harvester identified by its
// remote harvesting key is credited through to the main account it is
// linked to, never to the remote key itself.
func (c *Cache) resolve(address string) (*account, error) {
	a, ok := c.accounts.Get(address)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAccount, "address %q", address)
	}
	if a.Type != Remote {
		return a, nil
	}
	main, ok := c.accounts.Get(a.LinkedAddress)
	if !ok || main.Type != Main {
		return nil, errors.Wrapf(ErrDanglingLink, "remote %q -> %q", address, a.LinkedAddress)
	}
	return main, nil
}

// Credit implements reward.AccountCache.
func (c *Cache) Credit(address string, amount uint64) error {
	a, err := c.resolve(address)
	if err != nil {
		return err
	}
	sum, overflowed := mathutil.SafeAdd(a.Balance, amount)
	if overflowed {
		return errors.Errorf("memaccounts: credit to %q overflows uint64 balance", address)
	}
	a.Balance = sum
	return nil
}

// Debit implements reward.AccountCache. It is never guarded against
// underflow: a rollback is only ever applied to the exact state a
// matching commit produced, so the balance is always sufficient.
func (c *Cache) Debit(address string, amount uint64) error {
	a, err := c.resolve(address)
	if err != nil {
		return err
	}
	a.Balance -= amount
	return nil
}
