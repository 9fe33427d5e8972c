package memaccounts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreditDebitMainAccount(t *testing.T) {
	c := New(16)
	c.Put("MAIN", Main, "")
	require.NoError(t, c.Credit("MAIN", 100))
	require.NoError(t, c.Debit("MAIN", 40))
	bal, ok := c.Balance("MAIN")
	require.True(t, ok)
	require.Equal(t, uint64(60), bal)
}

func TestCreditForwardsRemoteToMain(t *testing.T) {
	c := New(16)
	c.Put("MAIN", Main, "")
	c.Put("REMOTE", Remote, "MAIN")
	require.NoError(t, c.Credit("REMOTE", 50))
	bal, ok := c.Balance("MAIN")
	require.True(t, ok)
	require.Equal(t, uint64(50), bal)
	_, ok = c.Balance("REMOTE")
	require.True(t, ok) // still tracked, just never credited directly
}

func TestCreditUnknownAccountIsFatal(t *testing.T) {
	c := New(16)
	err := c.Credit("NOBODY", 1)
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestCreditDanglingRemoteLinkIsFatal(t *testing.T) {
	c := New(16)
	c.Put("REMOTE", Remote, "MISSING_MAIN")
	err := c.Credit("REMOTE", 1)
	require.ErrorIs(t, err, ErrDanglingLink)
}

func TestPutPreservesBalanceAcrossRelink(t *testing.T) {
	c := New(16)
	c.Put("MAIN", Main, "")
	require.NoError(t, c.Credit("MAIN", 10))
	c.Put("MAIN", Main, "")
	bal, _ := c.Balance("MAIN")
	require.Equal(t, uint64(10), bal)
}
