package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/togethercrew/engagement/internal/events"
	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/metrics"
	"github.com/togethercrew/engagement/internal/roles"
	"github.com/togethercrew/engagement/internal/scores"
	fixture "github.com/togethercrew/engagement/internal/testutil"
	"github.com/togethercrew/engagement/internal/token"
	"github.com/togethercrew/engagement/internal/uri"
)

const baseURI = "https://api.example.com"

var (
	admin    = fixture.Admin
	alice    = fixture.Alice
	bob      = fixture.Bob
	provider = fixture.Provider
)

func newRegistry(t *testing.T, cfg Config, opts ...Option) *Registry {
	t.Helper()
	if cfg.BaseURI == "" {
		cfg.BaseURI = baseURI
	}
	r, err := New(admin, cfg, opts...)
	require.NoError(t, err)
	return r
}

func issue(t *testing.T, r *Registry) uint64 {
	t.Helper()
	id, _, err := r.Issue(admin, "")
	require.NoError(t, err)
	return id
}

func TestNew(t *testing.T) {
	t.Run("empty base uri", func(t *testing.T) {
		_, err := New(admin, Config{})
		assert.ErrorIs(t, err, ErrURIEmpty)
		assert.Equal(t, CodeURIEmpty, ErrorCode(err))
	})

	t.Run("zero deployer", func(t *testing.T) {
		_, err := New(identity.ZeroAddress, Config{BaseURI: baseURI})
		assert.Error(t, err)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := New(admin, Config{BaseURI: baseURI, Scheme: "nope"})
		assert.Error(t, err)
	})

	t.Run("bad token template", func(t *testing.T) {
		_, err := New(admin, Config{BaseURI: baseURI, TokenTemplate: "{base}{oops}"})
		assert.Error(t, err)
	})

	t.Run("deployer is admin", func(t *testing.T) {
		r := newRegistry(t, Config{Providers: []identity.Address{provider}})
		assert.True(t, r.HasRole(identity.AdminRole, admin))
		assert.True(t, r.HasRole(identity.ProviderRole, provider))
		assert.False(t, r.HasRole(identity.ProviderRole, admin))
		assert.Equal(t, baseURI, r.BaseURI())
		assert.Equal(t, uint64(0), r.Counter())
		assert.Empty(t, r.Events(), "construction emits nothing")
	})
}

func TestIssue(t *testing.T) {
	r := newRegistry(t, Config{})

	for i := uint64(0); i < 3; i++ {
		id, evs, err := r.Issue(admin, "")
		require.NoError(t, err)
		assert.Equal(t, i, id)
		require.Len(t, evs, 1)
		assert.Equal(t, events.KindIssue, evs[0].Kind)
		assert.Equal(t, i, evs[0].TokenID)
		assert.Equal(t, admin, evs[0].Account)
	}
	assert.Equal(t, uint64(3), r.Counter())
	for i := uint64(0); i < 3; i++ {
		assert.True(t, r.Exists(i))
		assert.Zero(t, r.BalanceOf(admin, i), "issue does not mint")
	}
	assert.False(t, r.Exists(3))
}

func TestIssue_RequiresAdmin(t *testing.T) {
	r := newRegistry(t, Config{})

	_, evs, err := r.Issue(alice, "")
	require.Error(t, err)
	assert.Nil(t, evs)
	assert.True(t, roles.IsUnauthorized(err))

	var ue *roles.UnauthorizedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, alice, ue.Account)
	assert.Equal(t, identity.AdminRole, ue.Role)
	assert.Equal(t, uint64(0), r.Counter())
}

func TestIssue_HashRequiredByIPFSScheme(t *testing.T) {
	r := newRegistry(t, Config{Scheme: uri.SchemeIPFS})

	_, _, err := r.Issue(admin, "")
	assert.Equal(t, uri.CodeEmptyHash, ErrorCode(err))

	id, _, err := r.Issue(admin, "QmHash")
	require.NoError(t, err)
	got, err := r.URI(id, identity.ZeroAddress)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmHash.json", got)
}

func TestUnissuedToken(t *testing.T) {
	r := newRegistry(t, Config{Providers: []identity.Address{provider}})
	_, err := r.UpdateScores(provider, 20240101, "cid")
	require.NoError(t, err)

	const missing = 999
	assert.Zero(t, r.BalanceOf(alice, missing))

	_, err = r.Mint(alice, alice, missing, 1, nil)
	assert.Equal(t, "NotFound(999)", err.Error())

	_, err = r.Burn(alice, alice, missing, 1)
	assert.Equal(t, token.CodeNotFound, ErrorCode(err))

	_, err = r.URI(missing, alice)
	assert.Equal(t, token.CodeNotFound, ErrorCode(err))

	_, err = r.GetScores(20240101, missing, alice)
	assert.Equal(t, token.CodeNotFound, ErrorCode(err))
}

func TestMint(t *testing.T) {
	r := newRegistry(t, Config{})
	id := issue(t, r)

	evs, err := r.Mint(alice, alice, id, 1, []byte("data"))
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.Mint(id, alice).Fields(), evs[0].Fields())
	assert.Equal(t, uint64(1), r.BalanceOf(alice, id))
	assert.Equal(t, uint64(1), r.TotalSupply(id))

	_, err = r.Mint(alice, alice, id, 1, nil)
	var limit *token.MintLimitError
	require.True(t, errors.As(err, &limit))
	assert.Equal(t, alice, limit.Account)
	assert.Equal(t, id, limit.TokenID)
	assert.Equal(t, uint64(1), r.BalanceOf(alice, id))
}

func TestMint_AnyCallerMayMintForAccount(t *testing.T) {
	r := newRegistry(t, Config{})
	id := issue(t, r)

	_, err := r.Mint(bob, alice, id, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.BalanceOf(alice, id))
	assert.Zero(t, r.BalanceOf(bob, id))
}

func TestMint_AmountAboveOneIsCapped(t *testing.T) {
	r := newRegistry(t, Config{})
	id := issue(t, r)

	evs, err := r.Mint(alice, alice, id, 2, nil)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindMint, evs[0].Kind)
	assert.Equal(t, uint64(1), r.BalanceOf(alice, id))

	_, err = r.Mint(alice, alice, id, 1, nil)
	assert.Equal(t, token.CodeMintLimit, ErrorCode(err))
}

func TestMint_ZeroAmountLeavesBalanceEmpty(t *testing.T) {
	r := newRegistry(t, Config{})
	id := issue(t, r)

	evs, err := r.Mint(alice, alice, id, 0, nil)
	require.NoError(t, err)
	assert.Len(t, evs, 1)
	assert.Zero(t, r.BalanceOf(alice, id))
	assert.Zero(t, r.TotalSupply(id))
}

func TestBurn(t *testing.T) {
	r := newRegistry(t, Config{})
	id := issue(t, r)
	_, err := r.Mint(alice, alice, id, 1, nil)
	require.NoError(t, err)

	evs, err := r.Burn(alice, alice, id, 1)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindBurn, evs[0].Kind)
	assert.Zero(t, r.BalanceOf(alice, id))
	assert.Zero(t, r.TotalSupply(id))

	// limit resets after burn
	_, err = r.Mint(alice, alice, id, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.BalanceOf(alice, id))
}

func TestBurn_NotAllowedRegardlessOfExistence(t *testing.T) {
	r := newRegistry(t, Config{})
	id := issue(t, r)
	_, err := r.Mint(alice, alice, id, 1, nil)
	require.NoError(t, err)

	for _, tokenID := range []uint64{id, 42} {
		_, err := r.Burn(bob, alice, tokenID, 1)
		var na *token.NotAllowedError
		require.True(t, errors.As(err, &na), "token %d", tokenID)
		assert.Equal(t, alice, na.Account)
		assert.Equal(t, tokenID, na.TokenID)
	}
	assert.Equal(t, uint64(1), r.BalanceOf(alice, id))
}

func TestUpdateBaseURI(t *testing.T) {
	r := newRegistry(t, Config{})

	_, err := r.UpdateBaseURI(alice, "https://new.example.com")
	assert.True(t, roles.IsUnauthorized(err))
	assert.Equal(t, baseURI, r.BaseURI())

	_, err = r.UpdateBaseURI(admin, "")
	assert.ErrorIs(t, err, ErrURIEmpty)
	assert.Equal(t, baseURI, r.BaseURI())

	evs, err := r.UpdateBaseURI(admin, "https://new.example.com")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindBaseURIUpdated, evs[0].Kind)
	assert.Equal(t, baseURI, evs[0].OldURI)
	assert.Equal(t, "https://new.example.com", evs[0].NewURI)
	assert.Equal(t, "https://new.example.com", r.BaseURI())
}

func TestURI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		account identity.Address
		want    string
	}{
		{"flat", Config{}, identity.ZeroAddress, baseURI + "0.json"},
		{"bare", Config{Scheme: uri.SchemeBare}, identity.ZeroAddress, baseURI + "0"},
		{"hierarchical", Config{Scheme: uri.SchemeHierarchical}, alice,
			baseURI + "/api/v1/nft/0/" + alice.String() + "/reputation-score"},
		{"custom", Config{TokenTemplate: "{base}/tokens/{id}"}, identity.ZeroAddress, baseURI + "/tokens/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry(t, tt.cfg)
			id := issue(t, r)

			got, err := r.URI(id, tt.account)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, got, r.BaseURI())
			assert.Contains(t, got, fmt.Sprint(id))
		})
	}
}

func TestURI_FollowsBaseURIUpdate(t *testing.T) {
	r := newRegistry(t, Config{})
	id := issue(t, r)

	_, err := r.UpdateBaseURI(admin, "https://cdn.example.org/")
	require.NoError(t, err)

	got, err := r.URI(id, identity.ZeroAddress)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.org/0.json", got)
}

func TestURI_EmptyAccount(t *testing.T) {
	r := newRegistry(t, Config{Scheme: uri.SchemeHierarchical})
	id := issue(t, r)

	_, err := r.URI(id, identity.ZeroAddress)
	assert.ErrorIs(t, err, uri.ErrEmptyAccount)
	assert.Equal(t, uri.CodeEmptyAccount, ErrorCode(err))
}

func TestScores(t *testing.T) {
	r := newRegistry(t, Config{Providers: []identity.Address{provider}})
	id := issue(t, r)

	_, err := r.UpdateScores(alice, 20240101, "bafy1")
	var ue *roles.UnauthorizedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, identity.ProviderRole, ue.Role)

	got, err := r.GetScores(20240101, id, alice)
	require.NoError(t, err, "an unpublished date composes with an empty cid")
	assert.Equal(t, "ipfs:///0/"+alice.String()+".json", got)

	evs, err := r.UpdateScores(provider, 20240101, "bafy1")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.UpdateScores(provider, 20240101, "bafy1").Fields(), evs[0].Fields())

	got, err = r.GetScores(20240101, id, alice)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://bafy1/0/"+alice.String()+".json", got)

	// last write wins
	_, err = r.UpdateScores(provider, 20240101, "bafy2")
	require.NoError(t, err)
	got, err = r.GetScores(20240101, id, alice)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://bafy2/0/"+alice.String()+".json", got)

	_, err = r.GetScores(20240101, id, identity.ZeroAddress)
	assert.Equal(t, uri.CodeEmptyAccount, ErrorCode(err))

	evs, err = r.UpdateScores(provider, 20240102, "")
	require.NoError(t, err)
	assert.Len(t, evs, 1)
	got, err = r.GetScores(20240102, id, alice)
	require.NoError(t, err)
	assert.Equal(t, "ipfs:///0/"+alice.String()+".json", got)

	assert.Equal(t, []scores.Record{{Date: 20240101, CID: "bafy2"}, {Date: 20240102, CID: ""}}, r.Scores())
}

func TestRoles(t *testing.T) {
	r := newRegistry(t, Config{})

	_, err := r.GrantRole(alice, identity.ProviderRole, alice)
	assert.True(t, roles.IsUnauthorized(err))

	evs, err := r.GrantRole(admin, identity.ProviderRole, alice)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindRoleGranted, evs[0].Kind)
	assert.True(t, r.HasRole(identity.ProviderRole, alice))

	evs, err = r.GrantRole(admin, identity.ProviderRole, alice)
	require.NoError(t, err)
	assert.Empty(t, evs, "idempotent grant emits nothing")

	evs, err = r.RevokeRole(admin, identity.ProviderRole, alice)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindRoleRevoked, evs[0].Kind)
	assert.False(t, r.HasRole(identity.ProviderRole, alice))

	evs, err = r.RevokeRole(admin, identity.ProviderRole, alice)
	require.NoError(t, err)
	assert.Empty(t, evs)

	assert.Equal(t, identity.AdminRole, r.GetRoleAdmin(identity.ProviderRole))
	assert.Equal(t, identity.AdminRole, r.GetRoleAdmin(identity.AdminRole))
}

func TestRoles_AdminSetNeverEmpty(t *testing.T) {
	r := newRegistry(t, Config{})

	_, err := r.RevokeRole(admin, identity.AdminRole, admin)
	assert.Equal(t, roles.CodeLastAdmin, ErrorCode(err))
	_, err = r.RenounceRole(admin, identity.AdminRole, admin)
	assert.Equal(t, roles.CodeLastAdmin, ErrorCode(err))
	assert.True(t, r.HasRole(identity.AdminRole, admin))

	_, err = r.GrantRole(admin, identity.AdminRole, bob)
	require.NoError(t, err)
	_, err = r.RenounceRole(admin, identity.AdminRole, admin)
	require.NoError(t, err)
	assert.Equal(t, []identity.Address{bob}, r.RoleMembers(identity.AdminRole))

	// the former admin lost every privilege
	_, _, err = r.Issue(admin, "")
	assert.True(t, roles.IsUnauthorized(err))
	_, _, err = r.Issue(bob, "")
	assert.NoError(t, err)
}

func TestRenounceRole_BadConfirmation(t *testing.T) {
	r := newRegistry(t, Config{Providers: []identity.Address{provider}})

	_, err := r.RenounceRole(provider, identity.ProviderRole, alice)
	assert.ErrorIs(t, err, roles.ErrBadConfirmation)
	assert.True(t, r.HasRole(identity.ProviderRole, provider))

	evs, err := r.RenounceRole(provider, identity.ProviderRole, provider)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, provider, evs[0].Account)
	assert.Equal(t, provider, evs[0].Sender)
}

func TestPause(t *testing.T) {
	r := newRegistry(t, Config{})
	id := issue(t, r)
	_, err := r.Mint(alice, alice, id, 1, nil)
	require.NoError(t, err)

	_, err = r.Pause(alice)
	assert.True(t, roles.IsUnauthorized(err))

	_, err = r.Unpause(admin)
	assert.ErrorIs(t, err, ErrExpectedPause)

	evs, err := r.Pause(admin)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindPaused, evs[0].Kind)
	assert.True(t, r.Paused())

	_, err = r.Pause(admin)
	assert.ErrorIs(t, err, ErrEnforcedPause)

	_, err = r.Mint(bob, bob, id, 1, nil)
	assert.ErrorIs(t, err, ErrEnforcedPause)
	_, err = r.Burn(alice, alice, id, 1)
	assert.ErrorIs(t, err, ErrEnforcedPause)

	// issuing and reads stay available
	_, _, err = r.Issue(admin, "")
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), r.BalanceOf(alice, id))

	evs, err = r.Unpause(admin)
	require.NoError(t, err)
	assert.Equal(t, events.KindUnpaused, evs[0].Kind)
	_, err = r.Mint(bob, bob, id, 1, nil)
	assert.NoError(t, err)
}

func TestEvents_SequencedAndForwarded(t *testing.T) {
	sink := events.NewLog()
	r := newRegistry(t, Config{}, WithSink(sink))

	id := issue(t, r)
	_, err := r.Mint(alice, alice, id, 1, nil)
	require.NoError(t, err)
	_, err = r.Mint(alice, alice, id, 1, nil)
	require.Error(t, err)
	_, err = r.Burn(alice, alice, id, 1)
	require.NoError(t, err)

	all := r.Events()
	require.Len(t, all, 3, "rejections emit nothing")
	for i, e := range all {
		assert.Equal(t, uint64(i+1), e.Seq)
	}
	assert.Equal(t, []events.Kind{events.KindIssue, events.KindMint, events.KindBurn},
		[]events.Kind{all[0].Kind, all[1].Kind, all[2].Kind})
	assert.Equal(t, all, sink.All())
	assert.Equal(t, uint64(3), r.Seq())
}

func TestMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := newRegistry(t, Config{}, WithMetrics(m))

	id := issue(t, r)
	_, _ = r.Mint(alice, alice, id, 1, nil)
	_, _ = r.Mint(alice, alice, id, 1, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("issue", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("mint", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("mint", token.CodeMintLimit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("Mint")))
}

func TestSnapshot(t *testing.T) {
	r := newRegistry(t, Config{Providers: []identity.Address{provider}})
	id := issue(t, r)
	_, err := r.Mint(alice, alice, id, 1, nil)
	require.NoError(t, err)
	_, err = r.Mint(bob, bob, id, 1, nil)
	require.NoError(t, err)

	s := r.Snapshot()
	assert.Equal(t, baseURI, s.BaseURI)
	assert.Equal(t, uint64(1), s.Counter)
	assert.Equal(t, []uint64{2}, s.Supply)
	assert.Equal(t, []identity.Address{admin}, s.Admins)
	assert.Equal(t, []identity.Address{provider}, s.Providers)
	assert.Equal(t, uint64(3), s.Seq)
}

func TestConcurrentMintsRespectLimit(t *testing.T) {
	r := newRegistry(t, Config{})
	id := issue(t, r)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Mint(alice, alice, id, 1, nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
			_ = r.BalanceOf(alice, id)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, uint64(1), r.BalanceOf(alice, id))
}

// Deploy with the example base URI, then walk one account through
// issue, double mint, burn and a foreign burn attempt.
func TestScenario_AliceAndBob(t *testing.T) {
	r := newRegistry(t, Config{BaseURI: "https://api.example.com"})

	id, _, err := r.Issue(admin, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, uint64(1), r.Counter())

	_, err = r.Mint(alice, alice, 0, 1, []byte{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.BalanceOf(alice, 0))

	_, err = r.Mint(alice, alice, 0, 1, []byte{})
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("MintLimit(%q, 0)", alice.String()), err.Error())

	_, err = r.Burn(alice, alice, 0, 1)
	require.NoError(t, err)
	assert.Zero(t, r.BalanceOf(alice, 0))

	_, err = r.Burn(bob, alice, 0, 1)
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("NotAllowed(%q, 0)", alice.String()), err.Error())
}
