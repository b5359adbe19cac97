package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/retract/model/request"
)

func TestPolicy_CanSubmit(t *testing.T) {
	type testCase struct {
		name   string
		actor  string
		target request.Target
		expect bool
	}
	p, err := New(&Config{Reviewers: []string{"A1"}}, nil)
	require.NoError(t, err)
	for _, tc := range []testCase{
		{name: "author", actor: "U1", target: request.Target{Location: "C1", Version: "1", AuthorID: "U1"}, expect: true},
		{name: "someone else", actor: "U2", target: request.Target{Location: "C1", Version: "1", AuthorID: "U1"}},
		{name: "reviewer is not author", actor: "A1", target: request.Target{Location: "C1", Version: "1", AuthorID: "U1"}},
		{name: "empty actor", actor: "", target: request.Target{Location: "C1", Version: "1"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, p.CanSubmit(tc.actor, tc.target))
		})
	}
}

func TestPolicy_CanDecide(t *testing.T) {
	members := NewStaticMembership()
	members.Add("C-review", "M1")
	failing := MembershipFunc(func(ctx context.Context, audience, actor string) (bool, error) {
		return false, errors.New("lookup failed")
	})

	type testCase struct {
		name       string
		config     *Config
		membership Membership
		actor      string
		expect     bool
	}
	for _, tc := range []testCase{
		{name: "listed reviewer", config: &Config{Reviewers: []string{"A1", "A2"}}, actor: "A2", expect: true},
		{name: "ids are case sensitive", config: &Config{Reviewers: []string{"A1"}}, actor: "a1"},
		{name: "closed membership", config: &Config{Reviewers: []string{"A1"}, Audience: "C-review"}, membership: members, actor: "M1"},
		{name: "open membership member", config: &Config{Audience: "C-review", OpenMembership: true}, membership: members, actor: "M1", expect: true},
		{name: "open membership non member", config: &Config{Audience: "C-review", OpenMembership: true}, membership: members, actor: "X1"},
		{name: "open membership without source", config: &Config{OpenMembership: true}, actor: "anyone", expect: true},
		{name: "lookup error denies", config: &Config{Audience: "C-review", OpenMembership: true}, membership: failing, actor: "M1"},
		{name: "empty actor", config: &Config{OpenMembership: true}, actor: ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := New(tc.config, tc.membership)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, p.CanDecide(context.Background(), tc.actor))
		})
	}
}

func TestPolicy_CanDecide_MembershipChanges(t *testing.T) {
	members := NewStaticMembership()
	p, err := New(&Config{Audience: "C-review", OpenMembership: true}, members)
	require.NoError(t, err)
	ctx := context.Background()

	assert.False(t, p.CanDecide(ctx, "M1"))
	members.Add("C-review", "M1")
	assert.True(t, p.CanDecide(ctx, "M1"))
	members.Remove("C-review", "M1")
	assert.False(t, p.CanDecide(ctx, "M1"))
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
	_, err = New(&Config{}, nil)
	assert.Error(t, err)

	p, err := New(&Config{Reviewers: []string{" A1 ", ""}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, p.Config().Reviewers)
}
