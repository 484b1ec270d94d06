package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSetGetRoundTrip(t *testing.T) {
	s := New()
	outcome, _, err := s.Set("k", []byte("v"), SetOptions{})
	require.NoError(t, err)
	assert.Equal(t, SetStored, outcome)
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestSetNXSkipsExisting(t *testing.T) {
	s := New()
	_, _, _ = s.Set("k", []byte("v1"), SetOptions{})
	outcome, _, err := s.Set("k", []byte("v2"), SetOptions{NX: true})
	require.NoError(t, err)
	assert.Equal(t, SetSkippedNX, outcome)
	v, _ := s.Get("k")
	assert.Equal(t, []byte("v1"), v)
}

func TestWrongTypeOnListAgainstString(t *testing.T) {
	s := New()
	_, _, _ = s.Set("k", []byte("v"), SetOptions{})
	_, err := s.LPush("k", []byte("a"))
	assert.ErrorAs(t, err, &ErrWrongType{})
}

func TestExpiryLazyRemoval(t *testing.T) {
	s := New()
	fixed := time.Now()
	s.now = func() time.Time { return fixed }
	_, _, _ = s.Set("k", []byte("v"), SetOptions{Expiry: Expiry{Kind: ExpiryRel, Rel: time.Second}})
	assert.True(t, s.Exists("k"))
	s.now = func() time.Time { return fixed.Add(2 * time.Second) }
	assert.False(t, s.Exists("k"))
}

func TestListPushPopOrder(t *testing.T) {
	s := New()
	n, err := s.RPush("l", []byte("a"), []byte("b"), []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	vals, err := s.LRange("l", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, vals)

	popped, ok, err := s.LPop("l", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, [][]byte{[]byte("a")}, popped)
}

func TestListEmptyAfterPopIsRemoved(t *testing.T) {
	s := New()
	_, _ = s.RPush("l", []byte("a"))
	_, _, _ = s.LPop("l", 1)
	assert.False(t, s.Exists("l"))
}

func TestSetBasicOps(t *testing.T) {
	s := New()
	added, err := s.SAdd("s", "a", "b", "a")
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	card, _ := s.SCard("s")
	assert.Equal(t, 2, card)
	ok, _ := s.SIsMember("s", "a")
	assert.True(t, ok)
}

func TestSetInterUnionDiff(t *testing.T) {
	s := New()
	_, _ = s.SAdd("s1", "a", "b", "c")
	_, _ = s.SAdd("s2", "b", "c", "d")

	inter, err := s.SInter("s1", "s2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, inter)

	union, err := s.SUnion("s1", "s2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, union)

	diff, err := s.SDiff("s1", "s2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a"}, diff)
}

func TestHashBasicOps(t *testing.T) {
	s := New()
	created, err := s.HSet("h", map[string][]byte{"f1": []byte("v1")})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	v, ok, err := s.HGet("h", "f1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	n, err := s.HIncrBy("h", "counter", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestZAddAndRange(t *testing.T) {
	s := New()
	res, err := s.ZAdd("z", ZAddOptions{}, []ZMember{
		{Member: "a", Score: 1},
		{Member: "b", Score: 2},
		{Member: "c", Score: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Added)

	members, err := s.ZRange("z", ZRangeSpec{By: ZRangeByIndex, Start: 0, Stop: -1})
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "a", members[0].Member)
	assert.Equal(t, "c", members[2].Member)
}

func TestZAddNXSkipsExistingMember(t *testing.T) {
	s := New()
	_, _ = s.ZAdd("z", ZAddOptions{}, []ZMember{{Member: "a", Score: 1}})
	res, err := s.ZAdd("z", ZAddOptions{NX: true}, []ZMember{{Member: "a", Score: 99}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	score, _, _ := s.ZScore("z", "a")
	assert.Equal(t, float64(1), score)
}

func TestZRangeByScore(t *testing.T) {
	s := New()
	_, _ = s.ZAdd("z", ZAddOptions{}, []ZMember{
		{Member: "a", Score: 1},
		{Member: "b", Score: 2},
		{Member: "c", Score: 3},
	})
	members, err := s.ZRange("z", ZRangeSpec{By: ZRangeByScore, Min: 2, Max: 3})
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "b", members[0].Member)
}

func TestKeysGlobMatch(t *testing.T) {
	s := New()
	_, _, _ = s.Set("foo:1", []byte("v"), SetOptions{})
	_, _, _ = s.Set("foo:2", []byte("v"), SetOptions{})
	_, _, _ = s.Set("bar:1", []byte("v"), SetOptions{})
	keys := s.Keys("foo:*")
	assert.ElementsMatch(t, []string{"foo:1", "foo:2"}, keys)
}

func TestGlobMatchPatterns(t *testing.T) {
	assert.True(t, globMatch("*", "anything"))
	assert.True(t, globMatch("h?llo", "hello"))
	assert.False(t, globMatch("h?llo", "heello"))
	assert.True(t, globMatch("h[ae]llo", "hello"))
	assert.True(t, globMatch("h[ae]llo", "hallo"))
	assert.False(t, globMatch("h[^ae]llo", "hello"))
	assert.True(t, globMatch("[a-c]at", "bat"))
}

func TestDBSizeExcludesExpired(t *testing.T) {
	s := New()
	fixed := time.Now()
	s.now = func() time.Time { return fixed }
	_, _, _ = s.Set("k1", []byte("v"), SetOptions{})
	_, _, _ = s.Set("k2", []byte("v"), SetOptions{Expiry: Expiry{Kind: ExpiryRel, Rel: time.Second}})
	assert.Equal(t, 2, s.DBSize())
	s.now = func() time.Time { return fixed.Add(2 * time.Second) }
	assert.Equal(t, 1, s.DBSize())
}
