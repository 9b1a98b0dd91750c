package btree_test

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekitto/btree/btree"
)

var hosts = []btree.KeyValue[string, string]{
	{Key: "www.example.org", Value: "93.184.216.34"},
	{Key: "www.twitter.com", Value: "104.244.42.65"},
	{Key: "www.facebook.com", Value: "31.13.92.36"},
	{Key: "www.simpsons.com", Value: "209.052.165.60"},
	{Key: "www.apple.com", Value: "17.112.152.32"},
	{Key: "www.amazon.com", Value: "207.171.182.16"},
	{Key: "www.ebay.com", Value: "66.135.192.87"},
	{Key: "www.cnn.com", Value: "64.236.16.20"},
	{Key: "www.google.com", Value: "216.239.41.99"},
	{Key: "www.nytimes.com", Value: "199.239.136.200"},
	{Key: "www.microsoft.com", Value: "207.126.99.140"},
	{Key: "www.ubuntu.org", Value: "82.98.134.233"},
	{Key: "www.sony.com", Value: "23.33.68.135"},
	{Key: "www.playstation.com", Value: "23.32.11.42"},
	{Key: "www.dell.com", Value: "143.166.224.230"},
	{Key: "www.slashdot.org", Value: "66.35.250.151"},
	{Key: "www.github.com", Value: "192.30.253.112"},
	{Key: "www.gitlab.com", Value: "104.210.2.228"},
	{Key: "www.bitbucket.com", Value: "104.192.143.7"},
	{Key: "www.espn.com", Value: "199.181.135.201"},
	{Key: "www.weather.com", Value: "63.111.66.11"},
	{Key: "www.yahoo.com", Value: "216.109.118.65"},
}

func fillHosts(t testing.TB, tree *btree.Tree[string, string]) {
	for _, kv := range hosts {
		require.NoError(t, tree.Push(kv.Key, kv.Value))
	}
}

func sortedHosts() []btree.KeyValue[string, string] {
	out := slices.Clone(hosts)
	slices.SortFunc(out, func(a, b btree.KeyValue[string, string]) int {
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

func TestScenario(t *testing.T) {
	tree := btree.New[string, int]()
	require.NoError(t, tree.Push("b", 2))
	require.NoError(t, tree.Push("a", 1))
	require.NoError(t, tree.Push("d", 4))
	require.NoError(t, tree.Push("c", 3))

	require.Equal(t, 4, tree.Count())
	require.Equal(t, []btree.KeyValue[string, int]{
		{Key: "a", Value: 1},
		{Key: "b", Value: 2},
		{Key: "c", Value: 3},
		{Key: "d", Value: 4},
	}, tree.Entries())

	k, v, ok := tree.Search("c", btree.Lesser)
	require.True(t, ok)
	assert.Equal(t, "b", k)
	assert.Equal(t, 2, v)

	k, v, ok = tree.Search("c", btree.Greater)
	require.True(t, ok)
	assert.Equal(t, "d", k)
	assert.Equal(t, 4, v)

	require.True(t, tree.Remove("a"))
	require.Equal(t, 3, tree.Count())
	_, ok = tree.Get("a")
	require.False(t, ok)
	require.NoError(t, tree.Verify())
}

func TestHeight(t *testing.T) {
	tree := btree.New[string, string]()
	fillHosts(t, tree)

	require.Equal(t, 22, tree.Count())
	require.Equal(t, 3, tree.Height())
	require.Equal(t, sortedHosts(), tree.Entries())
	require.NoError(t, tree.Verify())
}

func TestClone(t *testing.T) {
	tree := btree.New[string, string]()
	fillHosts(t, tree)

	copied := tree.Clone()
	require.Equal(t, 22, copied.Count())
	require.Equal(t, 3, copied.Height())
	require.Equal(t, sortedHosts(), copied.Entries())

	copied.Remove("www.example.org")
	copied.Remove("www.ebay.com")
	require.NoError(t, copied.Push("www.yahoo.com", "garbage"))

	require.Equal(t, 20, copied.Count())
	v, _ := copied.Get("www.yahoo.com")
	require.Equal(t, "garbage", v)

	require.Equal(t, 22, tree.Count())
	v, _ = tree.Get("www.yahoo.com")
	require.Equal(t, "216.109.118.65", v)
	require.True(t, tree.Has("www.example.org"))

	// And the other way round.
	require.NoError(t, tree.Push("www.zombo.com", "69.16.230.117"))
	tree.Remove("www.apple.com")
	require.False(t, copied.Has("www.zombo.com"))
	require.True(t, copied.Has("www.apple.com"))

	require.NoError(t, tree.Verify())
	require.NoError(t, copied.Verify())
}

func TestClear(t *testing.T) {
	tree := btree.New[string, int]()
	require.Equal(t, 0, tree.Count())

	require.NoError(t, tree.Push("foo", 1))
	require.NoError(t, tree.Push("bar", 0))
	require.Equal(t, 2, tree.Count())

	tree.Clear()
	require.Equal(t, 0, tree.Count())
	require.Equal(t, 0, tree.Height())
	require.True(t, tree.IsEmpty())
	require.Empty(t, tree.Entries())
}

func TestCount(t *testing.T) {
	tree := btree.New[string, int]()
	require.Equal(t, 0, tree.Count())

	require.NoError(t, tree.Push("foo", 0))
	require.Equal(t, 1, tree.Count())

	require.NoError(t, tree.Push("bar", 1))
	require.Equal(t, 2, tree.Count())

	require.NoError(t, tree.Push("bar", 5))
	require.Equal(t, 2, tree.Count())
	v, _ := tree.Get("bar")
	require.Equal(t, 5, v)

	require.True(t, tree.Remove("foo"))
	require.Equal(t, 1, tree.Count())
	require.False(t, tree.Remove("foo"))
	require.Equal(t, 1, tree.Count())
}

func TestIsEmpty(t *testing.T) {
	tree := btree.New[string, any]()
	require.True(t, tree.IsEmpty())

	require.NoError(t, tree.Push("foo", nil))
	require.False(t, tree.IsEmpty())
}

func TestSearch(t *testing.T) {
	tree := btree.New[string, string]()
	fillHosts(t, tree)

	tests := []struct {
		name    string
		key     string
		mode    btree.Mode
		wantKey string
		wantVal string
		found   bool
	}{
		{"equal", "www.github.com", btree.Equal, "www.github.com", "192.30.253.112", true},
		{"equal missing", "com.nonexistent.local", btree.Equal, "", "", false},
		{"lesser", "www.github", btree.Lesser, "www.facebook.com", "31.13.92.36", true},
		{"greater", "www.github", btree.Greater, "www.github.com", "192.30.253.112", true},
		{"lesser exact", "www.github.com", btree.Lesser, "www.github.com", "192.30.253.112", true},
		{"greater exact", "www.cnn.com", btree.Greater, "www.cnn.com", "64.236.16.20", true},
		{"lesser below all", "aaa", btree.Lesser, "", "", false},
		{"greater below all", "aaa", btree.Greater, "www.amazon.com", "207.171.182.16", true},
		{"lesser above all", "zzz", btree.Lesser, "www.yahoo.com", "216.109.118.65", true},
		{"greater above all", "zzz", btree.Greater, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, v, ok := tree.Search(tt.key, tt.mode)
			require.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantKey, k)
			assert.Equal(t, tt.wantVal, v)
		})
	}
}

func TestPushNilKey(t *testing.T) {
	ptrs := btree.NewFunc[*string, string](func(a, b *string) int {
		return strings.Compare(*a, *b)
	})
	err := ptrs.Push(nil, "value")
	require.True(t, errors.Is(err, btree.ErrNilKey))
	require.Equal(t, 0, ptrs.Count())
	require.NoError(t, ptrs.Verify())

	ifaces := btree.NewFunc[any, string](func(a, b any) int {
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	})
	require.NoError(t, ifaces.Push("foo", "bar"))
	err = ifaces.Push(nil, "value")
	require.ErrorIs(t, err, btree.ErrNilKey)
	require.Equal(t, 1, ifaces.Count())
	require.Equal(t, []btree.KeyValue[any, string]{{Key: "foo", Value: "bar"}}, ifaces.Entries())
}

func TestToArray(t *testing.T) {
	tree := btree.New[string, int]()
	require.NoError(t, tree.Push("foo", 1))
	require.NoError(t, tree.Push("bar", 12))
	require.NoError(t, tree.Push("baz", 1))
	require.NoError(t, tree.Push("foobar", 3))

	require.Equal(t, []btree.KeyValue[string, int]{
		{Key: "bar", Value: 12},
		{Key: "baz", Value: 1},
		{Key: "foo", Value: 1},
		{Key: "foobar", Value: 3},
	}, tree.Entries())
	require.Equal(t, 4, tree.Count())
}

func TestIterationRestartsAndStops(t *testing.T) {
	tree := btree.New[int, int]()
	for i := 100; i > 0; i-- {
		require.NoError(t, tree.Push(i, i*i))
	}

	var first []int
	for k := range tree.Keys() {
		first = append(first, k)
	}
	var second []int
	for k, v := range tree.All() {
		require.Equal(t, k*k, v)
		second = append(second, k)
	}
	require.Len(t, first, 100)
	require.Equal(t, first, second)
	require.True(t, slices.IsSorted(first))

	var partial []int
	for k := range tree.All() {
		if k > 10 {
			break
		}
		partial = append(partial, k)
	}
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, partial)
}

func TestUpdate(t *testing.T) {
	tree := btree.New[string, int]()
	require.False(t, tree.Update("missing", 1))
	require.Equal(t, 0, tree.Count())

	fill := btree.New[string, string]()
	fillHosts(t, fill)
	require.True(t, fill.Update("www.sony.com", "10.0.0.1"))
	v, ok := fill.Get("www.sony.com")
	require.True(t, ok)
	require.Equal(t, "10.0.0.1", v)
	require.Equal(t, 22, fill.Count())
}

func TestRemoveWithoutRebalancing(t *testing.T) {
	tree := btree.New[int, string]()
	for i := 0; i < 64; i++ {
		require.NoError(t, tree.Push(i, fmt.Sprint(i)))
	}
	height := tree.Height()

	for i := 0; i < 64; i += 2 {
		require.True(t, tree.Remove(i))
	}
	require.Equal(t, 32, tree.Count())
	require.Equal(t, height, tree.Height())
	require.NoError(t, tree.Verify())

	for i := 1; i < 64; i += 2 {
		require.True(t, tree.Remove(i))
	}
	require.True(t, tree.IsEmpty())
	require.Equal(t, height, tree.Height())
	require.Empty(t, tree.Entries())
	require.NoError(t, tree.Verify())

	_, _, ok := tree.Search(10, btree.Lesser)
	require.False(t, ok)
	_, _, ok = tree.Search(10, btree.Greater)
	require.False(t, ok)

	// The emptied structure still accepts new keys.
	require.NoError(t, tree.Push(7, "seven"))
	require.NoError(t, tree.Push(70, "seventy"))
	require.Equal(t, []btree.KeyValue[int, string]{{Key: 7, Value: "seven"}, {Key: 70, Value: "seventy"}}, tree.Entries())
	require.NoError(t, tree.Verify())
}

// reference answers Search queries over a sorted key slice.
func reference(keys []int, key int, mode btree.Mode) (int, bool) {
	i, found := slices.BinarySearch(keys, key)
	if found {
		return keys[i], true
	}
	switch mode {
	case btree.Lesser:
		if i > 0 {
			return keys[i-1], true
		}
	case btree.Greater:
		if i < len(keys) {
			return keys[i], true
		}
	}
	return 0, false
}

func TestRandomOperations(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		tree := btree.New[int, int]()
		present := map[int]int{}

		for op := 0; op < 500; op++ {
			key := rnd.Intn(300)
			if rnd.Intn(3) == 0 {
				_, had := present[key]
				require.Equal(t, had, tree.Remove(key))
				delete(present, key)
				continue
			}
			val := rnd.Int()
			require.NoError(t, tree.Push(key, val))
			present[key] = val
		}

		require.NoError(t, tree.Verify())
		require.Equal(t, len(present), tree.Count())

		keys := make([]int, 0, len(present))
		for k := range present {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		var got []int
		for k, v := range tree.All() {
			require.Equal(t, present[k], v)
			got = append(got, k)
		}
		require.Len(t, got, len(keys))
		if len(keys) > 0 {
			require.Equal(t, keys, got)
		}

		for probe := -1; probe <= 301; probe++ {
			for _, mode := range []btree.Mode{btree.Equal, btree.Lesser, btree.Greater} {
				wantKey, wantOK := reference(keys, probe, mode)
				k, v, ok := tree.Search(probe, mode)
				require.Equal(t, wantOK, ok, "probe %d mode %s", probe, mode)
				if ok {
					require.Equal(t, wantKey, k, "probe %d mode %s", probe, mode)
					require.Equal(t, present[k], v)
				}
			}
		}
	}
}

func TestDescendingPush(t *testing.T) {
	small := btree.New[int, int]()
	for i := 10; i >= 1; i-- {
		require.NoError(t, small.Push(i, i))
	}
	require.Equal(t, 10, small.Count())
	require.Equal(t, 2, small.Height())
	require.NoError(t, small.Verify())

	tree := btree.New[int, int]()
	for i := 1000; i >= 1; i-- {
		require.NoError(t, tree.Push(i, -i))
		if i%100 == 0 {
			require.NoError(t, tree.Verify(), "after pushing %d", i)
		}
	}
	require.NoError(t, tree.Verify())

	var keys []int
	for k := range tree.Keys() {
		keys = append(keys, k)
	}
	require.Len(t, keys, 1000)
	require.True(t, slices.IsSorted(keys))

	for _, k := range []int{1, 2, 500, 999, 1000} {
		v, ok := tree.Get(k)
		require.True(t, ok, "key %d", k)
		require.Equal(t, -k, v)
	}
	k, _, ok := tree.Search(0, btree.Greater)
	require.True(t, ok)
	require.Equal(t, 1, k)
}

func TestRandomOperationsHeavyRemoval(t *testing.T) {
	rnd := rand.New(rand.NewSource(2000))

	for round := 0; round < 5; round++ {
		tree := btree.New[int, int]()
		present := map[int]int{}

		for op := 1; op <= 6000; op++ {
			key := rnd.Intn(2000)
			if rnd.Intn(2) == 0 {
				_, had := present[key]
				require.Equal(t, had, tree.Remove(key))
				delete(present, key)
			} else {
				require.NoError(t, tree.Push(key, op))
				present[key] = op
			}
			if op%1000 == 0 {
				require.NoError(t, tree.Verify(), "round %d op %d", round, op)
			}
		}
		require.Equal(t, len(present), tree.Count())

		keys := make([]int, 0, len(present))
		for k := range present {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for q := -1; q <= 2001; q += 7 {
			for _, mode := range []btree.Mode{btree.Equal, btree.Lesser, btree.Greater} {
				wantKey, wantOK := reference(keys, q, mode)
				k, _, ok := tree.Search(q, mode)
				require.Equal(t, wantOK, ok, "key %d mode %s", q, mode)
				if ok {
					require.Equal(t, wantKey, k, "key %d mode %s", q, mode)
				}
			}
		}
	}
}

func TestCloneIsolationRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	tree := btree.New[int, int]()
	for i := 0; i < 200; i++ {
		require.NoError(t, tree.Push(rnd.Intn(1000), i))
	}
	before := tree.Entries()
	copied := tree.Clone()

	for i := 0; i < 200; i++ {
		key := rnd.Intn(1000)
		if i%2 == 0 {
			copied.Remove(key)
		} else {
			require.NoError(t, copied.Push(key, -i))
		}
	}
	require.Equal(t, before, tree.Entries())
	require.NoError(t, tree.Verify())
	require.NoError(t, copied.Verify())
}

func TestParseMode(t *testing.T) {
	for _, m := range []btree.Mode{btree.Equal, btree.Lesser, btree.Greater} {
		parsed, err := btree.ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, parsed)
	}
	_, err := btree.ParseMode("sideways")
	require.Error(t, err)
	require.Equal(t, "Mode(9)", btree.Mode(9).String())
}

func TestDump(t *testing.T) {
	tree := btree.New[string, int]()
	var sb strings.Builder
	require.NoError(t, tree.Dump(&sb))
	require.Equal(t, "(empty)\n", sb.String())

	for i, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, tree.Push(k, i))
	}
	sb.Reset()
	require.NoError(t, tree.Dump(&sb))
	require.Equal(t, "[a]\n  a: 0\n  b: 1\n[c]\n  c: 2\n  d: 3\n", sb.String())
}

func BenchmarkPush(b *testing.B) {
	testCases := []struct {
		name string
		size int
	}{
		{"Small", 100},
		{"Medium", 10_000},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			keys := rand.New(rand.NewSource(1)).Perm(tc.size)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				tree := btree.New[int, int]()
				for _, k := range keys {
					_ = tree.Push(k, k)
				}
			}
		})
	}
}

func BenchmarkSearch(b *testing.B) {
	tree := btree.New[int, int]()
	for _, k := range rand.New(rand.NewSource(1)).Perm(10_000) {
		_ = tree.Push(k*2, k)
	}

	for _, mode := range []btree.Mode{btree.Equal, btree.Lesser, btree.Greater} {
		b.Run(mode.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				tree.Search(i%20_000, mode)
			}
		})
	}
}
