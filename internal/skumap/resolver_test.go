package skumap_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stockbridge/freightgate/internal/skumap"
	"github.com/stockbridge/freightgate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func testLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func newResolver(local store.MappingStore, remote store.Catalog) *skumap.Resolver {
	return skumap.NewResolver(skumap.Config{}, local, remote, testLogger())
}

func skusOf(mappings []skumap.Mapping) []string {
	out := make([]string, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, m.SKU)
	}
	return out
}

func TestResolveMany_LocalStoreHit(t *testing.T) {
	local := store.NewMemoryMappingStore()
	require.NoError(t, local.Upsert(context.Background(), "shop", map[string]string{"WID-1": "APX-100"}))
	remote := store.NewMemoryCatalog(nil)

	r := newResolver(local, remote)
	got, err := r.ResolveMany(context.Background(), "shop", []string{"WID-1"}, true)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "APX-100", got[0].DistributorPartNumber)
	assert.Equal(t, 0, remote.Calls(), "no remote call needed on local hit")
}

func TestResolveMany_NormalizesAndDeduplicates(t *testing.T) {
	local := store.NewMemoryMappingStore()
	require.NoError(t, local.Upsert(context.Background(), "shop", map[string]string{"WID-1": "APX-100"}))

	r := newResolver(local, store.NewMemoryCatalog(nil))
	got, err := r.ResolveMany(context.Background(), "shop", []string{" WID-1 ", "WID-1", "", "  "}, false)

	require.NoError(t, err)
	assert.Equal(t, []string{"WID-1"}, skusOf(got))
}

func TestResolveMany_RemoteFallbackCachedWithinPositiveTTL(t *testing.T) {
	local := store.NewMemoryMappingStore()
	remote := store.NewMemoryCatalog(map[string]string{"WID-2": "APX-200"})

	r := newResolver(local, remote)

	got, err := r.ResolveMany(context.Background(), "shop", []string{"WID-2"}, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, remote.Calls())

	// Second resolve is served from the positive cache.
	got, err = r.ResolveMany(context.Background(), "shop", []string{"WID-2"}, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, remote.Calls(), "no second remote call within the positive TTL")
}

func TestResolveMany_NegativeCacheSuppressesRemoteRetry(t *testing.T) {
	remote := store.NewMemoryCatalog(nil) // knows nothing

	r := newResolver(store.NewMemoryMappingStore(), remote)

	got, err := r.ResolveMany(context.Background(), "shop", []string{"GHOST"}, true)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, remote.Calls())

	got, err = r.ResolveMany(context.Background(), "shop", []string{"GHOST"}, true)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, remote.Calls(), "negative entry suppresses the remote retry")
}

func TestResolveMany_NoRemoteFallback(t *testing.T) {
	remote := store.NewMemoryCatalog(map[string]string{"WID-3": "APX-300"})

	r := newResolver(store.NewMemoryMappingStore(), remote)
	got, err := r.ResolveMany(context.Background(), "shop", []string{"WID-3"}, false)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, remote.Calls(), "remote must not be queried when fallback is disallowed")

	// The miss was negatively cached: allowing fallback now still skips
	// the remote until the negative TTL lapses.
	got, err = r.ResolveMany(context.Background(), "shop", []string{"WID-3"}, true)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, remote.Calls())
}

func TestResolveMany_WriteThroughPersistsToLocal(t *testing.T) {
	local := store.NewMemoryMappingStore()
	remote := store.NewMemoryCatalog(map[string]string{"WID-4": "APX-400"})

	r := newResolver(local, remote)
	_, err := r.ResolveMany(context.Background(), "shop", []string{"WID-4"}, true)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		hits, err := local.GetBulk(context.Background(), "shop", []string{"WID-4"})
		return err == nil && hits["WID-4"] == "APX-400"
	}, time.Second, 10*time.Millisecond, "write-through should land in the local store")
}

func TestResolveMany_LocalStoreDownDegradesToRemote(t *testing.T) {
	local := store.NewMemoryMappingStore()
	local.FailReads = errors.New("connection refused")
	remote := store.NewMemoryCatalog(map[string]string{"WID-5": "APX-500"})

	r := newResolver(local, remote)
	got, err := r.ResolveMany(context.Background(), "shop", []string{"WID-5"}, true)

	require.NoError(t, err, "local store failure degrades, not fails")
	require.Len(t, got, 1)
	assert.Equal(t, "APX-500", got[0].DistributorPartNumber)
}

func TestResolveMany_RemoteFailureIsHardError(t *testing.T) {
	remote := store.NewMemoryCatalog(nil)
	remote.Err = errors.New("catalog down")

	r := newResolver(store.NewMemoryMappingStore(), remote)
	_, err := r.ResolveMany(context.Background(), "shop", []string{"WID-6"}, true)

	assert.Error(t, err)
}

func TestResolveMany_MixedSources(t *testing.T) {
	local := store.NewMemoryMappingStore()
	require.NoError(t, local.Upsert(context.Background(), "shop", map[string]string{"LOCAL-1": "APX-L1"}))
	remote := store.NewMemoryCatalog(map[string]string{"REMOTE-1": "APX-R1"})

	r := newResolver(local, remote)
	got, err := r.ResolveMany(context.Background(), "shop", []string{"LOCAL-1", "REMOTE-1", "GHOST"}, true)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"LOCAL-1", "REMOTE-1"}, skusOf(got))
}
