package assets

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetResolver_ResolveFingerprintsKnownAssets(t *testing.T) {
	fsys := fstest.MapFS{
		"css/app.css": {Data: []byte("body{}")},
		"js/app.js":   {Data: []byte("console.log(1)")},
	}

	resolver, err := NewAssetResolverFromFS(fsys)
	require.NoError(t, err)
	assert.Equal(t, 2, resolver.Len())

	got := resolver.Resolve("css/app.css")
	assert.True(t, strings.HasPrefix(got, "/static/css/app.css?v="), got)
	assert.Len(t, strings.TrimPrefix(got, "/static/css/app.css?v="), fingerprintLen)

	assert.Equal(t, "/static/img/missing.png", resolver.Resolve("/img/missing.png"))
}

func TestAssetResolver_FingerprintChangesWithContent(t *testing.T) {
	fsys := fstest.MapFS{"css/app.css": {Data: []byte("a{}")}}
	resolver, err := NewAssetResolverFromFS(fsys)
	require.NoError(t, err)
	before := resolver.Resolve("css/app.css")

	fsys["css/app.css"] = &fstest.MapFile{Data: []byte("b{}")}
	assert.Equal(t, before, resolver.Resolve("css/app.css"), "no reload yet")

	after := ResolveAsset(resolver, "css/app.css", true)
	assert.NotEqual(t, before, after)
}

func TestResolveAsset_NilResolver(t *testing.T) {
	assert.Equal(t, "/static/js/app.js", ResolveAsset(nil, "js/app.js", false))
}

func TestNewAssetResolverFromFS_RequiresFS(t *testing.T) {
	_, err := NewAssetResolverFromFS(nil)
	require.Error(t, err)
}
