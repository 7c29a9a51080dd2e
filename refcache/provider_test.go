package refcache

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptvdata/data/sqlstore"
	"ptvdata/data/sqlstore/sqlstoretest"
	"ptvdata/domain/model"
)

func TestProvider_LoadsAndCaches(t *testing.T) {
	f := sqlstoretest.New(t)
	p := NewProvider(f.Provider, 0)
	ctx := context.Background()

	snap, err := p.Get(ctx)
	require.NoError(t, err)
	code, ok := snap.LanguageCode(sqlstoretest.LangFI)
	require.True(t, ok)
	assert.Equal(t, "fi", code)
	id, ok := snap.TypeID(model.TypeCategoryName, model.NameTypeName)
	require.True(t, ok)
	assert.Equal(t, sqlstoretest.NameTypeName, id)

	// 新增语言在失效前不可见
	de := model.Language{ID: uuid.New(), Code: "de", OrderNumber: 4}
	require.NoError(t, sqlstore.SeedReference(ctx, f.Provider, []model.Language{de}, nil))
	again, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, snap, again)

	p.Invalidate()
	fresh, err := p.Get(ctx)
	require.NoError(t, err)
	code, ok = fresh.LanguageCode(de.ID)
	require.True(t, ok)
	assert.Equal(t, "de", code)

	assert.Equal(t, "refcache", p.Name())
	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}
