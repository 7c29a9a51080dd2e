package versioning

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func ref(major, minor int) repository.VersionRef {
	return repository.VersionRef{
		EntityID:     uuid.New(),
		VersioningID: uuid.New(),
		Position:     model.Position{Major: major, Minor: minor},
		Created:      t0.Add(time.Duration(major*100+minor) * time.Hour),
	}
}

func TestPolyfill_Precedence(t *testing.T) {
	r10, r12, r20, r31 := ref(1, 0), ref(1, 2), ref(2, 0), ref(3, 1)
	index := []repository.VersionRef{r31, r10, r20, r12}

	tests := []struct {
		name string
		want model.Position
		ref  repository.VersionRef
		rule Rule
	}{
		{"exact", model.Position{Major: 1, Minor: 2}, r12, RuleExact},
		{"baseline of same major", model.Position{Major: 2, Minor: 4}, r20, RuleBaseline},
		{"earlier within same major when baseline missing", model.Position{Major: 3, Minor: 5}, r31, RuleEarlier},
		{"earlier major", model.Position{Major: 3, Minor: 0}, r20, RuleEarlier},
		{"beyond last major", model.Position{Major: 9, Minor: 0}, r31, RuleEarlier},
		{"later when nothing earlier", model.Position{Major: 0, Minor: 3}, r10, RuleLater},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, rule, ok := Polyfill(index, tt.want)
			require.True(t, ok)
			assert.Equal(t, tt.ref.EntityID, got.EntityID)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

func TestPolyfill_LaterWithinSameMajor(t *testing.T) {
	r32 := ref(3, 2)
	got, rule, ok := Polyfill([]repository.VersionRef{r32, ref(4, 0)}, model.Position{Major: 3, Minor: 1})
	require.True(t, ok)
	assert.Equal(t, RuleLater, rule)
	assert.Equal(t, r32.EntityID, got.EntityID)
}

// 同主版本只有更晚的 minor 时，退回到更早主版本而不是取同主版本的后续修订
func TestPolyfill_EarlierMajorBeatsLaterMinor(t *testing.T) {
	r10, r25 := ref(1, 0), ref(2, 5)
	got, rule, ok := Polyfill([]repository.VersionRef{r25, r10}, model.Position{Major: 2, Minor: 3})
	require.True(t, ok)
	assert.Equal(t, RuleEarlier, rule)
	assert.Equal(t, r10.EntityID, got.EntityID)
	assert.Equal(t, model.Position{Major: 1}, got.Position)
}

func TestPolyfill_Empty(t *testing.T) {
	_, _, ok := Polyfill(nil, model.Position{Major: 1})
	assert.False(t, ok)
}

// 同样的数据无论输入顺序如何都得到同一个替代版本
func TestPolyfill_Deterministic(t *testing.T) {
	a := ref(1, 0)
	b := a
	b.EntityID = uuid.New()
	b.Created = a.Created
	c := ref(1, 0)
	c.Created = a.Created.Add(-time.Hour)
	index := []repository.VersionRef{a, b, c, ref(2, 0), ref(2, 3)}

	first, rule, ok := Polyfill(index, model.Position{Major: 1, Minor: 1})
	require.True(t, ok)
	assert.Equal(t, RuleBaseline, rule)
	assert.NotEqual(t, c.EntityID, first.EntityID, "newest creation wins among equal positions")

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]repository.VersionRef(nil), index...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got, gotRule, _ := Polyfill(shuffled, model.Position{Major: 1, Minor: 1})
		assert.Equal(t, first.EntityID, got.EntityID)
		assert.Equal(t, rule, gotRule)
	}
}

// (1,0) 有数据 A、(1,1) 只有兄弟实体变更、(2,0) 有数据 B
func TestPolyfill_SiblingOnlyMinorUsesBaseline(t *testing.T) {
	dataA, dataB := ref(1, 0), ref(2, 0)
	index := []repository.VersionRef{dataA, dataB}

	got, rule, ok := Polyfill(index, model.Position{Major: 1, Minor: 1})
	require.True(t, ok)
	assert.Equal(t, RuleBaseline, rule)
	assert.Equal(t, dataA.EntityID, got.EntityID)

	got, rule, ok = Polyfill(index, model.Position{Major: 3, Minor: 0})
	require.True(t, ok)
	assert.Equal(t, RuleEarlier, rule)
	assert.Equal(t, dataB.EntityID, got.EntityID)
}

func TestLatest(t *testing.T) {
	r21 := ref(2, 1)
	got, ok := Latest([]repository.VersionRef{ref(1, 0), r21, ref(2, 0)})
	require.True(t, ok)
	assert.Equal(t, r21.EntityID, got.EntityID)

	_, ok = Latest(nil)
	assert.False(t, ok)
}
