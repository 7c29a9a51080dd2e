package versioning

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

func row(major, minor int, ignored bool) *model.Versioning {
	return &model.Versioning{ID: uuid.New(), Position: model.Position{Major: major, Minor: minor}, Ignored: ignored}
}

func TestLive_ExcludesIgnoredRowsAndVoidedMajors(t *testing.T) {
	keep10 := row(1, 0, false)
	ignored11 := row(1, 1, true)
	keep12 := row(1, 2, false)
	void20 := row(2, 0, true)
	void21 := row(2, 1, false)
	keep30 := row(3, 0, false)

	got := Live([]*model.Versioning{keep30, void21, void20, keep12, ignored11, keep10})
	assert.Equal(t, []*model.Versioning{keep30, keep12, keep10}, got)

	for _, v := range got {
		assert.False(t, v.Ignored)
		assert.NotEqual(t, 2, v.Major)
	}
}

func TestLiveRefs(t *testing.T) {
	voided := VoidedMajors([]*model.Versioning{row(2, 0, true), row(1, 0, false), row(1, 3, true)})
	assert.Equal(t, map[int]bool{2: true}, voided)

	refs := []repository.VersionRef{
		{EntityID: uuid.New(), Position: model.Position{Major: 1, Minor: 0}},
		{EntityID: uuid.New(), Position: model.Position{Major: 1, Minor: 3}, Ignored: true},
		{EntityID: uuid.New(), Position: model.Position{Major: 2, Minor: 2}},
	}
	got := LiveRefs(refs, voided)
	assert.Len(t, got, 1)
	assert.Equal(t, refs[0].EntityID, got[0].EntityID)
}
