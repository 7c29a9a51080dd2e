package naming

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"ptvdata/domain/model"
	"ptvdata/refcache"
)

var (
	fi, sv, en = uuid.New(), uuid.New(), uuid.New()
	nameType   = uuid.New()
	alternate  = uuid.New()
)

var testSnapshot = refcache.NewSnapshot(
	[]model.Language{{ID: fi, Code: "fi", OrderNumber: 1}, {ID: sv, Code: "sv", OrderNumber: 2}, {ID: en, Code: "en", OrderNumber: 3}},
	[]model.TypeCode{
		{ID: nameType, Category: model.TypeCategoryName, Code: model.NameTypeName},
		{ID: alternate, Category: model.TypeCategoryName, Code: "AlternateName"},
	},
)

func channel(names []model.Name, mappings []model.DisplayNameType) *model.Aggregate {
	return &model.Aggregate{ID: uuid.New(), Kind: model.KindServiceChannel, Names: names, DisplayNameTypes: mappings}
}

func TestDisplayName_ExplicitMappingWins(t *testing.T) {
	agg := channel(
		[]model.Name{
			{LocalizationID: fi, TypeID: nameType, Value: "Virasto"},
			{LocalizationID: fi, TypeID: alternate, Value: "Palvelupiste"},
		},
		[]model.DisplayNameType{{LocalizationID: fi, DisplayNameTypeID: alternate}},
	)
	got, ok := DisplayName(agg, testSnapshot, fi)
	assert.True(t, ok)
	assert.Equal(t, "Palvelupiste", got)
}

func TestDisplayName_MappingForOtherLanguageFallsThrough(t *testing.T) {
	agg := channel(
		[]model.Name{
			{LocalizationID: fi, TypeID: alternate, Value: "Palvelupiste"},
			{LocalizationID: sv, TypeID: nameType, Value: "Ämbetsverk"},
			{LocalizationID: sv, TypeID: alternate, Value: "Servicepunkt"},
		},
		[]model.DisplayNameType{{LocalizationID: fi, DisplayNameTypeID: alternate}},
	)
	got, ok := DisplayName(agg, testSnapshot, sv)
	assert.True(t, ok)
	assert.Equal(t, "Ämbetsverk", got)
}

func TestDisplayName_NoMappingsUsesDefault(t *testing.T) {
	agg := channel(
		[]model.Name{
			{LocalizationID: en, TypeID: alternate, Value: "Service point"},
			{LocalizationID: en, TypeID: nameType, Value: "Agency"},
		},
		nil,
	)
	got, ok := DisplayName(agg, testSnapshot, en)
	assert.True(t, ok)
	assert.Equal(t, "Agency", got)

	_, ok = DisplayName(agg, testSnapshot, fi)
	assert.False(t, ok)
}

func TestDisplayName_MappedTypeWithoutNameFallsBack(t *testing.T) {
	agg := channel(
		[]model.Name{{LocalizationID: fi, TypeID: nameType, Value: "Virasto"}},
		[]model.DisplayNameType{{LocalizationID: fi, DisplayNameTypeID: alternate}},
	)
	got, ok := DisplayName(agg, testSnapshot, fi)
	assert.True(t, ok)
	assert.Equal(t, "Virasto", got)
}

func TestDisplayNames_AllLanguages(t *testing.T) {
	agg := channel(
		[]model.Name{
			{LocalizationID: fi, TypeID: nameType, Value: "Virasto"},
			{LocalizationID: fi, TypeID: alternate, Value: "Palvelupiste"},
			{LocalizationID: sv, TypeID: nameType, Value: "Ämbetsverk"},
		},
		[]model.DisplayNameType{{LocalizationID: fi, DisplayNameTypeID: alternate}},
	)
	assert.Equal(t, map[string]string{"fi": "Palvelupiste", "sv": "Ämbetsverk"}, DisplayNames(agg, testSnapshot))
}

func TestLanguageStates_Ordered(t *testing.T) {
	agg := &model.Aggregate{LanguageAvailabilities: []model.LanguageAvailability{
		{LanguageID: en, Status: model.StatusDraft},
		{LanguageID: fi, Status: model.StatusPublished},
		{LanguageID: uuid.New(), Status: model.StatusPublished},
	}}
	assert.Equal(t, []LanguageState{{"fi", model.StatusPublished}, {"en", model.StatusDraft}}, LanguageStates(agg, testSnapshot))
}

func TestDescribe(t *testing.T) {
	root := uuid.New()
	agg := &model.Aggregate{ID: uuid.New(), UnificRootID: root, SubType: "Phone", PublishingStatus: model.StatusPublished,
		Names: []model.Name{{LocalizationID: fi, TypeID: nameType, Value: "Neuvonta"}}}
	s := Describe(model.KindServiceChannel, agg, testSnapshot)
	assert.True(t, s.EntityID.Valid)
	assert.Equal(t, root, s.RootID)
	assert.Equal(t, "Neuvonta", s.Names["fi"])
}
