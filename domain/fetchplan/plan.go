// Package fetchplan 以声明式的关系列表描述完整加载一个版本化聚合所需的子集合
//
// 计划本身是纯数据：同一输入总是得到同一计划，重复包含不会产生重复关系。
// 计划的执行由存储层完成，见 data/sqlstore。
package fetchplan

import (
	"ptvdata/domain/model"
	"ptvdata/errors"
)

// Relation 聚合上的一条导航关系
type Relation string

const (
	RelVersioning             Relation = "Versioning"
	RelLanguageAvailabilities Relation = "LanguageAvailabilities"
	RelNames                  Relation = "Names"
	RelDescriptions           Relation = "Descriptions"
	RelDisplayNameTypes       Relation = "DisplayNameTypes"
	RelAreas                  Relation = "Areas"
	RelLanguages              Relation = "Languages"
	RelEmails                 Relation = "Emails"
	RelPhones                 Relation = "Phones"
	RelWebPages               Relation = "WebPages"
	RelAddresses              Relation = "Addresses"
	RelServiceHours           Relation = "ServiceHours"
	RelConnections            Relation = "Connections"
	RelAccessibilityRegisters Relation = "AccessibilityRegisters"
)

// PostLoad 主查询之后按主键补充加载的子行
type PostLoad string

const (
	// PostAddressAdditionalInformation 按地址 ID 加载附加信息
	PostAddressAdditionalInformation PostLoad = "AddressAdditionalInformation"
	// PostAddressCoordinates 按地址 ID 加载坐标
	PostAddressCoordinates PostLoad = "AddressCoordinates"
)

// Plan 加载计划
type Plan struct {
	Relations []Relation
	PostLoads []PostLoad
}

// Empty 空计划
func Empty() Plan {
	return Plan{}
}

// With 追加关系，已存在的关系不会重复，原计划不被修改
func (p Plan) With(rels ...Relation) Plan {
	out := Plan{
		Relations: append([]Relation(nil), p.Relations...),
		PostLoads: append([]PostLoad(nil), p.PostLoads...),
	}
	for _, r := range rels {
		if !out.Has(r) {
			out.Relations = append(out.Relations, r)
		}
	}
	return out
}

// WithPostLoad 追加二次加载步骤，同样去重
func (p Plan) WithPostLoad(steps ...PostLoad) Plan {
	out := p.With()
	for _, s := range steps {
		if !out.HasPostLoad(s) {
			out.PostLoads = append(out.PostLoads, s)
		}
	}
	return out
}

// Has 是否包含关系
func (p Plan) Has(r Relation) bool {
	for _, existing := range p.Relations {
		if existing == r {
			return true
		}
	}
	return false
}

// HasPostLoad 是否包含二次加载步骤
func (p Plan) HasPostLoad(s PostLoad) bool {
	for _, existing := range p.PostLoads {
		if existing == s {
			return true
		}
	}
	return false
}

// Summary 显示名称与状态所需的最小计划：历史与通知只需要这些
func Summary() Plan {
	return Empty().With(RelNames, RelDisplayNameTypes, RelLanguageAvailabilities)
}

var commonRelations = []Relation{
	RelVersioning,
	RelLanguageAvailabilities,
	RelNames,
	RelDescriptions,
}

var channelRelations = map[model.ChannelType][]Relation{
	model.ChannelEChannel:        {RelWebPages},
	model.ChannelPhone:           {RelPhones},
	model.ChannelPrintableForm:   {RelWebPages, RelEmails, RelPhones},
	model.ChannelServiceLocation: {RelEmails, RelPhones, RelWebPages, RelAccessibilityRegisters},
	model.ChannelWebPage:         {RelWebPages},
}

// IncludeDetails 返回完整视图所需的计划
//
// 渠道按子类型决定联系方式集合；地点与表单渠道、组织额外包含地址及其二次加载。
// 未知子类型返回 UNSUPPORTED_VARIANT。
func IncludeDetails(p Plan, kind model.EntityKind, subType string) (Plan, error) {
	out := p.With(commonRelations...)
	switch kind {
	case model.KindServiceChannel:
		rels, ok := channelRelations[model.ChannelType(subType)]
		if !ok {
			return Plan{}, errors.UnsupportedVariant("include channel details", subType)
		}
		out = out.With(RelDisplayNameTypes, RelAreas, RelLanguages, RelServiceHours, RelConnections).With(rels...)
		if needsAddresses(kind, subType) {
			return IncludeAddresses(out, kind, subType)
		}
		return out, nil
	case model.KindService:
		return out.With(RelAreas, RelLanguages, RelConnections), nil
	case model.KindOrganization:
		out = out.With(RelDisplayNameTypes, RelAreas, RelEmails, RelPhones, RelWebPages)
		return IncludeAddresses(out, kind, subType)
	case model.KindServiceCollection:
		return out, nil
	case model.KindGeneralDescription:
		return out.With(RelLanguages), nil
	}
	return Plan{}, errors.UnsupportedVariant("include details", kind)
}

// IncludeAddresses 包含地址及其附加信息、坐标
//
// 附加信息与坐标不与地址一起连接查询，而是在地址加载后按地址 ID 再取一次，
// 避免多层一对多连接造成的行膨胀。只有地点渠道、表单渠道与组织有地址。
func IncludeAddresses(p Plan, kind model.EntityKind, subType string) (Plan, error) {
	if !needsAddresses(kind, subType) {
		return Plan{}, errors.UnsupportedVariant("include addresses", string(kind)+"/"+subType)
	}
	return p.With(RelAddresses).WithPostLoad(PostAddressAdditionalInformation, PostAddressCoordinates), nil
}

func needsAddresses(kind model.EntityKind, subType string) bool {
	switch kind {
	case model.KindOrganization:
		return true
	case model.KindServiceChannel:
		ct := model.ChannelType(subType)
		return ct == model.ChannelServiceLocation || ct == model.ChannelPrintableForm
	}
	return false
}
