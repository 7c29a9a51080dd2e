// Package model 定义服务目录的版本化实体模型
//
// 一个逻辑实体（服务、渠道、组织、服务集合、通用描述）由 Unific Root 标识，
// 每次编辑产生一个新的版本化聚合，版本位置由 Versioning 记录的 (major, minor) 给出。
package model

// EntityKind 实体类别
type EntityKind string

const (
	KindServiceChannel     EntityKind = "ServiceChannel"
	KindService            EntityKind = "Service"
	KindOrganization       EntityKind = "Organization"
	KindServiceCollection  EntityKind = "ServiceCollection"
	KindGeneralDescription EntityKind = "GeneralDescription"
)

// EntityKinds 全部实体类别，顺序固定
var EntityKinds = []EntityKind{
	KindServiceChannel,
	KindService,
	KindOrganization,
	KindServiceCollection,
	KindGeneralDescription,
}

// Valid 是否为已知类别
func (k EntityKind) Valid() bool {
	for _, kind := range EntityKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ParseEntityKind 解析类别名称
func ParseEntityKind(s string) (EntityKind, bool) {
	k := EntityKind(s)
	return k, k.Valid()
}

// ChannelType 服务渠道子类型
type ChannelType string

const (
	ChannelEChannel        ChannelType = "EChannel"
	ChannelPhone           ChannelType = "Phone"
	ChannelPrintableForm   ChannelType = "PrintableForm"
	ChannelServiceLocation ChannelType = "ServiceLocation"
	ChannelWebPage         ChannelType = "WebPage"
)

// PublishingStatus 发布状态
type PublishingStatus string

const (
	StatusDraft        PublishingStatus = "Draft"
	StatusPublished    PublishingStatus = "Published"
	StatusModified     PublishingStatus = "Modified"
	StatusDeleted      PublishingStatus = "Deleted"
	StatusOldPublished PublishingStatus = "OldPublished"
	StatusRemoved      PublishingStatus = "Removed"
)

// OperationType 跟踪记录的操作类型
type OperationType string

const (
	OperationAdded             OperationType = "Added"
	OperationDeleted           OperationType = "Deleted"
	OperationModified          OperationType = "Modified"
	OperationPublished         OperationType = "Published"
	OperationWithdrawn         OperationType = "Withdrawn"
	OperationRestored          OperationType = "Restored"
	OperationArchived          OperationType = "Archived"
	OperationRemoved           OperationType = "Removed"
	OperationLanguageAdded     OperationType = "LanguageAdded"
	OperationLanguageArchived  OperationType = "LanguageArchived"
	OperationLanguageRestored  OperationType = "LanguageRestored"
	OperationLanguageWithdrawn OperationType = "LanguageWithdrawn"
	OperationScheduled         OperationType = "Scheduled"
)

// 引用数据中的类型分类
const (
	TypeCategoryName        = "NameType"
	TypeCategoryDescription = "DescriptionType"
	TypeCategoryPhone       = "PhoneNumberType"
	TypeCategoryAddress     = "AddressCharacter"

	// NameTypeName 默认显示名称类型
	NameTypeName = "Name"
)

// ConnectionSide 服务-渠道连接中作为分组键的一侧
type ConnectionSide int

const (
	SideService ConnectionSide = iota
	SideChannel
)

func (s ConnectionSide) String() string {
	if s == SideChannel {
		return "channel"
	}
	return "service"
}
