package model

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate 版本化聚合：某个逻辑实体在一次编辑后的快照
//
// 导航集合只有在对应关系被加载后才会填充，未加载的集合保持 nil。
type Aggregate struct {
	ID               uuid.UUID
	Kind             EntityKind
	SubType          string
	UnificRootID     uuid.UUID
	VersioningID     uuid.UUID
	PublishingStatus PublishingStatus
	OrganizationID   uuid.NullUUID
	Modified         time.Time
	ModifiedBy       string

	Versioning *Versioning

	LanguageAvailabilities []LanguageAvailability
	Names                  []Name
	Descriptions           []Description
	DisplayNameTypes       []DisplayNameType
	Areas                  []uuid.UUID
	Languages              []uuid.UUID
	Emails                 []Email
	Phones                 []Phone
	WebPages               []WebPage
	Addresses              []Address
	ServiceHours           []ServiceHours

	// 根级关系，不随版本变化
	Connections            []*Connection
	AccessibilityRegisters []AccessibilityRegister
}

func (a *Aggregate) GetID() uuid.UUID { return a.ID }

// LanguageAvailability 语言可用性
type LanguageAvailability struct {
	LanguageID uuid.UUID
	Status     PublishingStatus
	// ValidFrom 计划发布时间，非空表示存在待生效的发布
	ValidFrom  *time.Time
	ArchiveAt  *time.Time
	Reviewed   *time.Time
	ReviewedBy string
}

// HasPendingPublish 是否存在尚未生效的计划发布
func (l LanguageAvailability) HasPendingPublish() bool {
	return l.ValidFrom != nil
}

// Name 本地化名称
type Name struct {
	LocalizationID uuid.UUID
	TypeID         uuid.UUID
	Value          string
}

// Description 本地化描述
type Description struct {
	LocalizationID uuid.UUID
	TypeID         uuid.UUID
	Value          string
}

// DisplayNameType 指定某语言下用作显示名称的名称类型
type DisplayNameType struct {
	LocalizationID    uuid.UUID
	DisplayNameTypeID uuid.UUID
}

type Email struct {
	ID             uuid.UUID
	LocalizationID uuid.UUID
	Value          string
	OrderNumber    int
}

type Phone struct {
	ID             uuid.UUID
	LocalizationID uuid.UUID
	TypeID         uuid.UUID
	PrefixNumber   string
	Number         string
	ChargeTypeID   uuid.NullUUID
	OrderNumber    int
}

type WebPage struct {
	ID             uuid.UUID
	LocalizationID uuid.UUID
	URL            string
	Name           string
	OrderNumber    int
}

// Address 地址；附加信息与坐标在二次加载中按地址 ID 填充
type Address struct {
	ID          uuid.UUID
	CharacterID uuid.UUID
	TypeID      uuid.UUID
	Street      string
	PostalCode  string
	OrderNumber int

	AdditionalInformation []AddressAdditionalInformation
	Coordinates           []AddressCoordinate
}

type AddressAdditionalInformation struct {
	LocalizationID uuid.UUID
	Text           string
}

type AddressCoordinate struct {
	CoordinateType string
	Latitude       float64
	Longitude      float64
}

type ServiceHours struct {
	ID          uuid.UUID
	TypeID      uuid.UUID
	ValidFrom   *time.Time
	ValidTo     *time.Time
	IsClosed    bool
	OrderNumber int
}

// AccessibilityRegister 服务地点的无障碍登记，挂在 Unific Root 上
type AccessibilityRegister struct {
	ID           uuid.UUID
	URL          string
	ContactEmail string
	IsValid      bool
}
