package model

import (
	"time"

	"github.com/google/uuid"
)

// DetailKind 连接明细类别，每类存放在独立的明细行中
type DetailKind string

const (
	DetailDescription          DetailKind = "Description"
	DetailDigitalAuthorization DetailKind = "DigitalAuthorization"
	DetailServiceHours         DetailKind = "ServiceHours"
	DetailExtraType            DetailKind = "ExtraType"
	DetailEmail                DetailKind = "Email"
	DetailWebPage              DetailKind = "WebPage"
	DetailPhone                DetailKind = "Phone"
	DetailAddress              DetailKind = "Address"
)

// DetailKinds 全部明细类别
var DetailKinds = []DetailKind{
	DetailDescription,
	DetailDigitalAuthorization,
	DetailServiceHours,
	DetailExtraType,
	DetailEmail,
	DetailWebPage,
	DetailPhone,
	DetailAddress,
}

// Connection 服务与服务渠道之间的连接（按两侧 Unific Root 标识）
type Connection struct {
	ServiceRootID uuid.UUID
	ChannelRootID uuid.UUID
	ChargeTypeID  uuid.NullUUID
	OrderNumber   int
	Modified      time.Time
	ModifiedBy    string

	// Details 每个明细类别都有初始化过的切片（可能为空）
	Details map[DetailKind][]ConnectionDetail
}

// Detail 返回某类明细；未初始化时返回 nil
func (c *Connection) Detail(kind DetailKind) []ConnectionDetail {
	return c.Details[kind]
}

// ConnectionDetail 连接明细行
type ConnectionDetail struct {
	ID             uuid.UUID
	ServiceRootID  uuid.UUID
	ChannelRootID  uuid.UUID
	Kind           DetailKind
	LocalizationID uuid.NullUUID
	TypeID         uuid.NullUUID
	Value          string
	OrderNumber    int
}
