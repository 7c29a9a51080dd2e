// Package notification 汇总保留窗口内的近期变更，提供计数、分页列表、摘要发布与过期清理
package notification

import (
	"time"

	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

// RetentionDays 通知的滚动窗口与跟踪记录的保留期
const RetentionDays = 30

// Retention 保留期时长
const Retention = RetentionDays * 24 * time.Hour

// Kind 通知类别
type Kind string

const (
	KindConnectionChanges         Kind = "ConnectionChanges"
	KindContentUpdated            Kind = "ContentUpdated"
	KindContentArchived           Kind = "ContentArchived"
	KindTranslationArrived        Kind = "TranslationArrived"
	KindGeneralDescriptionCreated Kind = "GeneralDescriptionCreated"
	KindGeneralDescriptionUpdated Kind = "GeneralDescriptionUpdated"
)

// Kinds 全部通知类别，顺序固定
var Kinds = []Kind{
	KindConnectionChanges,
	KindContentUpdated,
	KindContentArchived,
	KindTranslationArrived,
	KindGeneralDescriptionCreated,
	KindGeneralDescriptionUpdated,
}

// ParseKind 解析通知类别
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// fromConnections 连接变更来自连接跟踪表，其余类别来自实体跟踪表
func (k Kind) fromConnections() bool {
	return k == KindConnectionChanges
}

var generalDescription = []model.EntityKind{model.KindGeneralDescription}

// entityQuery 返回类别对应的实体跟踪查询条件
func (k Kind) entityQuery() repository.EntityOperationQuery {
	switch k {
	case KindContentUpdated:
		return repository.EntityOperationQuery{
			ExcludeKinds: generalDescription,
			Operations:   []model.OperationType{model.OperationModified, model.OperationPublished, model.OperationWithdrawn, model.OperationRestored},
		}
	case KindContentArchived:
		return repository.EntityOperationQuery{
			ExcludeKinds: generalDescription,
			Operations:   []model.OperationType{model.OperationArchived, model.OperationRemoved},
		}
	case KindTranslationArrived:
		return repository.EntityOperationQuery{
			Operations: []model.OperationType{model.OperationLanguageAdded},
		}
	case KindGeneralDescriptionCreated:
		return repository.EntityOperationQuery{
			Kinds:      generalDescription,
			Operations: []model.OperationType{model.OperationAdded},
		}
	case KindGeneralDescriptionUpdated:
		return repository.EntityOperationQuery{
			Kinds:      generalDescription,
			Operations: []model.OperationType{model.OperationModified, model.OperationPublished},
		}
	}
	return repository.EntityOperationQuery{}
}

var connectionOps = []model.OperationType{model.OperationAdded, model.OperationDeleted}
