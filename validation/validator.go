// Package validation 发布前的实体校验
//
// 规则函数返回 VALIDATION_ERROR 错误；PublishValidator 把它们收集成按语言区分的校验消息，
// 供生命周期服务在取数与计划发布时使用。
package validation

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"ptvdata/domain/fetchplan"
	"ptvdata/domain/lifecycle"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
	"ptvdata/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// MaxNameLength 名称的最大字符数
const MaxNameLength = 100

// ValidateStringLength 验证字符串长度（按字符计）
func ValidateStringLength(value, fieldName string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if length < min {
		return errors.Errorf(errors.ErrCodeValidation, "%s长度不能少于%d个字符（当前%d）", fieldName, min, length)
	}
	if max > 0 && length > max {
		return errors.Errorf(errors.ErrCodeValidation, "%s长度不能超过%d个字符（当前%d）", fieldName, max, length)
	}
	return nil
}

// ValidateRequired 验证必填字段
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.Errorf(errors.ErrCodeValidation, "%s不能为空", fieldName)
	}
	return nil
}

// ValidateEmail 验证邮箱格式
func ValidateEmail(email string) error {
	if email == "" {
		return errors.NewError(errors.ErrCodeValidation, "邮箱不能为空")
	}
	if !emailRegex.MatchString(email) {
		return errors.NewError(errors.ErrCodeValidation, "邮箱格式不正确")
	}
	return nil
}

// ValidateURL 验证网址为绝对的 http(s) 地址
func ValidateURL(raw string) error {
	if err := ValidateRequired(raw, "网址"); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Errorf(errors.ErrCodeValidation, "网址格式不正确: %s", raw)
	}
	return nil
}

// ValidateEnum 验证枚举值
func ValidateEnum(value, fieldName string, validValues []string) error {
	for _, valid := range validValues {
		if value == valid {
			return nil
		}
	}
	return errors.Errorf(errors.ErrCodeValidation, "%s的值无效，必须是以下之一: %v", fieldName, validValues)
}

// message 取出规则错误的消息文本
func message(err error) string {
	if appErr, ok := err.(errors.IError); ok {
		return appErr.Message()
	}
	return err.Error()
}

// PublishValidator 检查待发布语言的内容是否完整
//
// 待发布语言指状态为 Draft 或 Modified，或存在计划发布时间的语言。
// 对每个待发布语言：必须有非空名称且不超过 MaxNameLength；该语言下的邮箱与网址格式必须正确。
type PublishValidator struct{}

// NewPublishValidator 创建发布校验器
func NewPublishValidator() *PublishValidator {
	return &PublishValidator{}
}

var _ lifecycle.IValidator = (*PublishValidator)(nil)

var publishPlan = fetchplan.Empty().With(
	fetchplan.RelLanguageAvailabilities,
	fetchplan.RelNames,
	fetchplan.RelEmails,
	fetchplan.RelWebPages,
)

// Validate 实现 lifecycle.IValidator
func (v *PublishValidator) Validate(ctx context.Context, uow repository.IUnitOfWork, kind model.EntityKind, id uuid.UUID) ([]lifecycle.ValidationMessage, error) {
	agg, err := uow.Entities().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agg.Kind != kind {
		return nil, errors.NotFound(string(kind), id)
	}
	if err := uow.Entities().Include(ctx, publishPlan, []*model.Aggregate{agg}); err != nil {
		return nil, err
	}
	return Check(agg), nil
}

func pending(la model.LanguageAvailability) bool {
	return la.Status == model.StatusDraft || la.Status == model.StatusModified || la.HasPendingPublish()
}

// Check 对已加载的聚合执行发布规则
func Check(agg *model.Aggregate) []lifecycle.ValidationMessage {
	var msgs []lifecycle.ValidationMessage
	add := func(key string, lang uuid.UUID, err error) {
		if err != nil {
			msgs = append(msgs, lifecycle.ValidationMessage{
				Key:        key,
				Message:    message(err),
				LanguageID: uuid.NullUUID{UUID: lang, Valid: true},
			})
		}
	}

	found := false
	for _, la := range agg.LanguageAvailabilities {
		if !pending(la) {
			continue
		}
		found = true
		lang := la.LanguageID

		name := ""
		for _, n := range agg.Names {
			if n.LocalizationID == lang && strings.TrimSpace(n.Value) != "" {
				name = n.Value
				break
			}
		}
		if err := ValidateRequired(name, "名称"); err != nil {
			add("name.required", lang, err)
		} else {
			add("name.length", lang, ValidateStringLength(name, "名称", 1, MaxNameLength))
		}

		for _, e := range agg.Emails {
			if e.LocalizationID == lang {
				add(fmt.Sprintf("email.%d", e.OrderNumber), lang, ValidateEmail(e.Value))
			}
		}
		for _, w := range agg.WebPages {
			if w.LocalizationID == lang {
				add(fmt.Sprintf("webPage.%d", w.OrderNumber), lang, ValidateURL(w.URL))
			}
		}
	}
	if !found {
		msgs = append(msgs, lifecycle.ValidationMessage{
			Key:     "languages.none",
			Message: "没有待发布的语言",
		})
	}
	return msgs
}
