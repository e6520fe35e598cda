package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindConstructors(t *testing.T) {
	cases := []struct {
		err  *Error
		kind Kind
	}{
		{Validation("字段 %s 不合法", "date"), KindValidation},
		{Conflict("记录重叠"), KindConflict},
		{Configuration("数据缺失"), KindConfiguration},
		{Authorization("无权访问"), KindAuthorization},
		{LimitExceeded("超出上限 %d", 20), KindLimitExceeded},
		{NotFound("不存在"), KindNotFound},
	}
	for _, c := range cases {
		if c.err.Kind != c.kind {
			t.Errorf("期望分类 %d, 实际 %d", c.kind, c.err.Kind)
		}
		if !IsKind(c.err, c.kind) {
			t.Errorf("IsKind(%v, %d) 应为 true", c.err, c.kind)
		}
	}

	if got := Validation("字段 %s 不合法", "date").Error(); got != "字段 date 不合法" {
		t.Errorf("格式化消息不符: %q", got)
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	base := Conflict("时段重叠")
	wrapped := fmt.Errorf("提交失败: %w", base)

	if !IsKind(wrapped, KindConflict) {
		t.Error("包装后的错误应仍可识别分类")
	}
	if IsKind(wrapped, KindValidation) {
		t.Error("分类不应误判")
	}
	if IsKind(errors.New("普通错误"), KindConflict) {
		t.Error("非业务错误不应命中任何分类")
	}
	if KindOf(wrapped) != KindConflict {
		t.Errorf("KindOf 不符: %d", KindOf(wrapped))
	}
	if KindOf(errors.New("普通错误")) != 0 {
		t.Error("非业务错误的 KindOf 应为 0")
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("驱动报错")
	e := &Error{Kind: KindConfiguration, Message: "读取配置失败", Err: inner}

	if !errors.Is(e, inner) {
		t.Error("应能解包底层错误")
	}
	if e.Error() != "读取配置失败: 驱动报错" {
		t.Errorf("消息拼接不符: %q", e.Error())
	}
}
