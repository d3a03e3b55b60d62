package vectorindex

import (
	"consultant-agent-backend/model"
	"fmt"
	"strings"
)

// visibilityFilter 检索与删除共用的过滤表达式。取值通过模板参数绑定，
// 不将外部输入拼进表达式字符串
//
// 标签语义全局统一：文档标签为空，或与请求方的授权标签有交集时可见
func visibilityFilter(tenantID string, policy model.AccessPolicy) (string, map[string]any) {
	expr := "tenant_id == {tenant} and access_level <= {level} and (ARRAY_LENGTH(tags) == 0 or ARRAY_CONTAINS_ANY(tags, {granted}))"

	granted := policy.Tags
	if granted == nil {
		granted = []string{}
	}

	params := map[string]any{
		"tenant":  tenantID,
		"level":   int64(policy.Level),
		"granted": granted,
	}
	return expr, params
}

// documentFilter 删除接口不支持模板参数，ID经转义后作为字符串字面量
// 拼入表达式。两个ID都由服务端生成，转义只为防御引号与反斜杠
func documentFilter(tenantID, documentID string) string {
	return fmt.Sprintf(`tenant_id == "%s" and document_id == "%s"`,
		escapeStringLiteral(tenantID), escapeStringLiteral(documentID))
}

func escapeStringLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
