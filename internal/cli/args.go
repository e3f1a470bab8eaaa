// Package cli 终端客户端 onboard 的参数解析、表单与输出渲染
package cli

import (
	"fmt"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/token"
)

// ParseAssignments 解析 field=value 形式的参数。多值字段可以重复出现，也可以用逗号分隔；
// field= 表示清空该字段
func ParseAssignments(phase model.Phase, args []string) (model.FieldSet, error) {
	owned := make(map[model.FieldID]bool)
	for _, id := range model.PhaseFields[phase] {
		owned[id] = true
	}

	fields := model.FieldSet{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected field=value", arg)
		}

		id := model.FieldID(key)
		if !owned[id] {
			return nil, fmt.Errorf("field %q does not belong to %s", key, phase)
		}
		if id.IsList() {
			fields[id] = append(fields[id], splitList(value)...)
			continue
		}
		fields[id] = []string{value}
	}
	return fields, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// ResolveOwner 决定本地草稿归属。显式指定的 owner 优先；verify 为 true 时校验 token 签名，
// 否则只解码其中的 uid，签名交给资料服务校验
func ResolveOwner(owner, accessToken string, verify bool) (string, error) {
	if owner = strings.TrimSpace(owner); owner != "" {
		return owner, nil
	}
	if accessToken == "" {
		return "", fmt.Errorf("an access token or --owner is required")
	}
	if verify {
		return token.ParseUserID(accessToken)
	}

	claims := jwtv5.MapClaims{}
	if _, _, err := jwtv5.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	return token.UserIDFromClaims(claims)
}
