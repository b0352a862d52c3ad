package server

import "github.com/palemoky/ultimate-tictactoe/internal/config"

// Verifier 校验 hello 携带的不透明凭证
// 凭证由外部身份源颁发，这里只判断真伪，不解析内容
type Verifier interface {
	Verify(token string) bool
}

// tokenListVerifier 按配置校验凭证：
// allow_anonymous 模式放行所有非空凭证（开发环境），
// 否则凭证必须在固定列表中
type tokenListVerifier struct {
	allowAnonymous bool
	tokens         map[string]struct{}
}

// NewVerifier 根据认证配置创建校验器
func NewVerifier(cfg config.AuthConfig) Verifier {
	v := &tokenListVerifier{
		allowAnonymous: cfg.AllowAnonymous,
		tokens:         make(map[string]struct{}, len(cfg.Tokens)),
	}
	for _, t := range cfg.Tokens {
		v.tokens[t] = struct{}{}
	}
	return v
}

func (v *tokenListVerifier) Verify(token string) bool {
	if token == "" {
		return false
	}
	if v.allowAnonymous {
		return true
	}
	_, ok := v.tokens[token]
	return ok
}
