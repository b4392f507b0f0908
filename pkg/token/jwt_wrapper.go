package token

// 這個變數會在測試時被覆蓋
var ParseJWTFunc = ParseJWT

// ParseJWTWrapper 讓 middleware test mock使用這個包裝函數
func ParseJWTWrapper(t string) (*Claims, error) {
	return ParseJWTFunc(t)
}
