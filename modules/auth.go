package modules

import "reflect"

// AuthType names the Go type of an authorization token. Only the package that
// declares an unexported token type can create values of it, so holding a
// token of a given AuthType proves the caller is that package.
type AuthType string

// AuthTypeOf returns the AuthType of token, or "" when token is nil or its
// type is unnamed or predeclared (those can be produced by anyone).
func AuthTypeOf(token interface{}) AuthType {
	if token == nil {
		return ""
	}
	t := reflect.TypeOf(token)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return ""
	}
	return AuthType(t.PkgPath() + "." + t.Name())
}
