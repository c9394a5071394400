package entities

import (
	"strings"

	"xrl-config-agent/internal/domain/constants"
)

// XRLArgType is the type annotation of an XRL argument
type XRLArgType string

const (
	XRLArgText XRLArgType = "txt"
	XRLArgU32  XRLArgType = "u32"
)

// XRLArg is one typed "name:type=value" pair
type XRLArg struct {
	Name  string
	Type  XRLArgType
	Value string
}

// TxtArg builds a text argument
func TxtArg(name, value string) XRLArg {
	return XRLArg{Name: name, Type: XRLArgText, Value: value}
}

// U32Arg builds an unsigned 32-bit argument
func U32Arg(name, value string) XRLArg {
	return XRLArg{Name: name, Type: XRLArgU32, Value: value}
}

// String은 "name:type=value" 형식을 반환합니다
func (a XRLArg) String() string {
	return a.Name + ":" + string(a.Type) + "=" + a.Value
}

// XRL is a single call against a finder-registered target
type XRL struct {
	Target string
	Method string
	// TransactionID is sent as the first query element when set
	TransactionID string
	Args          []XRLArg
}

// Render formats the call as finder://<prefix>/<target>/0.1/<method>[?tid][&args]
func (x XRL) Render(finderPrefix string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSuffix(finderPrefix, "/"))
	sb.WriteString("/")
	sb.WriteString(x.Target)
	sb.WriteString("/")
	sb.WriteString(constants.XRLInterfaceVersion)
	sb.WriteString("/")
	sb.WriteString(x.Method)

	params := make([]string, 0, len(x.Args)+1)
	if x.TransactionID != "" {
		params = append(params, x.TransactionID)
	}
	for _, arg := range x.Args {
		params = append(params, arg.String())
	}
	if len(params) > 0 {
		sb.WriteString("?")
		sb.WriteString(strings.Join(params, "&"))
	}
	return sb.String()
}

// WithTransaction returns a copy of the call bound to tid
func (x XRL) WithTransaction(tid string) XRL {
	x.TransactionID = tid
	return x
}
