package entities

import (
	"fmt"
	"strconv"
	"strings"

	"xrl-config-agent/internal/domain/constants"
	"xrl-config-agent/internal/domain/errors"
)

// OperationKind is the patch verb of a configuration operation
type OperationKind string

const (
	OperationAdd     OperationKind = "add"
	OperationReplace OperationKind = "replace"
	OperationRemove  OperationKind = "remove"
)

// ParseOperationKind maps the wire "op" field to an OperationKind
func ParseOperationKind(op string) (OperationKind, error) {
	switch kind := OperationKind(op); kind {
	case OperationAdd, OperationReplace, OperationRemove:
		return kind, nil
	}
	return "", errors.NewValidationError(fmt.Sprintf("unsupported operation %q", op), nil)
}

// Operation is a single change against the switch configuration tree
type Operation struct {
	Kind  OperationKind
	Path  string
	Value string
}

// NewOperation validates op and builds an Operation
func NewOperation(op, path, value string) (Operation, error) {
	kind, err := ParseOperationKind(op)
	if err != nil {
		return Operation{}, err
	}
	if path == "" {
		return Operation{}, errors.NewValidationError("operation path is empty", nil)
	}
	return Operation{Kind: kind, Path: path, Value: value}, nil
}

// ParentKey returns the second-to-last slash separated segment of the path,
// which names the list entry a leaf belongs to: "/vlan/id/100/member" -> "100".
func (o Operation) ParentKey() string {
	segments := strings.Split(o.Path, "/")
	if len(segments) < 2 {
		return ""
	}
	return segments[len(segments)-2]
}

// VLANID is a validated 802.1Q VLAN identifier
type VLANID uint32

// ParseVLANID parses a VLAN id in the range 1..4094
func ParseVLANID(value string) (VLANID, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid VLAN id %q", value), err)
	}
	if id < constants.MinVLANID || id > constants.MaxVLANID {
		return 0, errors.NewValidationError(
			fmt.Sprintf("VLAN id %d out of range %d-%d", id, constants.MinVLANID, constants.MaxVLANID), nil)
	}
	return VLANID(id), nil
}

// String은 VLAN id의 문자열 표현을 반환합니다
func (v VLANID) String() string {
	return strconv.FormatUint(uint64(v), 10)
}

// BreakoutMode converts a configured breakout mode into the value set_port_split expects
func BreakoutMode(value string) string {
	if value == constants.BreakoutModeNone {
		return constants.BreakoutModeDisabled
	}
	return value
}
