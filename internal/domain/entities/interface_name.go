package entities

import (
	"strings"

	"xrl-config-agent/internal/domain/constants"
)

// NormalizeEthernetName rewrites a configuration port name into the switch's
// ifname form. Dashes and underscores become slashes and everything after the
// first four characters is appended to "eth-1/1/":
//
//	eth-2   -> eth-1/1/2
//	eth-1_2 -> eth-1/1/1/2
//
// The unit and slot are always 1/1. The result is not a fixed point.
func NormalizeEthernetName(name string) string {
	name = strings.ReplaceAll(name, "-", "/")
	name = strings.ReplaceAll(name, "_", "/")

	suffix := ""
	if len(name) > 4 {
		suffix = name[4:]
	}
	return constants.EthernetNameTemplate + suffix
}

// NormalizeLAGName strips every dash: ae-1-2 -> ae12
func NormalizeLAGName(name string) string {
	return strings.ReplaceAll(name, "-", "")
}

// NormalizeMemberName picks the normalization by the marker the value carries.
// Values with neither marker are returned unchanged.
func NormalizeMemberName(name string) string {
	switch {
	case strings.Contains(name, constants.EthernetPrefix):
		return NormalizeEthernetName(name)
	case strings.Contains(name, constants.LAGPrefix):
		return NormalizeLAGName(name)
	default:
		return name
	}
}
