package constants

// Configuration tree roots the dispatcher routes on
const (
	// LAGRootXPath is the aggregate-ethernet interface list
	LAGRootXPath = "/interface/aggregate-ethernet"

	// VLANRootXPath is the VLAN id list
	VLANRootXPath = "/vlan/id"

	// PortRootXPath is the physical port list
	PortRootXPath = "/platform/port"

	// BreakoutModeLeaf is the port leaf carrying the split mode
	BreakoutModeLeaf = "breakout-mode"
)

// Interface name markers
const (
	EthernetPrefix = "eth"
	LAGPrefix      = "ae"

	// EthernetNameTemplate is the canonical Ethernet name with the suffix appended
	EthernetNameTemplate = "eth-1/1/"
)

// XRL targets and protocol version
const (
	TargetSwitchPortConfig = "switch_port_config"
	TargetVLANConfig       = "vlan_config"

	XRLInterfaceVersion = "0.1"
)

// Port modes and breakout values
const (
	PortModeTrunk  = "trunk"
	PortModeAccess = "access"

	BreakoutModeNone     = "none"
	BreakoutModeDisabled = "no"
)

// Defaults
const (
	DefaultListenAddr      = "0.0.0.0:8000"
	DefaultHealthPort      = "8080"
	DefaultCallXRLPath     = "/usr/bin/lib/libxipc/call_xrl"
	DefaultXRLNetns        = "default"
	DefaultXRLWaitSeconds  = 30 // seconds
	DefaultFinderPrefix    = "finder://sif"
	DefaultCommandTemplate = "/sbin/ip netns exec {{netns}} {{call_xrl}} -w {{wait}}"
	DefaultShellPath       = "/bin/sh"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultLogLevel        = "info"

	DefaultDBHost = "localhost"
	DefaultDBPort = "3306"
	DefaultDBName = "xrl_config_agent"

	MinVLANID = 1
	MaxVLANID = 4094
)
