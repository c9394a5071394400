package dispatch

import (
	"context"
	"strings"

	"xrl-config-agent/internal/domain/constants"
	"xrl-config-agent/internal/domain/entities"
)

// SwitchConfigurer is the set of translation routines a route can apply
type SwitchConfigurer interface {
	CreateLAG(ctx context.Context, name string) error
	DeleteLAG(ctx context.Context, name string) error
	AddLAGMember(ctx context.Context, lagName, member string) error
	RemoveLAGMember(ctx context.Context, lagName, member string) error
	CreateVLAN(ctx context.Context, vlan string) error
	DeleteVLAN(ctx context.Context, vlan string) error
	AddVLANMember(ctx context.Context, vlan, member string) error
	RemoveVLANMember(ctx context.Context, vlan, member string) error
	SetPortBreakoutMode(ctx context.Context, port, mode string) error
}

// Matcher reports whether a route handles path
type Matcher func(path string) bool

// PathEquals matches exactly root
func PathEquals(root string) Matcher {
	return func(path string) bool { return path == root }
}

// PathContains matches paths containing every fragment
func PathContains(fragments ...string) Matcher {
	return func(path string) bool {
		for _, f := range fragments {
			if !strings.Contains(path, f) {
				return false
			}
		}
		return true
	}
}

// Route binds operation kinds and a path matcher to one routine
type Route struct {
	Name  string
	Kinds []entities.OperationKind
	Match Matcher
	Apply func(ctx context.Context, op entities.Operation) error
}

// Handles reports whether the route accepts op
func (r Route) Handles(op entities.Operation) bool {
	for _, k := range r.Kinds {
		if k == op.Kind {
			return r.Match(op.Path)
		}
	}
	return false
}

// Table is the ordered route list. The first route that handles an operation wins.
type Table struct {
	routes []Route
}

// NewTable builds the route table over svc
func NewTable(svc SwitchConfigurer) *Table {
	add := []entities.OperationKind{entities.OperationAdd}
	remove := []entities.OperationKind{entities.OperationRemove}

	// exact roots come before their subtrees so a list root never reaches a member routine
	return &Table{routes: []Route{
		{
			Name:  "create_lag",
			Kinds: add,
			Match: PathEquals(constants.LAGRootXPath),
			Apply: func(ctx context.Context, op entities.Operation) error {
				return svc.CreateLAG(ctx, op.Value)
			},
		},
		{
			Name:  "delete_lag",
			Kinds: remove,
			Match: PathEquals(constants.LAGRootXPath),
			Apply: func(ctx context.Context, op entities.Operation) error {
				return svc.DeleteLAG(ctx, op.Value)
			},
		},
		{
			Name:  "add_lag_member",
			Kinds: add,
			Match: PathContains(constants.LAGRootXPath),
			Apply: func(ctx context.Context, op entities.Operation) error {
				return svc.AddLAGMember(ctx, op.ParentKey(), op.Value)
			},
		},
		{
			Name:  "remove_lag_member",
			Kinds: remove,
			Match: PathContains(constants.LAGRootXPath),
			Apply: func(ctx context.Context, op entities.Operation) error {
				return svc.RemoveLAGMember(ctx, op.ParentKey(), op.Value)
			},
		},
		{
			Name:  "create_vlan",
			Kinds: add,
			Match: PathEquals(constants.VLANRootXPath),
			Apply: func(ctx context.Context, op entities.Operation) error {
				return svc.CreateVLAN(ctx, op.Value)
			},
		},
		{
			Name:  "delete_vlan",
			Kinds: remove,
			Match: PathEquals(constants.VLANRootXPath),
			Apply: func(ctx context.Context, op entities.Operation) error {
				return svc.DeleteVLAN(ctx, op.Value)
			},
		},
		{
			Name:  "add_vlan_member",
			Kinds: add,
			Match: PathContains(constants.VLANRootXPath),
			Apply: func(ctx context.Context, op entities.Operation) error {
				return svc.AddVLANMember(ctx, op.ParentKey(), op.Value)
			},
		},
		{
			Name:  "remove_vlan_member",
			Kinds: remove,
			Match: PathContains(constants.VLANRootXPath),
			Apply: func(ctx context.Context, op entities.Operation) error {
				return svc.RemoveVLANMember(ctx, op.ParentKey(), op.Value)
			},
		},
		{
			Name:  "set_breakout_mode",
			Kinds: []entities.OperationKind{entities.OperationAdd, entities.OperationReplace, entities.OperationRemove},
			Match: PathContains(constants.PortRootXPath, constants.BreakoutModeLeaf),
			Apply: func(ctx context.Context, op entities.Operation) error {
				return svc.SetPortBreakoutMode(ctx, op.ParentKey(), op.Value)
			},
		},
	}}
}

// Match returns the first route handling op
func (t *Table) Match(op entities.Operation) (Route, bool) {
	for _, r := range t.routes {
		if r.Handles(op) {
			return r, true
		}
	}
	return Route{}, false
}

// Routes returns the routes in evaluation order
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}
