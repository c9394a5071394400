package services

import (
	"context"
	"strings"

	"xrl-config-agent/internal/domain/constants"
	"xrl-config-agent/internal/domain/entities"
	"xrl-config-agent/internal/domain/errors"
	"xrl-config-agent/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// SwitchConfigService translates switch configuration changes into XRL call
// sequences. A routine stops at the first failed call; nothing already
// committed is undone unless compensation is enabled.
type SwitchConfigService struct {
	caller     interfaces.XRLCaller
	logger     *logrus.Logger
	compensate bool
}

// NewSwitchConfigService creates a new SwitchConfigService
func NewSwitchConfigService(caller interfaces.XRLCaller, logger *logrus.Logger, compensate bool) *SwitchConfigService {
	return &SwitchConfigService{
		caller:     caller,
		logger:     logger,
		compensate: compensate,
	}
}

// CreateLAG creates the aggregate interface named by value
func (s *SwitchConfigService) CreateLAG(ctx context.Context, name string) error {
	lag := entities.NormalizeLAGName(name)
	s.logger.WithField("lag", lag).Info("Create LAG")

	return s.inTransaction(ctx, entities.XRL{
		Target: constants.TargetSwitchPortConfig,
		Method: "create_port",
		Args:   []entities.XRLArg{entities.TxtArg("ifname", lag)},
	})
}

// DeleteLAG deletes the aggregate interface named by value
func (s *SwitchConfigService) DeleteLAG(ctx context.Context, name string) error {
	lag := entities.NormalizeLAGName(name)
	s.logger.WithField("lag", lag).Info("Delete LAG")

	return s.inTransaction(ctx, entities.XRL{
		Target: constants.TargetSwitchPortConfig,
		Method: "delete_port",
		Args:   []entities.XRLArg{entities.TxtArg("ifname", lag)},
	})
}

// AddLAGMember adds an Ethernet port to a LAG
func (s *SwitchConfigService) AddLAGMember(ctx context.Context, lagName, member string) error {
	return s.lagMember(ctx, "add_port_to_lag", lagName, member)
}

// RemoveLAGMember removes an Ethernet port from a LAG
func (s *SwitchConfigService) RemoveLAGMember(ctx context.Context, lagName, member string) error {
	return s.lagMember(ctx, "remove_port_from_lag", lagName, member)
}

func (s *SwitchConfigService) lagMember(ctx context.Context, method, lagName, member string) error {
	lag := entities.NormalizeLAGName(lagName)
	ifname := entities.NormalizeEthernetName(member)
	s.logger.WithFields(logrus.Fields{
		"lag":    lag,
		"member": ifname,
		"method": method,
	}).Info("Update LAG membership")

	return s.inTransaction(ctx, entities.XRL{
		Target: constants.TargetSwitchPortConfig,
		Method: method,
		Args: []entities.XRLArg{
			entities.TxtArg("ifname", ifname),
			entities.TxtArg("lag_name", lag),
		},
	})
}

// CreateVLAN creates a VLAN
func (s *SwitchConfigService) CreateVLAN(ctx context.Context, vlan string) error {
	return s.vlan(ctx, "create_vlan_id", vlan)
}

// DeleteVLAN deletes a VLAN
func (s *SwitchConfigService) DeleteVLAN(ctx context.Context, vlan string) error {
	return s.vlan(ctx, "delete_vlan_id", vlan)
}

func (s *SwitchConfigService) vlan(ctx context.Context, method, vlan string) error {
	id, err := entities.ParseVLANID(vlan)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"vlan":   id,
		"method": method,
	}).Info("Update VLAN")

	return s.inTransaction(ctx, entities.XRL{
		Target: constants.TargetVLANConfig,
		Method: method,
		Args:   []entities.XRLArg{entities.U32Arg("vlan_id", id.String())},
	})
}

// AddVLANMember puts the port in trunk mode and then adds it to the VLAN.
// vlan_config membership calls take no transaction id, so the membership
// change is not covered by the port mode transaction.
func (s *SwitchConfigService) AddVLANMember(ctx context.Context, vlan, member string) error {
	id, err := entities.ParseVLANID(vlan)
	if err != nil {
		return err
	}
	ifname := entities.NormalizeMemberName(member)
	log := s.logger.WithFields(logrus.Fields{"vlan": id, "member": ifname})
	log.Info("Add VLAN member")

	if err := s.inTransaction(ctx, setPortMode(ifname, constants.PortModeTrunk)); err != nil {
		return err
	}

	if err := s.invoke(ctx, vlanMembership("add_port_to_vlan", ifname, id)); err != nil {
		if s.compensate {
			log.Warn("Reverting port to access mode after failed VLAN membership change")
			if cerr := s.inTransaction(context.WithoutCancel(ctx), setPortMode(ifname, constants.PortModeAccess)); cerr != nil {
				log.WithError(cerr).Error("Failed to revert port mode")
			}
		}
		return err
	}

	return nil
}

// RemoveVLANMember removes the port from the VLAN and then puts it back in access mode.
func (s *SwitchConfigService) RemoveVLANMember(ctx context.Context, vlan, member string) error {
	id, err := entities.ParseVLANID(vlan)
	if err != nil {
		return err
	}
	ifname := entities.NormalizeMemberName(member)
	log := s.logger.WithFields(logrus.Fields{"vlan": id, "member": ifname})
	log.Info("Remove VLAN member")

	if err := s.invoke(ctx, vlanMembership("delete_port_from_vlan", ifname, id)); err != nil {
		return err
	}

	if err := s.inTransaction(ctx, setPortMode(ifname, constants.PortModeAccess)); err != nil {
		if s.compensate {
			log.Warn("Restoring VLAN membership after failed port mode change")
			if cerr := s.invoke(context.WithoutCancel(ctx), vlanMembership("add_port_to_vlan", ifname, id)); cerr != nil {
				log.WithError(cerr).Error("Failed to restore VLAN membership")
			}
		}
		return err
	}

	return nil
}

// SetPortBreakoutMode sets the split mode of a physical port. "none" is sent as "no".
func (s *SwitchConfigService) SetPortBreakoutMode(ctx context.Context, port, mode string) error {
	ifname := entities.NormalizeEthernetName(port)
	split := entities.BreakoutMode(mode)
	s.logger.WithFields(logrus.Fields{
		"port":          ifname,
		"breakout_mode": split,
	}).Info("Set port breakout mode")

	return s.inTransaction(ctx, entities.XRL{
		Target: constants.TargetSwitchPortConfig,
		Method: "set_port_split",
		Args: []entities.XRLArg{
			entities.TxtArg("ifname", ifname),
			entities.TxtArg("split", split),
		},
	})
}

// inTransaction runs start_transaction, call and commit_transaction on call.Target
func (s *SwitchConfigService) inTransaction(ctx context.Context, call entities.XRL) error {
	tid, err := s.caller.StartTransaction(ctx, call.Target)
	if err != nil {
		s.logger.WithError(err).WithField("target", call.Target).Error("Failed to start transaction")
		return errors.NewTransactionStartError(call.Target, errors.OutputOf(err), err)
	}
	tid = strings.TrimSpace(tid)
	if tid == "" {
		s.logger.WithField("target", call.Target).Error("start_transaction returned an empty transaction id")
		return errors.NewTransactionStartError(call.Target, "", nil)
	}

	if _, err := s.caller.Invoke(ctx, call.WithTransaction(tid)); err != nil {
		s.logger.WithError(err).WithField("method", call.Method).Error("Failed to execute XRL")
		s.abort(ctx, call.Target, tid)
		return errors.NewStepError(call.Method, errors.OutputOf(err), err)
	}

	if err := s.caller.CommitTransaction(ctx, call.Target, tid); err != nil {
		s.logger.WithError(err).WithField("target", call.Target).Error("Failed to commit transaction")
		s.abort(ctx, call.Target, tid)
		return errors.NewCommitError(call.Target, errors.OutputOf(err), err)
	}

	return nil
}

// invoke issues a call outside of any transaction
func (s *SwitchConfigService) invoke(ctx context.Context, call entities.XRL) error {
	if _, err := s.caller.Invoke(ctx, call); err != nil {
		s.logger.WithError(err).WithField("method", call.Method).Error("Failed to execute XRL")
		return errors.NewStepError(call.Method, errors.OutputOf(err), err)
	}
	return nil
}

func (s *SwitchConfigService) abort(ctx context.Context, target, tid string) {
	if !s.compensate {
		return
	}
	if err := s.caller.AbortTransaction(context.WithoutCancel(ctx), target, tid); err != nil {
		s.logger.WithError(err).WithField("target", target).Warn("Failed to abort transaction")
	}
}

func setPortMode(ifname, mode string) entities.XRL {
	return entities.XRL{
		Target: constants.TargetSwitchPortConfig,
		Method: "set_port_mode",
		Args: []entities.XRLArg{
			entities.TxtArg("ifname", ifname),
			entities.TxtArg("mode", mode),
		},
	}
}

func vlanMembership(method, ifname string, id entities.VLANID) entities.XRL {
	return entities.XRL{
		Target: constants.TargetVLANConfig,
		Method: method,
		Args: []entities.XRLArg{
			entities.TxtArg("ifname", ifname),
			entities.U32Arg("vlan_id", id.String()),
		},
	}
}
