package services

import (
	"context"
	"errors"
	"testing"

	"xrl-config-agent/internal/domain/entities"
	domainErrors "xrl-config-agent/internal/domain/errors"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockXRLCaller는 XRLCaller 인터페이스의 목 구현체입니다
type MockXRLCaller struct {
	mock.Mock
}

func (m *MockXRLCaller) StartTransaction(ctx context.Context, target string) (string, error) {
	args := m.Called(ctx, target)
	return args.String(0), args.Error(1)
}

func (m *MockXRLCaller) CommitTransaction(ctx context.Context, target, tid string) error {
	args := m.Called(ctx, target, tid)
	return args.Error(0)
}

func (m *MockXRLCaller) AbortTransaction(ctx context.Context, target, tid string) error {
	args := m.Called(ctx, target, tid)
	return args.Error(0)
}

func (m *MockXRLCaller) Invoke(ctx context.Context, call entities.XRL) ([]byte, error) {
	args := m.Called(ctx, call)
	return args.Get(0).([]byte), args.Error(1)
}

func newTestService(caller *MockXRLCaller, compensate bool) *SwitchConfigService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewSwitchConfigService(caller, logger, compensate)
}

func xrl(target, method, tid string, args ...entities.XRLArg) entities.XRL {
	return entities.XRL{Target: target, Method: method, TransactionID: tid, Args: args}
}

func TestSwitchConfigService_TransactionalRoutines(t *testing.T) {
	tests := []struct {
		name   string
		run    func(s *SwitchConfigService) error
		target string
		call   entities.XRL
	}{
		{
			name:   "create LAG strips dashes",
			run:    func(s *SwitchConfigService) error { return s.CreateLAG(context.Background(), "ae-1") },
			target: "switch_port_config",
			call:   xrl("switch_port_config", "create_port", "tid-1", entities.TxtArg("ifname", "ae1")),
		},
		{
			name:   "delete LAG",
			run:    func(s *SwitchConfigService) error { return s.DeleteLAG(context.Background(), "ae-1-2") },
			target: "switch_port_config",
			call:   xrl("switch_port_config", "delete_port", "tid-1", entities.TxtArg("ifname", "ae12")),
		},
		{
			name:   "add LAG member normalizes ethernet member",
			run:    func(s *SwitchConfigService) error { return s.AddLAGMember(context.Background(), "ae-1", "eth-2") },
			target: "switch_port_config",
			call: xrl("switch_port_config", "add_port_to_lag", "tid-1",
				entities.TxtArg("ifname", "eth-1/1/2"), entities.TxtArg("lag_name", "ae1")),
		},
		{
			name:   "remove LAG member",
			run:    func(s *SwitchConfigService) error { return s.RemoveLAGMember(context.Background(), "ae-1", "eth-2") },
			target: "switch_port_config",
			call: xrl("switch_port_config", "remove_port_from_lag", "tid-1",
				entities.TxtArg("ifname", "eth-1/1/2"), entities.TxtArg("lag_name", "ae1")),
		},
		{
			name:   "create VLAN",
			run:    func(s *SwitchConfigService) error { return s.CreateVLAN(context.Background(), "100") },
			target: "vlan_config",
			call:   xrl("vlan_config", "create_vlan_id", "tid-1", entities.U32Arg("vlan_id", "100")),
		},
		{
			name:   "delete VLAN",
			run:    func(s *SwitchConfigService) error { return s.DeleteVLAN(context.Background(), "100") },
			target: "vlan_config",
			call:   xrl("vlan_config", "delete_vlan_id", "tid-1", entities.U32Arg("vlan_id", "100")),
		},
		{
			name:   "breakout none becomes no",
			run:    func(s *SwitchConfigService) error { return s.SetPortBreakoutMode(context.Background(), "eth-3", "none") },
			target: "switch_port_config",
			call: xrl("switch_port_config", "set_port_split", "tid-1",
				entities.TxtArg("ifname", "eth-1/1/3"), entities.TxtArg("split", "no")),
		},
		{
			name:   "breakout mode passes through",
			run:    func(s *SwitchConfigService) error { return s.SetPortBreakoutMode(context.Background(), "eth-3", "4x10G") },
			target: "switch_port_config",
			call: xrl("switch_port_config", "set_port_split", "tid-1",
				entities.TxtArg("ifname", "eth-1/1/3"), entities.TxtArg("split", "4x10G")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := new(MockXRLCaller)
			// the tool prints the id with a trailing newline
			caller.On("StartTransaction", mock.Anything, tt.target).Return("tid-1\n", nil).Once()
			caller.On("Invoke", mock.Anything, tt.call).Return([]byte(""), nil).Once()
			caller.On("CommitTransaction", mock.Anything, tt.target, "tid-1").Return(nil).Once()

			err := tt.run(newTestService(caller, false))

			require.NoError(t, err)
			caller.AssertExpectations(t)
			caller.AssertNumberOfCalls(t, "StartTransaction", 1)
			caller.AssertNumberOfCalls(t, "Invoke", 1)
			caller.AssertNumberOfCalls(t, "CommitTransaction", 1)
		})
	}
}

func TestSwitchConfigService_StartFailureHaltsRoutine(t *testing.T) {
	caller := new(MockXRLCaller)
	caller.On("StartTransaction", mock.Anything, "vlan_config").
		Return("", &domainErrors.DomainError{Type: domainErrors.ErrorTypeSystem, Message: "exit 1", Output: "finder down"}).Once()

	err := newTestService(caller, false).CreateVLAN(context.Background(), "100")

	require.Error(t, err)
	assert.Equal(t, domainErrors.ErrorTypeTransactionStart, domainErrors.TypeOf(err))
	assert.Equal(t, "finder down", domainErrors.OutputOf(err))
	caller.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
	caller.AssertNotCalled(t, "CommitTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestSwitchConfigService_EmptyTransactionID(t *testing.T) {
	caller := new(MockXRLCaller)
	caller.On("StartTransaction", mock.Anything, "switch_port_config").Return("  \n", nil).Once()

	err := newTestService(caller, false).CreateLAG(context.Background(), "ae-1")

	assert.Equal(t, domainErrors.ErrorTypeTransactionStart, domainErrors.TypeOf(err))
	caller.AssertNumberOfCalls(t, "Invoke", 0)
}

func TestSwitchConfigService_StepFailureHaltsRoutine(t *testing.T) {
	caller := new(MockXRLCaller)
	caller.On("StartTransaction", mock.Anything, "switch_port_config").Return("7", nil).Once()
	caller.On("Invoke", mock.Anything, mock.Anything).Return([]byte(""), errors.New("exit status 2")).Once()

	err := newTestService(caller, false).CreateLAG(context.Background(), "ae-1")

	require.Error(t, err)
	var domainErr *domainErrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domainErrors.ErrorTypeStep, domainErr.Type)
	assert.Equal(t, "create_port", domainErr.Step)
	caller.AssertNotCalled(t, "CommitTransaction", mock.Anything, mock.Anything, mock.Anything)
	caller.AssertNotCalled(t, "AbortTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestSwitchConfigService_CommitFailure(t *testing.T) {
	caller := new(MockXRLCaller)
	caller.On("StartTransaction", mock.Anything, "vlan_config").Return("7", nil).Once()
	caller.On("Invoke", mock.Anything, mock.Anything).Return([]byte(""), nil).Once()
	caller.On("CommitTransaction", mock.Anything, "vlan_config", "7").Return(errors.New("exit status 1")).Once()

	err := newTestService(caller, false).DeleteVLAN(context.Background(), "10")

	assert.Equal(t, domainErrors.ErrorTypeCommit, domainErrors.TypeOf(err))
	caller.AssertExpectations(t)
}

func TestSwitchConfigService_AbortOnFailureWhenCompensating(t *testing.T) {
	caller := new(MockXRLCaller)
	caller.On("StartTransaction", mock.Anything, "switch_port_config").Return("7", nil).Once()
	caller.On("Invoke", mock.Anything, mock.Anything).Return([]byte(""), errors.New("exit status 2")).Once()
	caller.On("AbortTransaction", mock.Anything, "switch_port_config", "7").Return(nil).Once()

	err := newTestService(caller, true).SetPortBreakoutMode(context.Background(), "eth-1", "none")

	assert.Equal(t, domainErrors.ErrorTypeStep, domainErrors.TypeOf(err))
	caller.AssertExpectations(t)
}

func TestSwitchConfigService_InvalidVLANMakesNoCalls(t *testing.T) {
	caller := new(MockXRLCaller)
	svc := newTestService(caller, false)

	assert.True(t, domainErrors.IsValidationError(svc.CreateVLAN(context.Background(), "abc")))
	assert.True(t, domainErrors.IsValidationError(svc.AddVLANMember(context.Background(), "5000", "eth-1")))
	assert.True(t, domainErrors.IsValidationError(svc.RemoveVLANMember(context.Background(), "", "eth-1")))
	caller.AssertExpectations(t)
	assert.Empty(t, caller.Calls)
}

func TestSwitchConfigService_AddVLANMember(t *testing.T) {
	trunk := xrl("switch_port_config", "set_port_mode", "9",
		entities.TxtArg("ifname", "ae4"), entities.TxtArg("mode", "trunk"))
	join := xrl("vlan_config", "add_port_to_vlan", "",
		entities.TxtArg("ifname", "ae4"), entities.U32Arg("vlan_id", "100"))

	caller := new(MockXRLCaller)
	caller.On("StartTransaction", mock.Anything, "switch_port_config").Return("9", nil).Once()
	caller.On("Invoke", mock.Anything, trunk).Return([]byte(""), nil).Once()
	caller.On("CommitTransaction", mock.Anything, "switch_port_config", "9").Return(nil).Once()
	caller.On("Invoke", mock.Anything, join).Return([]byte(""), nil).Once()

	err := newTestService(caller, false).AddVLANMember(context.Background(), "100", "ae-4")

	require.NoError(t, err)
	caller.AssertExpectations(t)
	// trunk mode is committed before the membership change
	require.Len(t, caller.Calls, 4)
	assert.Equal(t, "CommitTransaction", caller.Calls[2].Method)
	assert.Equal(t, join, caller.Calls[3].Arguments.Get(1))
}

func TestSwitchConfigService_AddVLANMemberRevertsPortMode(t *testing.T) {
	access := xrl("switch_port_config", "set_port_mode", "10",
		entities.TxtArg("ifname", "eth-1/1/1"), entities.TxtArg("mode", "access"))
	join := xrl("vlan_config", "add_port_to_vlan", "",
		entities.TxtArg("ifname", "eth-1/1/1"), entities.U32Arg("vlan_id", "20"))

	caller := new(MockXRLCaller)
	caller.On("StartTransaction", mock.Anything, "switch_port_config").Return("9", nil).Once()
	caller.On("Invoke", mock.Anything, mock.MatchedBy(func(x entities.XRL) bool {
		return x.Method == "set_port_mode" && x.TransactionID == "9"
	})).Return([]byte(""), nil).Once()
	caller.On("CommitTransaction", mock.Anything, "switch_port_config", "9").Return(nil).Once()
	caller.On("Invoke", mock.Anything, join).Return([]byte("no such vlan"), errors.New("exit status 1")).Once()
	caller.On("StartTransaction", mock.Anything, "switch_port_config").Return("10", nil).Once()
	caller.On("Invoke", mock.Anything, access).Return([]byte(""), nil).Once()
	caller.On("CommitTransaction", mock.Anything, "switch_port_config", "10").Return(nil).Once()

	err := newTestService(caller, true).AddVLANMember(context.Background(), "20", "eth-1")

	var domainErr *domainErrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domainErrors.ErrorTypeStep, domainErr.Type)
	assert.Equal(t, "add_port_to_vlan", domainErr.Step)
	caller.AssertExpectations(t)
}

func TestSwitchConfigService_RemoveVLANMember(t *testing.T) {
	leave := xrl("vlan_config", "delete_port_from_vlan", "",
		entities.TxtArg("ifname", "eth-1/1/5"), entities.U32Arg("vlan_id", "30"))
	access := xrl("switch_port_config", "set_port_mode", "3",
		entities.TxtArg("ifname", "eth-1/1/5"), entities.TxtArg("mode", "access"))

	caller := new(MockXRLCaller)
	caller.On("Invoke", mock.Anything, leave).Return([]byte(""), nil).Once()
	caller.On("StartTransaction", mock.Anything, "switch_port_config").Return("3", nil).Once()
	caller.On("Invoke", mock.Anything, access).Return([]byte(""), nil).Once()
	caller.On("CommitTransaction", mock.Anything, "switch_port_config", "3").Return(nil).Once()

	err := newTestService(caller, false).RemoveVLANMember(context.Background(), "30", "eth-5")

	require.NoError(t, err)
	caller.AssertExpectations(t)
	// membership goes first, outside of any transaction
	assert.Equal(t, "Invoke", caller.Calls[0].Method)
	assert.Equal(t, leave, caller.Calls[0].Arguments.Get(1))
}

func TestSwitchConfigService_RemoveVLANMemberFailureHalts(t *testing.T) {
	caller := new(MockXRLCaller)
	caller.On("Invoke", mock.Anything, mock.Anything).Return([]byte(""), errors.New("exit status 1")).Once()

	err := newTestService(caller, false).RemoveVLANMember(context.Background(), "30", "eth-5")

	assert.Equal(t, domainErrors.ErrorTypeStep, domainErrors.TypeOf(err))
	caller.AssertNumberOfCalls(t, "Invoke", 1)
	caller.AssertNotCalled(t, "StartTransaction", mock.Anything, mock.Anything)
}

func TestSwitchConfigService_RemoveVLANMemberRestoresMembership(t *testing.T) {
	leave := xrl("vlan_config", "delete_port_from_vlan", "",
		entities.TxtArg("ifname", "eth-1/1/5"), entities.U32Arg("vlan_id", "30"))
	rejoin := xrl("vlan_config", "add_port_to_vlan", "",
		entities.TxtArg("ifname", "eth-1/1/5"), entities.U32Arg("vlan_id", "30"))

	caller := new(MockXRLCaller)
	caller.On("Invoke", mock.Anything, leave).Return([]byte(""), nil).Once()
	caller.On("StartTransaction", mock.Anything, "switch_port_config").Return("", errors.New("exit status 1")).Once()
	caller.On("Invoke", mock.Anything, rejoin).Return([]byte(""), nil).Once()

	err := newTestService(caller, true).RemoveVLANMember(context.Background(), "30", "eth-5")

	assert.Equal(t, domainErrors.ErrorTypeTransactionStart, domainErrors.TypeOf(err))
	caller.AssertExpectations(t)
}
