package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks NonceStore,StatusStore,CredentialStore,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"worldpass/internal/vc/presentation"
	"worldpass/internal/vc/service/mocks"
	"worldpass/internal/vc/store/nonce"
	dErrors "worldpass/pkg/domain-errors"
	"worldpass/pkg/platform/audit"
)

// Store failures must surface as errors, never as verification outcomes: a
// broken ledger is not a reason code.
type ServiceFailureSuite struct {
	suite.Suite
	ctrl            *gomock.Controller
	mockNonces      *mocks.MockNonceStore
	mockStatuses    *mocks.MockStatusStore
	mockCredentials *mocks.MockCredentialStore
	mockAudit       *mocks.MockAuditPublisher
	service         *Service
}

func TestServiceFailureSuite(t *testing.T) {
	suite.Run(t, new(ServiceFailureSuite))
}

func (s *ServiceFailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockNonces = mocks.NewMockNonceStore(s.ctrl)
	s.mockStatuses = mocks.NewMockStatusStore(s.ctrl)
	s.mockCredentials = mocks.NewMockCredentialStore(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(
		s.mockNonces,
		s.mockStatuses,
		s.mockCredentials,
		WithLogger(logger),
		WithAuditPublisher(s.mockAudit),
	)
}

func (s *ServiceFailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceFailureSuite) TestNewChallengePutFails() {
	s.mockNonces.EXPECT().Put(gomock.Any(), gomock.Any()).Return(errors.New("store down"))

	_, err := s.service.NewChallenge(context.Background(), "door-1", time.Minute)
	s.Error(err)
}

func (s *ServiceFailureSuite) TestPresentationConsumeFails() {
	s.mockNonces.EXPECT().Consume(gomock.Any(), "ch-1").Return(nonce.OutcomeNotFound, errors.New("store down"))

	pres := presentation.Presentation{Type: presentation.TypePresentation, Challenge: "ch-1"}
	_, err := s.service.VerifyPresentation(context.Background(), pres)
	s.Error(err)
}

func (s *ServiceFailureSuite) TestRevokeStoreFails() {
	s.mockStatuses.EXPECT().Revoke(gomock.Any(), "vc-1", "reason").Return(errors.New("store down"))

	err := s.service.Revoke(context.Background(), "vc-1", "reason")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceFailureSuite) TestRevokeEmitsAudit() {
	s.mockStatuses.EXPECT().Revoke(gomock.Any(), "vc-1", "compromised").Return(nil)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Cond(func(e audit.Event) bool {
		return e.Action == audit.ActionRevoke && e.VCID == "vc-1" && e.Reason == "compromised"
	})).Return(nil)

	s.NoError(s.service.Revoke(context.Background(), "vc-1", "compromised"))
}

func (s *ServiceFailureSuite) TestRevokeSucceedsWhenAuditFails() {
	s.mockStatuses.EXPECT().Revoke(gomock.Any(), "vc-1", "").Return(nil)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("sink down"))

	// Audit is best-effort on this path; revocation must not roll back.
	s.NoError(s.service.Revoke(context.Background(), "vc-1", ""))
}
