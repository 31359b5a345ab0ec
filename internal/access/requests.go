package access

import (
	"context"
	"fmt"
	"time"

	"docshare/pkg/types"
)

// RequestStore is the slice of the access-request store the lifecycle
// service needs.
type RequestStore interface {
	CreateRequest(ctx context.Context, req *types.AccessRequest) error
	Request(ctx context.Context, requestID int64) (*types.AccessRequest, error)
	RequestsByTarget(ctx context.Context, targetUserID int64) ([]*types.AccessRequest, error)
	UpdateRequestStatus(ctx context.Context, requestID int64, status types.RequestStatus) error
}

// RequestService drives the access-request state machine:
// pending -> approved | denied, terminal thereafter.
type RequestService struct {
	store RequestStore
}

func NewRequestService(store RequestStore) *RequestService {
	return &RequestService{store: store}
}

// Create records a third party's ask to view targetUserID's documents. The
// requester is by definition not authenticated, so the target id is taken
// as given. The request always starts pending; deviceInfo comes from the
// transport and location is caller-supplied, advisory only.
func (s *RequestService) Create(ctx context.Context, targetUserID int64, sel types.DocumentSelection, deviceInfo string, location *string) (*types.AccessRequest, error) {
	if targetUserID == 0 {
		return nil, types.NewValidationError("userId", "required")
	}
	if sel.Empty() {
		return nil, types.NewValidationError("documents", "select at least one document or request all")
	}
	if sel.All {
		sel.IDs = nil
	}

	req := &types.AccessRequest{
		TargetUserID: targetUserID,
		RequestAll:   sel.All,
		RequestedIDs: sel.IDs,
		DeviceInfo:   deviceInfo,
		Location:     location,
		Status:       types.RequestStatusPending,
		CreatedAt:    time.Now(),
	}

	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create access request: %w", err)
	}

	return req, nil
}

// List returns every request aimed at the authenticated caller, in creation
// order, across all statuses.
func (s *RequestService) List(ctx context.Context, sess *types.Session) ([]*types.AccessRequest, error) {
	if !sess.IsAuthenticated() {
		return nil, types.ErrUnauthorized
	}

	reqs, err := s.store.RequestsByTarget(ctx, sess.AuthenticatedUserID)
	if err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}

	return reqs, nil
}

// Transition moves a pending request to approved or denied. Only the
// request's target user may resolve it, and a resolved request stays
// resolved. Approval is bookkeeping: it does not feed CanRead.
func (s *RequestService) Transition(ctx context.Context, sess *types.Session, requestID int64, newStatus types.RequestStatus) (*types.AccessRequest, error) {
	if !sess.IsAuthenticated() {
		return nil, types.ErrUnauthorized
	}

	if newStatus != types.RequestStatusApproved && newStatus != types.RequestStatusDenied {
		return nil, types.NewValidationError("status", "must be approved or denied")
	}

	req, err := s.store.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.TargetUserID != sess.AuthenticatedUserID {
		return nil, types.ErrForbidden
	}

	if req.Status.Terminal() {
		return nil, types.ErrInvalidTransition
	}

	if err := s.store.UpdateRequestStatus(ctx, requestID, newStatus); err != nil {
		return nil, fmt.Errorf("update access request %d: %w", requestID, err)
	}

	req.Status = newStatus
	return req, nil
}
