package store

import (
	"context"
	"fmt"

	"docshare/internal/utils"
	"docshare/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const requestTableName = "docshare.access_requests"

var requestColumns = utils.StructTagValues(types.AccessRequest{})

type AccessRequestRepository struct {
	pool *pgxpool.Pool
}

func NewAccessRequestRepository(pool *pgxpool.Pool) *AccessRequestRepository {
	return &AccessRequestRepository{pool: pool}
}

func (r *AccessRequestRepository) Request(ctx context.Context, requestID int64) (*types.AccessRequest, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"id": requestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access request query: %w", err)
	}

	var req types.AccessRequest
	err = pgxscan.Get(ctx, r.pool, &req, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch access request: %w", err)
	}

	return &req, nil
}

// RequestsByTarget lists every request aimed at one owner, oldest first.
// Requests are an audit trail, so resolved rows are included.
func (r *AccessRequestRepository) RequestsByTarget(ctx context.Context, targetUserID int64) ([]*types.AccessRequest, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"target_user_id": targetUserID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests-by-target query: %w", err)
	}

	reqs := make([]*types.AccessRequest, 0)
	err = pgxscan.Select(ctx, r.pool, &reqs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access requests: %w", err)
	}

	return reqs, nil
}

func (r *AccessRequestRepository) CreateRequest(ctx context.Context, req *types.AccessRequest) error {
	if req.RequestedIDs == nil {
		req.RequestedIDs = []int64{}
	}

	query, args, err := psql().
		Insert(requestTableName).
		Columns("target_user_id", "request_all", "requested_ids", "device_info", "location", "status", "created_at").
		Values(req.TargetUserID, req.RequestAll, req.RequestedIDs, req.DeviceInfo, req.Location, req.Status, req.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create access request query: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("failed to create access request: %w", err)
	}

	return nil
}

func (r *AccessRequestRepository) UpdateRequestStatus(ctx context.Context, requestID int64, status types.RequestStatus) error {
	query, args, err := psql().
		Update(requestTableName).
		Set("status", status).
		Where(sq.Eq{"id": requestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update request status query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update access request status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrRequestNotFound
	}

	return nil
}
