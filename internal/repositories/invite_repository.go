package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"sporthub-service/internal/apperrors"
	"sporthub-service/internal/models"
)

var (
	ErrInviteNotFound      = apperrors.NotFound("invite not found")
	ErrInviteResolved      = apperrors.FailedPrecondition("invite already resolved")
	ErrInviteExpired       = apperrors.FailedPrecondition("invite has expired")
	ErrJoinRequestNotFound = apperrors.NotFound("join request not found")
	ErrJoinRequestResolved = apperrors.FailedPrecondition("join request already resolved")
)

// InviteRepository manages group invites and join requests. Status moves
// pending -> accepted|rejected exactly once. Acceptance couples the status
// change with the membership mutation in one transaction: a failed join
// (full group) rolls the status back to pending so the accept can be
// retried.
type InviteRepository interface {
	CreateInvite(ctx context.Context, groupID, inviterID, inviteeID int, expiresAt *time.Time) (models.GroupInvite, error)
	GetInvite(ctx context.Context, inviteID int) (models.GroupInvite, error)
	AcceptInvite(ctx context.Context, invite models.GroupInvite) error
	ResolveInvite(ctx context.Context, inviteID int, status string) error
	ListInvitesForUser(ctx context.Context, userID int) ([]models.GroupInvite, error)
	CreateJoinRequest(ctx context.Context, groupID, userID int) (models.JoinRequest, error)
	GetJoinRequest(ctx context.Context, requestID int) (models.JoinRequest, error)
	AcceptJoinRequest(ctx context.Context, request models.JoinRequest) error
	ResolveJoinRequest(ctx context.Context, requestID int, status string) error
	ListJoinRequests(ctx context.Context, groupID int) ([]models.JoinRequest, error)
}

// InviteRepo is a sqlx implementation of InviteRepository.
type InviteRepo struct {
	db *sqlx.DB
}

// NewInviteRepo constructs an InviteRepo.
func NewInviteRepo(db *sqlx.DB) *InviteRepo {
	return &InviteRepo{db: db}
}

const inviteColumns = `id, group_id, inviter_id, invitee_id, status, created_at, expires_at`

// CreateInvite stores a pending invite.
func (r *InviteRepo) CreateInvite(ctx context.Context, groupID, inviterID, inviteeID int, expiresAt *time.Time) (models.GroupInvite, error) {
	var invite models.GroupInvite
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO group_invites (group_id, inviter_id, invitee_id, expires_at)
         VALUES ($1, $2, $3, $4) RETURNING `+inviteColumns,
		groupID, inviterID, inviteeID, expiresAt).StructScan(&invite)
	return invite, err
}

// GetInvite fetches a single invite.
func (r *InviteRepo) GetInvite(ctx context.Context, inviteID int) (models.GroupInvite, error) {
	var invite models.GroupInvite
	err := r.db.GetContext(ctx, &invite,
		`SELECT `+inviteColumns+` FROM group_invites WHERE id=$1`, inviteID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupInvite{}, ErrInviteNotFound
	}
	return invite, err
}

// AcceptInvite marks the invite accepted and adds the invitee to the group
// in one transaction. A failed join leaves the invite pending, so accepting
// again after the group has room succeeds.
func (r *InviteRepo) AcceptInvite(ctx context.Context, invite models.GroupInvite) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE group_invites SET status='accepted'
         WHERE id=$1 AND status='pending' AND (expires_at IS NULL OR expires_at > NOW())`,
		invite.ID)
	if err != nil {
		tx.Rollback()
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if count == 0 {
		tx.Rollback()
		return r.classifyUnresolvableInvite(ctx, invite.ID)
	}

	if err := joinGroupTx(ctx, tx, invite.GroupID, invite.InviteeID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ResolveInvite moves a pending, unexpired invite to a terminal status. A
// zero-row update is classified by re-reading the invite.
func (r *InviteRepo) ResolveInvite(ctx context.Context, inviteID int, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE group_invites SET status=$2
         WHERE id=$1 AND status='pending' AND (expires_at IS NULL OR expires_at > NOW())`,
		inviteID, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.classifyUnresolvableInvite(ctx, inviteID)
}

func (r *InviteRepo) classifyUnresolvableInvite(ctx context.Context, inviteID int) error {
	invite, err := r.GetInvite(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.Status != models.StatusPending {
		return ErrInviteResolved
	}
	return ErrInviteExpired
}

// ListInvitesForUser returns the user's pending invites, newest first.
func (r *InviteRepo) ListInvitesForUser(ctx context.Context, userID int) ([]models.GroupInvite, error) {
	var invites []models.GroupInvite
	err := r.db.SelectContext(ctx, &invites,
		`SELECT `+inviteColumns+` FROM group_invites
         WHERE invitee_id=$1 AND status='pending' ORDER BY created_at DESC`, userID)
	return invites, err
}

const joinRequestColumns = `id, group_id, user_id, status, created_at`

// CreateJoinRequest stores a pending join request.
func (r *InviteRepo) CreateJoinRequest(ctx context.Context, groupID, userID int) (models.JoinRequest, error) {
	var request models.JoinRequest
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO join_requests (group_id, user_id) VALUES ($1, $2)
         RETURNING `+joinRequestColumns, groupID, userID).StructScan(&request)
	return request, err
}

// GetJoinRequest fetches a single join request.
func (r *InviteRepo) GetJoinRequest(ctx context.Context, requestID int) (models.JoinRequest, error) {
	var request models.JoinRequest
	err := r.db.GetContext(ctx, &request,
		`SELECT `+joinRequestColumns+` FROM join_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.JoinRequest{}, ErrJoinRequestNotFound
	}
	return request, err
}

// AcceptJoinRequest marks the request accepted and adds the requester to
// the group in one transaction. A failed join leaves the request pending.
func (r *InviteRepo) AcceptJoinRequest(ctx context.Context, request models.JoinRequest) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE join_requests SET status='accepted' WHERE id=$1 AND status='pending'`,
		request.ID)
	if err != nil {
		tx.Rollback()
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if count == 0 {
		tx.Rollback()
		if _, err := r.GetJoinRequest(ctx, request.ID); err != nil {
			return err
		}
		return ErrJoinRequestResolved
	}

	if err := joinGroupTx(ctx, tx, request.GroupID, request.UserID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ResolveJoinRequest moves a pending request to a terminal status.
func (r *InviteRepo) ResolveJoinRequest(ctx context.Context, requestID int, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE join_requests SET status=$2 WHERE id=$1 AND status='pending'`,
		requestID, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := r.GetJoinRequest(ctx, requestID); err != nil {
		return err
	}
	return ErrJoinRequestResolved
}

// ListJoinRequests returns a group's pending join requests, oldest first so
// admins handle them in arrival order.
func (r *InviteRepo) ListJoinRequests(ctx context.Context, groupID int) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := r.db.SelectContext(ctx, &requests,
		`SELECT `+joinRequestColumns+` FROM join_requests
         WHERE group_id=$1 AND status='pending' ORDER BY created_at ASC`, groupID)
	return requests, err
}
