package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sporthub-service/internal/apperrors"
	"sporthub-service/internal/models"
)

var (
	ErrGroupNotFound = apperrors.NotFound("group not found")
	ErrGroupFull     = apperrors.FailedPrecondition("group is full")
)

const (
	roleAdmin  = "admin"
	roleMember = "member"
)

// CreateGroupParams is the caller-supplied group specification. The creator
// is always stored as an admin member regardless of the member lists.
type CreateGroupParams struct {
	Name        string
	Description string
	Sport       string
	CreatorID   int
	IsPrivate   bool
	PhotoURL    *string
	MaxMembers  *int
	Rules       *string
	Tags        []string
	MemberIDs   []int
	AdminIDs    []int
}

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, params CreateGroupParams) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	GetGroupsBySport(ctx context.Context, sport string) ([]models.Group, error)
	GetUserGroups(ctx context.Context, userID int) ([]models.Group, error)
	SearchGroups(ctx context.Context, query string) ([]models.Group, error)
	JoinGroup(ctx context.Context, groupID int, userID int) error
	LeaveGroup(ctx context.Context, groupID int, userID int) error
	IsMember(ctx context.Context, groupID int, userID int) (bool, error)
	IsAdmin(ctx context.Context, groupID int, userID int) (bool, error)
	TouchGroup(ctx context.Context, groupID int) error
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

const groupColumns = `g.id, g.name, g.description, g.sport, g.creator_id, g.is_private,
        g.photo_url, g.max_members, g.rules, g.tags, g.created_at, g.updated_at,
        COALESCE(array_agg(gm.user_id ORDER BY gm.user_id) FILTER (WHERE gm.user_id IS NOT NULL), '{}') AS members,
        COALESCE(array_agg(gm.user_id ORDER BY gm.user_id) FILTER (WHERE gm.role = 'admin'), '{}') AS admins`

const groupFrom = ` FROM groups g LEFT JOIN group_members gm ON gm.group_id = g.id `

// CreateGroup creates a group and its membership rows atomically. Member ids
// are deduplicated; admin ids are forced into the member set.
func (r *GroupRepo) CreateGroup(ctx context.Context, params CreateGroupParams) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// pq encodes a nil slice as SQL NULL, which would bypass the column
	// default and violate NOT NULL.
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	var group models.Group
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (name, description, sport, creator_id, is_private, photo_url, max_members, rules, tags)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING id, name, description, sport, creator_id, is_private, photo_url, max_members, rules, tags, created_at, updated_at`,
		params.Name, params.Description, params.Sport, params.CreatorID, params.IsPrivate,
		params.PhotoURL, params.MaxMembers, params.Rules, pq.Array(tags)).
		StructScan(&group); err != nil {
		return models.Group{}, err
	}

	roleByID := map[int]string{params.CreatorID: roleAdmin}
	for _, id := range params.MemberIDs {
		if _, ok := roleByID[id]; !ok {
			roleByID[id] = roleMember
		}
	}
	for _, id := range params.AdminIDs {
		roleByID[id] = roleAdmin
	}

	ids := make([]int, 0, len(roleByID))
	for id := range roleByID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`,
			group.ID, id, roleByID[id]); err != nil {
			return models.Group{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}

	group.Members = make(pq.Int64Array, 0, len(ids))
	group.Admins = make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		group.Members = append(group.Members, int64(id))
		if roleByID[id] == roleAdmin {
			group.Admins = append(group.Admins, int64(id))
		}
	}
	if group.Tags == nil {
		group.Tags = pq.StringArray{}
	}
	return group, nil
}

// GetGroup fetches a single group with its aggregated membership.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`SELECT `+groupColumns+groupFrom+`WHERE g.id=$1 GROUP BY g.id`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// GetGroupsBySport returns groups for an exact sport, newest first.
func (r *GroupRepo) GetGroupsBySport(ctx context.Context, sport string) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups,
		`SELECT `+groupColumns+groupFrom+`WHERE g.sport=$1 GROUP BY g.id ORDER BY g.created_at DESC`, sport)
	return groups, err
}

// GetUserGroups returns the user's groups, most recently active first.
func (r *GroupRepo) GetUserGroups(ctx context.Context, userID int) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups,
		`SELECT `+groupColumns+groupFrom+
			`WHERE g.id IN (SELECT group_id FROM group_members WHERE user_id=$1)
             GROUP BY g.id ORDER BY g.updated_at DESC`, userID)
	return groups, err
}

// likeEscaper neutralizes ILIKE metacharacters so user queries match
// literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchGroups matches a case-insensitive substring against name,
// description and sport, newest first.
func (r *GroupRepo) SearchGroups(ctx context.Context, query string) ([]models.Group, error) {
	var groups []models.Group
	pattern := "%" + likeEscaper.Replace(query) + "%"
	err := r.db.SelectContext(ctx, &groups,
		`SELECT `+groupColumns+groupFrom+
			`WHERE g.name ILIKE $1 OR g.description ILIKE $1 OR g.sport ILIKE $1
             GROUP BY g.id ORDER BY g.created_at DESC`, pattern)
	return groups, err
}

// JoinGroup adds the user as a set-add under a group-row lock. The lock
// serializes the max_members check; the ON CONFLICT clause makes concurrent
// joins of distinct users both persist and repeated joins a no-op.
func (r *GroupRepo) JoinGroup(ctx context.Context, groupID int, userID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := joinGroupTx(ctx, tx, groupID, userID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// joinGroupTx performs the membership set-add inside the caller's
// transaction, so invite and join-request acceptance can make the status
// change and the join atomic. The caller commits or rolls back.
func joinGroupTx(ctx context.Context, tx *sqlx.Tx, groupID int, userID int) error {
	var maxMembers sql.NullInt64
	err := tx.QueryRowxContext(ctx, `SELECT max_members FROM groups WHERE id=$1 FOR UPDATE`, groupID).Scan(&maxMembers)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrGroupNotFound
	}
	if err != nil {
		return err
	}

	var alreadyMember bool
	if err := tx.GetContext(ctx, &alreadyMember,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID); err != nil {
		return err
	}
	if alreadyMember {
		return nil
	}

	if maxMembers.Valid {
		var count int
		if err := tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM group_members WHERE group_id=$1`, groupID); err != nil {
			return err
		}
		if int64(count) >= maxMembers.Int64 {
			return ErrGroupFull
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, 'member')
         ON CONFLICT (group_id, user_id) DO NOTHING`, groupID, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE groups SET updated_at=NOW() WHERE id=$1`, groupID); err != nil {
		return err
	}
	return nil
}

// LeaveGroup removes the user; a no-op when they were not a member.
func (r *GroupRepo) LeaveGroup(ctx context.Context, groupID int, userID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if removed > 0 {
		if _, err = tx.ExecContext(ctx, `UPDATE groups SET updated_at=NOW() WHERE id=$1`, groupID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// IsAdmin checks for the admin role.
func (r *GroupRepo) IsAdmin(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2 AND role='admin')`, groupID, userID)
	return exists, err
}

// TouchGroup bumps updated_at so recent activity sorts first.
func (r *GroupRepo) TouchGroup(ctx context.Context, groupID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE groups SET updated_at=NOW() WHERE id=$1`, groupID)
	return err
}
