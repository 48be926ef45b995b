package repositories

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"sporthub-service/internal/db"
	"sporthub-service/internal/models"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sporthub"),
		postgres.WithUsername("sporthub"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable", "application_name=test")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	testDB, err = db.Connect(dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	if err := db.Migrate(testDB); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := testDB.ExecContext(context.Background(),
		`TRUNCATE TABLE join_requests, group_invites, direct_messages, group_messages, group_members, groups, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func intValue(v int) *int { return &v }

func Test_GroupRoundTrip(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewGroupRepo(testDB)

	created, err := repo.CreateGroup(context.Background(), CreateGroupParams{
		Name:      "sunday footy",
		Sport:     "football",
		CreatorID: 1,
		Tags:      []string{"casual", "weekend"},
		MemberIDs: []int{2, 3},
	})
	require.NoError(t, err)

	fetched, err := repo.GetGroup(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Sport, fetched.Sport)
	assert.EqualValues(t, created.Members, fetched.Members)
	assert.EqualValues(t, []int64{1}, []int64(fetched.Admins))
	assert.False(t, fetched.CreatedAt.After(fetched.UpdatedAt), "createdAt must not exceed updatedAt")
}

func Test_CreateGroupWithoutTags(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewGroupRepo(testDB)

	// No tags, description or member lists: the bare minimum payload.
	created, err := repo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "pickup basketball", Sport: "basketball", CreatorID: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, []string(created.Tags))

	fetched, err := repo.GetGroup(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, []string(fetched.Tags))
	assert.EqualValues(t, []int64{1}, []int64(fetched.Members))
}

func Test_GetGroupNotFound(t *testing.T) {
	repo := NewGroupRepo(testDB)

	_, err := repo.GetGroup(context.Background(), 424242)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func Test_JoinThenLeaveRestoresMembers(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewGroupRepo(testDB)

	group, err := repo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "padel crew", Sport: "padel", CreatorID: 1, MemberIDs: []int{2},
	})
	require.NoError(t, err)

	require.NoError(t, repo.JoinGroup(context.Background(), group.ID, 9))
	// Joining twice must not duplicate the member.
	require.NoError(t, repo.JoinGroup(context.Background(), group.ID, 9))
	require.NoError(t, repo.LeaveGroup(context.Background(), group.ID, 9))

	after, err := repo.GetGroup(context.Background(), group.ID)
	require.NoError(t, err)
	assert.EqualValues(t, group.Members, after.Members)
}

func Test_ConcurrentJoinsBothPersist(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewGroupRepo(testDB)

	group, err := repo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "climbers", Sport: "climbing", CreatorID: 1,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []int{50, 51} {
		wg.Add(1)
		go func(slot, uid int) {
			defer wg.Done()
			errs[slot] = repo.JoinGroup(context.Background(), group.ID, uid)
		}(i, userID)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	after, err := repo.GetGroup(context.Background(), group.ID)
	require.NoError(t, err)
	assert.EqualValues(t, []int64{1, 50, 51}, []int64(after.Members), "no join may be lost")
}

func Test_JoinGroupFull(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewGroupRepo(testDB)

	group, err := repo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "duo", Sport: "tennis", CreatorID: 1, MaxMembers: intValue(2), MemberIDs: []int{2},
	})
	require.NoError(t, err)

	err = repo.JoinGroup(context.Background(), group.ID, 3)
	assert.ErrorIs(t, err, ErrGroupFull)

	// Rejoining as an existing member stays a no-op, not a capacity error.
	assert.NoError(t, repo.JoinGroup(context.Background(), group.ID, 2))
}

func Test_GroupMessageOrdering(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	groupRepo := NewGroupRepo(testDB)
	messageRepo := NewGroupMessageRepo(testDB)

	group, err := groupRepo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "runners", Sport: "running", CreatorID: 1,
	})
	require.NoError(t, err)

	for _, content := range []string{"first", "second", "hello"} {
		_, err := messageRepo.CreateGroupMessage(context.Background(), group.ID, 1, content)
		require.NoError(t, err)
	}

	msgs, err := messageRepo.ListGroupMessages(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt), "timestamps must be non-decreasing")
	}
	last := msgs[len(msgs)-1]
	assert.Equal(t, "hello", last.Content)
	assert.Equal(t, 1, last.SenderID)
	assert.Equal(t, models.MessageTypeText, last.Type)
}

func Test_DirectMessageConversation(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewDirectMessageRepo(testDB)

	_, err := repo.SendMessage(context.Background(), 1, 2, "hey")
	require.NoError(t, err)
	_, err = repo.SendMessage(context.Background(), 2, 1, "hi back")
	require.NoError(t, err)
	// Traffic with a third user must stay out of the pair's conversation.
	_, err = repo.SendMessage(context.Background(), 1, 3, "other thread")
	require.NoError(t, err)

	msgs, err := repo.GetConversation(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.After(msgs[i-1].CreatedAt), "timestamps must be non-increasing")
	}
}

func Test_UnreadAndMarkRead(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewDirectMessageRepo(testDB)

	sent, err := repo.SendMessage(context.Background(), 1, 2, "unread")
	require.NoError(t, err)

	unread, err := repo.GetUnreadMessages(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.False(t, unread[0].Read)

	require.NoError(t, repo.MarkMessageAsRead(context.Background(), sent.ID))

	unread, err = repo.GetUnreadMessages(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, unread)

	assert.ErrorIs(t, repo.MarkMessageAsRead(context.Background(), 999999), ErrMessageNotFound)
}

func Test_RecentConversationsFold(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewDirectMessageRepo(testDB)

	_, err := repo.SendMessage(context.Background(), 1, 2, "old to 2")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = repo.SendMessage(context.Background(), 1, 2, "new to 2")
	require.NoError(t, err)
	_, err = repo.SendMessage(context.Background(), 1, 3, "only to 3")
	require.NoError(t, err)
	// Received-only conversations are invisible to the fold.
	_, err = repo.SendMessage(context.Background(), 4, 1, "from 4")
	require.NoError(t, err)

	convs, err := repo.GetRecentConversations(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	byRecipient := map[int]string{}
	for _, msg := range convs {
		byRecipient[msg.RecipientID] = msg.Content
	}
	assert.Equal(t, "new to 2", byRecipient[2], "latest message per recipient wins")
	assert.Equal(t, "only to 3", byRecipient[3])
}

func Test_InviteLifecycle(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	groupRepo := NewGroupRepo(testDB)
	inviteRepo := NewInviteRepo(testDB)

	group, err := groupRepo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "cyclists", Sport: "cycling", CreatorID: 1,
	})
	require.NoError(t, err)

	invite, err := inviteRepo.CreateInvite(context.Background(), group.ID, 1, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, invite.Status)

	require.NoError(t, inviteRepo.ResolveInvite(context.Background(), invite.ID, models.StatusAccepted))

	// The transition happens exactly once.
	err = inviteRepo.ResolveInvite(context.Background(), invite.ID, models.StatusRejected)
	assert.ErrorIs(t, err, ErrInviteResolved)

	resolved, err := inviteRepo.GetInvite(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, resolved.Status)
}

func Test_ExpiredInvite(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	groupRepo := NewGroupRepo(testDB)
	inviteRepo := NewInviteRepo(testDB)

	group, err := groupRepo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "swimmers", Sport: "swimming", CreatorID: 1,
	})
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	invite, err := inviteRepo.CreateInvite(context.Background(), group.ID, 1, 7, &past)
	require.NoError(t, err)

	err = inviteRepo.ResolveInvite(context.Background(), invite.ID, models.StatusAccepted)
	assert.ErrorIs(t, err, ErrInviteExpired)
}

func Test_AcceptInviteFullGroupKeepsPending(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	groupRepo := NewGroupRepo(testDB)
	inviteRepo := NewInviteRepo(testDB)

	group, err := groupRepo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "solo", Sport: "golf", CreatorID: 1, MaxMembers: intValue(1),
	})
	require.NoError(t, err)

	invite, err := inviteRepo.CreateInvite(context.Background(), group.ID, 1, 5, nil)
	require.NoError(t, err)

	err = inviteRepo.AcceptInvite(context.Background(), invite)
	assert.ErrorIs(t, err, ErrGroupFull)

	// The failed join must not burn the invite.
	after, err := inviteRepo.GetInvite(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, after.Status)

	member, err := groupRepo.IsMember(context.Background(), group.ID, 5)
	require.NoError(t, err)
	assert.False(t, member)

	// Once the group has room again the retry goes through.
	require.NoError(t, groupRepo.LeaveGroup(context.Background(), group.ID, 1))
	require.NoError(t, inviteRepo.AcceptInvite(context.Background(), invite))

	accepted, err := inviteRepo.GetInvite(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, accepted.Status)

	member, err = groupRepo.IsMember(context.Background(), group.ID, 5)
	require.NoError(t, err)
	assert.True(t, member)
}

func Test_AcceptJoinRequestGrantsMembership(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	groupRepo := NewGroupRepo(testDB)
	inviteRepo := NewInviteRepo(testDB)

	group, err := groupRepo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "rowers", Sport: "rowing", CreatorID: 1,
	})
	require.NoError(t, err)

	request, err := inviteRepo.CreateJoinRequest(context.Background(), group.ID, 6)
	require.NoError(t, err)

	require.NoError(t, inviteRepo.AcceptJoinRequest(context.Background(), request))

	member, err := groupRepo.IsMember(context.Background(), group.ID, 6)
	require.NoError(t, err)
	assert.True(t, member)

	assert.ErrorIs(t, inviteRepo.AcceptJoinRequest(context.Background(), request), ErrJoinRequestResolved)
}

func Test_JoinRequestLifecycle(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	groupRepo := NewGroupRepo(testDB)
	inviteRepo := NewInviteRepo(testDB)

	group, err := groupRepo.CreateGroup(context.Background(), CreateGroupParams{
		Name: "boxers", Sport: "boxing", CreatorID: 1,
	})
	require.NoError(t, err)

	first, err := inviteRepo.CreateJoinRequest(context.Background(), group.ID, 5)
	require.NoError(t, err)
	second, err := inviteRepo.CreateJoinRequest(context.Background(), group.ID, 6)
	require.NoError(t, err)

	pending, err := inviteRepo.ListJoinRequests(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID, "arrival order")
	assert.Equal(t, second.ID, pending[1].ID)

	require.NoError(t, inviteRepo.ResolveJoinRequest(context.Background(), first.ID, models.StatusAccepted))
	assert.ErrorIs(t, inviteRepo.ResolveJoinRequest(context.Background(), first.ID, models.StatusAccepted), ErrJoinRequestResolved)
}

func Test_UpsertUserByPhone(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewUserRepo(testDB)

	first, err := repo.UpsertByPhone(context.Background(), "+15551234567")
	require.NoError(t, err)
	second, err := repo.UpsertByPhone(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "repeated verification reuses the account")

	fetched, err := repo.GetUser(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", fetched.Phone)

	_, err = repo.GetUser(context.Background(), 999999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func Test_SearchAndSportFilters(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewGroupRepo(testDB)

	_, err := repo.CreateGroup(context.Background(), CreateGroupParams{Name: "City Tennis Club", Sport: "tennis", CreatorID: 1})
	require.NoError(t, err)
	_, err = repo.CreateGroup(context.Background(), CreateGroupParams{Name: "Morning Run", Sport: "running", CreatorID: 2})
	require.NoError(t, err)

	bySport, err := repo.GetGroupsBySport(context.Background(), "tennis")
	require.NoError(t, err)
	require.Len(t, bySport, 1)
	assert.Equal(t, "City Tennis Club", bySport[0].Name)

	found, err := repo.SearchGroups(context.Background(), "tennis")
	require.NoError(t, err)
	require.Len(t, found, 1)

	mine, err := repo.GetUserGroups(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Morning Run", mine[0].Name)
}

func Test_SearchMatchesWildcardsLiterally(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })
	repo := NewGroupRepo(testDB)

	_, err := repo.CreateGroup(context.Background(), CreateGroupParams{Name: "100% effort", Sport: "crossfit", CreatorID: 1})
	require.NoError(t, err)
	_, err = repo.CreateGroup(context.Background(), CreateGroupParams{Name: "under_score club", Sport: "darts", CreatorID: 1})
	require.NoError(t, err)
	_, err = repo.CreateGroup(context.Background(), CreateGroupParams{Name: "Plain Run", Sport: "running", CreatorID: 1})
	require.NoError(t, err)

	// "%" and "_" in the query are literals, not pattern metacharacters.
	found, err := repo.SearchGroups(context.Background(), "%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% effort", found[0].Name)

	found, err = repo.SearchGroups(context.Background(), "_")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "under_score club", found[0].Name)
}
