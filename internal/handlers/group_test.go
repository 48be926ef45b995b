package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sporthub-service/internal/mocks"
	"sporthub-service/internal/models"
	"sporthub-service/internal/repositories"
)

func setupGroupRouter(handler *GroupHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/api/groups", handler.CreateGroup)
	r.GET("/api/groups", handler.ListGroups)
	r.GET("/api/groups/search", handler.SearchGroups)
	r.GET("/api/groups/:group_id", handler.GetGroup)
	r.POST("/api/groups/:group_id/join", handler.JoinGroup)
	r.POST("/api/groups/:group_id/leave", handler.LeaveGroup)
	r.GET("/api/groups/:group_id/messages", handler.GetGroupMessages)
	r.POST("/api/groups/:group_id/messages", handler.PostGroupMessage)
	return r
}

func TestCreateGroupSuccess(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	messageRepo := new(mocks.GroupMessageRepositoryMock)
	handler := NewGroupHandler(groupRepo, messageRepo, nil)
	router := setupGroupRouter(handler)

	groupRepo.On("CreateGroup", mock.Anything, mock.MatchedBy(func(p repositories.CreateGroupParams) bool {
		return p.Name == "morning run" && p.Sport == "running" && p.CreatorID == 1
	})).Return(models.Group{ID: 5, Name: "morning run", Sport: "running"}, nil).Once()

	body := bytes.NewBufferString(`{"name":"morning run","sport":"running","member_ids":[2]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/groups", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestCreateGroupInvalidBody(t *testing.T) {
	handler := NewGroupHandler(new(mocks.GroupRepositoryMock), new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/groups", bytes.NewBufferString(`{"name":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGroupRejectsNonPositiveMaxMembers(t *testing.T) {
	handler := NewGroupHandler(new(mocks.GroupRepositoryMock), new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	body := bytes.NewBufferString(`{"name":"g","sport":"padel","max_members":0}`)
	req := httptest.NewRequest(http.MethodPost, "/api/groups", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGroupNotFound(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := NewGroupHandler(groupRepo, new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	groupRepo.On("GetGroup", mock.Anything, 404).Return(nil, repositories.ErrGroupNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/groups/404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestListGroupsBySport(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := NewGroupHandler(groupRepo, new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	groupRepo.On("GetGroupsBySport", mock.Anything, "tennis").
		Return([]models.Group{{ID: 1, Sport: "tennis"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/groups?sport=tennis", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestListGroupsDefaultsToCallers(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := NewGroupHandler(groupRepo, new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	groupRepo.On("GetUserGroups", mock.Anything, 1).
		Return([]models.Group{{ID: 2}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestSearchGroupsRequiresQuery(t *testing.T) {
	handler := NewGroupHandler(new(mocks.GroupRepositoryMock), new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/groups/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinGroupFullMapsToConflict(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := NewGroupHandler(groupRepo, new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	groupRepo.On("JoinGroup", mock.Anything, 9, 1).Return(repositories.ErrGroupFull).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/groups/9/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestLeaveGroupSuccess(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := NewGroupHandler(groupRepo, new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	groupRepo.On("LeaveGroup", mock.Anything, 9, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/groups/9/leave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestGetGroupMessagesSuccess(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	messageRepo := new(mocks.GroupMessageRepositoryMock)
	handler := NewGroupHandler(groupRepo, messageRepo, nil)
	router := setupGroupRouter(handler)

	groupRepo.On("IsMember", mock.Anything, 9, 1).Return(true, nil).Once()
	messageRepo.On("ListGroupMessages", mock.Anything, 9).
		Return([]models.GroupMessage{{ID: 1, GroupID: 9, SenderID: 1}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/groups/9/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groupRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestGetGroupMessagesForbiddenForNonMember(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := NewGroupHandler(groupRepo, new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	groupRepo.On("IsMember", mock.Anything, 9, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/groups/9/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestGetGroupMessagesInvalidID(t *testing.T) {
	handler := NewGroupHandler(new(mocks.GroupRepositoryMock), new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/groups/bad/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostGroupMessageSuccess(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	messageRepo := new(mocks.GroupMessageRepositoryMock)
	handler := NewGroupHandler(groupRepo, messageRepo, nil)
	router := setupGroupRouter(handler)

	groupRepo.On("IsMember", mock.Anything, 9, 1).Return(true, nil).Once()
	messageRepo.On("CreateGroupMessage", mock.Anything, 9, 1, "hey").
		Return(models.GroupMessage{ID: 3, GroupID: 9, SenderID: 1, Content: "hey"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/groups/9/messages", bytes.NewBufferString(`{"content":"hey"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	groupRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestPostGroupMessageInvalidID(t *testing.T) {
	handler := NewGroupHandler(new(mocks.GroupRepositoryMock), new(mocks.GroupMessageRepositoryMock), nil)
	router := setupGroupRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/groups/abc/messages", bytes.NewBufferString(`{"content":"hey"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
