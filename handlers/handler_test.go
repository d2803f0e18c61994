package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitfree/balance"
	"splitfree/config"
	"splitfree/ledger"
	"splitfree/logging"
	"splitfree/models"
	"splitfree/repository"
	"splitfree/services"
	"splitfree/utils"
)

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	store   *repository.Store
	invites *recordingInviter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AppName:   "SplitFree",
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
	log := logging.Discard()
	store := repository.NewMemoryStore()
	l := ledger.New(store.Events, store.Users, ledger.WithLogger(log))
	pool := ledger.NewPool(store.People, store.Expenses, log)
	agg := balance.NewAggregator(l, pool, store.Friends, store.Groups)

	invites := &recordingInviter{}
	h := New(cfg, store, l, pool, agg, services.NewTokenBlacklist(nil), invites, log)
	r := gin.New()
	h.RegisterRoutes(r)

	return &testServer{t: t, router: r, store: store, invites: invites}
}

type recordingInviter struct {
	sent []string
	err  error
}

func (r *recordingInviter) SendInvitation(_ context.Context, _ models.User, email string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, email)
	return nil
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type authEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    AuthResponse `json:"data"`
}

type account struct {
	token string
	user  models.UserResponse
}

func (s *testServer) register(name, email string) account {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	env := decode[authEnvelope](s.t, w)
	return account{token: env.Data.Token, user: env.Data.User}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), append([]any{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"SplitFree"}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	ana := s.register("Ana Lopez", "Ana@Example.com")
	assert.Equal(t, "ana@example.com", ana.user.Email)
	assert.Equal(t, "AL", ana.user.Initials)
	assert.Equal(t, models.AvatarColor("Ana Lopez"), ana.user.AvatarColor)
	assert.Len(t, ana.user.FriendCode, 10)

	w := s.do(http.MethodPost, "/auth/register", "", gin.H{
		"name": "Ana Again", "email": "ana@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/register", "", gin.H{"name": "Short", "email": "s@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ana@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	env := decode[authEnvelope](t, w)
	assert.True(t, env.Success)
	assert.Equal(t, ana.user.ID, env.Data.User.ID)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ana@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/users/me", env.Data.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.UserResponse](t, w)
	assert.Equal(t, "Ana Lopez", me.Name)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("Ana", "ana@example.com")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/me", "", nil).Code)

	w := s.do(http.MethodPost, "/api/auth/logout", ana.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/users/me", ana.token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFindUserAndFCMToken(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("Ana", "ana@example.com")
	bea := s.register("Bea", "bea@example.com")

	w := s.do(http.MethodGet, "/api/users/find?code="+bea.user.FriendCode, ana.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[models.PublicProfile](t, w)
	assert.Equal(t, bea.user.ID, found.ID)
	assert.NotContains(t, w.Body.String(), "bea@example.com")

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/users/find", ana.token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/users/find?code=0000000000", ana.token, nil).Code)

	w = s.do(http.MethodPut, "/api/users/me/fcm-token", ana.token, gin.H{"token": "device-1"})
	require.Equal(t, http.StatusOK, w.Code)
	stored, err := s.store.Users.Get(context.Background(), ana.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "device-1", stored.FCMToken)
}

// Five people share 625: the creator has paid, the rest pay one by one.
func TestEventLifecycle(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")
	b := s.register("Bea", "b@example.com")
	c := s.register("Cai", "c@example.com")
	d := s.register("Dev", "d@example.com")
	e := s.register("Eli", "e@example.com")

	w := s.do(http.MethodPost, "/api/events", a.token, gin.H{
		"name":           "Dinner",
		"total":          625,
		"participantIds": []uint{a.user.ID, b.user.ID, c.user.ID, d.user.ID, e.user.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	event := decode[models.EventResponse](t, w)
	assert.Equal(t, models.DefaultEventIcon, event.Icon)
	assert.Equal(t, models.EventPending, event.Status)
	assert.Equal(t, 5, event.ParticipantCount)
	assertDec(t, "125", event.MyShare)
	assert.Equal(t, "Ana", event.Participants[0].Name)
	assert.Equal(t, models.ParticipantPaid, event.Participants[0].Status)

	eventPath := fmt.Sprintf("/api/events/%d", event.ID)
	summary := func() balance.Summary {
		w := s.do(http.MethodGet, eventPath+"/summary", a.token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		return decode[balance.Summary](t, w)
	}
	got := summary()
	assertDec(t, "125", got.Collected)
	assert.Equal(t, 4, got.PendingCount)

	w = s.do(http.MethodGet, "/api/users/me/balance", a.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	dash := decode[balance.UserBalance](t, w)
	assertDec(t, "500", dash.PendingToCollect)
	assertDec(t, "0", dash.PendingToPay)

	w = s.do(http.MethodGet, "/api/users/me/balance", b.token, nil)
	assertDec(t, "125", decode[balance.UserBalance](t, w).PendingToPay)

	w = s.do(http.MethodPost, eventPath+"/remind", a.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Reminder sent to 4 pending participants"}`, w.Body.String())

	for i, p := range event.Participants[1:] {
		path := fmt.Sprintf("%s/participants/%d/pay", eventPath, p.ID)
		var body any
		if i == 0 {
			body = gin.H{"paymentMethod": "cash"}
		}
		w := s.do(http.MethodPut, path, a.token, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		paid := decode[models.ParticipantResponse](t, w)
		assert.Equal(t, models.ParticipantPaid, paid.Status)
		assert.NotNil(t, paid.PaidAt)
		if i == 0 {
			assert.Equal(t, "cash", paid.PaymentMethod)
		}
	}

	got = summary()
	assertDec(t, "625", got.Collected)
	assert.Equal(t, 5, got.PaidCount)
	assert.Equal(t, 0, got.RemainingCount)

	w = s.do(http.MethodGet, eventPath, b.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EventSettled, decode[models.EventResponse](t, w).Status)

	// Paying twice is a conflict.
	w = s.do(http.MethodPut, fmt.Sprintf("%s/participants/%d/pay", eventPath, event.Participants[1].ID), a.token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/users/me/stats", d.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[balance.UserStats](t, w).PaymentsMade)
}

func TestEventEndpoints(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")
	b := s.register("Bea", "b@example.com")

	w := s.do(http.MethodPost, "/api/events", a.token, gin.H{
		"name": "Taxi", "total": 30, "participantIds": []uint{b.user.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	event := decode[models.EventResponse](t, w)
	eventPath := fmt.Sprintf("/api/events/%d", event.ID)

	w = s.do(http.MethodGet, eventPath+"/participants", b.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	participants := decode[[]models.ParticipantResponse](t, w)
	require.Len(t, participants, 2)
	assert.Equal(t, a.user.ID, participants[0].UserID, "creator is added first")

	w = s.do(http.MethodPut, eventPath, a.token, gin.H{"name": "Airport taxi", "total": 45})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.EventResponse](t, w)
	assert.Equal(t, "Airport taxi", updated.Name)
	assertDec(t, "45", updated.Total)
	assertDec(t, "15", updated.Participants[1].Amount, "shares are kept")

	w = s.do(http.MethodGet, "/api/events/recent?limit=5", b.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	recent := decode[[]models.EventResponse](t, w)
	require.Len(t, recent, 1)
	assertDec(t, "15", recent[0].MyShare)

	w = s.do(http.MethodPut, eventPath+"/settle", a.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EventSettled, decode[models.EventResponse](t, w).Status)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, eventPath, a.token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, eventPath, a.token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, eventPath, a.token, nil).Code)
}

func TestEventErrors(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"zero total", http.MethodPost, "/api/events", gin.H{"name": "x", "total": 0, "participantIds": []uint{}}, http.StatusBadRequest},
		{"missing name", http.MethodPost, "/api/events", gin.H{"total": 10, "participantIds": []uint{}}, http.StatusBadRequest},
		{"unknown participant", http.MethodPost, "/api/events", gin.H{"name": "x", "total": 10, "participantIds": []uint{424242}}, http.StatusNotFound},
		{"unknown group", http.MethodPost, "/api/events", gin.H{"name": "x", "total": 10, "participantIds": []uint{}, "groupId": 424242}, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/events/abc", nil, http.StatusBadRequest},
		{"unknown event", http.MethodGet, "/api/events/424242", nil, http.StatusNotFound},
		{"unknown summary", http.MethodGet, "/api/events/424242/summary", nil, http.StatusNotFound},
		{"unknown settle", http.MethodPut, "/api/events/424242/settle", nil, http.StatusNotFound},
		{"unknown remind", http.MethodPost, "/api/events/424242/remind", nil, http.StatusNotFound},
		{"unknown participant pay", http.MethodPut, "/api/events/424242/participants/1/pay", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, a.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			env := decode[utils.APIResponse](t, w)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestFriendsAndGroups(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")
	b := s.register("Bea", "b@example.com")
	c := s.register("Cai", "c@example.com")

	w := s.do(http.MethodPost, "/api/friends", a.token, gin.H{"friendCode": b.user.FriendCode})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	friend := decode[models.FriendResponse](t, w)
	assert.Equal(t, b.user.ID, friend.UserID)
	assert.Equal(t, "Bea", friend.Name)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/friends", b.token, gin.H{"friendId": a.user.ID}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/friends", a.token, gin.H{"friendId": a.user.ID}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/friends", a.token, gin.H{"friendCode": "0000000000"}).Code)

	w = s.do(http.MethodGet, "/api/friends", b.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	friends := decode[[]models.FriendResponse](t, w)
	require.Len(t, friends, 1)
	assert.Equal(t, a.user.ID, friends[0].UserID, "friendship is visible from both sides")

	w = s.do(http.MethodPost, "/api/groups", a.token, gin.H{"name": "Trip", "memberIds": []uint{b.user.ID, b.user.ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	group := decode[models.GroupResponse](t, w)
	assert.Equal(t, models.DefaultGroupIcon, group.Icon)
	require.Len(t, group.Members, 2)
	assert.Equal(t, a.user.ID, group.Members[0].ID)
	groupPath := fmt.Sprintf("/api/groups/%d", group.ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, groupPath, c.token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, groupPath, b.token, nil).Code)

	w = s.do(http.MethodPost, "/api/events", b.token, gin.H{
		"name": "Fuel", "total": 40, "participantIds": []uint{a.user.ID}, "groupId": group.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	event := decode[models.EventResponse](t, w)
	require.NotNil(t, event.GroupName)
	assert.Equal(t, "Trip", *event.GroupName)

	w = s.do(http.MethodPost, "/api/events", c.token, gin.H{
		"name": "Fuel", "total": 40, "participantIds": []uint{}, "groupId": group.ID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/users/me/stats", b.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[balance.UserStats](t, w)
	assert.Equal(t, 1, stats.FriendsCount)
	assert.Equal(t, 1, stats.GroupsCount)
	assert.Equal(t, stats.GroupsCount, stats.ActiveGroupsCount)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, groupPath, b.token, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, groupPath, a.token, nil).Code)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, fmt.Sprintf("/api/friends/%d", friend.ID), c.token, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("/api/friends/%d", friend.ID), b.token, nil).Code)
}

func TestInviteFriend(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")
	b := s.register("Bea", "b@example.com")

	w := s.do(http.MethodPost, "/api/friends/invite", a.token, gin.H{"email": "B@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, "registered users are befriended directly")
	assert.Equal(t, b.user.ID, decode[models.FriendResponse](t, w).UserID)
	assert.Empty(t, s.invites.sent)

	w = s.do(http.MethodPost, "/api/friends/invite", a.token, gin.H{"email": "new@example.com"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"new@example.com"}, s.invites.sent)

	s.invites.err = services.ErrMailDisabled
	w = s.do(http.MethodPost, "/api/friends/invite", a.token, gin.H{"email": "other@example.com"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(http.MethodPost, "/api/friends/invite", a.token, gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")
	s.register("Bea", "b@example.com")

	w := s.do(http.MethodPut, "/api/users/me", a.token, gin.H{"name": "Ana Lopez", "email": "Ana.L@Example.com", "phone": "555"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decode[models.UserResponse](t, w)
	assert.Equal(t, "Ana Lopez", me.Name)
	assert.Equal(t, "AL", me.Initials)
	assert.Equal(t, "ana.l@example.com", me.Email)
	assert.Equal(t, "555", me.Phone)
	assert.Equal(t, a.user.FriendCode, me.FriendCode)

	w = s.do(http.MethodPut, "/api/users/me", a.token, gin.H{"email": "b@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPut, "/api/users/me", a.token, gin.H{"email": "ana.l@example.com"})
	assert.Equal(t, http.StatusOK, w.Code, "keeping your own e-mail is not a conflict")

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/api/users/me", a.token, gin.H{"name": "  "}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/api/users/me", a.token, gin.H{"email": "nope"}).Code)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ana.l@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"missing fields", gin.H{"currentPassword": "secret123"}, http.StatusBadRequest},
		{"wrong current password", gin.H{"currentPassword": "wrong-pass", "newPassword": "another1"}, http.StatusBadRequest},
		{"new password too short", gin.H{"currentPassword": "secret123", "newPassword": "123"}, http.StatusBadRequest},
		{"changed", gin.H{"currentPassword": "secret123", "newPassword": "another1"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/auth/change-password", a.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	login := func(password string) int {
		return s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "a@example.com", "password": password}).Code
	}
	assert.Equal(t, http.StatusUnauthorized, login("secret123"))
	assert.Equal(t, http.StatusOK, login("another1"))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/auth/change-password", "", nil).Code)
}

func TestFriendRequests(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")
	b := s.register("Bea", "b@example.com")
	c := s.register("Cai", "c@example.com")

	w := s.do(http.MethodPost, "/api/friends/request", a.token, gin.H{"friendCode": b.user.FriendCode})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Friend request sent!"}`, w.Body.String())

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/friends/request", a.token, gin.H{"friendCode": b.user.FriendCode}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/friends/request", a.token, gin.H{"friendCode": a.user.FriendCode}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/friends/request", a.token, gin.H{}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/friends/request", a.token, gin.H{"friendCode": "0000000000"}).Code)

	w = s.do(http.MethodGet, "/api/friends/requests", b.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	requests := decode[[]models.FriendRequestResponse](t, w)
	require.Len(t, requests, 1)
	assert.Equal(t, "Ana", requests[0].FromUserName)
	assert.Equal(t, models.FriendRequestPending, requests[0].Status)
	reqPath := fmt.Sprintf("/api/friends/requests/%d", requests[0].ID)

	w = s.do(http.MethodGet, "/api/friends/requests", c.token, nil)
	assert.Empty(t, decode[[]models.FriendRequestResponse](t, w))

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, reqPath, a.token, gin.H{"accept": true}).Code, "only the recipient may answer")

	w = s.do(http.MethodPut, reqPath, b.token, gin.H{"accept": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, reqPath, b.token, gin.H{"accept": false}).Code)

	w = s.do(http.MethodGet, "/api/friends", a.token, nil)
	friends := decode[[]models.FriendResponse](t, w)
	require.Len(t, friends, 1)
	assert.Equal(t, b.user.ID, friends[0].UserID)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/friends/request", b.token, gin.H{"friendCode": a.user.FriendCode}).Code)

	w = s.do(http.MethodPost, "/api/friends/request", c.token, gin.H{"friendCode": a.user.FriendCode})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(http.MethodGet, "/api/friends/requests", a.token, nil)
	requests = decode[[]models.FriendRequestResponse](t, w)
	require.Len(t, requests, 2)
	w = s.do(http.MethodPut, fmt.Sprintf("/api/friends/requests/%d", requests[1].ID), a.token, gin.H{"accept": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Request rejected"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/friends", c.token, nil)
	assert.Empty(t, decode[[]models.FriendResponse](t, w))
}

func TestGroupMembers(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")
	b := s.register("Bea", "b@example.com")
	c := s.register("Cai", "c@example.com")
	d := s.register("Dev", "d@example.com")

	w := s.do(http.MethodPost, "/api/groups", a.token, gin.H{"name": "Trip", "memberIds": []uint{b.user.ID}})
	require.Equal(t, http.StatusCreated, w.Code)
	group := decode[models.GroupResponse](t, w)
	groupPath := fmt.Sprintf("/api/groups/%d", group.ID)

	w = s.do(http.MethodPut, groupPath, b.token, gin.H{"name": "Road trip", "icon": "car"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.GroupResponse](t, w)
	assert.Equal(t, "Road trip", updated.Name)
	assert.Equal(t, "car", updated.Icon)
	assert.Equal(t, models.DefaultGroupIconBgColor, updated.IconBgColor)
	assert.Len(t, updated.Members, 2)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, groupPath, a.token, gin.H{"name": ""}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, groupPath, c.token, gin.H{"name": "Mine"}).Code)

	w = s.do(http.MethodPost, groupPath+"/members", b.token, gin.H{"email": "C@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	member := decode[models.GroupMemberResponse](t, w)
	assert.Equal(t, c.user.ID, member.ID)
	assert.Equal(t, "Cai", member.Name)

	w = s.do(http.MethodPost, groupPath+"/members", a.token, gin.H{"friendCode": d.user.FriendCode})
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, groupPath+"/members", a.token, gin.H{"userId": c.user.ID}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, groupPath+"/members", a.token, gin.H{"userId": 31337}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, groupPath+"/members", a.token, gin.H{}).Code)

	// The new member can now create events in the group.
	w = s.do(http.MethodPost, "/api/events", c.token, gin.H{
		"name": "Fuel", "total": 40, "participantIds": []uint{a.user.ID}, "groupId": group.ID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	memberPath := func(id uint) string { return fmt.Sprintf("%s/members/%d", groupPath, id) }
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, memberPath(d.user.ID), c.token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, memberPath(a.user.ID), a.token, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, memberPath(d.user.ID), a.token, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, memberPath(c.user.ID), c.token, nil).Code, "members may leave")
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, memberPath(c.user.ID), a.token, nil).Code)

	w = s.do(http.MethodGet, "/api/users/me/stats", c.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[balance.UserStats](t, w).GroupsCount)

	w = s.do(http.MethodGet, groupPath, a.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.GroupResponse](t, w).Members, 2)
}

func TestPool(t *testing.T) {
	s := newTestServer(t)
	a := s.register("Ana", "a@example.com")

	var ids []uint
	for _, name := range []string{"Uno", "Dos"} {
		w := s.do(http.MethodPost, "/api/pool/people", a.token, gin.H{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, decode[models.Person](t, w).ID)
	}

	w := s.do(http.MethodPost, "/api/pool/expenses", a.token, gin.H{
		"description": "Groceries", "amount": 100, "payerId": ids[0], "participants": ids,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/pool/expenses", a.token, gin.H{
		"description": "Bad", "amount": -1, "payerId": ids[0], "participants": ids,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/pool/expenses", a.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Expense](t, w), 1)

	w = s.do(http.MethodGet, "/api/pool/split", a.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	split := decode[[]balance.SplitItem](t, w)
	require.Len(t, split, 2)
	assertDec(t, "50", split[0].Balance)
	assertDec(t, "-50", split[1].Balance)
	assert.Contains(t, w.Body.String(), `"balance":50`, "money is a JSON number")
}
