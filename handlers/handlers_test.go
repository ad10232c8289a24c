package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lawchat/backend/middleware"
	"lawchat/backend/models"
	"lawchat/backend/presence"
	"lawchat/backend/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "handler-secret"

// fakeConversations 記錄收到的參數並回傳預設的結果
type fakeConversations struct {
	chat      *models.Chat
	err       error
	requester models.ParticipantRef
	other     models.ParticipantRef
	members   []models.ParticipantRef
	name      string
	chatID    primitive.ObjectID
}

func (f *fakeConversations) FindOrCreateDirectChat(_ context.Context, requester, other models.ParticipantRef) (*models.Chat, error) {
	f.requester, f.other = requester, other
	return f.chat, f.err
}

func (f *fakeConversations) ListChats(_ context.Context, requester models.ParticipantRef) ([]models.Chat, error) {
	f.requester = requester
	if f.chat == nil {
		return nil, f.err
	}
	return []models.Chat{*f.chat}, f.err
}

func (f *fakeConversations) CreateGroupChat(_ context.Context, requester models.ParticipantRef, name string, members []models.ParticipantRef) (*models.Chat, error) {
	f.requester, f.name, f.members = requester, name, members
	return f.chat, f.err
}

func (f *fakeConversations) RenameGroup(_ context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, name string) (*models.Chat, error) {
	f.requester, f.chatID, f.name = requester, chatID, name
	return f.chat, f.err
}

func (f *fakeConversations) AddMember(_ context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, member models.ParticipantRef) (*models.Chat, error) {
	f.requester, f.chatID, f.other = requester, chatID, member
	return f.chat, f.err
}

func (f *fakeConversations) RemoveMember(_ context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, member models.ParticipantRef) (*models.Chat, error) {
	f.requester, f.chatID, f.other = requester, chatID, member
	return f.chat, f.err
}

func (f *fakeConversations) GetChat(_ context.Context, chatID primitive.ObjectID, requester models.ParticipantRef) (*models.Chat, error) {
	f.requester, f.chatID = requester, chatID
	return f.chat, f.err
}

type fakeMessages struct {
	msg     *models.Message
	err     error
	content string
}

func (f *fakeMessages) SendMessage(_ context.Context, _ models.ParticipantRef, _ primitive.ObjectID, content string) (*models.Message, error) {
	f.content = content
	return f.msg, f.err
}

func (f *fakeMessages) AllMessages(_ context.Context, _ models.ParticipantRef, _ primitive.ObjectID) ([]models.Message, error) {
	return nil, f.err
}

func (f *fakeMessages) MarkRead(_ context.Context, _ models.ParticipantRef, _ primitive.ObjectID) (*models.Message, error) {
	return f.msg, f.err
}

type fakeCredentials struct {
	byKind map[models.Kind]map[string]models.Credentials
}

func (f *fakeCredentials) FindCredentials(_ context.Context, kind models.Kind, email string) (*models.Credentials, error) {
	creds, ok := f.byKind[kind][email]
	if !ok {
		return nil, fmt.Errorf("%w: no account", models.ErrNotFound)
	}
	return &creds, nil
}

func (f *fakeCredentials) CreateUser(_ context.Context, user *models.User) error {
	users := f.byKind[models.KindUser]
	if _, ok := users[user.Email]; ok {
		return fmt.Errorf("%w: duplicate email", models.ErrConflict)
	}
	user.ID = primitive.NewObjectID()
	users[user.Email] = models.Credentials{ID: user.ID, Name: user.Name, Email: user.Email, Password: user.Password}
	return nil
}

type fixture struct {
	router   *mux.Router
	chats    *fakeConversations
	messages *fakeMessages
	creds    *fakeCredentials
	tracker  *presence.MemoryTracker
}

func newFixture() *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		router:   mux.NewRouter(),
		chats:    &fakeConversations{},
		messages: &fakeMessages{},
		creds: &fakeCredentials{byKind: map[models.Kind]map[string]models.Credentials{
			models.KindUser:   {},
			models.KindLawyer: {},
		}},
		tracker: presence.NewMemoryTracker(),
	}
	h := NewHandler(f.chats, f.messages, f.creds, f.tracker, testSecret, time.Hour, logger)
	h.RegisterRoutes(f.router, middleware.JWTMiddleware(testSecret, logger))
	return f
}

func (f *fixture) do(t *testing.T, method, path string, as *models.ParticipantRef, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, path, reader)
	if as != nil {
		token, err := utils.GenerateJWT(*as, "tester", testSecret, time.Hour)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func ref(kind models.Kind) models.ParticipantRef {
	return models.ParticipantRef{ID: primitive.NewObjectID(), Kind: kind}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("%w: x", models.ErrInvalidArgument): http.StatusBadRequest,
		fmt.Errorf("%w: x", models.ErrNotFound):        http.StatusNotFound,
		fmt.Errorf("%w: x", models.ErrForbidden):       http.StatusForbidden,
		fmt.Errorf("%w: x", models.ErrConflict):        http.StatusConflict,
		fmt.Errorf("%w: x", models.ErrTransient):       http.StatusServiceUnavailable,
		fmt.Errorf("boom"):                             http.StatusInternalServerError,
	}
	for err, status := range cases {
		require.Equal(t, status, statusFor(err), err.Error())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/api/chat", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccessChat(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	me := ref(models.KindUser)
	lawyer := ref(models.KindLawyer)
	f.chats.chat = &models.Chat{ID: primitive.NewObjectID(), Users: []models.ParticipantRef{me, lawyer}}

	w := f.do(t, http.MethodPost, "/api/chat", &me, map[string]string{"userId": lawyer.ID.Hex(), "participantModel": "Lawyer"})
	req.Equal(http.StatusOK, w.Code)
	req.Equal(me, f.chats.requester)
	req.Equal(lawyer, f.chats.other)

	var got models.Chat
	req.NoError(json.Unmarshal(w.Body.Bytes(), &got))
	req.Equal(f.chats.chat.ID, got.ID)

	// Without participantModel the other side is a User
	other := ref(models.KindUser)
	w = f.do(t, http.MethodPost, "/api/chat", &me, map[string]string{"userId": other.ID.Hex()})
	req.Equal(http.StatusOK, w.Code)
	req.Equal(other, f.chats.other)
}

func TestAccessChat_BadInput(t *testing.T) {
	f := newFixture()
	me := ref(models.KindUser)

	cases := map[string]any{
		"missing userId": map[string]string{},
		"bad id":         map[string]string{"userId": "nope"},
		"bad kind":       map[string]string{"userId": primitive.NewObjectID().Hex(), "participantModel": "Judge"},
		"not json":       "{",
	}
	for name, body := range cases {
		w := f.do(t, http.MethodPost, "/api/chat", &me, body)
		require.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestAccessChat_ServiceErrors(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	me := ref(models.KindUser)
	body := map[string]string{"userId": primitive.NewObjectID().Hex()}

	f.chats.err = fmt.Errorf("%w: Lawyer 123", models.ErrNotFound)
	w := f.do(t, http.MethodPost, "/api/chat", &me, body)
	req.Equal(http.StatusNotFound, w.Code)
	req.Contains(errorMessage(t, w), "Lawyer 123")

	// Unclassified errors do not leak their text
	f.chats.err = fmt.Errorf("driver exploded")
	w = f.do(t, http.MethodPost, "/api/chat", &me, body)
	req.Equal(http.StatusInternalServerError, w.Code)
	req.Equal("Internal server error", errorMessage(t, w))
}

func TestFetchChats_EmptyListIsArray(t *testing.T) {
	f := newFixture()
	me := ref(models.KindLawyer)
	w := f.do(t, http.MethodGet, "/api/chat", &me, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
	require.Equal(t, me, f.chats.requester)
}

func TestCreateGroupChat_AcceptsArrayOrEncodedString(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	me := ref(models.KindUser)
	a, b := ref(models.KindUser), ref(models.KindLawyer)
	f.chats.chat = &models.Chat{ID: primitive.NewObjectID(), IsGroupChat: true}

	users := []models.ParticipantRef{a, b}
	w := f.do(t, http.MethodPost, "/api/chat/group", &me, map[string]any{"name": "Case 42", "users": users})
	req.Equal(http.StatusOK, w.Code)
	req.Equal("Case 42", f.chats.name)
	req.Equal(users, f.chats.members)

	encoded, err := json.Marshal(users)
	req.NoError(err)
	f.chats.members = nil
	w = f.do(t, http.MethodPost, "/api/chat/group", &me, map[string]any{"name": "Case 43", "users": string(encoded)})
	req.Equal(http.StatusOK, w.Code)
	req.Equal(users, f.chats.members)

	// Each entry must name its kind
	w = f.do(t, http.MethodPost, "/api/chat/group", &me, map[string]any{"name": "x", "users": []map[string]string{{"participantId": a.ID.Hex()}}})
	req.Equal(http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/chat/group", &me, map[string]any{"name": "x", "users": []any{}})
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestGroupEdits(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	me := ref(models.KindUser)
	chatID := primitive.NewObjectID()
	lawyer := ref(models.KindLawyer)
	f.chats.chat = &models.Chat{ID: chatID, IsGroupChat: true}

	w := f.do(t, http.MethodPut, "/api/chat/rename", &me, map[string]string{"chatId": chatID.Hex(), "chatName": "Renamed"})
	req.Equal(http.StatusOK, w.Code)
	req.Equal("Renamed", f.chats.name)
	req.Equal(chatID, f.chats.chatID)

	w = f.do(t, http.MethodPut, "/api/chat/groupadd", &me, map[string]string{"chatId": chatID.Hex(), "userId": lawyer.ID.Hex(), "participantModel": "Lawyer"})
	req.Equal(http.StatusOK, w.Code)
	req.Equal(lawyer, f.chats.other)

	f.chats.err = fmt.Errorf("%w: only the group admin can do that", models.ErrForbidden)
	w = f.do(t, http.MethodPut, "/api/chat/groupremove", &me, map[string]string{"chatId": chatID.Hex(), "userId": lawyer.ID.Hex(), "participantModel": "Lawyer"})
	req.Equal(http.StatusForbidden, w.Code)

	f.chats.err = fmt.Errorf("%w: version moved", models.ErrConflict)
	w = f.do(t, http.MethodPut, "/api/chat/rename", &me, map[string]string{"chatId": chatID.Hex(), "chatName": "Again"})
	req.Equal(http.StatusConflict, w.Code)
}

func TestGetChatAndPresence(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	me := ref(models.KindUser)
	lawyer := ref(models.KindLawyer)
	chatID := primitive.NewObjectID()
	f.chats.chat = &models.Chat{ID: chatID, Users: []models.ParticipantRef{me, lawyer}}

	w := f.do(t, http.MethodGet, "/api/chat/"+chatID.Hex(), &me, nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal(chatID, f.chats.chatID)

	w = f.do(t, http.MethodGet, "/api/chat/not-an-id", &me, nil)
	req.Equal(http.StatusBadRequest, w.Code)

	req.NoError(f.tracker.Online(context.Background(), lawyer))
	w = f.do(t, http.MethodGet, "/api/chat/"+chatID.Hex()+"/presence", &me, nil)
	req.Equal(http.StatusOK, w.Code)

	var entries []PresenceEntry
	req.NoError(json.Unmarshal(w.Body.Bytes(), &entries))
	req.Len(entries, 2)
	req.Equal(me, entries[0].ParticipantRef)
	req.False(entries[0].Online)
	req.Equal(lawyer, entries[1].ParticipantRef)
	req.True(entries[1].Online)
}

func TestMessageRoutes(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	me := ref(models.KindLawyer)
	chatID := primitive.NewObjectID()
	f.messages.msg = &models.Message{ID: primitive.NewObjectID(), Chat: chatID, Content: "hi"}

	w := f.do(t, http.MethodPost, "/api/message", &me, map[string]string{"chatId": chatID.Hex(), "content": "hi"})
	req.Equal(http.StatusOK, w.Code)
	req.Equal("hi", f.messages.content)

	w = f.do(t, http.MethodPost, "/api/message", &me, map[string]string{"chatId": chatID.Hex()})
	req.Equal(http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/message/"+chatID.Hex(), &me, nil)
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`[]`, w.Body.String())

	w = f.do(t, http.MethodPut, "/api/message/"+f.messages.msg.ID.Hex()+"/read", &me, nil)
	req.Equal(http.StatusOK, w.Code)

	f.messages.err = fmt.Errorf("%w: not a participant", models.ErrForbidden)
	w = f.do(t, http.MethodGet, "/api/message/"+chatID.Hex(), &me, nil)
	req.Equal(http.StatusForbidden, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	w := f.do(t, http.MethodPost, "/api/user", nil, map[string]string{"name": "Amy", "email": "Amy@Example.com", "password": "secret123"})
	req.Equal(http.StatusCreated, w.Code)
	var registered AuthResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &registered))
	req.Equal(models.KindUser, registered.ParticipantModel)
	req.Equal("amy@example.com", registered.Email)

	issued, err := utils.GetParticipantFromToken(registered.Token, testSecret)
	req.NoError(err)
	req.Equal(registered.ID, issued.ID.Hex())

	// Registering the same email again conflicts
	w = f.do(t, http.MethodPost, "/api/user", nil, map[string]string{"name": "Amy", "email": "amy@example.com", "password": "secret123"})
	req.Equal(http.StatusConflict, w.Code)

	// Validation rejects short passwords and bad emails
	w = f.do(t, http.MethodPost, "/api/user", nil, map[string]string{"name": "Bo", "email": "bo", "password": "1"})
	req.Equal(http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/user/login", nil, map[string]string{"email": "amy@example.com", "password": "secret123"})
	req.Equal(http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/user/login", nil, map[string]string{"email": "amy@example.com", "password": "wrong"})
	req.Equal(http.StatusUnauthorized, w.Code)
}

func TestLawyerLoginIssuesLawyerToken(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	hash, err := bcrypt.GenerateFromPassword([]byte("counsel!"), bcrypt.MinCost)
	req.NoError(err)
	id := primitive.NewObjectID()
	f.creds.byKind[models.KindLawyer]["lee@law.example"] = models.Credentials{ID: id, Name: "Lee", Email: "lee@law.example", Password: string(hash)}

	// The same email is unknown as a User
	w := f.do(t, http.MethodPost, "/api/user/login", nil, map[string]string{"email": "lee@law.example", "password": "counsel!"})
	req.Equal(http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/user/login", nil, map[string]string{"email": "lee@law.example", "password": "counsel!", "participantModel": "Lawyer"})
	req.Equal(http.StatusOK, w.Code)

	var resp AuthResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	issued, err := utils.GetParticipantFromToken(resp.Token, testSecret)
	req.NoError(err)
	req.Equal(models.ParticipantRef{ID: id, Kind: models.KindLawyer}, issued)
}

func TestHealth(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}
