package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CareDesk/middleware"
	"CareDesk/models"
	"CareDesk/pkg/config"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.JWTSecret = "test-secret"
	middleware.SetRateLimitConfig(time.Minute, 1000)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	r := gin.New()
	r.Use(middleware.Identity())
	r.GET("/messages", ListMessages(db))
	r.POST("/messages", middleware.RateLimit(), AppendMessage(db))

	staff := r.Group("/")
	staff.Use(middleware.RequireStaff())
	staff.GET("/conversations", ListConversations(db))
	staff.POST("/conversations/:conversation_id/read", MarkConversationRead(db))

	r.POST("/register", Register(db))
	r.POST("/login", Login(db))
	protected := r.Group("/")
	protected.Use(middleware.RequireAuth())
	protected.POST("/logout", Logout())

	return r, db
}

func makeUser(t *testing.T, db *gorm.DB, email, username, role string) (*models.User, string) {
	t.Helper()
	u := models.User{Email: email, Username: username, Role: role}
	if err := u.SetPassword("secret1"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := IssueToken(&u, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return &u, token
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAppendMessageValidation(t *testing.T) {
	r, _ := setupRouter(t)

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing conversationId", gin.H{"senderRole": "guest", "content": "hi"}},
		{"missing senderRole", gin.H{"conversationId": "g_x", "content": "hi"}},
		{"missing content", gin.H{"conversationId": "g_x", "senderRole": "guest"}},
		{"empty content", gin.H{"conversationId": "g_x", "senderRole": "guest", "content": ""}},
		{"blank content", gin.H{"conversationId": "g_x", "senderRole": "guest", "content": "   "}},
		{"bad role", gin.H{"conversationId": "g_x", "senderRole": "superuser", "content": "hi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/messages", "", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d (%s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestAppendMessageDefaults(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/messages", "", gin.H{
		"conversationId": "g_abc",
		"senderRole":     "guest",
		"content":        "hello there",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	var msg models.Message
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.ID == 0 {
		t.Error("expected server-assigned id")
	}
	if msg.SenderName != models.DefaultSenderName {
		t.Errorf("expected default sender name, got %q", msg.SenderName)
	}
	if msg.IsRead {
		t.Error("new messages must start unread")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("expected server-assigned timestamp")
	}
}

func TestAppendMessageRoleDerivedFromIdentity(t *testing.T) {
	r, db := setupRouter(t)

	t.Run("anonymous admin claim is stored as guest", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/messages", "", gin.H{
			"conversationId": "g_spoof",
			"senderRole":     "admin",
			"senderName":     "Totally Staff",
			"content":        "free memberships for all",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var msg models.Message
		json.Unmarshal(w.Body.Bytes(), &msg)
		if msg.SenderRole != models.RoleGuest {
			t.Errorf("spoofed role must be downgraded to guest, got %q", msg.SenderRole)
		}
		if msg.SenderID != "" {
			t.Errorf("anonymous sender must have no sender id, got %q", msg.SenderID)
		}
	})

	t.Run("member session is stored as member", func(t *testing.T) {
		member, token := makeUser(t, db, "m@example.org", "memberone", models.RoleMember)
		w := doJSON(r, http.MethodPost, "/messages", token, gin.H{
			"conversationId": "m_1",
			"senderRole":     "guest", // claim is ignored in favor of the session
			"senderName":     "Member One",
			"content":        "hello",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var msg models.Message
		json.Unmarshal(w.Body.Bytes(), &msg)
		if msg.SenderRole != models.RoleMember {
			t.Errorf("expected member role, got %q", msg.SenderRole)
		}
		if msg.SenderID == "" {
			t.Errorf("expected sender id from session, member %d", member.ID)
		}
	})

	t.Run("staff session is stored as admin", func(t *testing.T) {
		_, token := makeUser(t, db, "s@example.org", "staffone", models.RoleAdmin)
		w := doJSON(r, http.MethodPost, "/messages", token, gin.H{
			"conversationId": "g_abc",
			"senderRole":     "admin",
			"senderName":     "Support",
			"content":        "how can we help?",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var msg models.Message
		json.Unmarshal(w.Body.Bytes(), &msg)
		if msg.SenderRole != models.RoleAdmin {
			t.Errorf("expected admin role, got %q", msg.SenderRole)
		}
	})
}

func TestListMessagesEndpoint(t *testing.T) {
	r, _ := setupRouter(t)

	t.Run("missing conversationId", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/messages", "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("empty conversation returns empty array", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/messages?conversationId=g_nobody", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if w.Body.String() != "[]" {
			t.Errorf("expected empty JSON array, got %s", w.Body.String())
		}
	})

	t.Run("messages come back oldest first", func(t *testing.T) {
		for _, content := range []string{"first", "second", "third"} {
			w := doJSON(r, http.MethodPost, "/messages", "", gin.H{
				"conversationId": "g_order",
				"senderRole":     "guest",
				"content":        content,
			})
			if w.Code != http.StatusCreated {
				t.Fatalf("seed post failed: %d", w.Code)
			}
		}

		w := doJSON(r, http.MethodGet, "/messages?conversationId=g_order", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var msgs []models.Message
		if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(msgs))
		}
		for i, want := range []string{"first", "second", "third"} {
			if msgs[i].Content != want {
				t.Errorf("position %d: expected %q, got %q", i, want, msgs[i].Content)
			}
		}
	})
}

func TestConversationsStaffOnly(t *testing.T) {
	r, db := setupRouter(t)
	_, memberToken := makeUser(t, db, "m2@example.org", "membertwo", models.RoleMember)
	_, staffToken := makeUser(t, db, "s2@example.org", "stafftwo", models.RoleAdmin)

	if w := doJSON(r, http.MethodGet, "/conversations", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/conversations", memberToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("member: expected 403, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/conversations", staffToken, nil); w.Code != http.StatusOK {
		t.Errorf("staff: expected 200, got %d", w.Code)
	}
}

func TestMarkReadFlow(t *testing.T) {
	r, db := setupRouter(t)
	_, staffToken := makeUser(t, db, "s3@example.org", "staffthree", models.RoleAdmin)

	for _, content := range []string{"anyone there?", "still waiting"} {
		w := doJSON(r, http.MethodPost, "/messages", "", gin.H{
			"conversationId": "g_wait",
			"senderRole":     "guest",
			"senderName":     "Visitor",
			"content":        content,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("seed post failed: %d", w.Code)
		}
	}

	unreadOf := func() int {
		w := doJSON(r, http.MethodGet, "/conversations", staffToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("list conversations: %d", w.Code)
		}
		var convs []models.Conversation
		if err := json.Unmarshal(w.Body.Bytes(), &convs); err != nil {
			t.Fatalf("decode: %v", err)
		}
		for _, c := range convs {
			if c.ConversationID == "g_wait" {
				return c.UnreadCount
			}
		}
		t.Fatal("conversation g_wait not listed")
		return -1
	}

	if n := unreadOf(); n != 2 {
		t.Fatalf("expected 2 unread before mark, got %d", n)
	}

	w := doJSON(r, http.MethodPost, "/conversations/g_wait/read", staffToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark read: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var out struct {
		Updated int64 `json:"updated"`
	}
	json.Unmarshal(w.Body.Bytes(), &out)
	if out.Updated != 2 {
		t.Errorf("expected 2 rows marked, got %d", out.Updated)
	}

	if n := unreadOf(); n != 0 {
		t.Errorf("expected 0 unread after mark, got %d", n)
	}
}
