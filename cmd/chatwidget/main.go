// chatwidget is a terminal client for the support chat: it resolves an
// identity (guest by default, member/staff with -email/-password), opens
// the widget's polling loop against a running server, and sends stdin
// lines as messages.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"CareDesk/models"
	"CareDesk/pkg/identity"
	"CareDesk/pkg/widget"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

func login(server, email, password string) (*loginResponse, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(server+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed: server returned %d", resp.StatusCode)
	}
	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func main() {
	server := flag.String("server", "http://localhost:5000", "chat server base URL")
	email := flag.String("email", "", "account email (empty = anonymous guest)")
	password := flag.String("password", "", "account password")
	name := flag.String("name", "", "display name (guests only)")
	conv := flag.String("conversation", "", "open a specific conversation (staff replying to a visitor)")
	poll := flag.Duration("poll", widget.DefaultPollInterval, "poll interval")
	flag.Parse()

	token := ""
	role := models.RoleGuest
	displayName := *name
	conversationID := *conv

	if *email != "" {
		lr, err := login(*server, *email, *password)
		if err != nil {
			log.Fatalf("login: %v", err)
		}
		token = lr.AccessToken
		role = lr.Role
		if displayName == "" {
			displayName = lr.Username
		}
		if conversationID == "" {
			if role == models.RoleAdmin {
				log.Fatal("staff must pass -conversation to pick a thread")
			}
			conversationID = identity.MemberConversationID(lr.UserID)
		}
	} else if conversationID == "" {
		store, err := identity.DefaultStore()
		if err != nil {
			log.Fatalf("identity store: %v", err)
		}
		conversationID, err = identity.Resolve("", store)
		if err != nil {
			log.Fatalf("resolve identity: %v", err)
		}
	}
	if displayName == "" {
		displayName = models.DefaultSenderName
	}

	w := widget.New(widget.NewClient(*server, token), widget.Options{
		ConversationID: conversationID,
		SenderRole:     role,
		SenderName:     displayName,
		PollInterval:   *poll,
	})

	// print only rows we have not rendered yet; the newest line is
	// always at the bottom, which is the terminal's auto-scroll
	var renderMu sync.Mutex
	printed := 0
	w.OnUpdate = func(entries []widget.Entry) {
		renderMu.Lock()
		defer renderMu.Unlock()
		if len(entries) < printed {
			printed = 0 // list regressed to an older snapshot, repaint
		}
		for _, e := range entries[printed:] {
			marker := ""
			if e.Pending {
				marker = " (sending...)"
			}
			if e.Failed {
				marker = " (FAILED)"
			}
			fmt.Printf("[%s] %s: %s%s\n", e.Message.SenderRole, e.Message.SenderName, e.Message.Content, marker)
		}
		printed = len(entries)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Open(ctx)
	defer w.Close()

	fmt.Printf("connected to %s as %s (%s), conversation %s\n", *server, displayName, role, conversationID)
	fmt.Println("type a message and press enter; Ctrl-D quits")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := w.Send(scanner.Text()); err != nil {
			if err != widget.ErrEmptyMessage {
				log.Printf("send: %v", err)
			}
			continue
		}
		// give the optimistic echo a beat before the next prompt
		time.Sleep(50 * time.Millisecond)
	}
}
