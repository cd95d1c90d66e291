// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/truevote/auth"
	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/db"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
)

// Now is the fixed instant tests run at.
var Now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// Today is the calendar day of Now.
var Today = models.DateOf(Now)

// Clock returns Now.
func Clock() time.Time { return Now }

// SetupTestDB creates a fresh sqlite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.TypeSQLite, filepath.Join(t.TempDir(), "truevote.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(ctx, conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// SetupTestStore returns a store over a fresh test database
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	return store.New(SetupTestDB(t), nil)
}

// GetTestConfig returns a test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file:test.db",
		DatabaseType:     "sqlite",
		TokenSecret:      "test-token-secret",
		QueryTimeout:     5 * time.Second,
		MessageRetention: 24 * time.Hour,
	}
}

func profile(name, email string) models.Profile {
	return models.Profile{ID: uuid.NewString(), Email: email, Name: name, CreatedAt: Now}
}

// CreateTestAdmin inserts an admin account
func CreateTestAdmin(t *testing.T, st store.AccountStore, email string) models.Admin {
	t.Helper()
	a := models.Admin{Profile: profile("Admin", email)}
	if err := st.InsertAccount(context.Background(), a); err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	return a
}

// CreateTestModerator inserts a moderator account
func CreateTestModerator(t *testing.T, st store.AccountStore, email string) models.Moderator {
	t.Helper()
	m := models.Moderator{Profile: profile("Moderator", email)}
	if err := st.InsertAccount(context.Background(), m); err != nil {
		t.Fatalf("Failed to create moderator: %v", err)
	}
	return m
}

// CreateTestVoter whitelists email under mod and inserts a voter account
func CreateTestVoter(t *testing.T, st store.AccountStore, mod models.Moderator, email string) models.Voter {
	t.Helper()
	ctx := context.Background()
	entry := models.VoterEmail{Email: email, ModeratorID: mod.ID, IsUsed: true, CreatedAt: Now}
	if err := st.InsertVoterEmail(ctx, entry); err != nil {
		t.Fatalf("Failed to whitelist voter: %v", err)
	}
	v := models.Voter{Profile: profile("Voter", email), Age: 30, ModeratorID: mod.ID}
	if err := st.InsertAccount(ctx, v); err != nil {
		t.Fatalf("Failed to create voter: %v", err)
	}
	return v
}

// CreateTestPoll inserts a poll open from start until end with the given
// options, bypassing validation so tests can build closed polls.
func CreateTestPoll(t *testing.T, st store.PollStore, creator string, start, end models.Date, options ...string) models.PollDetails {
	t.Helper()
	ctx := context.Background()

	p := models.Poll{
		ID:        uuid.NewString(),
		Title:     "Test Poll",
		CreatedBy: creator,
		StartDate: start,
		EndDate:   end,
		CreatedAt: Now,
	}
	if err := st.InsertPoll(ctx, p); err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}

	details := models.PollDetails{Poll: p}
	for _, text := range options {
		o := models.PollOption{
			ID:      uuid.NewString(),
			PollID:  p.ID,
			Text:    text,
			TextKey: strings.ToLower(text),
		}
		if err := st.InsertOption(ctx, o); err != nil {
			t.Fatalf("Failed to add option: %v", err)
		}
		details.Options = append(details.Options, o)
	}
	return details
}

// CreateOpenPoll is CreateTestPoll for a poll open today for a week
func CreateOpenPoll(t *testing.T, st store.PollStore, creator string, options ...string) models.PollDetails {
	t.Helper()
	return CreateTestPoll(t, st, creator, Today, Today.AddDays(7), options...)
}

// TokenFor issues a bearer token for an account
func TokenFor(t *testing.T, cfg cliparse.Config, a models.Account) string {
	t.Helper()
	token, err := auth.IssueToken(models.ActorFor(a), cfg.TokenSecret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// MakeRequest creates and executes an HTTP request
func MakeRequest(t *testing.T, handler http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// Bearer returns an Authorization header map for token
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks the response status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// DecodeEnvelope decodes the response envelope, unmarshalling its data
// into data when data is non-nil
func DecodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data interface{}) models.APIResponse {
	t.Helper()

	var raw struct {
		Success bool                `json:"success"`
		Message string              `json:"message"`
		Data    json.RawMessage     `json:"data"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("Failed to decode response envelope: %v", err)
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("Failed to decode response data: %v", err)
		}
	}
	return models.APIResponse{Success: raw.Success, Message: raw.Message, Errors: raw.Errors}
}
