package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mailroom-dev/mailroom/internal/domain"
	"github.com/mailroom-dev/mailroom/internal/store"
	"github.com/mailroom-dev/mailroom/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*sqlite.DB, *domain.Account) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	account := &domain.Account{
		EmailAddress: "user@gmail.com",
		IMAPHost:     "imap.gmail.com",
		IMAPPort:     993,
		Username:     "user@gmail.com",
	}
	if err := db.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount() error: %v", err)
	}
	return db, account
}

func saveTestCredential(t *testing.T, db store.Store, accountID int64, expiry time.Time, refreshToken string) {
	t.Helper()
	err := db.SaveOAuthCredential(context.Background(), &domain.OAuthCredential{
		AccountID:    accountID,
		Provider:     Provider,
		AccessToken:  "stored-token",
		RefreshToken: refreshToken,
		Expiry:       expiry,
	})
	if err != nil {
		t.Fatalf("SaveOAuthCredential() error: %v", err)
	}
}

func encodeBody(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func apiMessage(id string) *gmailapi.Message {
	return &gmailapi.Message{
		Id: id,
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "Subject", Value: "subject " + id},
				{Name: "from", Value: "sender@example.org"},
				{Name: "To", Value: "user@gmail.com"},
				{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 -0700"},
			},
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("plain " + id)}},
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{
					Data: encodeBody(`<p>html ` + id + `</p><img src="https://x.example/` + id + `.png">`),
				}},
			},
		},
	}
}

// fakeGmail serves the listing and per-message endpoints plus a token
// endpoint for refresh grants.
func fakeGmail(t *testing.T, listed []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/token"):
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "fresh-token",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case strings.HasSuffix(r.URL.Path, "/profile"):
			json.NewEncoder(w).Encode(&gmailapi.Profile{EmailAddress: "user@gmail.com"})
		case strings.HasSuffix(r.URL.Path, "/messages"):
			resp := &gmailapi.ListMessagesResponse{}
			for _, id := range listed {
				resp.Messages = append(resp.Messages, &gmailapi.Message{Id: id})
			}
			json.NewEncoder(w).Encode(resp)
		default:
			json.NewEncoder(w).Encode(apiMessage(path.Base(r.URL.Path)))
		}
	}))
}

func testOAuthConfig(ts *httptest.Server) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint:     oauth2.Endpoint{TokenURL: ts.URL + "/token"},
	}
}

func TestSync_DeduplicatesByExternalID(t *testing.T) {
	ts := fakeGmail(t, []string{"a", "b", "a"})
	defer ts.Close()

	db, account := newTestStore(t)
	saveTestCredential(t, db, account.ID, time.Now().Add(time.Hour), "")
	ctx := context.Background()

	driver := New(db, testLogger(), account, testOAuthConfig(ts), 50, option.WithEndpoint(ts.URL))
	result, err := driver.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if result.Fetched != 2 || result.Skipped != 1 {
		t.Errorf("Sync() = %+v, want fetched 2 skipped 1", result)
	}

	// Synthetic sequences continue above the watermark.
	watermark, err := db.HighestSequence(ctx, account.ID)
	if err != nil {
		t.Fatalf("HighestSequence() error: %v", err)
	}
	if watermark != 2 {
		t.Errorf("watermark = %d, want 2", watermark)
	}

	msgs, err := db.ListMessages(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("ListMessages() error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("stored messages = %d, want 2", len(msgs))
	}
	for _, m := range msgs {
		if m.ExternalID == "" {
			t.Errorf("message %d has empty external id", m.ID)
		}
		if strings.Contains(m.BodyHTMLSanitized, "<img") {
			t.Errorf("sanitized body still has img: %q", m.BodyHTMLSanitized)
		}
		if m.BodyPlain == "" {
			t.Errorf("message %d has empty plain body", m.ID)
		}
		srcs, err := db.ListImageSources(ctx, m.ID)
		if err != nil {
			t.Fatalf("ListImageSources() error: %v", err)
		}
		if len(srcs) != 1 {
			t.Errorf("message %d image sources = %d, want 1", m.ID, len(srcs))
		}
	}
}

func TestSync_ResyncSkipsEverything(t *testing.T) {
	ts := fakeGmail(t, []string{"a", "b"})
	defer ts.Close()

	db, account := newTestStore(t)
	saveTestCredential(t, db, account.ID, time.Now().Add(time.Hour), "")

	driver := New(db, testLogger(), account, testOAuthConfig(ts), 50, option.WithEndpoint(ts.URL))
	if _, err := driver.Sync(context.Background()); err != nil {
		t.Fatalf("first Sync() error: %v", err)
	}

	result, err := driver.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync() error: %v", err)
	}
	if result.Fetched != 0 || result.Skipped != 2 {
		t.Errorf("second Sync() = %+v, want fetched 0 skipped 2", result)
	}
}

func TestSync_RefreshesExpiredToken(t *testing.T) {
	ts := fakeGmail(t, nil)
	defer ts.Close()

	db, account := newTestStore(t)
	saveTestCredential(t, db, account.ID, time.Now().Add(-time.Hour), "refresh-1")
	ctx := context.Background()

	driver := New(db, testLogger(), account, testOAuthConfig(ts), 50, option.WithEndpoint(ts.URL))
	if _, err := driver.Sync(ctx); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	cred, err := db.GetOAuthCredential(ctx, account.ID, Provider)
	if err != nil {
		t.Fatalf("GetOAuthCredential() error: %v", err)
	}
	if cred.AccessToken != "fresh-token" {
		t.Errorf("AccessToken = %q, want fresh-token", cred.AccessToken)
	}
	if cred.RefreshToken != "refresh-1" {
		t.Errorf("RefreshToken = %q, want the original refresh-1", cred.RefreshToken)
	}
	if !cred.Expiry.After(time.Now()) {
		t.Errorf("Expiry = %v, want in the future", cred.Expiry)
	}
}

func TestSync_StaleTokenWithoutRefreshIsAttempted(t *testing.T) {
	ts := fakeGmail(t, nil)
	defer ts.Close()

	db, account := newTestStore(t)
	saveTestCredential(t, db, account.ID, time.Now().Add(-time.Hour), "")

	driver := New(db, testLogger(), account, testOAuthConfig(ts), 50, option.WithEndpoint(ts.URL))
	result, err := driver.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if result.Fetched != 0 || result.Skipped != 0 {
		t.Errorf("Sync() = %+v, want zero result", result)
	}
}

func TestSync_WithoutCredential(t *testing.T) {
	db, account := newTestStore(t)

	driver := New(db, testLogger(), account, &oauth2.Config{}, 50)
	if _, err := driver.Sync(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Sync() error = %v, want ErrNotFound", err)
	}
}

func TestExchangeCode_CreatesAccountAndCredential(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/token"):
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "exchanged-token",
				"token_type":    "Bearer",
				"expires_in":    3600,
				"refresh_token": "refresh-xyz",
			})
		case strings.HasSuffix(r.URL.Path, "/profile"):
			json.NewEncoder(w).Encode(&gmailapi.Profile{EmailAddress: "linked@gmail.com"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := testOAuthConfig(ts)
	ctx := context.Background()

	result, err := ExchangeCode(ctx, cfg, db, "auth-code", option.WithEndpoint(ts.URL))
	if err != nil {
		t.Fatalf("ExchangeCode() error: %v", err)
	}
	if result.EmailAddress != "linked@gmail.com" {
		t.Errorf("EmailAddress = %q, want linked@gmail.com", result.EmailAddress)
	}

	account, err := db.GetAccount(ctx, result.AccountID)
	if err != nil {
		t.Fatalf("GetAccount() error: %v", err)
	}
	if account.EmailAddress != "linked@gmail.com" || account.IMAPHost != "imap.gmail.com" {
		t.Errorf("account = %+v", account)
	}

	cred, err := db.GetOAuthCredential(ctx, result.AccountID, Provider)
	if err != nil {
		t.Fatalf("GetOAuthCredential() error: %v", err)
	}
	if cred.AccessToken != "exchanged-token" || cred.RefreshToken != "refresh-xyz" {
		t.Errorf("credential = %+v", cred)
	}
}

func TestFindHeader_CaseInsensitive(t *testing.T) {
	headers := apiMessage("x").Payload.Headers
	if got := findHeader(headers, "From"); got != "sender@example.org" {
		t.Errorf("findHeader(From) = %q", got)
	}
	if got := findHeader(headers, "SUBJECT"); got != "subject x" {
		t.Errorf("findHeader(SUBJECT) = %q", got)
	}
	if got := findHeader(headers, "Reply-To"); got != "" {
		t.Errorf("findHeader(Reply-To) = %q, want empty", got)
	}
}

func TestExtractBody_NestedParts(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailapi.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmailapi.MessagePart{
					{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("deep plain")}},
					{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encodeBody("<p>deep html</p>")}},
				},
			},
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("second plain, ignored")}},
		},
	}

	text, html := extractBody(payload)
	if text != "deep plain" {
		t.Errorf("text = %q, want first plain part", text)
	}
	if html != "<p>deep html</p>" {
		t.Errorf("html = %q", html)
	}
}

func TestAuthURL_IncludesState(t *testing.T) {
	cfg := OAuthConfig("cid", "secret", "http://localhost/cb")
	url, state := AuthURL(cfg)
	if state == "" {
		t.Fatal("empty state")
	}
	if !strings.Contains(url, "state="+state) {
		t.Errorf("auth url %q missing state %q", url, state)
	}
	if !strings.Contains(url, "access_type=offline") {
		t.Errorf("auth url %q missing offline access", url)
	}
}
