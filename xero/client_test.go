package xero

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, apiURL string, identityURL string, cfg Config) *Client {
	t.Helper()
	t.Setenv("XERO_API_BASE_URL", apiURL)
	t.Setenv("XERO_IDENTITY_URL", identityURL)
	t.Setenv("XERO_RATE_LIMIT_PER_MIN", "60000")

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestSearchContacts_SendsAuthAndFilter(t *testing.T) {
	var gotAuth, gotTenant, gotWhere string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get("Xero-Tenant-Id")
		gotWhere = r.URL.Query().Get("where")
		_ = json.NewEncoder(w).Encode(contactsEnvelope{Contacts: []Contact{{ContactID: "c-1", Name: "Jane"}}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, srv.URL+"/token", Config{
		TenantId:    "tenant-1",
		AccessToken: "tok-1",
	})

	contacts, err := client.SearchContacts(context.Background(), EqualsFilter("EmailAddress", "jane@example.com"))
	if err != nil {
		t.Fatalf("SearchContacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].ContactID != "c-1" {
		t.Fatalf("unexpected contacts %+v", contacts)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotTenant != "tenant-1" {
		t.Fatalf("unexpected tenant header %q", gotTenant)
	}
	if gotWhere != `EmailAddress=="jane@example.com"` {
		t.Fatalf("unexpected where filter %q", gotWhere)
	}
}

func TestEnsureToken_RefreshesAndPersistsRotation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "refresh_token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		user, pass, _ := r.BasicAuth()
		if user != "client-1" || pass != "secret-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "tok-new",
			RefreshToken: "refresh-new",
			ExpiresIn:    1800,
		})
	})
	mux.HandleFunc("/Contacts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(contactsEnvelope{Contacts: []Contact{{ContactID: "c-1", Name: "Jane"}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var persisted []string
	client := newTestClient(t, srv.URL, srv.URL+"/token", Config{
		TenantId:     "tenant-1",
		ClientId:     "client-1",
		ClientSecret: "secret-1",
		AccessToken:  "tok-stale",
		RefreshToken: "refresh-old",
		TokenExpiry:  time.Now().Add(-time.Hour),
		OnTokenRefresh: func(accessToken string, refreshToken string, expiresAt time.Time) error {
			persisted = []string{accessToken, refreshToken}
			return nil
		},
	})

	contacts, err := client.SearchContacts(context.Background(), "")
	if err != nil {
		t.Fatalf("SearchContacts after refresh: %v", err)
	}
	if len(contacts) != 1 {
		t.Fatalf("unexpected contacts %+v", contacts)
	}
	if len(persisted) != 2 || persisted[0] != "tok-new" || persisted[1] != "refresh-new" {
		t.Fatalf("expected rotated triple persisted, got %v", persisted)
	}
}

func TestCreateContacts_UsesPut(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		var envelope contactsEnvelope
		_ = json.NewDecoder(r.Body).Decode(&envelope)
		for i := range envelope.Contacts {
			envelope.Contacts[i].ContactID = "c-1"
		}
		_ = json.NewEncoder(w).Encode(envelope)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, srv.URL+"/token", Config{TenantId: "tenant-1", AccessToken: "tok-1"})

	out, err := client.CreateContacts(context.Background(), []Contact{{Name: "Jane - Order:7"}})
	if err != nil {
		t.Fatalf("CreateContacts: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}
	if len(out) != 1 || out[0].ContactID != "c-1" {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestEqualsFilter_EscapesQuotes(t *testing.T) {
	got := EqualsFilter("Name", `Acme "North" Ltd`)
	want := `Name=="Acme \"North\" Ltd"`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
