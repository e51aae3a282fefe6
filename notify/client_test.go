package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend(t *testing.T) {
	var gotReq pushRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(pushResponse{Success: true, Count: 1})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	err := client.Send(context.Background(), "device-token", "Listing approved", "Toumai Market", "Your listing is live.")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotReq.Token != "device-token" || gotReq.Title != "Listing approved" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestSendEmptyToken(t *testing.T) {
	client := NewClient("http://unused", "")
	if err := client.Send(context.Background(), "", "t", "s", "b"); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestBroadcast(t *testing.T) {
	var gotReq pushRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(pushResponse{Success: true, Count: 42})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	count, err := client.Broadcast(context.Background(), "Maintenance", "", "Back at noon.")
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d, want 42", count)
	}
	if gotReq.Token != "" {
		t.Errorf("broadcast request carried token %q", gotReq.Token)
	}
}

func TestBroadcastRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pushResponse{Success: false, Error: "no registered devices"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.Broadcast(context.Background(), "t", "", "b"); err == nil {
		t.Fatal("expected error when function reports failure")
	}
}

func TestBroadcastErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.Broadcast(context.Background(), "t", "", "b"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestDisabledClient(t *testing.T) {
	client := NewClient("", "")
	if err := client.Send(context.Background(), "tok", "t", "s", "b"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Send error = %v, want ErrDisabled", err)
	}
	if _, err := client.Broadcast(context.Background(), "t", "s", "b"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Broadcast error = %v, want ErrDisabled", err)
	}
}
