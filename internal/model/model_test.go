package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSession_IsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"無期限", time.Time{}, false},
		{"期限前", now.Add(time.Second), false},
		{"期限ちょうど", now, true},
		{"期限後", now.Add(-time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{ID: "t", UserID: "0", ExpiresAt: tt.expiresAt}
			if got := s.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddItemOutcome_String(t *testing.T) {
	tests := []struct {
		outcome AddItemOutcome
		want    string
	}{
		{AddItemInserted, "inserted"},
		{AddItemAlreadyPresent, "already_present"},
		{AddItemOutcome(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("AddItemOutcome(%d).String() = %q, want %q", int(tt.outcome), got, tt.want)
		}
	}
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("rename failed: %w", NewForbiddenError("L1"))

	if !HasCode(wrapped, ErrCodeForbidden) {
		t.Error("HasCode should find a wrapped APIError")
	}
	if HasCode(wrapped, ErrCodeListNotFound) {
		t.Error("HasCode should not match a different code")
	}
	if HasCode(errors.New("plain"), ErrCodeForbidden) {
		t.Error("HasCode should be false for non-APIError")
	}
	if HasCode(nil, ErrCodeForbidden) {
		t.Error("HasCode(nil) should be false")
	}
}

func TestAPIError_Constructors(t *testing.T) {
	tests := []struct {
		err      *APIError
		code     string
		category string
	}{
		{NewUnauthorizedError(), ErrCodeUnauthorized, "auth"},
		{NewForbiddenError("L1"), ErrCodeForbidden, "auth"},
		{NewListNotFoundError("L1"), ErrCodeListNotFound, "list"},
		{NewListItemNotFoundError("L1", "p"), ErrCodeListItemNotFound, "list"},
		{NewInvalidRequestError("bad"), ErrCodeInvalidRequest, "validation"},
		{NewUpstreamAuthFailedError(), ErrCodeUpstreamAuthFailed, "auth"},
		{NewInternalError(), ErrCodeInternal, "system"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Category != tt.category {
				t.Errorf("Category = %q, want %q", tt.err.Category, tt.category)
			}
			if tt.err.Message == "" || tt.err.Action == "" {
				t.Error("Message and Action must be set")
			}
			if want := "[" + tt.code + "] " + tt.err.Message; tt.err.Error() != want {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), want)
			}
		})
	}
}
