package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		UserID:  1,
		IsAdmin: true,
		TokenID: 3,
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.UserID != 1 {
		t.Errorf("UserID = %d, want 1", got.UserID)
	}
	if !got.IsAdmin {
		t.Error("IsAdmin = false, want true")
	}
	if got.TokenID != 3 {
		t.Errorf("TokenID = %d, want 3", got.TokenID)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestUserID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{UserID: 7})
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
}

func TestUserIDMissing(t *testing.T) {
	if UserID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(WithAuth(context.Background(), AuthContext{IsAdmin: true})) {
		t.Error("expected IsAdmin = true")
	}
	if IsAdmin(WithAuth(context.Background(), AuthContext{UserID: 1})) {
		t.Error("expected IsAdmin = false for regular user")
	}
	if IsAdmin(context.Background()) {
		t.Error("expected IsAdmin = false for missing context")
	}
}

func TestCanModify(t *testing.T) {
	tests := []struct {
		name  string
		ctx   context.Context
		owner int64
		want  bool
	}{
		{"owner", WithAuth(context.Background(), AuthContext{UserID: 5}), 5, true},
		{"other user", WithAuth(context.Background(), AuthContext{UserID: 6}), 5, false},
		{"admin", WithAuth(context.Background(), AuthContext{UserID: 6, IsAdmin: true}), 5, true},
		{"anonymous", context.Background(), 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModify(tt.ctx, tt.owner); got != tt.want {
				t.Errorf("CanModify = %v, want %v", got, tt.want)
			}
		})
	}
}
