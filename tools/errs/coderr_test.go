package errs

import (
	"testing"

	pkgerr "github.com/pkg/errors"
)

func TestWithDetailKeepsCode(t *testing.T) {
	err := ErrRoomNotFound.WithDetail("id=abc")
	if err.Code != ErrRoomNotFound.Code {
		t.Fatalf("code = %d", err.Code)
	}
	if Code(err) != CodeNotFound {
		t.Fatalf("extracted code = %d", Code(err))
	}
	if !pkgerr.Is(err, ErrRoomNotFound) {
		t.Fatal("detailed error should match its base by code")
	}
	if pkgerr.Is(err, ErrTokenExpired) {
		t.Fatal("errors with different codes must not match")
	}
}

func TestWrapPreservesMatching(t *testing.T) {
	wrapped := Wrap(ErrStorage.WithDetail("update"))
	if !pkgerr.Is(wrapped, ErrStorage) {
		t.Fatalf("wrapped error lost its code: %v", wrapped)
	}
}
