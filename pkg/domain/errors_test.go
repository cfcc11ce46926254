package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"direct", NewError(KindForbidden, "nope"), KindForbidden},
		{"task error", NewTaskError(KindQuotaExceeded, "math-task-doc", "full"), KindQuotaExceeded},
		{"wrapped", fmt.Errorf("request failed: %w", NewError(KindNotFound, "gone")), KindNotFound},
		{"plain error", errors.New("disk on fire"), KindStorageFailure},
		{"nil cause storage", StorageError("write", errors.New("EIO")), KindStorageFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	e := NewTaskError(KindDependencyNotMet, "english-task-video", "upload to english-task-doc first")
	got := e.Error()
	want := "DEPENDENCY_NOT_MET: upload to english-task-doc first (task english-task-video)"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	plain := NewError(KindInvalidRequest, "malformed date")
	if plain.Error() != "INVALID_REQUEST: malformed date" {
		t.Fatalf("Error() = %q", plain.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("EIO")
	e := StorageError("write upload", cause)
	if !errors.Is(e, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
}

func TestIsKind(t *testing.T) {
	err := NewLimitError(KindPayloadTooLarge, "morning-video", 2<<30, "too big")
	if !IsKind(err, KindPayloadTooLarge) {
		t.Fatal("IsKind missed matching kind")
	}
	if IsKind(err, KindQuotaExceeded) {
		t.Fatal("IsKind matched wrong kind")
	}
}
