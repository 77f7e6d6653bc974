package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrBadRequest,
		ErrSyntax,
		ErrSelectionTooLarge,
		ErrNothingToUndo,
		ErrNothingToRedo,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestIsRequest(t *testing.T) {
	for _, typ := range []string{TypeWand, TypeClearWand, TypeCount, TypeFill, TypeUndo, TypeRedo} {
		if !IsRequest(typ) {
			t.Fatalf("%s should be a request", typ)
		}
	}
	for _, typ := range []string{TypeHello, TypeWelcome, TypeResult, TypeError, ""} {
		if IsRequest(typ) {
			t.Fatalf("%q should not be a request", typ)
		}
	}
}
