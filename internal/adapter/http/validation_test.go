package http

import (
	"errors"
	"strings"
	"testing"
)

func TestIdentValidation(t *testing.T) {
	type P struct {
		ProductID string `validate:"ident"`
	}
	cv := NewValidator()

	for _, s := range []string{"P-100", "line.3", "a", "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88"} {
		if err := cv.Validate(P{ProductID: s}); err != nil {
			t.Fatalf("expected valid ident %q, got err: %v", s, err)
		}
	}
	for _, s := range []string{
		"",                      // empty
		"-leading",              // must start alnum
		"with space",            // space
		"slash/inside",          // path separator
		strings.Repeat("x", 65), // too long
	} {
		err := cv.Validate(P{ProductID: s})
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		if !containsFieldMsg(ToFieldErrors(err), "ProductID", "identifier") {
			t.Fatalf("expected ident message for %q, got: %+v", s, ToFieldErrors(err))
		}
	}
}

func TestNotBlankValidation(t *testing.T) {
	type P struct {
		Reason string `validate:"notblank,max=10"`
	}
	cv := NewValidator()

	if err := cv.Validate(P{Reason: " dented "}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	for _, s := range []string{"", "   ", "\t\n"} {
		err := cv.Validate(P{Reason: s})
		if err == nil || !containsFieldMsg(ToFieldErrors(err), "Reason", "must not be blank") {
			t.Fatalf("expected notblank error for %q, got %v", s, err)
		}
	}
	err := cv.Validate(P{Reason: strings.Repeat("x", 11)})
	if err == nil || !containsFieldMsg(ToFieldErrors(err), "Reason", "at most 10") {
		t.Fatalf("expected max error, got %v", err)
	}
}

func TestOpenSessionRequestValidation(t *testing.T) {
	cv := NewValidator()
	tests := []struct {
		name  string
		req   openSessionReq
		field string
		msg   string
	}{
		{"neither", openSessionReq{}, "ProductID", "required when RecordID"},
		{"both", openSessionReq{ProductID: "P-1", RecordID: "r-1"}, "ProductID", "must be empty when RecordID"},
		{"bad product", openSessionReq{ProductID: "P 1"}, "ProductID", "identifier"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := cv.Validate(tc.req)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if fe := ToFieldErrors(err); !containsFieldMsg(fe, tc.field, tc.msg) {
				t.Fatalf("missing %q for %s: %+v", tc.msg, tc.field, fe)
			}
		})
	}
	if err := cv.Validate(openSessionReq{RecordID: "r-1"}); err != nil {
		t.Fatalf("record only must validate: %v", err)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	err := errors.New("boom")
	fe := ToFieldErrors(err)
	if len(fe) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fe))
	}
	if fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe[0])
	}
}
