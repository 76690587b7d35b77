package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindConfig, "configuration"},
		{KindValidation, "validation"},
		{KindPermission, "permission"},
		{KindNotFound, "not_found"},
		{KindConflict, "conflict"},
		{KindConcurrentModification, "concurrent_modification"},
		{KindDependency, "dependency"},
		{KindIO, "io"},
		{KindCanceled, "canceled"},
		{KindInternal, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "op and message",
			err:  NotFound("doctorate.Get", "doctorate not found"),
			want: "doctorate.Get: doctorate not found",
		},
		{
			name: "op, message and cause",
			err:  Wrap(fmt.Errorf("disk full"), KindIO, "sqlite.Save", "write failed"),
			want: "sqlite.Save: write failed: disk full",
		},
		{
			name: "message only",
			err:  New(KindInternal, "boom"),
			want: "boom",
		},
		{
			name: "message and cause",
			err:  &Error{Kind: KindInternal, Message: "outer", Err: fmt.Errorf("inner")},
			want: "outer: inner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := Permission("jury.ApproveByCDD", "caller is not a CDD manager")

	if !errors.Is(err, &Error{Kind: KindPermission}) {
		t.Error("errors.Is should match sentinel by kind")
	}
	if errors.Is(err, &Error{Kind: KindNotFound}) {
		t.Error("errors.Is should not match a different kind")
	}
	if errors.Is(err, &Error{Kind: KindPermission, Op: "other"}) {
		t.Error("errors.Is should compare op when the target has one")
	}
}

func TestGetKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"structured", NotFound("op", "missing"), KindNotFound},
		{"wrapped structured", fmt.Errorf("ctx: %w", Permission("op", "no")), KindPermission},
		{"business", NewBusinessError("JURY-7", "promoter cannot preside"), KindValidation},
		{"multiple business", &MultipleBusinessErrors{Errors: []*BusinessError{NewBusinessError("X-1", "x")}}, KindValidation},
		{"plain", fmt.Errorf("plain"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetKind(tt.err); got != tt.want {
				t.Errorf("GetKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConcurrentModification(t *testing.T) {
	err := ConcurrentModification("memory.Commit", "abc", 3, 4)

	if !IsKind(err, KindConcurrentModification) {
		t.Fatalf("IsKind() = false, want true")
	}
	if err.Details["expected_version"] != 3 || err.Details["actual_version"] != 4 {
		t.Errorf("Details = %v, want expected 3 and actual 4", err.Details)
	}
}

func TestCollector(t *testing.T) {
	t.Run("empty collector yields nil", func(t *testing.T) {
		var c Collector
		c.Add(nil)
		if err := c.Err(); err != nil {
			t.Errorf("Err() = %v, want nil", err)
		}
	})

	t.Run("accumulates and flattens", func(t *testing.T) {
		var c Collector
		c.Add(NewBusinessError("PARCOURS-DOCTORAL-12", "missing promoter"))
		c.Add(&MultipleBusinessErrors{Errors: []*BusinessError{
			NewBusinessError("PARCOURS-DOCTORAL-13", "missing CA member"),
			NewBusinessError("PARCOURS-DOCTORAL-16", "missing reference promoter"),
		}})
		c.Add(fmt.Errorf("loose"))

		err := c.Err()
		if c.Len() != 4 {
			t.Fatalf("Len() = %d, want 4", c.Len())
		}
		want := []string{"PARCOURS-DOCTORAL-12", "PARCOURS-DOCTORAL-13", "PARCOURS-DOCTORAL-16", "UNCLASSIFIED"}
		got := BusinessCodes(err)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("BusinessCodes()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
		if !HasCode(err, "PARCOURS-DOCTORAL-16") {
			t.Error("HasCode() = false, want true")
		}
		if !errors.Is(err, NewBusinessError("PARCOURS-DOCTORAL-13", "")) {
			t.Error("errors.Is should reach nested business errors")
		}
	})
}
