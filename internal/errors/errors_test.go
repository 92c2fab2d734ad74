package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew_RegisteredCode(t *testing.T) {
	err := New(CodePortExhaustion)

	if err.Code != "E200" {
		t.Errorf("Code = %q, want %q", err.Code, "E200")
	}
	if err.Category != CategoryNetwork {
		t.Errorf("Category = %q, want %q", err.Category, CategoryNetwork)
	}
	if err.Message == "" {
		t.Error("Message should not be empty")
	}
}

func TestNew_UnknownCode(t *testing.T) {
	err := New("E999")

	if err.Code != "E999" {
		t.Errorf("Code = %q, want %q", err.Code, "E999")
	}
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q, want %q", err.Message, "Unknown error")
	}
}

func TestError_String(t *testing.T) {
	err := New(CodeBindFailed)
	if got := err.Error(); !strings.HasPrefix(got, "E201: ") {
		t.Errorf("Error() = %q, want E201 prefix", got)
	}

	err2 := Newf(CategoryCLI, "something broke: %d", 7)
	if err2.Error() != "something broke: 7" {
		t.Errorf("Error() = %q", err2.Error())
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := stderrors.New("address already in use")
	err := New(CodeBindFailed).Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIs_Code(t *testing.T) {
	err := New(CodeProxyBadTarget)

	if !Is(err, CodeProxyBadTarget) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, CodeBindFailed) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), CodeBindFailed) {
		t.Error("Is should not match a plain error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeCompileFailed) != nil {
		t.Error("FromError(nil) should be nil")
	}

	ae := New(CodeCompileFailed)
	if got := FromError(ae, CodeBindFailed); got != ae {
		t.Error("FromError should pass through an AutofeError unchanged")
	}

	wrapped := FromError(stderrors.New("boom"), CodeCompileFailed)
	if wrapped.Code != CodeCompileFailed {
		t.Errorf("Code = %q, want %q", wrapped.Code, CodeCompileFailed)
	}
}

func TestFormatCompact(t *testing.T) {
	err := New(CodeConfigInvalid).Wrap(stderrors.New("unexpected EOF"))
	got := err.FormatCompact()

	if !strings.Contains(got, "E100") || !strings.Contains(got, "unexpected EOF") {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormat_IncludesDetailAndHint(t *testing.T) {
	err := New(CodeConfigUnknownKey).
		WithDetailf("unknown key %q", "devserver").
		WithSuggestion("Did you mean \"devServer\"?")

	got := err.Format()
	if !strings.Contains(got, "devserver") {
		t.Errorf("Format() missing detail: %q", got)
	}
	if !strings.Contains(got, "Did you mean") {
		t.Errorf("Format() missing suggestion: %q", got)
	}
}

func TestRegistry_AllCodesResolvable(t *testing.T) {
	for _, code := range GetAllCodes() {
		if _, ok := GetTemplate(code); !ok {
			t.Errorf("GetTemplate(%q) not found", code)
		}
		if New(code).Message == "Unknown error" {
			t.Errorf("New(%q) fell back to unknown", code)
		}
	}
}
