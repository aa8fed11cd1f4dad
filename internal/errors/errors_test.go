package errors

import (
	"errors"
	"io/fs"
	"testing"
)

func TestConfigReadError(t *testing.T) {
	err := NewConfigReadError("Assets/mcs.rsp", fs.ErrNotExist)

	if err.Type != ErrorTypeConfigRead {
		t.Errorf("Expected Type to be ErrorTypeConfigRead, got %v", err.Type)
	}

	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected error to unwrap to fs.ErrNotExist")
	}

	expectedMsg := "cannot read response file Assets/mcs.rsp: file does not exist"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestDocumentParseError(t *testing.T) {
	underlying := errors.New("unexpected EOF")

	err := NewDocumentParseError("", 12, underlying)
	if err.Error() != "parse error at <input>:12: unexpected EOF" {
		t.Errorf("Unexpected message %q", err.Error())
	}

	err = err.WithPath("Assembly-CSharp.csproj")
	if err.Error() != "parse error at Assembly-CSharp.csproj:12: unexpected EOF" {
		t.Errorf("Unexpected message %q", err.Error())
	}

	noLine := NewDocumentParseError("a.csproj", 0, underlying)
	if noLine.Error() != "parse error in a.csproj: unexpected EOF" {
		t.Errorf("Unexpected message %q", noLine.Error())
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	var target *DocumentParseError
	if !errors.As(error(err), &target) {
		t.Errorf("Expected errors.As to find DocumentParseError")
	}
}

func TestPatchSkipped(t *testing.T) {
	err := NewPatchSkipped("defines", "no DefineConstants element with a value")

	if err.Type != ErrorTypePatchSkipped {
		t.Errorf("Expected Type to be ErrorTypePatchSkipped, got %v", err.Type)
	}

	if err.Error() != "patch defines skipped: no DefineConstants element with a value" {
		t.Errorf("Unexpected message %q", err.Error())
	}

	if !IsPatchSkipped(err) {
		t.Errorf("Expected IsPatchSkipped to be true")
	}

	wrapped := NewMultiError([]error{errors.New("other"), err})
	if !IsPatchSkipped(wrapped) {
		t.Errorf("Expected IsPatchSkipped to see through MultiError")
	}

	if IsPatchSkipped(errors.New("plain")) {
		t.Errorf("Expected IsPatchSkipped to be false for plain errors")
	}
}

func TestFileError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{"not found", fs.ErrNotExist, ErrorTypeFileNotFound},
		{"permission", fs.ErrPermission, ErrorTypePermission},
		{"other", errors.New("disk full"), ErrorTypeFileIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFileError("write", "/tmp/x.csproj", tt.err)
			if err.Type != tt.expected {
				t.Errorf("Expected Type %v, got %v", tt.expected, err.Type)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("Expected error to unwrap to underlying error")
			}
		})
	}

	err := NewFileError("read", "/tmp/x.csproj", fs.ErrNotExist)
	expectedMsg := "file read failed for /tmp/x.csproj: file does not exist"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("must not be empty")
	err := NewConfigError("discovery.projects", "", underlying)

	expectedMsg := "config error for field discovery.projects (value ): must not be empty"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	multi := NewMultiError([]error{err1, nil, err2})
	if len(multi.Errors) != 2 {
		t.Errorf("Expected 2 errors after filtering nil, got %d", len(multi.Errors))
	}

	if !errors.Is(multi, err1) || !errors.Is(multi, err2) {
		t.Errorf("Expected MultiError to match both wrapped errors")
	}

	single := NewMultiError([]error{err1})
	if single.Error() != "error 1" {
		t.Errorf("Expected single error message, got %q", single.Error())
	}

	empty := NewMultiError(nil)
	if empty.Error() != "no errors" {
		t.Errorf("Expected 'no errors', got %q", empty.Error())
	}
	if empty.ErrorOrNil() != nil {
		t.Errorf("Expected ErrorOrNil to return nil for empty MultiError")
	}
	if multi.ErrorOrNil() == nil {
		t.Errorf("Expected ErrorOrNil to return the MultiError")
	}
}
