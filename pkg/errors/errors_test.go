package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{New(ErrCodeInvalidEcosystem, "unknown ecosystem %q", "hex"), `INVALID_ECOSYSTEM: unknown ecosystem "hex"`},
		{Wrap(ErrCodeDecode, fmt.Errorf("line 3: bad key"), "decode %s", "Cargo.lock"), "DECODE_FAILED: decode Cargo.lock: line 3: bad key"},
		{ErrNothingDetected, "NOTHING_DETECTED: no supported ecosystem detected"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWrap_Chain(t *testing.T) {
	err := Wrap(ErrCodeFileNotFound, fs.ErrNotExist, "open %s", "poetry.lock")
	outer := fmt.Errorf("parse pypi: %w", err)

	if !errors.Is(outer, fs.ErrNotExist) {
		t.Error("cause lost through wrapping")
	}
	if !Is(outer, ErrCodeFileNotFound) || Is(outer, ErrCodeDecode) {
		t.Errorf("Is mismatched for %v", outer)
	}
	if GetCode(outer) != ErrCodeFileNotFound {
		t.Errorf("GetCode = %q", GetCode(outer))
	}
	if GetCode(fs.ErrNotExist) != "" || Is(fs.ErrNotExist, ErrCodeFileNotFound) {
		t.Error("plain errors carry no code")
	}
	if Is(nil, ErrCodeInternal) || GetCode(nil) != "" {
		t.Error("nil error carries no code")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Wrap(ErrCodeAssembly, errors.New("cycle"), "assemble document"), "assemble document"},
		{fmt.Errorf("generate: %w", ErrNothingDetected), "no supported ecosystem detected"},
		{errors.New("plain failure"), "plain failure"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrNothingDetected(t *testing.T) {
	wrapped := Wrap(ErrCodeNothingDetected, ErrNothingDetected, "scan %s", "/tmp/project")
	if !errors.Is(wrapped, ErrNothingDetected) {
		t.Error("errors.Is(wrapped, ErrNothingDetected) = false")
	}
	if !Is(ErrNothingDetected, ErrCodeNothingDetected) || Is(ErrNothingDetected, ErrCodeAssembly) {
		t.Error("ErrNothingDetected has the wrong code")
	}
}
