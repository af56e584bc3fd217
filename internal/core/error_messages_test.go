package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		client   bool
	}{
		{"unsupported format", fmt.Errorf("%w: notes.txt", ErrUnsupportedFormat), "FILE001", true},
		{"parse", fmt.Errorf("%w: open workbook", ErrParse), "FILE002", true},
		{"legacy container", fmt.Errorf("%w: open xls container: bad signature", ErrParse), "FILE002", true},
		{"no file", ErrNoFile, "FILE004", true},
		{"too large", ErrFileTooLarge, "FILE005", true},
		{"unknown endpoint", fmt.Errorf("%w: widgets", ErrUnknownEndpoint), "IMP001", true},
		{"busy", ErrTooManyImports, "IMP002", false},
		{"cancelled", context.Canceled, "IMP003", false},
		{"deadline", fmt.Errorf("upsert: %w", context.DeadlineExceeded), "IMP004", false},
		{"postgres down", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB001", false},
		{"mongo down", errors.New("server selection error: context deadline"), "DB001", false},
		{"driver timeout", errors.New("i/o timeout"), "DB002", false},
		{"anything else", errors.New("boom"), "ERR000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message == "" || got.Action == "" {
				t.Errorf("MapError() = %+v, want message and action", got)
			}
			if IsClientError(tt.err) != tt.client {
				t.Errorf("IsClientError() = %v, want %v", IsClientError(tt.err), tt.client)
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if got := MapError(nil); got != (UserMessage{}) {
		t.Errorf("MapError(nil) = %+v, want zero", got)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrNoFile)
	want := "No file was selected (Code: FILE004). Attach the file in the 'file' form field"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}
