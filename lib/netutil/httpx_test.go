// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"strings"
	"testing"
)

func TestReadResponse(t *testing.T) {
	data, err := ReadResponse(strings.NewReader(`{"ok":true}`))
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestDecodeResponse(t *testing.T) {
	var decoded struct {
		End string `json:"end"`
	}
	if err := DecodeResponse(strings.NewReader(`{"end":"C2"}`), &decoded); err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if decoded.End != "C2" {
		t.Errorf("unexpected end token: %s", decoded.End)
	}

	if err := DecodeResponse(strings.NewReader("not json"), &decoded); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestErrorBody(t *testing.T) {
	if body := ErrorBody(strings.NewReader("gateway timeout")); body != "gateway timeout" {
		t.Errorf("unexpected body: %s", body)
	}
}
