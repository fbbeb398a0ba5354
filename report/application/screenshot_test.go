package application

import (
	"encoding/base64"
	"errors"
	"testing"

	"report-gateway/report/domain"
)

func TestDecodeScreenshot(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	enc := base64.StdEncoding.EncodeToString(png)

	cases := []struct {
		name     string
		raw      string
		wantType string
		wantFile string
		wantErr  bool
		wantNil  bool
	}{
		{name: "empty", raw: "", wantNil: true},
		{name: "png data url", raw: "data:image/png;base64," + enc, wantType: "image/png", wantFile: "screenshot.png"},
		{name: "jpeg data url", raw: "data:image/jpeg;base64," + enc, wantType: "image/jpeg", wantFile: "screenshot.jpg"},
		{name: "bare base64", raw: enc, wantType: "image/png", wantFile: "screenshot.png"},
		{name: "not base64 data url", raw: "data:image/png," + enc, wantErr: true},
		{name: "not an image", raw: "data:text/html;base64," + enc, wantErr: true},
		{name: "garbage payload", raw: "data:image/png;base64,!!!", wantErr: true},
		{name: "empty payload", raw: "data:image/png;base64,", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			att, err := decodeScreenshot(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrInvalidScreenshot) {
					t.Fatalf("expected ErrInvalidScreenshot, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantNil {
				if att != nil {
					t.Fatalf("expected no attachment")
				}
				return
			}
			if att.ContentType != tc.wantType || att.Filename != tc.wantFile {
				t.Fatalf("expected %s/%s, got %s/%s", tc.wantType, tc.wantFile, att.ContentType, att.Filename)
			}
			if string(att.Data) != string(png) {
				t.Fatalf("expected decoded bytes, got %v", att.Data)
			}
		})
	}
}
