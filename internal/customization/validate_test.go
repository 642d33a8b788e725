package customization

import (
	"encoding/base64"
	"strings"
	"testing"
)

func validImageB64() string {
	return base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
}

func validCreatePayload() map[string]any {
	return map[string]any{
		"name": "Test Chess Set",
		"pieces": []any{
			map[string]any{
				"type":      "pawn",
				"color":     "white",
				"imageData": validImageB64(),
			},
		},
	}
}

func TestValidateCreateAcceptsMinimalPayload(t *testing.T) {
	cmd, result := ValidateCreate(validCreatePayload())
	if !result.Valid {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
	if cmd.Name != "Test Chess Set" {
		t.Fatalf("unexpected name: %q", cmd.Name)
	}
	if len(cmd.Pieces) != 1 {
		t.Fatalf("expected one piece, got %d", len(cmd.Pieces))
	}
	if cmd.Pieces[0].Type != PieceTypePawn || cmd.Pieces[0].Color != PieceColorWhite {
		t.Fatalf("unexpected piece: %+v", cmd.Pieces[0])
	}
}

func TestValidateCreateRejectsNilPayload(t *testing.T) {
	_, result := ValidateCreate(nil)
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "Request body is required" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
}

func TestValidateCreateRequiresName(t *testing.T) {
	payload := validCreatePayload()
	delete(payload, "name")
	_, result := ValidateCreate(payload)
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if !containsMessage(result.Errors, "Name is required and must be a non-empty string") {
		t.Fatalf("missing name violation, got: %v", result.Errors)
	}
}

func TestValidateCreateRejectsBlankName(t *testing.T) {
	payload := validCreatePayload()
	payload["name"] = "   "
	_, result := ValidateCreate(payload)
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if !containsMessage(result.Errors, "Name is required and must be a non-empty string") {
		t.Fatalf("missing name violation, got: %v", result.Errors)
	}
}

func TestValidateCreateRequiresPieces(t *testing.T) {
	payload := validCreatePayload()
	payload["pieces"] = []any{}
	_, result := ValidateCreate(payload)
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if !containsMessage(result.Errors, "At least one chess piece is required") {
		t.Fatalf("missing pieces violation, got: %v", result.Errors)
	}
}

func TestValidateCreateCollectsEveryViolation(t *testing.T) {
	payload := map[string]any{
		"description": 42,
		"pieces": []any{
			map[string]any{"type": "invalid-piece", "color": "green", "imageData": "!!!"},
			map[string]any{"type": "rook", "color": "black", "imageData": validImageB64()},
			map[string]any{"type": "queen", "color": "white"},
		},
	}
	_, result := ValidateCreate(payload)
	if result.Valid {
		t.Fatal("expected invalid result")
	}

	expected := []string{
		"Name is required and must be a non-empty string",
		"Description must be a string",
		"Piece at index 0: type must be one of: pawn, rook, knight, bishop, queen, king",
		"Piece at index 0: color must be one of: white, black",
		"Piece at index 0: imageData must be a valid base64 encoded string",
		"Piece at index 2: imageData is required",
	}
	for _, message := range expected {
		if !containsMessage(result.Errors, message) {
			t.Fatalf("expected violation %q, got: %v", message, result.Errors)
		}
	}
	if len(result.Errors) != len(expected) {
		t.Fatalf("expected %d violations, got %d: %v", len(expected), len(result.Errors), result.Errors)
	}
}

func TestValidateUpdateRequiresAtLeastOneField(t *testing.T) {
	_, result := ValidateUpdate(map[string]any{})
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "At least one field (name, description, boardImage, or pieces) must be provided for update" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
}

func TestValidateUpdateRejectsNilPayload(t *testing.T) {
	_, result := ValidateUpdate(nil)
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "Request body is required" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
}

func TestValidateUpdateAppliesCreateRulesToPresentFields(t *testing.T) {
	_, result := ValidateUpdate(map[string]any{"name": ""})
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if !containsMessage(result.Errors, "Name is required and must be a non-empty string") {
		t.Fatalf("missing name violation, got: %v", result.Errors)
	}
}

func TestValidateUpdateAcceptsPieceReplacement(t *testing.T) {
	cmd, result := ValidateUpdate(map[string]any{
		"pieces": []any{
			map[string]any{"type": "king", "color": "black", "imageData": validImageB64()},
		},
	})
	if !result.Valid {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
	if cmd.Name != nil || cmd.Description != nil || cmd.BoardImage != nil {
		t.Fatalf("expected only pieces to be set: %+v", cmd)
	}
	if len(cmd.Pieces) != 1 || cmd.Pieces[0].Type != PieceTypeKing {
		t.Fatalf("unexpected pieces: %+v", cmd.Pieces)
	}
}

func TestValidateCreateRejectsOversizedBoardImage(t *testing.T) {
	payload := validCreatePayload()
	payload["boardImage"] = oversizedBase64()
	_, result := ValidateCreate(payload)
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if !containsMessage(result.Errors, "boardImage exceeds the maximum size of 100KB") {
		t.Fatalf("missing size violation, got: %v", result.Errors)
	}
}

func TestIsValidBase64(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "plain", value: "AQID", want: true},
		{name: "data uri prefix", value: "data:image/svg+xml;base64,AQID", want: true},
		{name: "empty", value: "", want: false},
		{name: "length not multiple of four", value: "AQI", want: false},
		{name: "invalid character", value: "AQI!", want: false},
		{name: "padding only", value: "====", want: false},
		{name: "prefix with empty remainder", value: "data:image/png;base64,", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isValidBase64(tc.value); got != tc.want {
				t.Fatalf("isValidBase64(%q) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestWithinImageSizeLimitBoundary(t *testing.T) {
	// 102400 decoded bytes encode to 136536 characters with two padding
	// bytes, which sits exactly on the limit.
	atLimit := strings.Repeat("A", 136534) + "=="
	if !withinImageSizeLimit(atLimit) {
		t.Fatal("expected payload at the 100KB boundary to pass")
	}

	if withinImageSizeLimit(oversizedBase64()) {
		t.Fatal("expected payload over the 100KB boundary to fail")
	}
}

func oversizedBase64() string {
	// 136536 unpadded characters estimate to 102402 decoded bytes.
	return strings.Repeat("A", 136536)
}

func containsMessage(messages []string, wanted string) bool {
	for _, message := range messages {
		if message == wanted {
			return true
		}
	}
	return false
}
