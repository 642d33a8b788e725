package customization

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// maxImageBytes bounds the decoded size of every base64 image payload.
const maxImageBytes = 102400

const (
	msgBodyRequired        = "Request body is required"
	msgNameRequired        = "Name is required and must be a non-empty string"
	msgDescriptionString   = "Description must be a string"
	msgPiecesRequired      = "At least one chess piece is required"
	msgUpdateFieldRequired = "At least one field (name, description, boardImage, or pieces) must be provided for update"
	msgBoardImageInvalid   = "boardImage must be a valid base64 encoded string"
	msgBoardImageTooLarge  = "boardImage exceeds the maximum size of 100KB"
)

var (
	dataURIPrefixPattern = regexp.MustCompile(`^data:[^;]+;base64,`)
	base64Pattern        = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)
)

// ValidationError carries every rule violation found in a payload. It is the
// failure type handlers translate to an itemized 400 response.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Messages, "; "))
}

// Result reports the outcome of validating one payload. Errors holds every
// violation; validation never stops at the first one.
type Result struct {
	Valid  bool
	Errors []string
}

func newResult(violations []string) Result {
	return Result{Valid: len(violations) == 0, Errors: violations}
}

// Err returns the result as a typed error, or nil when the payload was valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Messages: r.Errors}
}

// ValidateCreate checks an untyped create payload against every field rule
// and, when all pass, converts it into the typed command the service accepts.
func ValidateCreate(payload map[string]any) (CreateCommand, Result) {
	if payload == nil {
		return CreateCommand{}, newResult([]string{msgBodyRequired})
	}

	var violations []string
	var cmd CreateCommand

	name, ok := requireName(payload)
	if !ok {
		violations = append(violations, msgNameRequired)
	}
	cmd.Name = name

	description, errs := optionalDescription(payload)
	violations = append(violations, errs...)
	cmd.Description = description

	boardImage, errs := optionalBoardImage(payload)
	violations = append(violations, errs...)
	cmd.BoardImage = boardImage

	pieces, errs := requirePieces(payload["pieces"])
	violations = append(violations, errs...)
	cmd.Pieces = pieces

	result := newResult(violations)
	if !result.Valid {
		return CreateCommand{}, result
	}
	return cmd, result
}

// ValidateUpdate checks an untyped update payload. At least one updatable
// field must be present; each present field is held to the same rule as on
// create, and a present pieces array fully replaces the stored set.
func ValidateUpdate(payload map[string]any) (UpdateCommand, Result) {
	if payload == nil {
		return UpdateCommand{}, newResult([]string{msgBodyRequired})
	}

	var violations []string
	var cmd UpdateCommand

	_, hasName := payload["name"]
	_, hasDescription := payload["description"]
	_, hasBoardImage := payload["boardImage"]
	_, hasPieces := payload["pieces"]
	if !hasName && !hasDescription && !hasBoardImage && !hasPieces {
		return UpdateCommand{}, newResult([]string{msgUpdateFieldRequired})
	}

	if hasName {
		name, ok := requireName(payload)
		if !ok {
			violations = append(violations, msgNameRequired)
		}
		cmd.Name = &name
	}

	if hasDescription {
		description, errs := optionalDescription(payload)
		violations = append(violations, errs...)
		cmd.Description = description
	}

	if hasBoardImage {
		boardImage, errs := optionalBoardImage(payload)
		violations = append(violations, errs...)
		cmd.BoardImage = boardImage
	}

	if hasPieces {
		pieces, errs := requirePieces(payload["pieces"])
		violations = append(violations, errs...)
		cmd.Pieces = pieces
	}

	result := newResult(violations)
	if !result.Valid {
		return UpdateCommand{}, result
	}
	return cmd, result
}

func requireName(payload map[string]any) (string, bool) {
	raw, ok := payload["name"].(string)
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

func optionalDescription(payload map[string]any) (*string, []string) {
	raw, present := payload["description"]
	if !present {
		return nil, nil
	}
	value, ok := raw.(string)
	if !ok {
		return nil, []string{msgDescriptionString}
	}
	return &value, nil
}

func optionalBoardImage(payload map[string]any) (*string, []string) {
	raw, present := payload["boardImage"]
	if !present {
		return nil, nil
	}
	value, ok := raw.(string)
	if !ok || !isValidBase64(value) {
		return nil, []string{msgBoardImageInvalid}
	}
	if !withinImageSizeLimit(value) {
		return nil, []string{msgBoardImageTooLarge}
	}
	return &value, nil
}

func requirePieces(raw any) ([]PieceInput, []string) {
	entries, ok := raw.([]any)
	if !ok || len(entries) == 0 {
		return nil, []string{msgPiecesRequired}
	}

	var violations []string
	pieces := make([]PieceInput, 0, len(entries))
	for index, entry := range entries {
		piece, errs := validatePiece(index, entry)
		if len(errs) > 0 {
			violations = append(violations, errs...)
			continue
		}
		pieces = append(pieces, piece)
	}
	return pieces, violations
}

func validatePiece(index int, entry any) (PieceInput, []string) {
	fields, ok := entry.(map[string]any)
	if !ok {
		return PieceInput{}, []string{pieceViolation(index, "must be an object")}
	}

	var violations []string
	var piece PieceInput

	pieceType, ok := fields["type"].(string)
	if !ok || !isPieceType(pieceType) {
		violations = append(violations, pieceViolation(index, "type must be one of: pawn, rook, knight, bishop, queen, king"))
	} else {
		piece.Type = PieceType(pieceType)
	}

	pieceColor, ok := fields["color"].(string)
	if !ok || !isPieceColor(pieceColor) {
		violations = append(violations, pieceViolation(index, "color must be one of: white, black"))
	} else {
		piece.Color = PieceColor(pieceColor)
	}

	imageData, ok := fields["imageData"].(string)
	switch {
	case !ok || strings.TrimSpace(imageData) == "":
		violations = append(violations, pieceViolation(index, "imageData is required"))
	case !isValidBase64(imageData):
		violations = append(violations, pieceViolation(index, "imageData must be a valid base64 encoded string"))
	case !withinImageSizeLimit(imageData):
		violations = append(violations, pieceViolation(index, "imageData exceeds the maximum size of 100KB"))
	default:
		piece.ImageData = imageData
	}

	return piece, violations
}

func pieceViolation(index int, message string) string {
	return fmt.Sprintf("Piece at index %d: %s", index, message)
}

func isPieceType(value string) bool {
	for _, pieceType := range PieceTypes {
		if value == string(pieceType) {
			return true
		}
	}
	return false
}

func isPieceColor(value string) bool {
	for _, pieceColor := range PieceColors {
		if value == string(pieceColor) {
			return true
		}
	}
	return false
}

// isValidBase64 reports whether value is non-empty base64 content after an
// optional data-URI prefix: base64 alphabet only, length a multiple of 4,
// and decodable.
func isValidBase64(value string) bool {
	stripped := stripDataURIPrefix(value)
	if stripped == "" {
		return false
	}
	if len(stripped)%4 != 0 {
		return false
	}
	if !base64Pattern.MatchString(stripped) {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(stripped)
	return err == nil
}

// withinImageSizeLimit bounds the decoded size estimated from the encoded
// length minus padding, without decoding the payload.
func withinImageSizeLimit(value string) bool {
	stripped := stripDataURIPrefix(value)
	padding := 0
	if strings.HasSuffix(stripped, "==") {
		padding = 2
	} else if strings.HasSuffix(stripped, "=") {
		padding = 1
	}
	decodedSize := len(stripped)*3/4 - padding
	return decodedSize <= maxImageBytes
}

func stripDataURIPrefix(value string) string {
	return dataURIPrefixPattern.ReplaceAllString(value, "")
}
