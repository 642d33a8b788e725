package customization

import (
	"regexp"
	"time"
)

// PieceType enumerates the chess piece kinds a customization may style.
type PieceType string

const (
	PieceTypePawn   PieceType = "pawn"
	PieceTypeRook   PieceType = "rook"
	PieceTypeKnight PieceType = "knight"
	PieceTypeBishop PieceType = "bishop"
	PieceTypeQueen  PieceType = "queen"
	PieceTypeKing   PieceType = "king"
)

// PieceColor enumerates the two chess sides.
type PieceColor string

const (
	PieceColorWhite PieceColor = "white"
	PieceColorBlack PieceColor = "black"
)

// PieceTypes lists every valid piece type in display order.
var PieceTypes = []PieceType{
	PieceTypePawn,
	PieceTypeRook,
	PieceTypeKnight,
	PieceTypeBishop,
	PieceTypeQueen,
	PieceTypeKing,
}

// PieceColors lists every valid piece color.
var PieceColors = []PieceColor{PieceColorWhite, PieceColorBlack}

// identifierPattern matches the canonical 36-character hyphenated hex form
// of generated customization identifiers.
var identifierPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValidID reports whether raw conforms to the generated identifier format.
// Lookups with a non-conforming identifier are treated as absent, not as an
// input error.
func IsValidID(raw string) bool {
	return identifierPattern.MatchString(raw)
}

// Customization is the persisted aggregate: a named set of piece images with
// an optional board image. Pieces are loaded and written explicitly by the
// service, never through association auto-saving.
type Customization struct {
	ID          string    `gorm:"column:id;primaryKey;size:36;not null"`
	Name        string    `gorm:"column:name;size:255;not null"`
	Description *string   `gorm:"column:description;type:text"`
	BoardImage  *string   `gorm:"column:board_image;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index:idx_customizations_created"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`

	Pieces []Piece `gorm:"foreignKey:CustomizationID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName provides the explicit table binding for GORM.
func (Customization) TableName() string {
	return "customizations"
}

// Piece is a child row owned exclusively by one Customization. The serial
// primary key establishes insertion order; pieces have no identity of their
// own at the API surface.
type Piece struct {
	ID              uint       `gorm:"column:id;primaryKey;autoIncrement"`
	CustomizationID string     `gorm:"column:customization_id;size:36;not null;index:idx_pieces_customization"`
	Type            PieceType  `gorm:"column:type;size:16;not null;check:type IN ('pawn','rook','knight','bishop','queen','king')"`
	Color           PieceColor `gorm:"column:color;size:8;not null;check:color IN ('white','black')"`
	ImageData       string     `gorm:"column:image_data;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Piece) TableName() string {
	return "pieces"
}

// PieceInput is a validated piece supplied by a caller.
type PieceInput struct {
	Type      PieceType
	Color     PieceColor
	ImageData string
}

// CreateCommand is the typed payload produced by ValidateCreate. It never
// reaches the service unless every validation rule passed.
type CreateCommand struct {
	Name        string
	Description *string
	BoardImage  *string
	Pieces      []PieceInput
}

// UpdateCommand is the typed payload produced by ValidateUpdate. Nil fields
// were not supplied; a non-nil Pieces slice fully replaces the stored set.
type UpdateCommand struct {
	Name        *string
	Description *string
	BoardImage  *string
	Pieces      []PieceInput
}
