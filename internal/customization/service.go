package customization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ErrNotFound signals that no customization exists for the requested
// identifier. Malformed identifiers surface this same signal.
var ErrNotFound = errors.New("customization: not found")

// ServiceError wraps a store failure with a dotted operation.reason code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "customization.service.new"
	opCreate     = "customization.create"
	opGetAll     = "customization.get_all"
	opGetByID    = "customization.get_by_id"
	opUpdate     = "customization.update"
	opDelete     = "customization.delete"
	opExists     = "customization.exists"
	opCount      = "customization.count"
	opClear      = "customization.clear"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider issues identifiers for new aggregates.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the persistence gateway.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service is the persistence gateway for the customization aggregate. All
// multi-row writes run inside one transaction so readers see either the
// fully-old or fully-new state.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the gateway, validating its dependencies.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Create persists a new aggregate and its pieces atomically and returns the
// assembled record. The returned pieces are the just-written rows, not a
// re-read.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Customization, error) {
	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, "id_generation_failed", err)
		return Customization{}, newServiceError(opCreate, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	record := Customization{
		ID:          id,
		Name:        cmd.Name,
		Description: cmd.Description,
		BoardImage:  cmd.BoardImage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Pieces").Create(&record).Error; err != nil {
			return newServiceError(opCreate, "insert_failed", err)
		}
		for _, input := range cmd.Pieces {
			piece := Piece{
				CustomizationID: id,
				Type:            input.Type,
				Color:           input.Color,
				ImageData:       input.ImageData,
			}
			if err := tx.Create(&piece).Error; err != nil {
				return newServiceError(opCreate, "piece_insert_failed", err)
			}
			record.Pieces = append(record.Pieces, piece)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opCreate, "transaction_failed", txErr, zap.String("customization_id", id))
		return Customization{}, txErr
	}

	return record, nil
}

// GetAll returns every aggregate, newest-created first, each with its pieces
// in insertion order.
func (s *Service) GetAll(ctx context.Context) ([]Customization, error) {
	rows, err := s.queryJoined(ctx, "")
	if err != nil {
		s.logError(opGetAll, "query_failed", err)
		return nil, newServiceError(opGetAll, "query_failed", err)
	}
	return foldRows(rows), nil
}

// GetByID returns one aggregate with its pieces, or ErrNotFound. A malformed
// identifier is treated as absent rather than as an input error.
func (s *Service) GetByID(ctx context.Context, id string) (Customization, error) {
	if !IsValidID(id) {
		return Customization{}, ErrNotFound
	}

	rows, err := s.queryJoined(ctx, id)
	if err != nil {
		s.logError(opGetByID, "query_failed", err, zap.String("customization_id", id))
		return Customization{}, newServiceError(opGetByID, "query_failed", err)
	}

	records := foldRows(rows)
	if len(records) == 0 {
		return Customization{}, ErrNotFound
	}
	return records[0], nil
}

// Update applies the supplied fields to an existing aggregate. A supplied
// pieces set fully replaces the stored one. The refreshed aggregate is
// re-read after commit so the returned view reflects committed joined state.
func (s *Service) Update(ctx context.Context, id string, cmd UpdateCommand) (Customization, error) {
	if !IsValidID(id) {
		return Customization{}, ErrNotFound
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Customization
		err := tx.Where("id = ?", id).Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return newServiceError(opUpdate, "select_failed", err)
		}

		updates := map[string]any{"updated_at": s.clock().UTC()}
		if cmd.Name != nil {
			updates["name"] = *cmd.Name
		}
		if cmd.Description != nil {
			updates["description"] = *cmd.Description
		}
		if cmd.BoardImage != nil {
			updates["board_image"] = *cmd.BoardImage
		}
		if err := tx.Model(&Customization{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return newServiceError(opUpdate, "update_failed", err)
		}

		if cmd.Pieces != nil {
			if err := tx.Where("customization_id = ?", id).Delete(&Piece{}).Error; err != nil {
				return newServiceError(opUpdate, "piece_delete_failed", err)
			}
			for _, input := range cmd.Pieces {
				piece := Piece{
					CustomizationID: id,
					Type:            input.Type,
					Color:           input.Color,
					ImageData:       input.ImageData,
				}
				if err := tx.Create(&piece).Error; err != nil {
					return newServiceError(opUpdate, "piece_insert_failed", err)
				}
			}
		}
		return nil
	})
	if txErr != nil {
		if !errors.Is(txErr, ErrNotFound) {
			s.logError(opUpdate, "transaction_failed", txErr, zap.String("customization_id", id))
		}
		return Customization{}, txErr
	}

	return s.GetByID(ctx, id)
}

// Delete removes one aggregate and its pieces. It reports whether a row was
// actually removed; a malformed or unknown identifier yields false, not an
// error.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	if !IsValidID(id) {
		return false, nil
	}

	var removed bool
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customization_id = ?", id).Delete(&Piece{}).Error; err != nil {
			return newServiceError(opDelete, "piece_delete_failed", err)
		}
		result := tx.Where("id = ?", id).Delete(&Customization{})
		if result.Error != nil {
			return newServiceError(opDelete, "delete_failed", result.Error)
		}
		removed = result.RowsAffected > 0
		return nil
	})
	if txErr != nil {
		s.logError(opDelete, "transaction_failed", txErr, zap.String("customization_id", id))
		return false, txErr
	}

	return removed, nil
}

// Exists reports whether an aggregate row exists for the identifier.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	if !IsValidID(id) {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&Customization{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		s.logError(opExists, "query_failed", err, zap.String("customization_id", id))
		return false, newServiceError(opExists, "query_failed", err)
	}
	return count > 0, nil
}

// Count returns the number of aggregates, regardless of how many pieces each
// carries.
func (s *Service) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Customization{}).Count(&count).Error
	if err != nil {
		s.logError(opCount, "query_failed", err)
		return 0, newServiceError(opCount, "query_failed", err)
	}
	return count, nil
}

// Clear removes every aggregate and every piece.
func (s *Service) Clear(ctx context.Context) error {
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Piece{}).Error; err != nil {
			return newServiceError(opClear, "piece_delete_failed", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Customization{}).Error; err != nil {
			return newServiceError(opClear, "delete_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opClear, "transaction_failed", txErr)
		return txErr
	}
	return nil
}

// joinedRow is one flat row of the parent×piece left outer join. Piece
// columns are pointers because an aggregate with zero persisted pieces still
// produces one row.
type joinedRow struct {
	ID             string
	Name           string
	Description    *string
	BoardImage     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PieceID        *uint
	PieceType      *string
	PieceColor     *string
	PieceImageData *string
}

func (s *Service) queryJoined(ctx context.Context, id string) ([]joinedRow, error) {
	query := s.db.WithContext(ctx).
		Table("customizations").
		Select("customizations.id, customizations.name, customizations.description, customizations.board_image, customizations.created_at, customizations.updated_at, pieces.id AS piece_id, pieces.type AS piece_type, pieces.color AS piece_color, pieces.image_data AS piece_image_data").
		Joins("LEFT JOIN pieces ON pieces.customization_id = customizations.id").
		Order("customizations.created_at DESC, pieces.id ASC")
	if id != "" {
		query = query.Where("customizations.id = ?", id)
	}

	var rows []joinedRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// foldRows streams the flat join rows into one aggregate per distinct id,
// accumulating pieces in the order they appear. Null piece columns from the
// outer join are skipped so a piece-less aggregate renders with an empty set.
func foldRows(rows []joinedRow) []Customization {
	var order []string
	builders := map[string]*Customization{}

	for _, row := range rows {
		record, seen := builders[row.ID]
		if !seen {
			record = &Customization{
				ID:          row.ID,
				Name:        row.Name,
				Description: row.Description,
				BoardImage:  row.BoardImage,
				CreatedAt:   row.CreatedAt,
				UpdatedAt:   row.UpdatedAt,
				Pieces:      []Piece{},
			}
			builders[row.ID] = record
			order = append(order, row.ID)
		}
		if row.PieceID == nil || row.PieceType == nil || row.PieceColor == nil || row.PieceImageData == nil {
			continue
		}
		record.Pieces = append(record.Pieces, Piece{
			ID:              *row.PieceID,
			CustomizationID: row.ID,
			Type:            PieceType(*row.PieceType),
			Color:           PieceColor(*row.PieceColor),
			ImageData:       *row.PieceImageData,
		})
	}

	records := make([]Customization, 0, len(order))
	for _, id := range order {
		records = append(records, *builders[id])
	}
	return records
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("customization service error", attrs...)
}
