package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"uniship/internal/database"
	"uniship/internal/logger"
	"uniship/internal/models"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const shipmentColumns = `
	id, tracking_number, sender, recipient, package, service, special_instructions,
	status, current_location, courier, total_cost, estimated_delivery, actual_delivery,
	created_at, updated_at`

// PostgresRepository хранит отправления в PostgreSQL
type PostgresRepository struct {
	db  *database.DB
	log *logger.Logger
}

// NewPostgresRepository создает хранилище поверх подключения к базе данных
func NewPostgresRepository(db *database.DB, log *logger.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		log: log,
	}
}

// Create сохраняет отправление вместе с историей в одной транзакции
func (r *PostgresRepository) Create(ctx context.Context, s *models.Shipment) error {
	cols, err := encodeShipment(s)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO shipments (
			id, tracking_number, sender, recipient, package, service, special_instructions,
			status, current_location, courier_id, courier, total_cost, estimated_delivery,
			actual_delivery, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = tx.ExecContext(ctx, query,
		s.ID, s.TrackingNumber, cols.sender, cols.recipient, cols.pkg, s.Service, s.SpecialInstructions,
		s.Status, cols.location, cols.courierID, cols.courier, s.TotalCost, s.EstimatedDelivery,
		s.ActualDelivery, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		}
		return fmt.Errorf("failed to create shipment: %w", err)
	}

	if err := insertEvents(ctx, tx, s.ID, s.TrackingHistory); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.WithFields(map[string]interface{}{
		"shipment_id":     s.ID,
		"tracking_number": s.TrackingNumber,
	}).Debug("Shipment stored in database")

	return nil
}

// Get возвращает отправление по ID
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Shipment, error) {
	return r.getOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
}

// GetByTrackingNumber возвращает отправление по номеру отслеживания
func (r *PostgresRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	return r.getOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE tracking_number = $1`, trackingNumber)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Shipment, error) {
	s, err := scanShipment(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}

	if err := r.loadEvents(ctx, []*models.Shipment{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// List возвращает все отправления, новые первыми
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Shipment, 0)
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipment: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shipments: %w", err)
	}

	if err := r.loadEvents(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Update сохраняет изменения, если запись не менялась с prevUpdatedAt
func (r *PostgresRepository) Update(ctx context.Context, s *models.Shipment, prevUpdatedAt time.Time) error {
	if err := checkVersion(s, prevUpdatedAt); err != nil {
		return err
	}

	cols, err := encodeShipment(s)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE shipments
		SET service = $3, special_instructions = $4, status = $5, current_location = $6,
		    courier_id = $7, courier = $8, total_cost = $9, actual_delivery = $10, updated_at = $11
		WHERE id = $1 AND updated_at = $2
	`
	res, err := tx.ExecContext(ctx, query,
		s.ID, prevUpdatedAt, s.Service, s.SpecialInstructions, s.Status, cols.location,
		cols.courierID, cols.courier, s.TotalCost, s.ActualDelivery, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update shipment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM shipments WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check shipment: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %s", ErrConflict, s.ID)
	}

	var maxSeq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM shipment_events WHERE shipment_id = $1`, s.ID,
	).Scan(&maxSeq); err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	fresh := make([]models.TrackingEvent, 0, 1)
	for _, e := range s.TrackingHistory {
		if e.Seq > maxSeq {
			fresh = append(fresh, e)
		}
	}
	if err := insertEvents(ctx, tx, s.ID, fresh); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, shipmentID string, events []models.TrackingEvent) error {
	if len(events) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shipment_events (shipment_id, seq, status, location, description, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, shipmentID, e.Seq, e.Status, e.Location, e.Description, e.Timestamp); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", e.Seq, err)
		}
	}
	return nil
}

// loadEvents загружает историю для набора отправлений одним запросом
func (r *PostgresRepository) loadEvents(ctx context.Context, list []*models.Shipment) error {
	if len(list) == 0 {
		return nil
	}

	byID := make(map[string]*models.Shipment, len(list))
	ids := make([]string, 0, len(list))
	for _, s := range list {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT shipment_id, seq, status, location, description, occurred_at
		FROM shipment_events
		WHERE shipment_id = ANY($1)
		ORDER BY shipment_id, seq
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get tracking history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			shipmentID string
			e          models.TrackingEvent
		)
		if err := rows.Scan(&shipmentID, &e.Seq, &e.Status, &e.Location, &e.Description, &e.Timestamp); err != nil {
			return fmt.Errorf("failed to scan tracking event: %w", err)
		}
		if s, ok := byID[shipmentID]; ok {
			s.TrackingHistory = append(s.TrackingHistory, e)
		}
	}
	return rows.Err()
}

type encodedColumns struct {
	sender    string
	recipient string
	pkg       string
	location  interface{}
	courier   interface{}
	courierID sql.NullString
}

func encodeJSON(name string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return string(data), nil
}

func encodeShipment(s *models.Shipment) (*encodedColumns, error) {
	var (
		cols encodedColumns
		err  error
	)
	if cols.sender, err = encodeJSON("sender", s.Sender); err != nil {
		return nil, err
	}
	if cols.recipient, err = encodeJSON("recipient", s.Recipient); err != nil {
		return nil, err
	}
	if cols.pkg, err = encodeJSON("package", s.Package); err != nil {
		return nil, err
	}
	if s.CurrentLocation != nil {
		if cols.location, err = encodeJSON("location", s.CurrentLocation); err != nil {
			return nil, err
		}
	}
	if s.Courier != nil {
		if cols.courier, err = encodeJSON("courier", s.Courier); err != nil {
			return nil, err
		}
		cols.courierID = sql.NullString{String: s.Courier.ID, Valid: true}
	}
	return &cols, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShipment(row rowScanner) (*models.Shipment, error) {
	var (
		s                                    models.Shipment
		sender, recipient, pkg, loc, courier []byte
		actualDelivery                       sql.NullTime
	)

	err := row.Scan(
		&s.ID, &s.TrackingNumber, &sender, &recipient, &pkg, &s.Service, &s.SpecialInstructions,
		&s.Status, &loc, &courier, &s.TotalCost, &s.EstimatedDelivery, &actualDelivery,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sender, &s.Sender); err != nil {
		return nil, fmt.Errorf("failed to decode sender: %w", err)
	}
	if err := json.Unmarshal(recipient, &s.Recipient); err != nil {
		return nil, fmt.Errorf("failed to decode recipient: %w", err)
	}
	if err := json.Unmarshal(pkg, &s.Package); err != nil {
		return nil, fmt.Errorf("failed to decode package: %w", err)
	}
	if len(loc) > 0 {
		s.CurrentLocation = &models.Location{}
		if err := json.Unmarshal(loc, s.CurrentLocation); err != nil {
			return nil, fmt.Errorf("failed to decode location: %w", err)
		}
	}
	if len(courier) > 0 {
		s.Courier = &models.Courier{}
		if err := json.Unmarshal(courier, s.Courier); err != nil {
			return nil, fmt.Errorf("failed to decode courier: %w", err)
		}
	}
	if actualDelivery.Valid {
		t := actualDelivery.Time
		s.ActualDelivery = &t
	}

	return &s, nil
}
