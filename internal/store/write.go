package store

import (
	"context"
	"fmt"
)

// Registration is one stored description.
type Registration struct {
	Kind          Kind
	PublicKey     string
	DescriptionID string
	Description   []byte
	Seq           int64
}

// SearchRecord is one entry of the search log.
type SearchRecord struct {
	ID          string
	Kind        Kind
	QueryID     string
	ResultCount int
	Seq         int64
}

func (r Registration) validate() error {
	switch {
	case !r.Kind.Valid():
		return fmt.Errorf("unknown kind %q", r.Kind)
	case r.PublicKey == "":
		return fmt.Errorf("empty public key")
	case r.DescriptionID == "":
		return fmt.Errorf("empty description id")
	}
	return nil
}

// blob keeps an empty description from being stored as NULL.
func blob(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// PutAgent stores reg as the only description of an agent, replacing any
// earlier registration under the same public key.
func (s *Store) PutAgent(ctx context.Context, reg Registration) error {
	reg.Kind = KindAgent
	if err := reg.validate(); err != nil {
		return fmt.Errorf("put agent: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put agent: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM registrations WHERE kind = ? AND public_key = ?
	`, KindAgent, reg.PublicKey); err != nil {
		return fmt.Errorf("put agent: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO registrations (kind, public_key, description_id, description, seq)
		VALUES (?, ?, ?, ?, ?)
	`, KindAgent, reg.PublicKey, reg.DescriptionID, blob(reg.Description), reg.Seq); err != nil {
		return fmt.Errorf("put agent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put agent: commit: %w", err)
	}
	return nil
}

// AddService adds reg to the descriptions of a service.
// Uses ON CONFLICT DO NOTHING: registering the same description twice keeps
// the first row and reports inserted=false.
func (s *Store) AddService(ctx context.Context, reg Registration) (inserted bool, err error) {
	reg.Kind = KindService
	if err := reg.validate(); err != nil {
		return false, fmt.Errorf("add service: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO registrations (kind, public_key, description_id, description, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, public_key, description_id) DO NOTHING
	`, KindService, reg.PublicKey, reg.DescriptionID, blob(reg.Description), reg.Seq)
	if err != nil {
		return false, fmt.Errorf("add service: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add service: rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteAgent removes an agent registration. Reports whether one existed.
func (s *Store) DeleteAgent(ctx context.Context, publicKey string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM registrations WHERE kind = ? AND public_key = ?
	`, KindAgent, publicKey)
	if err != nil {
		return false, fmt.Errorf("delete agent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete agent: rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteService removes one service description. An empty descriptionID
// removes every description under the public key. Reports how many rows
// were removed.
func (s *Store) DeleteService(ctx context.Context, publicKey, descriptionID string) (int64, error) {
	query := `DELETE FROM registrations WHERE kind = ? AND public_key = ?`
	args := []any{KindService, publicKey}
	if descriptionID != "" {
		query += ` AND description_id = ?`
		args = append(args, descriptionID)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete service: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete service: rows affected: %w", err)
	}
	return n, nil
}

// WriteSearch appends rec to the search log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteSearch(ctx context.Context, rec SearchRecord) error {
	if !rec.Kind.Valid() {
		return fmt.Errorf("write search: unknown kind %q", rec.Kind)
	}
	if rec.ID == "" {
		return fmt.Errorf("write search: empty id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (id, kind, query_id, result_count, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.Kind, rec.QueryID, rec.ResultCount, rec.Seq)
	if err != nil {
		return fmt.Errorf("write search: %w", err)
	}
	return nil
}
