package store

import (
	"context"
	"database/sql"
	"fmt"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (Registration, error) {
	var reg Registration
	var kind string
	if err := row.Scan(&kind, &reg.PublicKey, &reg.DescriptionID, &reg.Description, &reg.Seq); err != nil {
		return Registration{}, err
	}
	reg.Kind = Kind(kind)
	return reg, nil
}

// ReadRegistrations returns every registration of the given kind, ordered
// by public key (byte order) then seq.
//
// Returns an empty slice (not nil) if nothing is registered.
func (s *Store) ReadRegistrations(ctx context.Context, kind Kind) ([]Registration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, public_key, description_id, description, seq
		FROM registrations
		WHERE kind = ?
		ORDER BY public_key COLLATE BINARY ASC, seq ASC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	regs := []Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return regs, nil
}

// ReadAgent returns the registration of one agent.
// Returns sql.ErrNoRows if the agent is not registered.
func (s *Store) ReadAgent(ctx context.Context, publicKey string) (Registration, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT kind, public_key, description_id, description, seq
		FROM registrations
		WHERE kind = ? AND public_key = ?
	`, KindAgent, publicKey)
	return scanRegistration(row)
}

// CountRegistrations returns the number of rows of the given kind.
func (s *Store) CountRegistrations(ctx context.Context, kind Kind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registrations WHERE kind = ?
	`, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

// MaxSeq returns the highest seq written to either table, or 0 for an
// empty store. The directory resumes its clock from it.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM registrations
			UNION ALL
			SELECT seq FROM searches
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

// ReadSearches returns the search log in seq order.
func (s *Store) ReadSearches(ctx context.Context) ([]SearchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, query_id, result_count, seq
		FROM searches
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer rows.Close()

	records := []SearchRecord{}
	for rows.Next() {
		var rec SearchRecord
		var kind string
		if err := rows.Scan(&rec.ID, &kind, &rec.QueryID, &rec.ResultCount, &rec.Seq); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		rec.Kind = Kind(kind)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate searches: %w", err)
	}
	return records, nil
}
