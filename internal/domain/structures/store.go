package structures

import (
	"context"
	"database/sql"
	"errors"

	"payflow/internal/platform/db"
)

type Store struct {
	DB *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{DB: database}
}

func (s *Store) CreateStructure(ctx context.Context, st Structure) error {
	return s.DB.WithTx(ctx, func(q db.Querier) error {
		if _, err := q.ExecContext(ctx, `
      INSERT INTO payroll_structures (id, name, description, created_at, updated_at)
      VALUES (?,?,?,?,?)
    `, st.ID, st.Name, st.Description, db.FormatTime(st.CreatedAt), db.FormatTime(st.UpdatedAt)); err != nil {
			return err
		}
		for _, c := range st.Allowances {
			if err := insertComponent(ctx, q, KindAllowance, c); err != nil {
				return err
			}
		}
		for _, c := range st.Deductions {
			if err := insertComponent(ctx, q, KindDeduction, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetStructure(ctx context.Context, id string) (Structure, error) {
	var (
		st                   Structure
		createdAt, updatedAt string
	)
	err := s.DB.QueryRowContext(ctx, `
    SELECT id, name, description, created_at, updated_at
    FROM payroll_structures
    WHERE id = ?
  `, id).Scan(&st.ID, &st.Name, &st.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Structure{}, ErrStructureNotFound
	}
	if err != nil {
		return Structure{}, err
	}
	st.CreatedAt = db.ParseTime(createdAt)
	st.UpdatedAt = db.ParseTime(updatedAt)

	if st.Allowances, err = s.ListComponents(ctx, KindAllowance, id); err != nil {
		return Structure{}, err
	}
	if st.Deductions, err = s.ListComponents(ctx, KindDeduction, id); err != nil {
		return Structure{}, err
	}
	return st, nil
}

// ListStructures returns structures without their components.
func (s *Store) ListStructures(ctx context.Context) ([]Structure, error) {
	rows, err := s.DB.QueryContext(ctx, `
    SELECT id, name, description, created_at, updated_at
    FROM payroll_structures
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Structure{}
	for rows.Next() {
		var (
			st                   Structure
			createdAt, updatedAt string
		)
		if err := rows.Scan(&st.ID, &st.Name, &st.Description, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		st.CreatedAt = db.ParseTime(createdAt)
		st.UpdatedAt = db.ParseTime(updatedAt)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStructure(ctx context.Context, st Structure) error {
	res, err := s.DB.ExecContext(ctx, `
    UPDATE payroll_structures SET name = ?, description = ?, updated_at = ? WHERE id = ?
  `, st.Name, st.Description, db.FormatTime(st.UpdatedAt), st.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrStructureNotFound)
}

// DeleteStructure detaches employees and removes the structure; its
// components go with it through ON DELETE CASCADE.
func (s *Store) DeleteStructure(ctx context.Context, id string) error {
	return s.DB.WithTx(ctx, func(q db.Querier) error {
		if _, err := q.ExecContext(ctx, "UPDATE employees SET payroll_structure_id = NULL, updated_at = ? WHERE payroll_structure_id = ?", db.Now(), id); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, "DELETE FROM payroll_structures WHERE id = ?", id)
		if err != nil {
			return err
		}
		return requireAffected(res, ErrStructureNotFound)
	})
}

func insertComponent(ctx context.Context, q db.Querier, kind Kind, c Component) error {
	_, err := q.ExecContext(ctx, `
    INSERT INTO `+kind.table()+` (id, payroll_structure_id, name, amount, type, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?)
  `, c.ID, c.PayrollStructureID, c.Name, c.Amount, c.Type, db.FormatTime(c.CreatedAt), db.FormatTime(c.UpdatedAt))
	if db.IsForeignKeyViolation(err) {
		return ErrStructureNotFound
	}
	return err
}

func (s *Store) CreateComponent(ctx context.Context, kind Kind, c Component) error {
	return insertComponent(ctx, s.DB, kind, c)
}

func (s *Store) GetComponent(ctx context.Context, kind Kind, id string) (Component, error) {
	var (
		c                    Component
		createdAt, updatedAt string
	)
	err := s.DB.QueryRowContext(ctx, `
    SELECT id, payroll_structure_id, name, amount, type, created_at, updated_at
    FROM `+kind.table()+`
    WHERE id = ?
  `, id).Scan(&c.ID, &c.PayrollStructureID, &c.Name, &c.Amount, &c.Type, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Component{}, ErrComponentNotFound
	}
	if err != nil {
		return Component{}, err
	}
	c.CreatedAt = db.ParseTime(createdAt)
	c.UpdatedAt = db.ParseTime(updatedAt)
	return c, nil
}

// ListComponents lists one structure's components, or every component when
// structureID is empty.
func (s *Store) ListComponents(ctx context.Context, kind Kind, structureID string) ([]Component, error) {
	query := `
    SELECT id, payroll_structure_id, name, amount, type, created_at, updated_at
    FROM ` + kind.table()
	var args []any
	if structureID != "" {
		query += " WHERE payroll_structure_id = ?"
		args = append(args, structureID)
	}
	query += " ORDER BY created_at, name"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Component{}
	for rows.Next() {
		var (
			c                    Component
			createdAt, updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.PayrollStructureID, &c.Name, &c.Amount, &c.Type, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = db.ParseTime(createdAt)
		c.UpdatedAt = db.ParseTime(updatedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateComponent(ctx context.Context, kind Kind, c Component) error {
	res, err := s.DB.ExecContext(ctx, `
    UPDATE `+kind.table()+` SET name = ?, amount = ?, type = ?, updated_at = ? WHERE id = ?
  `, c.Name, c.Amount, c.Type, db.FormatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrComponentNotFound)
}

func (s *Store) DeleteComponent(ctx context.Context, kind Kind, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM "+kind.table()+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrComponentNotFound)
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
