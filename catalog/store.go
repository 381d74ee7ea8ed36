package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"metaql/internal/db"
	"metaql/internal/domain"
)

// Store persists catalogs in a SQLite metadata database.
type Store struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// OpenStore opens (creating if needed) a metadata store and migrates it.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	writeDB, readDB, err := db.OpenSQLitePair(path, 0)
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}
	if err := db.RunMigrations(ctx, writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, fmt.Errorf("migrate catalog store: %w", err)
	}
	return &Store{writeDB: writeDB, readDB: readDB}, nil
}

// Close releases both pools.
func (s *Store) Close() error {
	rerr := s.readDB.Close()
	if err := s.writeDB.Close(); err != nil {
		return err
	}
	return rerr
}

// Save replaces the stored catalog with c in a single transaction.
func (s *Store) Save(ctx context.Context, c *Catalog) error {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM databases`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	for _, ib := range c.Databases() {
		isMain := 0
		if ib == c.main {
			isMain = 1
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO databases (name, is_main) VALUES (?, ?)`, ib.name, isMain); err != nil {
			return fmt.Errorf("insert database %q: %w", ib.name, err)
		}
		for i, obj := range ib.All() {
			if err := saveObject(ctx, tx, ib.name, nil, i, obj); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func saveObject(ctx context.Context, tx *sql.Tx, database string, ownerID *int64, pos int, obj *domain.ApplicationObject) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO objects (database, owner_id, kind, name, type_code, table_name, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		database, ownerID, obj.Kind.String(), obj.Name, obj.TypeCode, obj.TableName, pos)
	if err != nil {
		return fmt.Errorf("insert object %s: %w", obj.QualifiedName(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("object id: %w", err)
	}
	for i, p := range obj.Properties {
		pres, err := tx.ExecContext(ctx,
			`INSERT INTO properties (object_id, name, purpose, is_reference, reference_type, reference_type_code, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, p.Name, p.Purpose.String(), p.IsReference, p.ReferenceType, p.ReferenceTypeCode, i)
		if err != nil {
			return fmt.Errorf("insert property %s.%s: %w", obj.QualifiedName(), p.Name, err)
		}
		pid, err := pres.LastInsertId()
		if err != nil {
			return fmt.Errorf("property id: %w", err)
		}
		for j, f := range p.Fields {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO fields (property_id, name, purpose, position) VALUES (?, ?, ?, ?)`,
				pid, f.Name, f.Purpose.String(), j); err != nil {
				return fmt.Errorf("insert field %s: %w", f.Name, err)
			}
		}
	}
	for i, tp := range obj.TableParts {
		if err := saveObject(ctx, tx, database, &id, i, tp); err != nil {
			return err
		}
	}
	return nil
}

type storedObject struct {
	id      int64
	ownerID sql.NullInt64
	db      string
	obj     *domain.ApplicationObject
}

// Load reads the stored catalog.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	bases, mainName, err := s.loadDatabases(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.loadObjects(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*storedObject, len(order))
	for _, so := range order {
		byID[so.id] = so
	}
	if err := s.loadProperties(ctx, byID); err != nil {
		return nil, err
	}

	// Top-level objects come first, so every owner is known before its parts.
	for _, so := range order {
		if !so.ownerID.Valid {
			ib, ok := bases[so.db]
			if !ok {
				return nil, domain.ErrNotFound("object %q belongs to unknown database %q", so.obj.Name, so.db)
			}
			if err := ib.Add(so.obj); err != nil {
				return nil, err
			}
			continue
		}
		owner, ok := byID[so.ownerID.Int64]
		if !ok {
			return nil, domain.ErrNotFound("table part %q has no owner", so.obj.Name)
		}
		owner.obj.TableParts = append(owner.obj.TableParts, so.obj)
		so.obj.Owner = owner.obj
	}

	main := bases[mainName]
	var others []*InfoBase
	for name, ib := range bases {
		if name != mainName {
			others = append(others, ib)
		}
	}
	return New(main, others...)
}

func (s *Store) loadDatabases(ctx context.Context) (map[string]*InfoBase, string, error) {
	rows, err := s.readDB.QueryContext(ctx, `SELECT name, is_main FROM databases ORDER BY name`)
	if err != nil {
		return nil, "", fmt.Errorf("list databases: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	bases := make(map[string]*InfoBase)
	mainName := ""
	for rows.Next() {
		var name string
		var isMain bool
		if err := rows.Scan(&name, &isMain); err != nil {
			return nil, "", fmt.Errorf("scan database: %w", err)
		}
		bases[name] = NewInfoBase(name)
		if isMain {
			mainName = name
		}
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	if mainName == "" {
		return nil, "", domain.ErrNotFound("catalog store has no main database")
	}
	return bases, mainName, nil
}

func (s *Store) loadObjects(ctx context.Context) ([]*storedObject, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, database, owner_id, kind, name, type_code, table_name
		FROM objects
		ORDER BY owner_id IS NOT NULL, database, owner_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*storedObject
	for rows.Next() {
		so := &storedObject{obj: &domain.ApplicationObject{}}
		var kind string
		if err := rows.Scan(&so.id, &so.db, &so.ownerID, &kind, &so.obj.Name, &so.obj.TypeCode, &so.obj.TableName); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		if so.obj.Kind, err = domain.ParseKind(kind); err != nil {
			return nil, err
		}
		out = append(out, so)
	}
	return out, rows.Err()
}

func (s *Store) loadProperties(ctx context.Context, objects map[int64]*storedObject) error {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT p.id, p.object_id, p.name, p.purpose, p.is_reference, p.reference_type, p.reference_type_code,
		       f.name, f.purpose
		FROM properties p
		JOIN fields f ON f.property_id = p.id
		ORDER BY p.object_id, p.position, f.position`)
	if err != nil {
		return fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var current *domain.MetadataProperty
	var currentID int64 = -1
	for rows.Next() {
		var (
			id, objectID int64
			p            domain.MetadataProperty
			purpose      string
			field        [2]string
		)
		if err := rows.Scan(&id, &objectID, &p.Name, &purpose, &p.IsReference, &p.ReferenceType, &p.ReferenceTypeCode,
			&field[0], &field[1]); err != nil {
			return fmt.Errorf("scan property: %w", err)
		}
		if id != currentID {
			so, ok := objects[objectID]
			if !ok {
				return domain.ErrNotFound("property %q belongs to unknown object %d", p.Name, objectID)
			}
			if p.Purpose, err = domain.ParsePropertyPurpose(purpose); err != nil {
				return err
			}
			current = &p
			currentID = id
			so.obj.Properties = append(so.obj.Properties, current)
		}
		fp, err := domain.ParseFieldPurpose(field[1])
		if err != nil {
			return err
		}
		current.Fields = append(current.Fields, domain.DatabaseField{Name: field[0], Purpose: fp})
	}
	return rows.Err()
}
