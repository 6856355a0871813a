package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/docqa/internal/model"
)

type NamespaceRepo struct {
	db *sqlx.DB
}

func NewNamespaceRepo(db *sqlx.DB) *NamespaceRepo {
	return &NamespaceRepo{db: db}
}

func (r *NamespaceRepo) Get(ctx context.Context, clientID string) (*model.Namespace, bool, error) {
	where := map[string]interface{}{
		"client_id": clientID,
	}
	sqlStr, args, err := builder.BuildSelect("doc_namespaces", where, []string{"client_id", "embed_model", "ctime"})
	if err != nil {
		return nil, false, err
	}
	var ns model.Namespace
	if err := r.db.GetContext(ctx, &ns, r.db.Rebind(sqlStr), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &ns, true, nil
}

// Ensure creates the namespace record on first ingestion; an existing
// record is left untouched.
func (r *NamespaceRepo) Ensure(ctx context.Context, ns *model.Namespace) error {
	data := map[string]interface{}{
		"client_id":   ns.ClientID,
		"embed_model": ns.EmbedModel,
		"ctime":       ns.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("doc_namespaces", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr += " ON CONFLICT (client_id) DO NOTHING"
	_, err = r.db.ExecContext(ctx, r.db.Rebind(sqlStr), args...)
	return err
}

func (r *NamespaceRepo) Delete(ctx context.Context, clientID string) error {
	where := map[string]interface{}{
		"client_id": clientID,
	}
	sqlStr, args, err := builder.BuildDelete("doc_namespaces", where)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(sqlStr), args...)
	return err
}

func (r *NamespaceRepo) ListClientIDs(ctx context.Context) ([]string, error) {
	var ids []string
	const query = `SELECT client_id FROM doc_namespaces ORDER BY client_id`
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, err
	}
	return ids, nil
}
