package document

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"backend-alpineconnect/internal/db"

	"github.com/google/uuid"
)

var (
	ErrNameRequired = errors.New("document name required")
	ErrNotFound     = errors.New("document not found")
)

// Service keeps the document register. Files themselves live in external
// storage; we record name, owner and the download URL derived from the
// storage base.
type Service struct {
	db      db.Querier
	baseURL string
}

func NewService(db db.Querier, baseURL string) *Service {
	return &Service{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Service) Save(ctx context.Context, uploaderID, name string) (Document, error) {
	if name == "" {
		return Document{}, ErrNameRequired
	}

	doc := Document{
		ID:         uuid.NewString(),
		Name:       name,
		UploaderID: uploaderID,
	}
	doc.URL = s.baseURL + "/documents/" + doc.ID + "/" + url.PathEscape(name)

	row := s.db.QueryRow(ctx, `
		INSERT INTO documents (id, name, url, uploader_id)
		VALUES ($1,$2,$3,$4)
		RETURNING uploaded_at
	`, doc.ID, doc.Name, doc.URL, doc.UploaderID)
	if err := row.Scan(&doc.UploadedAt); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, url, uploader_id, uploaded_at
		FROM documents
		ORDER BY uploaded_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.URL, &d.UploaderID, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
