package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// QAPair is a question and its answer, deduplicated by the normalized
// form of the question.
type QAPair struct {
	Question string
	Answer   string
}

// Document is the durable record for a source URL: its derived namespace,
// the distinct questions ever asked, and the answered pairs.
type Document struct {
	ID        string
	URL       string
	Namespace string
	Questions []string
	Pairs     []QAPair
}

// Normalize returns the comparison form of a question: trimmed and
// case-folded.
func Normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// Store wraps a SQLite database holding document records.
type Store struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{DB: sqlDB, path: path}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// OpenMemory creates an in-memory store (useful for testing).
func OpenMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	s := &Store{DB: sqlDB, path: ":memory:"}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL UNIQUE,
    namespace TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_documents_namespace ON documents(namespace);

CREATE TABLE IF NOT EXISTS questions (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    question TEXT NOT NULL,
    normalized TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY(document_id, normalized)
);

CREATE TABLE IF NOT EXISTS qa_pairs (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    question TEXT NOT NULL,
    normalized TEXT NOT NULL,
    answer TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY(document_id, normalized)
);
`

// GetOrCreate fetches the document record for url, creating it with the
// given namespace when absent. An existing record is never overwritten.
func (s *Store) GetOrCreate(ctx context.Context, url, namespace string) (*Document, error) {
	_, err := s.ExecContext(ctx,
		`INSERT INTO documents (id, url, namespace) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO NOTHING`,
		uuid.NewString(), url, namespace)
	if err != nil {
		return nil, fmt.Errorf("creating document record: %w", err)
	}
	return s.GetByURL(ctx, url)
}

// GetByURL fetches a document record with its questions and pairs.
// Returns nil when no record exists.
func (s *Store) GetByURL(ctx context.Context, url string) (*Document, error) {
	doc := &Document{}
	err := s.QueryRowContext(ctx,
		`SELECT id, url, namespace FROM documents WHERE url = ?`, url).
		Scan(&doc.ID, &doc.URL, &doc.Namespace)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching document: %w", err)
	}

	rows, err := s.QueryContext(ctx,
		`SELECT question FROM questions WHERE document_id = ? ORDER BY created_at`, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		doc.Questions = append(doc.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pairRows, err := s.QueryContext(ctx,
		`SELECT question, answer FROM qa_pairs WHERE document_id = ? ORDER BY created_at`, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching qa pairs: %w", err)
	}
	defer pairRows.Close()
	for pairRows.Next() {
		var p QAPair
		if err := pairRows.Scan(&p.Question, &p.Answer); err != nil {
			return nil, err
		}
		doc.Pairs = append(doc.Pairs, p)
	}
	return doc, pairRows.Err()
}

// AppendQuestions records questions against the document, skipping any
// whose normalized form is already present.
func (s *Store) AppendQuestions(ctx context.Context, url string, questions []string) error {
	for _, q := range questions {
		_, err := s.ExecContext(ctx,
			`INSERT INTO questions (document_id, question, normalized)
			 SELECT id, ?, ? FROM documents WHERE url = ?
			 ON CONFLICT(document_id, normalized) DO NOTHING`,
			q, Normalize(q), url)
		if err != nil {
			return fmt.Errorf("appending question: %w", err)
		}
	}
	return nil
}

// AppendPairs records answered pairs against the document. Pairs whose
// normalized question already exists are left untouched.
func (s *Store) AppendPairs(ctx context.Context, url string, pairs []QAPair) error {
	for _, p := range pairs {
		_, err := s.ExecContext(ctx,
			`INSERT INTO qa_pairs (document_id, question, normalized, answer)
			 SELECT id, ?, ?, ? FROM documents WHERE url = ?
			 ON CONFLICT(document_id, normalized) DO NOTHING`,
			p.Question, Normalize(p.Question), p.Answer, url)
		if err != nil {
			return fmt.Errorf("appending qa pair: %w", err)
		}
	}
	return nil
}

// FindAnswers returns the stored answer for each given question that has
// one, keyed by the question as asked.
func (s *Store) FindAnswers(ctx context.Context, url string, questions []string) (map[string]string, error) {
	doc, err := s.GetByURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return map[string]string{}, nil
	}

	stored := make(map[string]string, len(doc.Pairs))
	for _, p := range doc.Pairs {
		stored[Normalize(p.Question)] = p.Answer
	}

	found := make(map[string]string)
	for _, q := range questions {
		if ans, ok := stored[Normalize(q)]; ok {
			found[q] = ans
		}
	}
	return found, nil
}

// ClearPairs removes the document's questions and answered pairs while
// keeping the document record itself.
func (s *Store) ClearPairs(ctx context.Context, url string) error {
	if _, err := s.ExecContext(ctx,
		`DELETE FROM qa_pairs WHERE document_id IN (SELECT id FROM documents WHERE url = ?)`, url); err != nil {
		return fmt.Errorf("clearing qa pairs: %w", err)
	}
	if _, err := s.ExecContext(ctx,
		`DELETE FROM questions WHERE document_id IN (SELECT id FROM documents WHERE url = ?)`, url); err != nil {
		return fmt.Errorf("clearing questions: %w", err)
	}
	return nil
}

// List returns every known document without its questions or pairs.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.QueryContext(ctx, `SELECT id, url, namespace FROM documents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.URL, &d.Namespace); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
