/*
Package sqlite provides a SQLite-backed implementation of the custody
storage ports.

PURPOSE:
  Implements custody.DocumentStore, custody.NotificationStore, and
  custody.UserDirectory on SQLite. The same patterns apply to PostgreSQL
  with minor dialect changes.

STORAGE SHAPE:
  Documents are keyed rows with scalar columns for everything queries
  filter on (status, reviewer, uploader, transfer target) and JSON
  columns for the nested sequences (possession history, workflow,
  comments, tags). The engine treats the whole document as the unit of
  atomicity, so a single-row upsert is exactly the write the registry
  needs.

KEY TABLES:
  documents:      One row per document, JSON blobs for nested state
  notifications:  Append + mark-read, keyed by recipient
  users:          The organizational directory

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block
  and crash recovery is cleaner.

USAGE:
  store, err := sqlite.New("./data/custody.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a versioned
  migration tool instead.

SEE ALSO:
  - custody/store.go: Port definitions
  - custody/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/custody-engine/custody"
)

// Store implements the custody storage ports using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		doc_type TEXT NOT NULL,
		category TEXT,
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		uploaded_by TEXT NOT NULL,
		uploaded_at TEXT NOT NULL,
		reviewer TEXT NOT NULL,
		due_date TEXT,
		file_size INTEGER NOT NULL,
		file_name TEXT NOT NULL,
		tags_json TEXT NOT NULL,
		possession_type TEXT NOT NULL,
		current_possession_json TEXT NOT NULL,
		possession_history_json TEXT NOT NULL,
		target_destination TEXT,
		awaiting_acceptance BOOLEAN NOT NULL DEFAULT FALSE,
		workflow_json TEXT NOT NULL,
		comments_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_status
		ON documents(status);
	CREATE INDEX IF NOT EXISTS idx_documents_reviewer
		ON documents(reviewer);
	CREATE INDEX IF NOT EXISTS idx_documents_uploaded_by
		ON documents(uploaded_by);
	CREATE INDEX IF NOT EXISTS idx_documents_target
		ON documents(target_destination) WHERE target_destination IS NOT NULL;

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		kind TEXT NOT NULL,
		document_id TEXT,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		timestamp TEXT NOT NULL,
		action_required BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user
		ON notifications(user_id, timestamp DESC);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DOCUMENT STORE
// =============================================================================

const documentColumns = `id, title, description, doc_type, category, status, priority,
	uploaded_by, uploaded_at, reviewer, due_date, file_size, file_name,
	tags_json, possession_type, current_possession_json,
	possession_history_json, target_destination, awaiting_acceptance,
	workflow_json, comments_json`

func (s *Store) Get(ctx context.Context, id custody.DocumentID) (*custody.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, string(id))

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

func (s *Store) GetAll(ctx context.Context) ([]*custody.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*custody.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, doc *custody.Document) error {
	tagsJSON, err := json.Marshal(doc.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	currentJSON, err := json.Marshal(doc.CurrentPossession)
	if err != nil {
		return fmt.Errorf("marshal current possession: %w", err)
	}
	historyJSON, err := json.Marshal(doc.PossessionHistory)
	if err != nil {
		return fmt.Errorf("marshal possession history: %w", err)
	}
	workflowJSON, err := json.Marshal(doc.Workflow)
	if err != nil {
		return fmt.Errorf("marshal workflow: %w", err)
	}
	commentsJSON, err := json.Marshal(doc.Comments)
	if err != nil {
		return fmt.Errorf("marshal comments: %w", err)
	}

	var dueDate any
	if doc.DueDate != nil {
		dueDate = doc.DueDate.Format(time.RFC3339Nano)
	}
	var target any
	if doc.TargetDestination != "" {
		target = string(doc.TargetDestination)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			doc_type = excluded.doc_type,
			category = excluded.category,
			status = excluded.status,
			priority = excluded.priority,
			reviewer = excluded.reviewer,
			due_date = excluded.due_date,
			file_size = excluded.file_size,
			file_name = excluded.file_name,
			tags_json = excluded.tags_json,
			possession_type = excluded.possession_type,
			current_possession_json = excluded.current_possession_json,
			possession_history_json = excluded.possession_history_json,
			target_destination = excluded.target_destination,
			awaiting_acceptance = excluded.awaiting_acceptance,
			workflow_json = excluded.workflow_json,
			comments_json = excluded.comments_json`,
		string(doc.ID), doc.Title, doc.Description, string(doc.Type), doc.Category,
		string(doc.Status), string(doc.Priority), string(doc.UploadedBy),
		doc.UploadedAt.Format(time.RFC3339Nano), string(doc.Reviewer), dueDate,
		doc.FileSize, doc.FileName, string(tagsJSON), string(doc.PossessionType),
		string(currentJSON), string(historyJSON), target, doc.AwaitingAcceptance,
		string(workflowJSON), string(commentsJSON))
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*custody.Document, error) {
	var (
		doc                            custody.Document
		id                             string
		docType, status, priority      string
		uploadedBy, reviewer, possType string
		uploadedAt                     string
		dueDate, target                sql.NullString
		tagsJSON, currentJSON          string
		historyJSON                    string
		workflowJSON, commentsJSON     string
	)

	err := row.Scan(&id, &doc.Title, &doc.Description, &docType, &doc.Category,
		&status, &priority, &uploadedBy, &uploadedAt, &reviewer, &dueDate,
		&doc.FileSize, &doc.FileName, &tagsJSON, &possType, &currentJSON,
		&historyJSON, &target, &doc.AwaitingAcceptance, &workflowJSON, &commentsJSON)
	if err != nil {
		return nil, err
	}

	doc.ID = custody.DocumentID(id)
	doc.Type = custody.DocumentType(docType)
	doc.Status = custody.DocumentStatus(status)
	doc.Priority = custody.Priority(priority)
	doc.UploadedBy = custody.UserID(uploadedBy)
	doc.Reviewer = custody.UserID(reviewer)
	doc.PossessionType = custody.PossessionType(possType)
	if target.Valid {
		doc.TargetDestination = custody.UserID(target.String)
	}

	doc.UploadedAt, err = time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("parse uploaded_at: %w", err)
	}
	if dueDate.Valid {
		due, err := time.Parse(time.RFC3339Nano, dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse due_date: %w", err)
		}
		doc.DueDate = &due
	}

	if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(currentJSON), &doc.CurrentPossession); err != nil {
		return nil, fmt.Errorf("unmarshal current possession: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &doc.PossessionHistory); err != nil {
		return nil, fmt.Errorf("unmarshal possession history: %w", err)
	}
	if err := json.Unmarshal([]byte(workflowJSON), &doc.Workflow); err != nil {
		return nil, fmt.Errorf("unmarshal workflow: %w", err)
	}
	if err := json.Unmarshal([]byte(commentsJSON), &doc.Comments); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}
	return &doc, nil
}

// =============================================================================
// NOTIFICATION STORE
// =============================================================================

func (s *Store) Append(ctx context.Context, n custody.Notification) error {
	var docID any
	if n.DocumentID != "" {
		docID = string(n.DocumentID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, kind, document_id, read, timestamp, action_required)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.UserID), n.Title, n.Message, string(n.Type), docID,
		n.Read, n.Timestamp.Format(time.RFC3339Nano), n.ActionRequired)
	return err
}

func (s *Store) ByUser(ctx context.Context, userID custody.UserID) ([]custody.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, kind, document_id, read, timestamp, action_required
		FROM notifications WHERE user_id = ? ORDER BY timestamp DESC`, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []custody.Notification
	for rows.Next() {
		var (
			n         custody.Notification
			uid, kind string
			docID     sql.NullString
			ts        string
		)
		if err := rows.Scan(&n.ID, &uid, &n.Title, &n.Message, &kind, &docID, &n.Read, &ts, &n.ActionRequired); err != nil {
			return nil, err
		}
		n.UserID = custody.UserID(uid)
		n.Type = custody.NotificationType(kind)
		if docID.Valid {
			n.DocumentID = custody.DocumentID(docID.String)
		}
		n.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, notificationID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = ?`, notificationID)
	return err
}

// =============================================================================
// USER DIRECTORY
// =============================================================================

// SaveUser inserts or updates a directory entry. Used by seeding; the
// engine itself only reads the directory.
func (s *Store) SaveUser(ctx context.Context, u custody.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, role = excluded.role`,
		string(u.ID), u.Name, u.Email, string(u.Role))
	return err
}

func (s *Store) GetUser(ctx context.Context, id custody.UserID) (*custody.User, error) {
	var u custody.User
	var uid, role string
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email, role FROM users WHERE id = ?`, string(id)).
		Scan(&uid, &u.Name, &u.Email, &role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.ID = custody.UserID(uid)
	u.Role = custody.Role(role)
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]custody.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, role FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []custody.User
	for rows.Next() {
		var u custody.User
		var uid, role string
		if err := rows.Scan(&uid, &u.Name, &u.Email, &role); err != nil {
			return nil, err
		}
		u.ID = custody.UserID(uid)
		u.Role = custody.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

// Directory adapts the store to custody.UserDirectory, whose method
// names collide with the document store's.
type Directory struct {
	*Store
}

func (d Directory) Get(ctx context.Context, id custody.UserID) (*custody.User, error) {
	return d.GetUser(ctx, id)
}

func (d Directory) List(ctx context.Context) ([]custody.User, error) {
	return d.ListUsers(ctx)
}
